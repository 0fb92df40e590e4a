package final

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/tools"
	"time"

	"github.com/gin-gonic/gin"
)

func paramID(c *gin.Context, what string) (uint, bool) {
	id, err := tools.ParamUint(c, "id")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips(what+"ID无效"))
		return 0, false
	}
	return id, true
}

func RecomputeFinalists(c *gin.Context) {
	id, ok := paramID(c, "竞赛")
	if !ok {
		return
	}
	ranking, err := Recompute(c.Request.Context(), database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	finalists := 0
	for _, r := range ranking {
		if r.IsFinal {
			finalists++
		}
	}
	log.Info("重新计算决赛名单", "competition_id", id, "ranked", len(ranking), "finalists", finalists)
	response.Success(c, ranking)
}

func ListFinalists(c *gin.Context) {
	id, ok := paramID(c, "竞赛")
	if !ok {
		return
	}
	items, err := Finalists(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, items)
}

func DrawOrder(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := paramID(c, "项目")
	if !ok {
		return
	}
	order, err := Draw(c.Request.Context(), database.DB, id, payload.UserID, time.Now())
	if err != nil {
		log.Warn("抽签失败", "project_id", id, "user_id", payload.UserID, "error", err)
		response.Fail(c, err)
		return
	}
	log.Info("抽取答辩顺序", "project_id", id, "order", order, "user_id", payload.UserID)
	response.Success(c, gin.H{"defense_order": order})
}

type OrderReq struct {
	DefenseOrder int `json:"defense_order" binding:"required,min=1"`
}

func SetOrder(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := paramID(c, "项目")
	if !ok {
		return
	}
	var req OrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	swapped, err := Assign(c.Request.Context(), database.DB, id, req.DefenseOrder)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("调整答辩顺序", "project_id", id, "order", req.DefenseOrder, "swapped_with", swapped, "user_id", payload.UserID)
	response.Success(c, gin.H{"defense_order": req.DefenseOrder, "swapped_project_id": swapped})
}

func AutofillOrders(c *gin.Context) {
	id, ok := paramID(c, "竞赛")
	if !ok {
		return
	}
	n, err := Autofill(c.Request.Context(), database.DB, id, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("补齐答辩顺序", "competition_id", id, "filled", n)
	response.Success(c, gin.H{"filled": n})
}

func ExportFinalists(c *gin.Context) {
	id, ok := paramID(c, "竞赛")
	if !ok {
		return
	}
	items, err := Finalists(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	data, err := tools.ExcelBytes(tools.Sheet{Name: "决赛名单", Rows: rowsOf(items)})
	if err != nil {
		log.Error("导出决赛名单失败", "competition_id", id, "error", err)
		response.Fail(c, response.ErrServerInternal.WithTips("导出失败").WithOrigin(err))
		return
	}
	tools.SendBytes(c, data, "决赛名单_"+time.Now().Format("20060102_150405")+".xlsx", tools.ExcelContentType)
}

type finalistRow struct {
	DefenseOrder *int    `excel:"答辩顺序"`
	ProjectID    uint    `excel:"项目ID"`
	Title        string  `excel:"项目名称"`
	TeamName     string  `excel:"队伍"`
	Leader       string  `excel:"队长"`
	PushCollege  string  `excel:"推送学院"`
	Mean         float64 `excel:"平均分"`
	Count        int     `excel:"评分数"`
	Award        string  `excel:"奖项"`
}

func rowsOf(items []FinalistItem) []finalistRow {
	rows := make([]finalistRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, finalistRow{
			DefenseOrder: it.DefenseOrder,
			ProjectID:    it.ProjectID,
			Title:        it.Title,
			TeamName:     it.TeamName,
			Leader:       it.Leader,
			PushCollege:  it.PushCollege,
			Mean:         it.Mean,
			Count:        it.Count,
			Award:        it.Award,
		})
	}
	return rows
}
