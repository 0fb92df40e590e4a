package judge

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/tools"
	"time"

	"github.com/gin-gonic/gin"
)

type AssignReq struct {
	ProjectID uint `json:"project_id" binding:"required"`
	JudgeID   uint `json:"judge_id" binding:"required"`
}

func projectID(c *gin.Context) (uint, bool) {
	id, err := tools.ParamUint(c, "id")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("项目ID无效"))
		return 0, false
	}
	return id, true
}

func AssignJudge(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	var req AssignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	a, err := Assign(database.DB, req.ProjectID, req.JudgeID, payload.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("分配评委", "project_id", req.ProjectID, "judge_id", req.JudgeID, "user_id", payload.UserID)
	response.Success(c, a)
}

func UnassignJudge(c *gin.Context) {
	var req AssignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	if err := Unassign(database.DB, req.ProjectID, req.JudgeID); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("取消评委分配", "project_id", req.ProjectID, "judge_id", req.JudgeID)
	response.Success(c)
}

func ProjectAssignments(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	list, err := Assignments(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, list)
}

func ProjectScores(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	scores, err := ProjectScoreList(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	stats, err := Stats(database.DB, []uint{id})
	if err != nil {
		response.Fail(c, response.ErrDatabase.WithOrigin(err))
		return
	}
	response.Success(c, gin.H{"scores": scores, "stat": stats[id]})
}

func MyAssignments(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	items, err := Mine(database.DB, payload.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, items)
}

func MyScore(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	s, err := ScoreOf(database.DB, id, payload.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, s)
}

func SubmitScore(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req ScoreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("分数必须在 0 到 100 之间").WithOrigin(err))
		return
	}
	s, err := Submit(database.DB, id, payload.UserID, req, time.Now())
	if err != nil {
		log.Warn("评分被拒绝", "project_id", id, "judge_id", payload.UserID, "error", err)
		response.Fail(c, err)
		return
	}
	log.Info("提交评分", "project_id", id, "judge_id", payload.UserID, "score", s.Value)
	response.Success(c, s)
}

type ExportReq struct {
	CompetitionID uint `form:"competition_id" binding:"required"`
}

func ExportScores(c *gin.Context) {
	var req ExportReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("请选择竞赛").WithOrigin(err))
		return
	}
	data, err := Export(database.DB, req.CompetitionID)
	if err != nil {
		log.Error("导出评分失败", "competition_id", req.CompetitionID, "error", err)
		response.Fail(c, response.From(err, response.ErrServerInternal))
		return
	}
	tools.SendBytes(c, data, "评分汇总_"+time.Now().Format("20060102_150405")+".xlsx", tools.ExcelContentType)
}
