package project

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/internal/global/storage"
	"competition-portal/internal/model"
	"competition-portal/tools"
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

func projectID(c *gin.Context) (uint, bool) {
	id, err := tools.ParamUint(c, "id")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("项目ID无效"))
		return 0, false
	}
	return id, true
}

func CreateProject(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	var req CreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	var leader model.User
	if err := database.DB.First(&leader, payload.UserID).Error; err != nil {
		response.Fail(c, response.ErrDatabase.WithOrigin(err))
		return
	}

	p, err := Create(database.DB, req, &leader, time.Now())
	if err != nil {
		log.Warn("创建项目失败", "competition_id", req.CompetitionID, "user_id", leader.ID, "error", err)
		response.Fail(c, err)
		return
	}
	log.Info("创建项目", "project_id", p.ID, "competition_id", p.CompetitionID, "leader_id", p.LeaderID)
	response.Success(c, p)
}

func UpdateProject(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req Fields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	p, err := Update(database.DB, id, req, payload.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("更新项目", "project_id", id, "user_id", payload.UserID)
	response.Success(c, p)
}

func DeleteProject(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	keys, err := Delete(database.DB, id, payload.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	removeStored(c.Request.Context(), keys)
	log.Info("删除项目", "project_id", id, "user_id", payload.UserID, "files", len(keys))
	response.Success(c)
}

// removeStored 在记录删除提交后清理文件，失败只记日志
func removeStored(ctx context.Context, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := storage.Default.Remove(ctx, key); err != nil {
			log.Warn("删除文件失败", "key", key, "error", err)
		}
	}
}

func MyProjects(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	projects, err := Mine(database.DB, payload.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, projects)
}

type DetailResp struct {
	*model.Project
	StatusLabel  string `json:"status_label"`
	IsLeader     bool   `json:"is_leader"`
	AllConfirmed bool   `json:"all_confirmed"`
}

func GetProject(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	p, err := Detail(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := CanView(database.DB, p, payload); err != nil {
		response.Fail(c, err)
		return
	}

	confirmed := true
	for _, m := range p.Members {
		if !m.IsConfirmed {
			confirmed = false
			break
		}
	}
	response.Success(c, DetailResp{
		Project:      p,
		StatusLabel:  p.Status.Label(),
		IsLeader:     p.LeaderID == payload.UserID,
		AllConfirmed: confirmed,
	})
}

func ReplaceMembers(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req MembersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	members, err := ReplaceMembersOf(database.DB, id, req, payload.UserID, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("更新项目成员", "project_id", id, "members", len(members))
	response.Success(c, members)
}

func ConfirmMembership(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	if err := Confirm(database.DB, id, payload.UserID, time.Now()); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("成员确认参与", "project_id", id, "user_id", payload.UserID)
	response.Success(c)
}
