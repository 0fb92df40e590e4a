package review

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/internal/workflow"
	"competition-portal/tools"
	"time"

	"github.com/gin-gonic/gin"
)

type DecisionReq struct {
	Action  string `json:"action" binding:"required,oneof=approve reject"`
	Comment string `json:"comment" binding:"max=2000"`
}

func projectID(c *gin.Context) (uint, bool) {
	id, err := tools.ParamUint(c, "id")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("项目ID无效"))
		return 0, false
	}
	return id, true
}

func apply(c *gin.Context, action workflow.Action, comment string) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	p, err := Apply(database.DB, id, action, payload.Actor(), comment, time.Now())
	if err != nil {
		log.Warn("审核操作被拒绝", "project_id", id, "action", action, "user_id", payload.UserID, "error", err)
		response.Fail(c, err)
		return
	}
	log.Info("项目状态变更", "project_id", id, "action", action, "status", p.Status, "user_id", payload.UserID)
	response.Success(c, p)
}

// Submit 草稿提交或学院退回后重新提交
func Submit(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var p model.Project
	if err := database.DB.Select("id", "status").First(&p, id).Error; err != nil {
		if database.IsNotFound(err) {
			response.Fail(c, response.ErrNotFound.WithTips("项目不存在"))
			return
		}
		response.Fail(c, response.ErrDatabase.WithOrigin(err))
		return
	}
	apply(c, workflow.SubmitAction(p.Status), "")
}

func decision(c *gin.Context, approve, reject workflow.Action) {
	var req DecisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	action := approve
	if req.Action == "reject" {
		action = reject
	}
	apply(c, action, req.Comment)
}

func CollegeReview(c *gin.Context) {
	decision(c, workflow.ActionCollegeApprove, workflow.ActionCollegeReject)
}

func SchoolReview(c *gin.Context) {
	decision(c, workflow.ActionFinalApprove, workflow.ActionFinalReject)
}

// collegeOf 学院管理员必须设置了学院
func collegeOf(c *gin.Context) (string, bool) {
	payload, _ := jwt.GetUserPayload(c)
	if payload.College == "" {
		response.Fail(c, response.ErrForbidden.WithTips("账号未设置学院信息，请联系管理员"))
		return "", false
	}
	return payload.College, true
}

func list(c *gin.Context, statuses []model.ReviewStatus, college string) ([]model.Project, bool) {
	var req ListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return nil, false
	}
	projects, err := List(database.DB, req, statuses, college)
	if err != nil {
		response.Fail(c, err)
		return nil, false
	}
	return projects, true
}

// CollegeQueue 推送到本院、待审核或已退回的项目
func CollegeQueue(c *gin.Context) {
	college, ok := collegeOf(c)
	if !ok {
		return
	}
	if projects, ok := list(c, workflow.CollegeQueue(), college); ok {
		response.Success(c, projects)
	}
}

// CollegeProjects 本院已通过学院审核的项目
func CollegeProjects(c *gin.Context) {
	college, ok := collegeOf(c)
	if !ok {
		return
	}
	if projects, ok := list(c, reviewedStatuses, college); ok {
		response.Success(c, projects)
	}
}

func SchoolQueue(c *gin.Context) {
	if projects, ok := list(c, workflow.SchoolQueue(), ""); ok {
		response.Success(c, projects)
	}
}

func SchoolProjects(c *gin.Context) {
	if projects, ok := list(c, reviewedStatuses, ""); ok {
		response.Success(c, projects)
	}
}

// CollegeExport 导出推送到本院的全部项目
func CollegeExport(c *gin.Context) {
	college, ok := collegeOf(c)
	if !ok {
		return
	}
	export(c, nil, college, college+"_项目数据导出")
}

func SchoolExport(c *gin.Context) {
	export(c, reviewedStatuses, "", "项目数据导出")
}

func export(c *gin.Context, statuses []model.ReviewStatus, college, name string) {
	projects, ok := list(c, statuses, college)
	if !ok {
		return
	}
	data, err := ExportProjects(database.DB, projects)
	if err != nil {
		log.Error("导出项目失败", "error", err)
		response.Fail(c, response.ErrServerInternal.WithTips("导出失败").WithOrigin(err))
		return
	}
	tools.SendBytes(c, data, name+"_"+time.Now().Format("20060102_150405")+".xlsx", tools.ExcelContentType)
}
