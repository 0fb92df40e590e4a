package project

import (
	"competition-portal/internal/global/middleware"
	"competition-portal/internal/model"

	"github.com/gin-gonic/gin"
)

func (p *ModuleProject) InitRouter(r *gin.RouterGroup) {
	projectGroup := r.Group("/project", middleware.Auth())

	// 详情与附件下载按项目归属再做一次校验
	projectGroup.GET("/:id", GetProject)
	projectGroup.GET("/:id/attachment/:attachment_id", DownloadAttachment)

	checker := projectGroup.Group("", middleware.RequireRole(model.RoleStudent, model.RoleCollegeAdmin, model.RoleSchoolAdmin))
	checker.POST("/:id/attachment/:attachment_id/check", CheckAttachment)

	student := projectGroup.Group("", middleware.RequireRole(model.RoleStudent))
	{
		student.GET("/mine", MyProjects)
		student.POST("/create", CreateProject)
		student.PUT("/:id", UpdateProject)
		student.DELETE("/:id", DeleteProject)
		student.PUT("/:id/members", ReplaceMembers)
		student.POST("/:id/confirm", ConfirmMembership)
		student.POST("/:id/attachment", UploadAttachment)
		student.DELETE("/:id/attachment/:attachment_id", DeleteAttachment)
	}
}
