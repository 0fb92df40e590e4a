package competition

import (
	"competition-portal/internal/global/middleware"
	"competition-portal/internal/model"

	"github.com/gin-gonic/gin"
)

func (m *ModuleCompetition) InitRouter(r *gin.RouterGroup) {
	competitionGroup := r.Group("/competition", middleware.Auth())

	// 非校级管理员只能看到已发布且有效的竞赛
	competitionGroup.GET("/list", ListCompetitions)
	competitionGroup.GET("/:id", GetCompetition)
	competitionGroup.GET("/:id/qrcode", GetQRCode)

	admin := competitionGroup.Group("", middleware.RequireRole(model.RoleSchoolAdmin))
	{
		admin.POST("/create", CreateCompetition)
		admin.PUT("/:id", UpdateCompetition)
		admin.POST("/:id/publish/toggle", TogglePublish)
		admin.DELETE("/:id", DeleteCompetition)
		admin.POST("/:id/qrcode", UploadQRCode)
	}
}
