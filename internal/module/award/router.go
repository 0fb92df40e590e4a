package award

import (
	"competition-portal/internal/global/middleware"
	"competition-portal/internal/model"

	"github.com/gin-gonic/gin"
)

func (m *ModuleAward) InitRouter(r *gin.RouterGroup) {
	awardGroup := r.Group("/award", middleware.Auth())

	// 证书与获奖材料按项目归属校验
	awardGroup.GET("/project/:id/certificate", DownloadCertificate)
	awardGroup.GET("/project/:id/external", ListExternal)
	awardGroup.GET("/project/:id/external/:award_id/evidence", DownloadEvidence)

	student := awardGroup.Group("", middleware.RequireRole(model.RoleStudent))
	{
		student.POST("/project/:id/external", UploadExternal)
		student.DELETE("/project/:id/external/:award_id", DeleteExternal)
	}

	admin := awardGroup.Group("", middleware.RequireRole(model.RoleSchoolAdmin))
	{
		admin.PUT("/project/:id", SetAward)
		admin.DELETE("/project/:id", ClearAward)
		admin.PUT("/project/:id/collection", ToggleCollection)
		admin.GET("/competition/:id", ListAwards)
	}
}
