package assessment

import (
	"competition-portal/internal/global/middleware"
	"competition-portal/internal/model"

	"github.com/gin-gonic/gin"
)

func (m *ModuleAssessment) InitRouter(r *gin.RouterGroup) {
	assessmentGroup := r.Group("/assessment", middleware.Auth())

	// 学院管理员只能看到本院
	assessmentGroup.GET("/report", middleware.RequireRole(model.RoleSchoolAdmin, model.RoleCollegeAdmin), GetReport)

	admin := assessmentGroup.Group("", middleware.RequireRole(model.RoleSchoolAdmin))
	{
		admin.GET("/export", ExportReport)
		admin.GET("/configs", ListConfigHandler)
		admin.PUT("/config", SaveConfigHandler)
		admin.DELETE("/config/:id", DeleteConfigHandler)
	}
}
