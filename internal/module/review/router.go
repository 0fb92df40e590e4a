package review

import (
	"competition-portal/internal/global/middleware"
	"competition-portal/internal/model"

	"github.com/gin-gonic/gin"
)

func (m *ModuleReview) InitRouter(r *gin.RouterGroup) {
	reviewGroup := r.Group("/review", middleware.Auth())

	// 学生提交与重新提交
	reviewGroup.POST("/submit/:id", middleware.RequireRole(model.RoleStudent), Submit)

	college := reviewGroup.Group("/college", middleware.RequireRole(model.RoleCollegeAdmin))
	{
		college.GET("/queue", CollegeQueue)
		college.GET("/projects", CollegeProjects)
		college.GET("/export", CollegeExport)
		college.POST("/:id", CollegeReview)
	}

	school := reviewGroup.Group("/school", middleware.RequireRole(model.RoleSchoolAdmin))
	{
		school.GET("/queue", SchoolQueue)
		school.GET("/projects", SchoolProjects)
		school.GET("/export", SchoolExport)
		school.POST("/:id", SchoolReview)
	}
}
