package judge

import (
	"competition-portal/internal/global/middleware"
	"competition-portal/internal/model"

	"github.com/gin-gonic/gin"
)

func (m *ModuleJudge) InitRouter(r *gin.RouterGroup) {
	judgeGroup := r.Group("/judge", middleware.Auth())

	admin := judgeGroup.Group("", middleware.RequireRole(model.RoleSchoolAdmin))
	{
		admin.POST("/assign", AssignJudge)
		admin.POST("/unassign", UnassignJudge)
		admin.GET("/project/:id/assignments", ProjectAssignments)
		admin.GET("/project/:id/scores", ProjectScores)
		admin.GET("/export", ExportScores)
	}

	judge := judgeGroup.Group("", middleware.RequireRole(model.RoleJudge))
	{
		judge.GET("/assignments", MyAssignments)
		judge.GET("/score/:id", MyScore)
		judge.POST("/score/:id", SubmitScore)
	}
}
