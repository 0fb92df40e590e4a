package final

import (
	"competition-portal/internal/global/middleware"
	"competition-portal/internal/model"

	"github.com/gin-gonic/gin"
)

func (m *ModuleFinal) InitRouter(r *gin.RouterGroup) {
	finalGroup := r.Group("/final", middleware.Auth())

	// 学生抽取答辩顺序
	finalGroup.POST("/project/:id/draw", middleware.RequireRole(model.RoleStudent), DrawOrder)

	admin := finalGroup.Group("", middleware.RequireRole(model.RoleSchoolAdmin))
	{
		admin.POST("/competition/:id/recompute", RecomputeFinalists)
		admin.GET("/competition/:id/finalists", ListFinalists)
		admin.GET("/competition/:id/export", ExportFinalists)
		admin.POST("/competition/:id/autofill", AutofillOrders)
		admin.PUT("/project/:id/order", SetOrder)
	}
}
