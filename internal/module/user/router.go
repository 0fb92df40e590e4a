package user

import (
	"competition-portal/internal/global/middleware"
	"competition-portal/internal/model"

	"github.com/gin-gonic/gin"
)

// InitRouter 挂载 /user 下的登录、个人信息与账号管理端点
func (u *ModuleUser) InitRouter(r *gin.RouterGroup) {
	userGroup := r.Group("/user")

	userGroup.POST("/login", Login)
	userGroup.GET("/colleges", ListColleges)

	authed := userGroup.Group("", middleware.Auth())
	{
		authed.GET("/me", Me)
		authed.PUT("/password", ChangePassword)
		authed.POST("/role/switch", SwitchRole)
	}

	// 学院管理员只能看到本院学生
	authed.GET("/students", middleware.RequireRole(model.RoleSchoolAdmin, model.RoleCollegeAdmin), ListStudents)

	admin := authed.Group("", middleware.RequireRole(model.RoleSchoolAdmin))
	{
		admin.POST("/create", CreateUser)
		admin.POST("/import", ImportStudents)
		admin.GET("/college-admins", ListByRole(model.RoleCollegeAdmin))
		admin.GET("/judges", ListByRole(model.RoleJudge))
		admin.PUT("/:id/roles", UpdateGrantedRoles)
		admin.PUT("/:id/active", UpdateActive)
		admin.PUT("/:id/password/reset", ResetPassword)
	}
}
