package jwt

import (
	"competition-portal/internal/model"
	"competition-portal/internal/workflow"

	"github.com/gin-gonic/gin"
)

func GetUserPayload(c *gin.Context) (userPayload *Claims, exist bool) {
	payload, _ := c.Get("payload")
	userPayload, exist = payload.(*Claims)
	return
}

// SetUserPayload 由 Auth 中间件和测试调用
func SetUserPayload(c *gin.Context, claims *Claims) {
	c.Set("payload", claims)
}

// Acting 返回当前激活的角色，未登录时为空
func Acting(c *gin.Context) model.Role {
	if p, ok := GetUserPayload(c); ok {
		return p.ActiveRole
	}
	return ""
}

// Actor 转为审核状态机使用的操作者
func (c *Claims) Actor() workflow.Actor {
	return workflow.Actor{UserID: c.UserID, Role: c.ActiveRole, College: c.College}
}
