package middleware

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// Auth 校验 Bearer token，并确认账号仍然有效、激活角色仍被持有
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取 Authorization 头
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Fail(c, response.ErrTokenInvalid)
			return
		}

		// 检查 Bearer 前缀并提取 token
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.ErrTokenInvalid)
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		// 解析 token
		payload, valid := jwt.ParseToken(token)
		if !valid {
			response.Fail(c, response.ErrTokenInvalid)
			return
		}

		var user model.User
		if err := database.DB.Select("id", "role", "granted_roles", "college", "is_active").
			First(&user, payload.UserID).Error; err != nil {
			response.Fail(c, response.ErrTokenInvalid.WithOrigin(err))
			return
		}
		if !user.IsActive {
			response.Fail(c, response.ErrAccountDisabled)
			return
		}
		if !user.HasRole(payload.ActiveRole) {
			response.Fail(c, response.ErrUnauthorized.WithTips("角色已被收回，请重新登录"))
			return
		}
		// 学院以数据库为准，管理员调整学院后旧 token 立即生效
		payload.College = user.College

		jwt.SetUserPayload(c, payload)
		c.Next()
	}
}

// RequireRole 要求当前激活角色属于 roles 之一
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, ok := jwt.GetUserPayload(c)
		if !ok {
			response.Fail(c, response.ErrTokenInvalid)
			return
		}
		if !slices.Contains(roles, payload.ActiveRole) {
			response.Fail(c, response.ErrForbidden.WithTips("需要"+roleLabels(roles)+"身份"))
			return
		}
		c.Next()
	}
}

func roleLabels(roles []model.Role) string {
	labels := make([]string, len(roles))
	for i, r := range roles {
		labels[i] = r.Label()
	}
	return strings.Join(labels, "或")
}
