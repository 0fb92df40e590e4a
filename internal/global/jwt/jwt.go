package jwt

import (
	"competition-portal/config"
	"competition-portal/internal/model"
	"time"

	"github.com/golang-jwt/jwt"
)

// Payload 登录后携带在 token 中的身份信息，ActiveRole 为当前会话选择的角色
type Payload struct {
	UserID     uint       `json:"user_id"`
	LoginName  string     `json:"login_name"`
	Role       model.Role `json:"role"`
	ActiveRole model.Role `json:"active_role"`
	College    string     `json:"college"`
}

type Claims struct {
	Payload
	jwt.StandardClaims
}

// LogAttrs 供 logger.WithContext 使用
func (c *Claims) LogAttrs() []any {
	return []any{"user_id", c.UserID, "active_role", string(c.ActiveRole)}
}

// PayloadOf 以用户当前数据构造 Payload，active 为空时使用主角色
func PayloadOf(u *model.User, active model.Role) Payload {
	if active == "" {
		active = u.Role
	}
	return Payload{
		UserID:     u.ID,
		LoginName:  u.LoginName(),
		Role:       u.Role,
		ActiveRole: active,
		College:    u.College,
	}
}

func CreateToken(payload Payload) string {
	cfg := config.Get().JWT
	now := time.Now()
	claims := Claims{
		Payload: payload,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(time.Duration(cfg.AccessExpire) * time.Second).Unix(),
			Issuer:    "competition-portal",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.AccessSecret))
	if err != nil {
		panic(err)
	}
	return token
}

func ParseToken(token string) (*Claims, bool) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.Get().JWT.AccessSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}
	if !claims.ActiveRole.Valid() {
		return nil, false
	}
	return claims, true
}
