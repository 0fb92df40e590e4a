package response

import (
	"competition-portal/config"
	"competition-portal/internal/global/logger"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

type ResponseBody struct {
	Code   int32  `json:"code"`
	Msg    string `json:"msg"`
	Origin string `json:"origin,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data ...any) {
	body := ResponseBody{Code: 200, Msg: "success"}
	if len(data) > 0 {
		body.Data = data[0]
	}
	c.Set(ResponseContextKey, body)
	c.JSON(http.StatusOK, body)
}

func Fail(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = ErrServerInternal.WithOrigin(err)
	}
	body := ResponseBody{Code: e.Code, Msg: e.Message}
	// 只在 debug 模式下把原始错误返回给前端
	if config.Get().Mode == config.ModeDebug {
		body.Origin = e.Origin
	}
	c.Set(ErrorContextKey, e)
	c.Set(ResponseContextKey, body)
	if e.Code >= 50000 {
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(e)
		}
	}
	c.AbortWithStatusJSON(e.HTTPStatus(), body)
}

// Recovery 在 defer 中调用，把 panic 转成 500 响应
func Recovery(c *gin.Context) {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	logger.Get().Error("请求处理发生 panic", "error", err, "path", c.Request.URL.Path, "stack", string(debug.Stack()))
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.RecoverWithContext(c.Request.Context(), r)
	} else {
		sentry.CurrentHub().Recover(r)
	}
	Fail(c, ErrServerInternal.WithOrigin(err))
}
