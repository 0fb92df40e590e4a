package response

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

const (
	// ErrorContextKey 失败时写入 gin.Context 的 *Error，日志中间件读取
	ErrorContextKey = "error"
	// ResponseContextKey 最终响应体，Sentry 上报时附带
	ResponseContextKey = "response_body"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Error 业务错误。Code 决定 HTTP 状态，cause 保留原始错误链供 Sentry 取堆栈
type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"msg"`
	Origin  string `json:"origin"`

	cause error
}

func newError(code int32, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func (e *Error) Error() string {
	return fmt.Sprintf("code:%d, msg:%s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// StackTrace 透传原始错误的堆栈
func (e *Error) StackTrace() pkgerrors.StackTrace {
	if st, ok := e.cause.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

// Is 按错误码比较，WithTips/WithOrigin 派生出的错误与原错误相等
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) clone() *Error {
	c := *e
	return &c
}

// WithOrigin 记录原始错误，只在 debug 模式下返回给前端
func (e *Error) WithOrigin(err error) *Error {
	if err == nil {
		return e
	}
	if _, ok := err.(stackTracer); !ok {
		err = pkgerrors.WithStack(err)
	}
	c := e.clone()
	c.Origin = fmt.Sprintf("%+v", err)
	c.cause = err
	return c
}

// WithTips 追加给用户看的提示，release 模式同样可见
func (e *Error) WithTips(details ...string) *Error {
	if len(details) == 0 {
		return e
	}
	c := e.clone()
	c.Message = e.Message + "：" + strings.Join(details, "，")
	return c
}

func (e *Error) WithTipsf(format string, args ...any) *Error {
	return e.WithTips(fmt.Sprintf(format, args...))
}

// From 把任意错误归一为 *Error，未知错误按 fallback 处理
func From(err error, fallback *Error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return fallback.WithOrigin(err)
}
