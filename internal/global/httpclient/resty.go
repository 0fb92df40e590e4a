package httpclient

import (
	"competition-portal/internal/global/sentry"
	"time"

	"github.com/go-resty/resty/v2"
)

// New 创建外部调用使用的 resty 客户端，启用 Sentry 时自动追踪
func New(timeout time.Duration) *resty.Client {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "competition-portal/1.0")
	sentry.TraceResty(client)
	return client
}
