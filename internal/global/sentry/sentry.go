package sentry

import (
	"competition-portal/config"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Enabled 未配置 DSN 时所有上报与追踪都是空操作
func Enabled() bool {
	return config.Get().Sentry.Dsn != ""
}

func Init() error {
	cfg := config.Get()
	if !Enabled() {
		return nil
	}

	// 性能追踪采样率，错误事件始终全量上报
	tracesSampleRate := cfg.Sentry.SampleRate
	if tracesSampleRate <= 0 {
		tracesSampleRate = 1.0
	}
	environment := cfg.Sentry.Environment
	if environment == "" {
		environment = string(cfg.Mode)
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.Dsn,
		Environment:      environment,
		Release:          "competition-portal@1.0.0",
		SampleRate:       1.0,
		EnableTracing:    true,
		TracesSampleRate: tracesSampleRate,
		EnableLogs:       true,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	return nil
}

// Middleware 未启用时返回空中间件
func Middleware() gin.HandlerFunc {
	if !Enabled() {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return sentrygin.New(sentrygin.Options{
		Repanic:         true, // 交给后续的 Recovery 中间件
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

func Flush(timeout time.Duration) {
	if Enabled() {
		sentry.Flush(timeout)
	}
}

func slowThreshold() time.Duration {
	return time.Duration(config.Get().Sentry.SlowQueryMs) * time.Millisecond
}

// finish 结束 span，未达到慢阈值的不上报
func finish(span *sentry.Span, elapsed time.Duration, err error) {
	if t := slowThreshold(); t > 0 && elapsed < t {
		span.Sampled = sentry.SampledFalse
	}
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetData("error", err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Finish()
}
