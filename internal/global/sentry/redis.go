package sentry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
)

// RedisHook 追踪单条 Redis 命令；redis.Nil 不视为错误
type RedisHook struct{}

func (RedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (RedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		parent := sentry.SpanFromContext(ctx)
		if parent == nil {
			return next(ctx, cmd)
		}
		span := parent.StartChild("db.redis")
		span.Description = strings.ToUpper(cmd.Name())
		span.SetData("db.system", "redis")

		start := time.Now()
		err := next(span.Context(), cmd)
		reported := err
		if errors.Is(err, redis.Nil) {
			reported = nil
		}
		finish(span, time.Since(start), reported)
		return err
	}
}

func (RedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}
