package redis

import (
	"competition-portal/config"
	"competition-portal/internal/global/sentry"
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient 未配置 Redis 时为 nil，调用方需回退到进程内实现
var RedisClient *redis.Client

func Init() error {
	cfg := config.Get().Redis
	if cfg.Host == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if sentry.Enabled() {
		client.AddHook(sentry.RedisHook{})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}
	RedisClient = client
	return nil
}
