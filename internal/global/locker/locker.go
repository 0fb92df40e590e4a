// Package locker 提供按 key 互斥的锁。
// 多实例部署时用 Redis 实现，单机或测试时用进程内实现
package locker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTimeout = errors.New("获取锁超时")

type Locker interface {
	// Lock 阻塞直到获得锁或 ctx 结束，返回的 unlock 必须调用
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

var Default Locker = NewLocal()

// Local 进程内按 key 的互斥锁
type Local struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]chan struct{})}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}

// Redis 基于 SET NX PX 的锁，释放时校验 token 防止误删他人的锁
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, retry: 50 * time.Millisecond}
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	key = "portal:lock:" + key
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = unlockScript.Run(context.Background(), r.client, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-time.After(r.retry):
		case <-ctx.Done():
			return nil, ErrTimeout
		}
	}
}
