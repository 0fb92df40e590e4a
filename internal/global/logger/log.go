package logger

import (
	"competition-portal/config"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	sentryslog "github.com/getsentry/sentry-go/slog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	instance *slog.Logger
	once     sync.Once
)

// fanout 把同一条记录交给多个 handler，用于同时写文件与上报 Sentry
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// output release 模式且配置了文件路径时写入轮转文件，否则写标准输出
func output(cfg *config.Config) io.Writer {
	if cfg.Mode != config.ModeRelease || cfg.Log.FilePath == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
}

func build(cfg *config.Config, w io.Writer) slog.Handler {
	release := cfg.Mode == config.ModeRelease
	opts := &slog.HandlerOptions{
		AddSource: release,
		Level:     parseLevel(cfg.Log.Level),
	}

	var h slog.Handler
	if release {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	if cfg.Sentry.Dsn == "" {
		return h
	}
	// Error 作为事件上报，Warn 及以上进入 Sentry Logs
	sh := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
		AddSource:  release,
	}.NewSentryHandler(context.Background())
	return fanout{h, sh}
}

// Get 全局 Logger，首次调用时按当前配置构造
func Get() *slog.Logger {
	once.Do(func() {
		cfg := config.Get()
		instance = slog.New(build(cfg, output(cfg))).With(
			"app_name", "competition-portal",
			"env", string(cfg.Mode),
		)
	})
	return instance
}

// New 带 module 字段的子 Logger，各模块 Init 时调用
func New(module string) *slog.Logger {
	return Get().With("module", module)
}

// requestContext 是 *gin.Context 中日志需要的部分
type requestContext interface {
	ClientIP() string
	GetHeader(string) string
	Get(key string) (any, bool)
}

// principal 由 jwt.Claims 实现，避免 logger 反向依赖 jwt 包
type principal interface {
	LogAttrs() []any
}

// WithContext 附加客户端 IP、代理头与当前登录用户
func WithContext(base *slog.Logger, c requestContext) *slog.Logger {
	l := base.With("client_ip", c.ClientIP())
	for header, key := range map[string]string{
		"X-Forwarded-For": "x_forwarded_for",
		"X-Real-IP":       "x_real_ip",
	} {
		if v := c.GetHeader(header); v != "" {
			l = l.With(key, v)
		}
	}
	if v, ok := c.Get("payload"); ok {
		if p, ok := v.(principal); ok {
			l = l.With(p.LogAttrs()...)
		}
	}
	return l
}

// Reset 丢弃已构造的全局 Logger，配置变化后重新构造
func Reset() {
	once = sync.Once{}
	instance = nil
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}
