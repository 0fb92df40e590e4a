package server

import (
	"competition-portal/config"
	"competition-portal/internal/global/certificate"
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/detector"
	"competition-portal/internal/global/locker"
	"competition-portal/internal/global/logger"
	"competition-portal/internal/global/middleware"
	"competition-portal/internal/global/redis"
	"competition-portal/internal/global/sentry"
	"competition-portal/internal/global/storage"
	"competition-portal/internal/global/validate"
	"competition-portal/internal/module"
	"competition-portal/tools"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

var log *slog.Logger

// lockTTL 答辩抽签等互斥锁的过期时间，需大于单次事务耗时
const lockTTL = 10 * time.Second

// Setup 初始化配置、日志与各基础设施，命令行子命令共用
func Setup() {
	config.Init()
	log = logger.New("Server")

	tools.PanicOnErr(sentry.Init())
	if sentry.Enabled() {
		log.Info("Sentry Enabled")
	}

	database.Init()

	tools.PanicOnErr(redis.Init())
	if redis.RedisClient != nil {
		log.Info("Redis Enabled, 使用分布式锁")
		locker.Default = locker.NewRedis(redis.RedisClient, lockTTL)
	}

	tools.PanicOnErr(storage.Init())
	validate.Init()
	detector.Init()
	tools.PanicOnErr(certificate.Init())
	tools.PanicOnErr(certificate.RequireCJK(certificate.Default, config.Get().Mode))
}

func Init() {
	Setup()
	for _, m := range module.Modules {
		log.Info(fmt.Sprintf("Init Module: %s", m.GetName()))
		m.Init()
	}
}

func Run() {
	defer sentry.Flush(2 * time.Second)

	gin.SetMode(string(config.Get().Mode))
	r := gin.New()

	r.Use(sentry.Middleware(), middleware.SentryScope())
	switch config.Get().Mode {
	case config.ModeRelease:
		r.Use(middleware.Logger(logger.Get()))
	case config.ModeDebug:
		r.Use(gin.Logger())
	}
	r.Use(middleware.Cors())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())

	for _, m := range module.Modules {
		log.Info(fmt.Sprintf("Init Router: %s", m.GetName()))
		m.InitRouter(r.Group("/" + config.Get().Prefix))
	}
	err := r.Run(config.Get().Host + ":" + config.Get().Port)
	tools.PanicOnErr(err)
}
