package test

import (
	"competition-portal/config"
	"competition-portal/internal/global/certificate"
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/storage"
	"competition-portal/internal/global/validate"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB 为每个测试创建独立的 sqlite 文件库并完成迁移，同时替换 database.DB。
// 同一进程内的并发测试共享 database.DB，使用者不要调用 t.Parallel
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validate.Init()

	cfg := config.Default()
	cfg.Mode = config.ModeRelease
	cfg.Storage.Home = t.TempDir()
	config.Set(cfg)

	db, err := database.Open(config.Database{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}, config.ModeRelease)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	database.DB = db
	storage.Default = storage.NewLocal(cfg.Storage.Home)
	if certificate.Default == nil {
		require.NoError(t, certificate.Init())
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
