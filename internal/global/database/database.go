package database

import (
	"competition-portal/config"
	"competition-portal/internal/global/sentry"
	"competition-portal/internal/model"
	"competition-portal/tools"
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

// autoMigrateModels 定义需要自动迁移的模型列表
var autoMigrateModels = []any{
	&model.User{},
	&model.Competition{},
	&model.Team{},
	&model.Project{},
	&model.ProjectMember{},
	&model.ProjectAttachment{},
	&model.JudgeAssignment{},
	&model.Score{},
	&model.Award{},
	&model.ExternalAward{},
	&model.AssessmentConfig{},
}

func Init() {
	db, err := Open(config.Get().Database, config.Get().Mode)
	tools.PanicOnErr(err)
	if sentry.Enabled() {
		tools.PanicOnErr(db.Use(&sentry.GormPlugin{System: db.Dialector.Name()}))
	}
	DB = db

	// 使用模型列表进行自动迁移
	tools.PanicOnErr(Migrate(DB))
}

// Open 按驱动建立连接，不做迁移
func Open(c config.Database, mode config.Mode) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true}, // 还是单数表名好
		// 级联删除在事务里显式完成，sqlite 与 mysql 行为一致
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	switch mode {
	case config.ModeDebug:
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	case config.ModeRelease:
		gormConfig.Logger = logger.Discard
	}

	var dialector gorm.Dialector
	switch c.Driver {
	case "mysql":
		// clientFoundRows 让条件更新的 RowsAffected 按匹配行计数
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
			c.Username,
			c.Password,
			c.Host,
			c.Port,
			c.DBName,
		)
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		// busy_timeout 让并发写入排队而不是立刻失败
		dialector = sqlite.Open(c.Path + "?_busy_timeout=5000&_foreign_keys=off")
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", c.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, err
	}
	if c.Driver != "mysql" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite 只允许单写者
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(autoMigrateModels...)
}

// IsDuplicate 判断是否违反唯一约束
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNotFound 是 gorm.ErrRecordNotFound 的简写
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
