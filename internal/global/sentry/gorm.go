package sentry

import (
	"time"

	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"
)

const (
	gormSpanKey  = "sentry:span"
	gormStartKey = "sentry:start"
)

// GormPlugin 为每条 SQL 在请求 transaction 下创建子 span，描述只记录表名
type GormPlugin struct {
	System string
}

func (p *GormPlugin) Name() string {
	return "SentryTracingPlugin"
}

func (p *GormPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op        string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
		operation string
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register, "db.sql.create"},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register, "db.sql.query"},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register, "db.sql.update"},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register, "db.sql.delete"},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register, "db.sql.row"},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register, "db.sql.raw"},
	}
	for _, h := range hooks {
		if err := h.before("sentry:before_"+h.op, p.before(h.operation)); err != nil {
			return err
		}
		if err := h.after("sentry:after_"+h.op, p.after); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement == nil || db.Statement.Context == nil {
			return
		}
		parent := sentry.SpanFromContext(db.Statement.Context)
		if parent == nil {
			return
		}
		span := parent.StartChild(operation)
		span.Description = db.Statement.Table
		span.SetData("db.system", p.System)
		db.InstanceSet(gormStartKey, time.Now())
		db.InstanceSet(gormSpanKey, span)
	}
}

func (p *GormPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(gormSpanKey)
	if !ok {
		return
	}
	span, ok := v.(*sentry.Span)
	if !ok || span == nil {
		return
	}
	var elapsed time.Duration
	if start, ok := db.InstanceGet(gormStartKey); ok {
		elapsed = time.Since(start.(time.Time))
	}
	span.SetData("db.rows_affected", db.RowsAffected)
	finish(span, elapsed, db.Error)
}
