package model

import (
	"time"

	"gorm.io/gorm"
)

// Model 带软删除，用于账号与竞赛这类需要保留历史的实体
type Model struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Base 不带软删除。参与唯一约束的实体使用它，删除即物理删除
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
