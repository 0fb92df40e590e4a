package model

import "time"

// Award 校级奖项，每个项目至多一条
type Award struct {
	Base
	ProjectID       uint      `gorm:"not null;uniqueIndex" json:"project_id"`
	AwardName       string    `gorm:"type:varchar(100);not null" json:"award_name"`
	CertificatePath string    `gorm:"type:varchar(255)" json:"certificate_path"`
	IssuedByID      uint      `json:"issued_by_id"`
	IssuedAt        time.Time `json:"issued_at"`
}

type AwardLevel string

const (
	LevelSchool     AwardLevel = "school"
	LevelProvincial AwardLevel = "provincial"
	LevelNational   AwardLevel = "national"
)

func (l AwardLevel) Label() string {
	switch l {
	case LevelSchool:
		return "校级"
	case LevelProvincial:
		return "省级"
	case LevelNational:
		return "国家级"
	}
	return string(l)
}

// ExternalAward 学生上传的省级、国家级获奖材料，可以有多条
type ExternalAward struct {
	Base
	ProjectID    uint       `gorm:"not null;index" json:"project_id"`
	Level        AwardLevel `gorm:"type:varchar(20);not null" json:"level"`
	AwardName    string     `gorm:"type:varchar(100);not null" json:"award_name"`
	EvidencePath string     `gorm:"type:varchar(255)" json:"-"`
	EvidenceName string     `gorm:"type:varchar(255)" json:"evidence_name"`
	AwardedAt    *time.Time `json:"awarded_at"`
	UploadedByID uint       `json:"uploaded_by_id"`
}
