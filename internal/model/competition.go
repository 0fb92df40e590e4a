package model

import (
	"strings"
	"time"
)

const (
	CompetitionRedTravel    = `中国国际大学生创新大赛"青年红色筑梦之旅"赛道`
	CompetitionChallengeCup = `"挑战杯"全国大学生课外学术科技作品竞赛`
	CompetitionStartupPlan  = `"挑战杯"中国大学生创业计划大赛`

	challengeCupKeyword = "挑战杯"
	redTravelKeyword    = "红色筑梦之旅"
)

var CompetitionTypes = []string{CompetitionRedTravel, CompetitionChallengeCup, CompetitionStartupPlan}

type Competition struct {
	Model
	Name              string     `gorm:"type:varchar(200);not null" json:"name"`
	Year              int        `gorm:"not null;index" json:"year"`
	CompetitionType   string     `gorm:"type:varchar(100);not null" json:"competition_type"`
	Description       string     `gorm:"type:text" json:"description"`
	RegistrationStart *time.Time `json:"registration_start"`
	RegistrationEnd   *time.Time `json:"registration_end"`
	IsPublished       bool       `gorm:"not null" json:"is_published"`
	IsActive          bool       `gorm:"not null" json:"is_active"`
	FinalQuota        *int       `json:"final_quota"`
	DefenseOrderStart *time.Time `json:"defense_order_start"`
	DefenseOrderEnd   *time.Time `json:"defense_order_end"`
	QQGroupNumber     string     `gorm:"type:varchar(32)" json:"qq_group_number"`
	QQGroupQRCode     string     `gorm:"type:varchar(255)" json:"qq_group_qrcode"`
	CreatedByID       uint       `json:"created_by_id"`
}

// RegistrationOpen 未设置的一端视为不限
func (c *Competition) RegistrationOpen(now time.Time) bool {
	if c.RegistrationStart != nil && now.Before(*c.RegistrationStart) {
		return false
	}
	if c.RegistrationEnd != nil && now.After(*c.RegistrationEnd) {
		return false
	}
	return true
}

// DrawWindowOpen 抽签窗口必须两端都已设置
func (c *Competition) DrawWindowOpen(now time.Time) bool {
	if c.DefenseOrderStart == nil || c.DefenseOrderEnd == nil {
		return false
	}
	return !now.Before(*c.DefenseOrderStart) && !now.After(*c.DefenseOrderEnd)
}

func (c *Competition) DrawWindowClosed(now time.Time) bool {
	return c.DefenseOrderEnd != nil && now.After(*c.DefenseOrderEnd)
}

// Track 评估统计所属的赛道
type Track string

const (
	TrackNone         Track = ""
	TrackChallengeCup Track = "challenge_cup"
	TrackRedTravel    Track = "red_travel"
)

// TrackOf 挑战杯系列归为一组，红色筑梦之旅单独一组
func TrackOf(competitionType string) Track {
	switch {
	case strings.Contains(competitionType, redTravelKeyword):
		return TrackRedTravel
	case strings.Contains(competitionType, challengeCupKeyword):
		return TrackChallengeCup
	}
	return TrackNone
}
