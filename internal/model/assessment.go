package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AssessmentConfig 按 (年度, 学院) 录入的任务指标与人工修正值。
// 指针或 Null 字段为空表示沿用统计值
type AssessmentConfig struct {
	Base
	Year    int    `gorm:"not null;uniqueIndex:idx_assessment_year_college,priority:1" json:"year"`
	College string `gorm:"type:varchar(100);not null;uniqueIndex:idx_assessment_year_college,priority:2" json:"college"`

	ChallengeCupTarget *int `json:"challenge_cup_target"`
	RedTravelTarget    *int `json:"red_travel_target"`

	// CountOverrides 以 "challenge_cup.registrations"、"red_travel.provincial.gold" 这样的键覆盖计数
	CountOverrides datatypes.JSONType[map[string]int] `gorm:"type:json" json:"count_overrides"`

	ChallengeCupParticipationScore decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"challenge_cup_participation_score"`
	ChallengeCupAwardScore         decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"challenge_cup_award_score"`
	RedTravelParticipationScore    decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"red_travel_participation_score"`
	RedTravelAwardScore            decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"red_travel_award_score"`
	TotalScore                     decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"total_score"`

	ChallengeCupNote *string `gorm:"type:text" json:"challenge_cup_note"`
	RedTravelNote    *string `gorm:"type:text" json:"red_travel_note"`
	Remark           *string `gorm:"type:text" json:"remark"`
}
