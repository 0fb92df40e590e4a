package model

import (
	"time"

	"gorm.io/datatypes"
)

type ReviewStatus string

const (
	StatusDraft           ReviewStatus = "draft"
	StatusSubmitted       ReviewStatus = "submitted"
	StatusCollegeApproved ReviewStatus = "college_approved"
	StatusCollegeRejected ReviewStatus = "college_rejected"
	StatusFinalApproved   ReviewStatus = "final_approved"
	StatusFinalRejected   ReviewStatus = "final_rejected"
)

func (s ReviewStatus) Label() string {
	switch s {
	case StatusDraft:
		return "草稿"
	case StatusSubmitted:
		return "待学院审核"
	case StatusCollegeApproved:
		return "学院审核通过"
	case StatusCollegeRejected:
		return "学院审核未通过"
	case StatusFinalApproved:
		return "学校审核通过"
	case StatusFinalRejected:
		return "学校审核未通过"
	}
	return string(s)
}

// Team 每个竞赛内队名唯一
type Team struct {
	Base
	Name          string `gorm:"type:varchar(100);not null;uniqueIndex:idx_team_competition_name,priority:2" json:"name"`
	CompetitionID uint   `gorm:"not null;uniqueIndex:idx_team_competition_name,priority:1" json:"competition_id"`
	LeaderID      uint   `gorm:"not null;index" json:"leader_id"`
	Leader        *User  `gorm:"foreignKey:LeaderID" json:"leader,omitempty"`
}

type Project struct {
	Base
	Title           string            `gorm:"type:varchar(200);not null" json:"title"`
	CompetitionID   uint              `gorm:"not null;index;uniqueIndex:idx_project_defense_order,priority:1" json:"competition_id"`
	TeamID          uint              `gorm:"not null;index" json:"team_id"`
	LeaderID        uint              `gorm:"not null;index" json:"leader_id"`
	Category        string            `gorm:"type:varchar(100)" json:"category"`
	ProjectType     string            `gorm:"type:varchar(100)" json:"project_type"`
	ProjectField    string            `gorm:"type:varchar(100)" json:"project_field"`
	Description     string            `gorm:"type:text" json:"description"`
	Innovation      string            `gorm:"type:text" json:"innovation"`
	Development     string            `gorm:"type:text" json:"development"`
	AwardsText      string            `gorm:"type:text" json:"awards_text"`
	Extra           datatypes.JSONMap `gorm:"type:json" json:"extra"`
	PushCollege     string            `gorm:"type:varchar(100);not null;index" json:"push_college"`
	InstructorName  string            `gorm:"type:varchar(64)" json:"instructor_name"`
	InstructorTitle string            `gorm:"type:varchar(64)" json:"instructor_title"`
	InstructorPhone string            `gorm:"type:varchar(32)" json:"instructor_phone"`
	InstructorEmail string            `gorm:"type:varchar(128)" json:"instructor_email"`

	Status               ReviewStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	SubmittedAt          *time.Time   `json:"submitted_at"`
	CollegeReviewComment string       `gorm:"type:text" json:"college_review_comment"`
	CollegeReviewerID    *uint        `json:"college_reviewer_id"`
	CollegeReviewedAt    *time.Time   `json:"college_reviewed_at"`
	FinalReviewComment   string       `gorm:"type:text" json:"final_review_comment"`
	FinalReviewerID      *uint        `json:"final_reviewer_id"`
	FinalReviewedAt      *time.Time   `json:"final_reviewed_at"`

	IsFinal              bool `gorm:"not null;index" json:"is_final"`
	DefenseOrder         *int `gorm:"uniqueIndex:idx_project_defense_order,priority:2" json:"defense_order"`
	AllowAwardCollection bool `gorm:"not null" json:"allow_award_collection"`

	Competition *Competition        `gorm:"foreignKey:CompetitionID" json:"competition,omitempty"`
	Team        *Team               `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Members     []ProjectMember     `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Attachments []ProjectAttachment `gorm:"foreignKey:ProjectID" json:"attachments,omitempty"`
	Award       *Award              `gorm:"foreignKey:ProjectID" json:"award,omitempty"`
}

// Editable 仅草稿或学院退回时允许修改内容
func (p *Project) Editable() bool {
	return p.Status == StatusDraft || p.Status == StatusCollegeRejected
}

// ProjectMember 团队成员名册，Order 从 1 开始，队长固定为 1
type ProjectMember struct {
	Base
	ProjectID   uint       `gorm:"not null;index" json:"project_id"`
	Order       int        `gorm:"column:member_order;not null" json:"order"`
	UserID      *uint      `gorm:"index" json:"user_id"`
	Name        string     `gorm:"type:varchar(64);not null" json:"name"`
	WorkID      string     `gorm:"type:varchar(32)" json:"work_id"`
	College     string     `gorm:"type:varchar(100)" json:"college"`
	Phone       string     `gorm:"type:varchar(32)" json:"phone"`
	IsLeader    bool       `gorm:"not null" json:"is_leader"`
	IsConfirmed bool       `gorm:"not null" json:"is_confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
}

type ProjectAttachment struct {
	Base
	ProjectID    uint   `gorm:"not null;index" json:"project_id"`
	FileName     string `gorm:"type:varchar(255);not null" json:"file_name"`
	StoredPath   string `gorm:"type:varchar(255);not null" json:"-"`
	FileType     string `gorm:"type:varchar(32);not null" json:"file_type"`
	FileSize     int64  `gorm:"not null" json:"file_size"`
	UploadedByID uint   `json:"uploaded_by_id"`

	SensitiveChecked bool                        `gorm:"not null" json:"sensitive_checked"`
	HasSensitive     bool                        `gorm:"not null" json:"has_sensitive"`
	DetectedKeywords datatypes.JSONSlice[string] `gorm:"type:json" json:"detected_keywords"`
	SensitiveDetails string                      `gorm:"type:text" json:"sensitive_details"`
	SensitiveError   string                      `gorm:"type:text" json:"sensitive_error"`
	CheckedAt        *time.Time                  `json:"checked_at"`
}
