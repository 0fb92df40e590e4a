package model

// JudgeAssignment 取消分配只置 IsActive=false
type JudgeAssignment struct {
	Base
	JudgeID      uint     `gorm:"not null;uniqueIndex:idx_assignment_judge_project,priority:1" json:"judge_id"`
	ProjectID    uint     `gorm:"not null;index;uniqueIndex:idx_assignment_judge_project,priority:2" json:"project_id"`
	IsActive     bool     `gorm:"not null" json:"is_active"`
	AssignedByID uint     `json:"assigned_by_id"`
	Judge        *User    `gorm:"foreignKey:JudgeID" json:"judge,omitempty"`
	Project      *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// Score 每个评委对每个项目只有一行
type Score struct {
	Base
	ProjectID    uint     `gorm:"not null;uniqueIndex:idx_score_project_judge,priority:1" json:"project_id"`
	JudgeID      uint     `gorm:"not null;index;uniqueIndex:idx_score_project_judge,priority:2" json:"judge_id"`
	Value        float64  `gorm:"not null" json:"score"`
	Innovation   *float64 `json:"innovation_score"`
	Feasibility  *float64 `json:"feasibility_score"`
	SocialValue  *float64 `json:"social_value_score"`
	Presentation *float64 `json:"presentation_score"`
	Comment      string   `gorm:"type:text" json:"comment"`
	Judge        *User    `gorm:"foreignKey:JudgeID" json:"judge,omitempty"`
}
