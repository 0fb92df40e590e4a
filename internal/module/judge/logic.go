package judge

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/internal/module/project"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Assign 分配评委，已取消的分配重新激活
func Assign(db *gorm.DB, projectID, judgeID, assignerID uint) (*model.JudgeAssignment, error) {
	p, err := project.Find(db, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusFinalApproved {
		return nil, response.ErrInvalidState.WithTipsf("项目当前状态为“%s”，只能为学校审核通过的项目分配评委", p.Status.Label())
	}

	var judge model.User
	if err := db.First(&judge, judgeID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("评委不存在")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	if !judge.HasRole(model.RoleJudge) || !judge.IsActive {
		return nil, response.ErrInvalidRequest.WithTips("该用户不是可用的评委账号")
	}

	a := &model.JudgeAssignment{
		JudgeID:      judgeID,
		ProjectID:    projectID,
		IsActive:     true,
		AssignedByID: assignerID,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "judge_id"}, {Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "assigned_by_id", "updated_at"}),
	}).Create(a).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	var saved model.JudgeAssignment
	if err := db.Where("judge_id = ? AND project_id = ?", judgeID, projectID).Preload("Judge").First(&saved).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &saved, nil
}

// Unassign 软删除，已有评分保留但不再计入
func Unassign(db *gorm.DB, projectID, judgeID uint) error {
	result := db.Model(&model.JudgeAssignment{}).
		Where("judge_id = ? AND project_id = ? AND is_active = ?", judgeID, projectID, true).
		Update("is_active", false)
	if result.Error != nil {
		return response.ErrDatabase.WithOrigin(result.Error)
	}
	if result.RowsAffected == 0 {
		return response.ErrNotFound.WithTips("该评委未分配到此项目")
	}
	return nil
}

func IsAssigned(db *gorm.DB, projectID, judgeID uint) (bool, error) {
	var n int64
	err := db.Model(&model.JudgeAssignment{}).
		Where("judge_id = ? AND project_id = ? AND is_active = ?", judgeID, projectID, true).
		Count(&n).Error
	return n > 0, err
}

// Assignments 项目的全部分配，包括已取消的
func Assignments(db *gorm.DB, projectID uint) ([]model.JudgeAssignment, error) {
	list := []model.JudgeAssignment{}
	err := db.Where("project_id = ?", projectID).Preload("Judge").Order("id").Find(&list).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return list, nil
}

type AssignmentItem struct {
	model.JudgeAssignment
	Score *model.Score `json:"my_score"`
}

// Mine 评委当前有效的分配以及自己已提交的评分
func Mine(db *gorm.DB, judgeID uint) ([]AssignmentItem, error) {
	var list []model.JudgeAssignment
	err := db.Where("judge_id = ? AND is_active = ?", judgeID, true).
		Preload("Project.Competition").Preload("Project.Team").
		Order("project_id").Find(&list).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}

	var scores []model.Score
	if err := db.Where("judge_id = ?", judgeID).Find(&scores).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	byProject := make(map[uint]*model.Score, len(scores))
	for i := range scores {
		byProject[scores[i].ProjectID] = &scores[i]
	}

	items := make([]AssignmentItem, 0, len(list))
	for _, a := range list {
		items = append(items, AssignmentItem{JudgeAssignment: a, Score: byProject[a.ProjectID]})
	}
	return items, nil
}

type ScoreReq struct {
	Score        *float64 `json:"score" binding:"required,gte=0,lte=100"`
	Innovation   *float64 `json:"innovation_score" binding:"omitempty,gte=0,lte=100"`
	Feasibility  *float64 `json:"feasibility_score" binding:"omitempty,gte=0,lte=100"`
	SocialValue  *float64 `json:"social_value_score" binding:"omitempty,gte=0,lte=100"`
	Presentation *float64 `json:"presentation_score" binding:"omitempty,gte=0,lte=100"`
	Comment      string   `json:"comment" binding:"max=2000"`
}

func (r *ScoreReq) check() error {
	for _, v := range []*float64{r.Score, r.Innovation, r.Feasibility, r.SocialValue, r.Presentation} {
		if v != nil && (*v < 0 || *v > 100) {
			return response.ErrInvalidRequest.WithTips("分数必须在 0 到 100 之间")
		}
	}
	if r.Score == nil {
		return response.ErrInvalidRequest.WithTips("请填写总分")
	}
	return nil
}

// Submit 以 (project_id, judge_id) 唯一键 upsert，重复提交覆盖上一次
func Submit(db *gorm.DB, projectID, judgeID uint, req ScoreReq, now time.Time) (*model.Score, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	p, err := project.Find(db, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusFinalApproved {
		return nil, response.ErrInvalidState.WithTipsf("项目当前状态为“%s”，不在评审阶段", p.Status.Label())
	}
	assigned, err := IsAssigned(db, projectID, judgeID)
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	if !assigned {
		return nil, response.ErrForbidden.WithTips("未被分配评审该项目")
	}

	s := &model.Score{
		ProjectID:    projectID,
		JudgeID:      judgeID,
		Value:        *req.Score,
		Innovation:   req.Innovation,
		Feasibility:  req.Feasibility,
		SocialValue:  req.SocialValue,
		Presentation: req.Presentation,
		Comment:      req.Comment,
	}
	s.CreatedAt, s.UpdatedAt = now, now
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "judge_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "innovation", "feasibility", "social_value", "presentation", "comment", "updated_at",
		}),
	}).Create(s).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return ScoreOf(db, projectID, judgeID)
}

func ScoreOf(db *gorm.DB, projectID, judgeID uint) (*model.Score, error) {
	var s model.Score
	if err := db.Where("project_id = ? AND judge_id = ?", projectID, judgeID).First(&s).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("尚未评分")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &s, nil
}

// ActiveScores 只包含分配仍有效的评委给出的评分
func ActiveScores(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Score{}).
		Joins("JOIN judge_assignment ON judge_assignment.project_id = score.project_id AND judge_assignment.judge_id = score.judge_id").
		Where("judge_assignment.is_active = ?", true)
}

// Stat 项目的有效评分统计
type Stat struct {
	ProjectID uint    `json:"project_id"`
	Mean      float64 `json:"mean"`
	Count     int     `json:"count"`
}

func Stats(db *gorm.DB, projectIDs []uint) (map[uint]Stat, error) {
	out := make(map[uint]Stat, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	var rows []Stat
	err := ActiveScores(db).
		Select("score.project_id AS project_id, AVG(score.value) AS mean, COUNT(*) AS count").
		Where("score.project_id IN ?", projectIDs).
		Group("score.project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ProjectID] = r
	}
	return out, nil
}

// ProjectScoreList 管理员查看项目的有效评分
func ProjectScoreList(db *gorm.DB, projectID uint) ([]model.Score, error) {
	scores := []model.Score{}
	err := ActiveScores(db).Where("score.project_id = ?", projectID).
		Preload("Judge").Order("score.id").Find(&scores).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return scores, nil
}
