package review

import (
	"competition-portal/internal/global/metrics"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/internal/module/project"
	"competition-portal/internal/workflow"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Apply 在事务内读取项目、经状态机判定后以 "WHERE status = 旧状态" 落库。
// 并发的两次审核只有一次能匹配到旧状态，另一次得到 ErrInvalidState
func Apply(db *gorm.DB, projectID uint, action workflow.Action, actor workflow.Actor, comment string, now time.Time) (p *model.Project, err error) {
	defer func() {
		metrics.ReviewTransitions.WithLabelValues(string(action), metrics.Result(err)).Inc()
	}()

	comment = strings.TrimSpace(comment)
	if (action == workflow.ActionCollegeReject || action == workflow.ActionFinalReject) && comment == "" {
		return nil, response.ErrInvalidRequest.WithTips("请填写不通过的原因")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = project.Find(tx, projectID); err != nil {
			return err
		}
		confirmed, err := project.AllConfirmed(tx, projectID)
		if err != nil {
			return err
		}

		snap := workflow.Snapshot{
			Status:       p.Status,
			LeaderID:     p.LeaderID,
			PushCollege:  p.PushCollege,
			AllConfirmed: confirmed,
		}
		to, err := workflow.Transition(snap, action, actor)
		if err != nil {
			return transitionError(err)
		}

		updates := changes(action, to, actor.UserID, comment, now)
		result := tx.Model(&model.Project{}).Where("id = ? AND status = ?", projectID, snap.Status).Updates(updates)
		if result.Error != nil {
			return response.ErrDatabase.WithOrigin(result.Error)
		}
		if result.RowsAffected == 0 {
			return response.ErrInvalidState.WithTips("项目状态已被其他操作修改，请刷新后重试")
		}
		return tx.First(p, projectID).Error
	})
	if err != nil {
		return nil, response.From(err, response.ErrDatabase)
	}
	return p, nil
}

// changes 各动作需要写入的列
func changes(action workflow.Action, to model.ReviewStatus, reviewerID uint, comment string, now time.Time) map[string]any {
	updates := map[string]any{"status": to}
	switch action {
	case workflow.ActionSubmit:
		updates["submitted_at"] = now
	case workflow.ActionResubmit:
		// 重新提交清空上一轮学院意见
		updates["submitted_at"] = now
		updates["college_review_comment"] = ""
		updates["college_reviewer_id"] = nil
		updates["college_reviewed_at"] = nil
	case workflow.ActionCollegeApprove, workflow.ActionCollegeReject:
		updates["college_review_comment"] = comment
		updates["college_reviewer_id"] = reviewerID
		updates["college_reviewed_at"] = now
	case workflow.ActionFinalApprove, workflow.ActionFinalReject:
		updates["final_review_comment"] = comment
		updates["final_reviewer_id"] = reviewerID
		updates["final_reviewed_at"] = now
	}
	return updates
}

// transitionError 把状态机错误映射为接口错误
func transitionError(err error) error {
	var te *workflow.TransitionError
	if !errors.As(err, &te) {
		return response.ErrServerInternal.WithOrigin(err)
	}
	switch te.Kind {
	case workflow.KindPermission:
		return response.ErrForbidden.WithTips("无权对该项目执行此操作").WithOrigin(err)
	case workflow.KindPrecondition:
		return response.ErrInvalidState.WithTips("请等待所有队员确认后再提交").WithOrigin(err)
	default:
		return response.ErrInvalidState.WithTipsf("项目当前状态为“%s”，不在可审核状态", te.Current.Label()).WithOrigin(err)
	}
}

// ListReq 审核列表的筛选条件
type ListReq struct {
	CompetitionID uint               `form:"competition_id"`
	Status        model.ReviewStatus `form:"status"`
	PushCollege   string             `form:"push_college"`
	Title         string             `form:"title"`
}

// List 在 statuses 范围内按条件筛选项目，college 非空时限定推送学院
func List(db *gorm.DB, req ListReq, statuses []model.ReviewStatus, college string) ([]model.Project, error) {
	query := db.Model(&model.Project{}).Preload("Competition").Preload("Team.Leader").Preload("Award")
	if college != "" {
		query = query.Where("push_college = ?", college)
	} else if req.PushCollege != "" {
		query = query.Where("push_college = ?", req.PushCollege)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if req.CompetitionID > 0 {
		query = query.Where("competition_id = ?", req.CompetitionID)
	}
	if req.Title != "" {
		query = query.Where("title LIKE ?", "%"+req.Title+"%")
	}

	projects := []model.Project{}
	if err := query.Order("created_at DESC, id DESC").Find(&projects).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return projects, nil
}

// reviewedStatuses 通过学院审核之后的状态
var reviewedStatuses = []model.ReviewStatus{model.StatusCollegeApproved, model.StatusFinalApproved, model.StatusFinalRejected}
