// Package workflow 集中定义项目审核状态机。
// 所有改变 Project.Status 的调用都必须先经过 Transition，
// 持久化层再以 "WHERE status = 旧状态" 的条件更新落库
package workflow

import (
	"competition-portal/internal/model"
	"fmt"
)

type Action string

const (
	ActionSubmit         Action = "submit"
	ActionResubmit       Action = "resubmit"
	ActionCollegeApprove Action = "college_approve"
	ActionCollegeReject  Action = "college_reject"
	ActionFinalApprove   Action = "final_approve"
	ActionFinalReject    Action = "final_reject"
)

// Actor 当前请求的操作者，Role 为其当前激活的角色
type Actor struct {
	UserID  uint
	Role    model.Role
	College string
}

// Snapshot 判定迁移所需的项目状态
type Snapshot struct {
	Status       model.ReviewStatus
	LeaderID     uint
	PushCollege  string
	AllConfirmed bool
}

type ErrorKind int

const (
	// KindPermission 操作者没有执行该动作的身份
	KindPermission ErrorKind = iota + 1
	// KindState 当前状态下该动作未定义
	KindState
	// KindPrecondition 状态合法但前置条件未满足，如成员未全部确认
	KindPrecondition
)

type TransitionError struct {
	Kind    ErrorKind
	Action  Action
	Current model.ReviewStatus
	Reason  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("workflow: %s from %s: %s", e.Action, e.Current, e.Reason)
}

type rule struct {
	from model.ReviewStatus
	to   model.ReviewStatus
	role model.Role
	// allowed 检查操作者与项目的归属关系
	allowed func(Snapshot, Actor) bool
	// ready 检查状态之外的前置条件
	ready func(Snapshot) bool
}

var table = map[Action]rule{
	ActionSubmit:         {from: model.StatusDraft, to: model.StatusSubmitted, role: model.RoleStudent, allowed: isLeader, ready: rosterConfirmed},
	ActionResubmit:       {from: model.StatusCollegeRejected, to: model.StatusSubmitted, role: model.RoleStudent, allowed: isLeader},
	ActionCollegeApprove: {from: model.StatusSubmitted, to: model.StatusCollegeApproved, role: model.RoleCollegeAdmin, allowed: sameCollege},
	ActionCollegeReject:  {from: model.StatusSubmitted, to: model.StatusCollegeRejected, role: model.RoleCollegeAdmin, allowed: sameCollege},
	ActionFinalApprove:   {from: model.StatusCollegeApproved, to: model.StatusFinalApproved, role: model.RoleSchoolAdmin},
	ActionFinalReject:    {from: model.StatusCollegeApproved, to: model.StatusFinalRejected, role: model.RoleSchoolAdmin},
}

// Transition 返回动作成功后的新状态。
// 依次校验身份、状态、前置条件；任一失败都返回原状态与 *TransitionError
func Transition(snap Snapshot, action Action, actor Actor) (model.ReviewStatus, error) {
	fail := func(kind ErrorKind, reason string) (model.ReviewStatus, error) {
		return snap.Status, &TransitionError{Kind: kind, Action: action, Current: snap.Status, Reason: reason}
	}
	r, ok := table[action]
	if !ok {
		return fail(KindState, "unknown action")
	}
	if actor.Role != r.role {
		return fail(KindPermission, "role "+string(actor.Role)+" may not "+string(action))
	}
	if r.allowed != nil && !r.allowed(snap, actor) {
		return fail(KindPermission, "actor does not own this project")
	}
	if snap.Status != r.from {
		return fail(KindState, "not in reviewable state")
	}
	if r.ready != nil && !r.ready(snap) {
		return fail(KindPrecondition, "not all members confirmed")
	}
	return r.to, nil
}

// SubmitAction 学生提交时根据当前状态选择 submit 或 resubmit
func SubmitAction(current model.ReviewStatus) Action {
	if current == model.StatusCollegeRejected {
		return ActionResubmit
	}
	return ActionSubmit
}

// From 返回动作要求的起始状态
func From(action Action) (model.ReviewStatus, bool) {
	r, ok := table[action]
	return r.from, ok
}

// CollegeQueue 学院审核队列包含的状态
func CollegeQueue() []model.ReviewStatus {
	return []model.ReviewStatus{model.StatusSubmitted, model.StatusCollegeRejected}
}

// SchoolQueue 学校审核队列包含的状态
func SchoolQueue() []model.ReviewStatus {
	return []model.ReviewStatus{model.StatusCollegeApproved}
}

func isLeader(snap Snapshot, actor Actor) bool {
	return snap.LeaderID != 0 && snap.LeaderID == actor.UserID
}

func sameCollege(snap Snapshot, actor Actor) bool {
	return actor.College != "" && actor.College == snap.PushCollege
}

func rosterConfirmed(snap Snapshot) bool {
	return snap.AllConfirmed
}
