package workflow

import (
	"competition-portal/internal/model"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	infoCollege = "信息科学与技术学院"
	mechCollege = "机械工程学院"
)

var (
	leader       = Actor{UserID: 1, Role: model.RoleStudent}
	otherStudent = Actor{UserID: 2, Role: model.RoleStudent}
	infoAdmin    = Actor{UserID: 10, Role: model.RoleCollegeAdmin, College: infoCollege}
	mechAdmin    = Actor{UserID: 11, Role: model.RoleCollegeAdmin, College: mechCollege}
	schoolAdmin  = Actor{UserID: 20, Role: model.RoleSchoolAdmin}
	judge        = Actor{UserID: 30, Role: model.RoleJudge}
)

func snapshot(status model.ReviewStatus) Snapshot {
	return Snapshot{Status: status, LeaderID: leader.UserID, PushCollege: infoCollege, AllConfirmed: true}
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var te *TransitionError
	require.True(t, errors.As(err, &te), "expected *TransitionError, got %v", err)
	return te.Kind
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name   string
		from   model.ReviewStatus
		action Action
		actor  Actor
		to     model.ReviewStatus
	}{
		{"leader submits draft", model.StatusDraft, ActionSubmit, leader, model.StatusSubmitted},
		{"leader resubmits rejected", model.StatusCollegeRejected, ActionResubmit, leader, model.StatusSubmitted},
		{"college approves", model.StatusSubmitted, ActionCollegeApprove, infoAdmin, model.StatusCollegeApproved},
		{"college rejects", model.StatusSubmitted, ActionCollegeReject, infoAdmin, model.StatusCollegeRejected},
		{"school approves", model.StatusCollegeApproved, ActionFinalApprove, schoolAdmin, model.StatusFinalApproved},
		{"school rejects", model.StatusCollegeApproved, ActionFinalReject, schoolAdmin, model.StatusFinalRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			to, err := Transition(snapshot(tc.from), tc.action, tc.actor)
			require.NoError(t, err)
			require.Equal(t, tc.to, to)
		})
	}
}

// 遍历全部 (状态, 动作, 角色) 组合：只有表中列出的组合被接受
func TestTransitionIsClosed(t *testing.T) {
	statuses := []model.ReviewStatus{
		model.StatusDraft, model.StatusSubmitted, model.StatusCollegeApproved,
		model.StatusCollegeRejected, model.StatusFinalApproved, model.StatusFinalRejected,
	}
	actions := []Action{ActionSubmit, ActionResubmit, ActionCollegeApprove, ActionCollegeReject, ActionFinalApprove, ActionFinalReject}
	actors := []Actor{leader, otherStudent, infoAdmin, mechAdmin, schoolAdmin, judge}

	accepted := 0
	for _, st := range statuses {
		for _, ac := range actions {
			for _, who := range actors {
				to, err := Transition(snapshot(st), ac, who)
				if err != nil {
					require.Equal(t, st, to)
					continue
				}
				accepted++
				from, ok := From(ac)
				require.True(t, ok)
				require.Equal(t, from, st)
			}
		}
	}
	require.Equal(t, 6, accepted)
}

func TestSubmitRequiresConfirmedRoster(t *testing.T) {
	snap := snapshot(model.StatusDraft)
	snap.AllConfirmed = false
	to, err := Transition(snap, ActionSubmit, leader)
	require.Equal(t, model.StatusDraft, to)
	require.Equal(t, KindPrecondition, kindOf(t, err))

	// 退回后重新提交不要求再次确认
	snap.Status = model.StatusCollegeRejected
	to, err = Transition(snap, ActionResubmit, leader)
	require.NoError(t, err)
	require.Equal(t, model.StatusSubmitted, to)
}

func TestSubmitByNonLeader(t *testing.T) {
	_, err := Transition(snapshot(model.StatusDraft), ActionSubmit, otherStudent)
	require.Equal(t, KindPermission, kindOf(t, err))
}

func TestCollegeMismatchIsPermissionError(t *testing.T) {
	snap := snapshot(model.StatusSubmitted)
	snap.PushCollege = mechCollege
	to, err := Transition(snap, ActionCollegeApprove, infoAdmin)
	require.Equal(t, model.StatusSubmitted, to)
	require.Equal(t, KindPermission, kindOf(t, err))

	_, err = Transition(snap, ActionCollegeApprove, mechAdmin)
	require.NoError(t, err)
}

func TestCollegeAdminWithoutCollege(t *testing.T) {
	snap := snapshot(model.StatusSubmitted)
	snap.PushCollege = ""
	_, err := Transition(snap, ActionCollegeReject, Actor{UserID: 12, Role: model.RoleCollegeAdmin})
	require.Equal(t, KindPermission, kindOf(t, err))
}

func TestWrongStateIsStateError(t *testing.T) {
	_, err := Transition(snapshot(model.StatusDraft), ActionFinalApprove, schoolAdmin)
	require.Equal(t, KindState, kindOf(t, err))

	// 学校驳回后没有任何可用的迁移
	for _, ac := range []Action{ActionSubmit, ActionResubmit} {
		_, err = Transition(snapshot(model.StatusFinalRejected), ac, leader)
		require.Equal(t, KindState, kindOf(t, err))
	}
}

func TestSubmitAction(t *testing.T) {
	require.Equal(t, ActionSubmit, SubmitAction(model.StatusDraft))
	require.Equal(t, ActionResubmit, SubmitAction(model.StatusCollegeRejected))
}
