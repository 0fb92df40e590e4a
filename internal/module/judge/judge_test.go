package judge

import (
	"bytes"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/test"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMain(m *testing.M) {
	selfInit()
	m.Run()
}

func ptr(v float64) *float64 { return &v }

func TestAssignAndReactivate(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	admin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	judge := test.CreateUser(t, db, model.RoleJudge, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusFinalApproved, test.InfoCollege)

	a, err := Assign(db, p.ID, judge.ID, admin.ID)
	require.NoError(t, err)
	require.True(t, a.IsActive)
	require.Equal(t, judge.ID, a.Judge.ID)

	require.NoError(t, Unassign(db, p.ID, judge.ID))
	test.ErrorIs(t, response.ErrNotFound, Unassign(db, p.ID, judge.ID))

	again, err := Assign(db, p.ID, judge.ID, admin.ID)
	require.NoError(t, err)
	require.True(t, again.IsActive)
	require.Equal(t, a.ID, again.ID)

	var n int64
	require.NoError(t, db.Model(&model.JudgeAssignment{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestAssignChecks(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	admin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	judge := test.CreateUser(t, db, model.RoleJudge, "")

	draft := test.CreateProject(t, db, comp, leader, model.StatusCollegeApproved, test.InfoCollege)
	_, err := Assign(db, draft.ID, judge.ID, admin.ID)
	test.ErrorIs(t, response.ErrInvalidState, err)

	p := test.CreateProject(t, db, comp, leader, model.StatusFinalApproved, test.InfoCollege)
	_, err = Assign(db, p.ID, leader.ID, admin.ID)
	test.ErrorIs(t, response.ErrInvalidRequest, err)
	_, err = Assign(db, p.ID, 9999, admin.ID)
	test.ErrorIs(t, response.ErrNotFound, err)
}

func TestScoreUpsert(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	admin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	judge := test.CreateUser(t, db, model.RoleJudge, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusFinalApproved, test.InfoCollege)

	_, err := Submit(db, p.ID, judge.ID, ScoreReq{Score: ptr(80)}, time.Now())
	test.ErrorIs(t, response.ErrForbidden, err)

	_, err = Assign(db, p.ID, judge.ID, admin.ID)
	require.NoError(t, err)

	s, err := Submit(db, p.ID, judge.ID, ScoreReq{Score: ptr(80), Innovation: ptr(85), Comment: "不错"}, time.Now())
	require.NoError(t, err)
	require.Equal(t, 80.0, s.Value)

	s, err = Submit(db, p.ID, judge.ID, ScoreReq{Score: ptr(92)}, time.Now())
	require.NoError(t, err)
	require.Equal(t, 92.0, s.Value)
	require.Nil(t, s.Innovation)

	var n int64
	require.NoError(t, db.Model(&model.Score{}).Where("project_id = ?", p.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)

	_, err = Submit(db, p.ID, judge.ID, ScoreReq{Score: ptr(101)}, time.Now())
	test.ErrorIs(t, response.ErrInvalidRequest, err)
}

func TestConcurrentScoreUpsert(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	admin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	judge := test.CreateUser(t, db, model.RoleJudge, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusFinalApproved, test.InfoCollege)
	_, err := Assign(db, p.ID, judge.ID, admin.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Submit(db, p.ID, judge.ID, ScoreReq{Score: ptr(float64(60 + i))}, time.Now())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var n int64
	require.NoError(t, db.Model(&model.Score{}).Where("project_id = ? AND judge_id = ?", p.ID, judge.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestScoreRequiresFinalApproved(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	admin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	judge := test.CreateUser(t, db, model.RoleJudge, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusFinalApproved, test.InfoCollege)
	_, err := Assign(db, p.ID, judge.ID, admin.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(p).Update("status", model.StatusFinalRejected).Error)
	_, err = Submit(db, p.ID, judge.ID, ScoreReq{Score: ptr(70)}, time.Now())
	test.ErrorIs(t, response.ErrInvalidState, err)
}

func TestStatsIgnoreInactiveAssignments(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	admin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	a := test.CreateUser(t, db, model.RoleJudge, "")
	b := test.CreateUser(t, db, model.RoleJudge, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusFinalApproved, test.InfoCollege)

	for _, j := range []*model.User{a, b} {
		_, err := Assign(db, p.ID, j.ID, admin.ID)
		require.NoError(t, err)
	}
	_, err := Submit(db, p.ID, a.ID, ScoreReq{Score: ptr(90)}, time.Now())
	require.NoError(t, err)
	_, err = Submit(db, p.ID, b.ID, ScoreReq{Score: ptr(70)}, time.Now())
	require.NoError(t, err)

	stats, err := Stats(db, []uint{p.ID})
	require.NoError(t, err)
	require.Equal(t, 2, stats[p.ID].Count)
	require.InDelta(t, 80, stats[p.ID].Mean, 1e-9)

	require.NoError(t, Unassign(db, p.ID, b.ID))
	stats, err = Stats(db, []uint{p.ID})
	require.NoError(t, err)
	require.Equal(t, 1, stats[p.ID].Count)
	require.InDelta(t, 90, stats[p.ID].Mean, 1e-9)

	scores, err := ProjectScoreList(db, p.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, a.ID, scores[0].JudgeID)
}

func TestJudgeHandlers(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	admin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	judge := test.CreateUser(t, db, model.RoleJudge, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusFinalApproved, test.InfoCollege)
	adminClaims := test.AsUser(test.Claims(admin, model.RoleSchoolAdmin))
	judgeClaims := test.AsUser(test.Claims(judge, model.RoleJudge))
	id := test.WithParam("id", fmt.Sprint(p.ID))

	resp := test.DoRequest(t, AssignJudge, AssignReq{ProjectID: p.ID, JudgeID: judge.ID}, adminClaims)
	test.NoError(t, resp)

	resp = test.DoRequest(t, SubmitScore, map[string]any{"score": 120}, judgeClaims, id)
	test.ErrorEqual(t, response.ErrInvalidRequest, resp)

	resp = test.DoRequest(t, SubmitScore, map[string]any{"score": 0, "comment": "缺少材料"}, judgeClaims, id)
	test.NoError(t, resp)
	require.Equal(t, 0.0, test.DecodeData[model.Score](t, resp).Value)

	resp = test.DoRequest(t, MyAssignments, nil, judgeClaims, test.WithMethod("GET"))
	test.NoError(t, resp)
	items := test.DecodeData[[]AssignmentItem](t, resp)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Score)
	require.Equal(t, p.Title, items[0].Project.Title)

	w := test.Serve(t, ExportScores, nil, adminClaims, test.WithMethod("GET"),
		test.WithQuery("competition_id", fmt.Sprint(comp.ID)))
	require.Equal(t, 200, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows("评分明细")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, judge.RealName, rows[1][2])
}
