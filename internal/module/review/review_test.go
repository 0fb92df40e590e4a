package review

import (
	"bytes"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/internal/workflow"
	"competition-portal/test"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMain(m *testing.M) {
	selfInit()
	m.Run()
}

func actor(u *model.User, role model.Role) workflow.Actor {
	return test.Claims(u, role).Actor()
}

func TestFullReviewPath(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	collegeAdmin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.InfoCollege)
	schoolAdmin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)

	now := time.Now()
	got, err := Apply(db, p.ID, workflow.ActionSubmit, actor(leader, model.RoleStudent), "", now)
	require.NoError(t, err)
	require.Equal(t, model.StatusSubmitted, got.Status)
	require.NotNil(t, got.SubmittedAt)

	got, err = Apply(db, p.ID, workflow.ActionCollegeApprove, actor(collegeAdmin, model.RoleCollegeAdmin), "推荐", now)
	require.NoError(t, err)
	require.Equal(t, model.StatusCollegeApproved, got.Status)
	require.Equal(t, "推荐", got.CollegeReviewComment)
	require.Equal(t, collegeAdmin.ID, *got.CollegeReviewerID)

	got, err = Apply(db, p.ID, workflow.ActionFinalApprove, actor(schoolAdmin, model.RoleSchoolAdmin), "", now)
	require.NoError(t, err)
	require.Equal(t, model.StatusFinalApproved, got.Status)
	require.NotNil(t, got.FinalReviewedAt)

	// 终态不再接受任何动作
	_, err = Apply(db, p.ID, workflow.ActionFinalReject, actor(schoolAdmin, model.RoleSchoolAdmin), "补充", now)
	test.ErrorIs(t, response.ErrInvalidState, err)
}

func TestSubmitRequiresConfirmedRoster(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	member := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)
	require.NoError(t, db.Create(&model.ProjectMember{
		ProjectID: p.ID,
		Order:     2,
		UserID:    &member.ID,
		Name:      member.RealName,
		WorkID:    *member.WorkID,
	}).Error)

	_, err := Apply(db, p.ID, workflow.ActionSubmit, actor(leader, model.RoleStudent), "", time.Now())
	test.ErrorIs(t, response.ErrInvalidState, err)
	require.Equal(t, model.StatusDraft, test.Reload[model.Project](t, db, p.ID).Status)

	require.NoError(t, db.Model(&model.ProjectMember{}).Where("project_id = ?", p.ID).Update("is_confirmed", true).Error)
	_, err = Apply(db, p.ID, workflow.ActionSubmit, actor(leader, model.RoleStudent), "", time.Now())
	require.NoError(t, err)
}

func TestSubmitByMemberForbidden(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	other := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)

	_, err := Apply(db, p.ID, workflow.ActionSubmit, actor(other, model.RoleStudent), "", time.Now())
	test.ErrorIs(t, response.ErrForbidden, err)
}

func TestCollegeMismatch(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	mechAdmin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.MechCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusSubmitted, test.InfoCollege)

	_, err := Apply(db, p.ID, workflow.ActionCollegeApprove, actor(mechAdmin, model.RoleCollegeAdmin), "", time.Now())
	test.ErrorIs(t, response.ErrForbidden, err)
	require.Equal(t, model.StatusSubmitted, test.Reload[model.Project](t, db, p.ID).Status)
}

func TestRejectRequiresComment(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	admin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.InfoCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusSubmitted, test.InfoCollege)

	_, err := Apply(db, p.ID, workflow.ActionCollegeReject, actor(admin, model.RoleCollegeAdmin), "  ", time.Now())
	test.ErrorIs(t, response.ErrInvalidRequest, err)
}

func TestResubmitClearsCollegeReview(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	admin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.InfoCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusSubmitted, test.InfoCollege)

	got, err := Apply(db, p.ID, workflow.ActionCollegeReject, actor(admin, model.RoleCollegeAdmin), "材料不全", time.Now())
	require.NoError(t, err)
	require.Equal(t, model.StatusCollegeRejected, got.Status)
	require.Equal(t, "材料不全", got.CollegeReviewComment)

	got, err = Apply(db, p.ID, workflow.ActionResubmit, actor(leader, model.RoleStudent), "", time.Now())
	require.NoError(t, err)
	require.Equal(t, model.StatusSubmitted, got.Status)
	require.Empty(t, got.CollegeReviewComment)
	require.Nil(t, got.CollegeReviewerID)
	require.Nil(t, got.CollegeReviewedAt)
}

func TestConcurrentSchoolApprove(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	a := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	b := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusCollegeApproved, test.InfoCollege)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, admin := range []*model.User{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = Apply(db, p.ID, workflow.ActionFinalApprove, actor(admin, model.RoleSchoolAdmin), "", time.Now())
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		test.ErrorIs(t, response.ErrInvalidState, err)
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, model.StatusFinalApproved, test.Reload[model.Project](t, db, p.ID).Status)
}

func TestSubmitHandler(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusCollegeRejected, test.InfoCollege)

	resp := test.DoRequest(t, Submit, nil,
		test.AsUser(test.Claims(leader, model.RoleStudent)), test.WithParam("id", fmt.Sprint(p.ID)))
	test.NoError(t, resp)
	require.Equal(t, model.StatusSubmitted, test.DecodeData[model.Project](t, resp).Status)

	resp = test.DoRequest(t, Submit, nil,
		test.AsUser(test.Claims(leader, model.RoleStudent)), test.WithParam("id", "999"))
	test.ErrorEqual(t, response.ErrNotFound, resp)
}

func TestReviewHandlers(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	collegeAdmin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.InfoCollege)
	schoolAdmin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusSubmitted, test.InfoCollege)
	id := test.WithParam("id", fmt.Sprint(p.ID))

	resp := test.DoRequest(t, CollegeReview, DecisionReq{Action: "pass"},
		test.AsUser(test.Claims(collegeAdmin, model.RoleCollegeAdmin)), id)
	test.ErrorEqual(t, response.ErrInvalidRequest, resp)

	resp = test.DoRequest(t, CollegeReview, DecisionReq{Action: "approve"},
		test.AsUser(test.Claims(collegeAdmin, model.RoleCollegeAdmin)), id)
	test.NoError(t, resp)

	resp = test.DoRequest(t, SchoolReview, DecisionReq{Action: "reject", Comment: "不符合要求"},
		test.AsUser(test.Claims(schoolAdmin, model.RoleSchoolAdmin)), id)
	test.NoError(t, resp)
	got := test.Reload[model.Project](t, db, p.ID)
	require.Equal(t, model.StatusFinalRejected, got.Status)
	require.Equal(t, "不符合要求", got.FinalReviewComment)
}

func TestQueues(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	infoAdmin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.InfoCollege)
	schoolAdmin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")

	submitted := test.CreateProject(t, db, comp, leader, model.StatusSubmitted, test.InfoCollege)
	test.CreateProject(t, db, comp, leader, model.StatusSubmitted, test.MechCollege)
	test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)
	approved := test.CreateProject(t, db, comp, leader, model.StatusCollegeApproved, test.InfoCollege)
	final := test.CreateProject(t, db, comp, leader, model.StatusFinalApproved, test.MechCollege)

	ids := func(resp response.ResponseBody) []uint {
		test.NoError(t, resp)
		var out []uint
		for _, p := range test.DecodeData[[]model.Project](t, resp) {
			out = append(out, p.ID)
		}
		return out
	}

	collegeClaims := test.AsUser(test.Claims(infoAdmin, model.RoleCollegeAdmin))
	require.Equal(t, []uint{submitted.ID}, ids(test.DoRequest(t, CollegeQueue, nil, collegeClaims, test.WithMethod("GET"))))
	require.Equal(t, []uint{approved.ID}, ids(test.DoRequest(t, CollegeProjects, nil, collegeClaims, test.WithMethod("GET"))))

	schoolClaims := test.AsUser(test.Claims(schoolAdmin, model.RoleSchoolAdmin))
	require.Equal(t, []uint{approved.ID}, ids(test.DoRequest(t, SchoolQueue, nil, schoolClaims, test.WithMethod("GET"))))
	require.ElementsMatch(t, []uint{approved.ID, final.ID}, ids(test.DoRequest(t, SchoolProjects, nil, schoolClaims, test.WithMethod("GET"))))
	require.Equal(t, []uint{final.ID}, ids(test.DoRequest(t, SchoolProjects, nil, schoolClaims,
		test.WithMethod("GET"), test.WithQuery("push_college", test.MechCollege))))

	// 未设置学院的学院管理员不能查看队列
	noCollege := test.CreateUser(t, db, model.RoleCollegeAdmin, "")
	resp := test.DoRequest(t, CollegeQueue, nil, test.AsUser(test.Claims(noCollege, model.RoleCollegeAdmin)), test.WithMethod("GET"))
	test.ErrorEqual(t, response.ErrForbidden, resp)
}

func TestExport(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	schoolAdmin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	p := test.CreateProject(t, db, comp, leader, model.StatusCollegeApproved, test.InfoCollege)

	w := test.Serve(t, SchoolExport, nil, test.AsUser(test.Claims(schoolAdmin, model.RoleSchoolAdmin)), test.WithMethod("GET"))
	require.Equal(t, 200, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows("项目")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "项目ID", rows[0][0])
	require.Equal(t, fmt.Sprint(p.ID), rows[1][0])
	require.Equal(t, p.Title, rows[1][2])

	members, err := f.GetRows("成员")
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, *leader.WorkID, members[1][4])
}
