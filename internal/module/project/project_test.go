package project

import (
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/test"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	selfInit()
	m.Run()
}

func challengeCupFields() Fields {
	return Fields{
		Title:       "基于大模型的轨道巡检系统",
		Description: "项目简介",
		ProjectType: "自然科学类学术论文",
		Innovation:  "创新点",
		Development: "已完成原型",
		AwardsText:  "无",
		PushCollege: test.InfoCollege,
	}
}

func TestCreateAutoTeam(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)

	p, err := Create(db, CreateReq{CompetitionID: comp.ID, Fields: challengeCupFields()}, leader, time.Now())
	require.NoError(t, err)
	require.Equal(t, model.StatusDraft, p.Status)

	team := test.Reload[model.Team](t, db, p.TeamID)
	require.Equal(t, leader.RealName+"的队伍", team.Name)

	var members []model.ProjectMember
	require.NoError(t, db.Where("project_id = ?", p.ID).Find(&members).Error)
	require.Len(t, members, 1)
	require.True(t, members[0].IsLeader)
	require.True(t, members[0].IsConfirmed)

	// 同一竞赛的第二个项目沿用已有队伍
	second, err := Create(db, CreateReq{CompetitionID: comp.ID, Fields: challengeCupFields()}, leader, time.Now())
	require.NoError(t, err)
	require.Equal(t, p.TeamID, second.TeamID)
}

func TestCreateDuplicateTeamName(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	a := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	b := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)

	_, err := Create(db, CreateReq{CompetitionID: comp.ID, TeamName: "闪电队", Fields: challengeCupFields()}, a, time.Now())
	require.NoError(t, err)
	_, err = Create(db, CreateReq{CompetitionID: comp.ID, TeamName: "闪电队", Fields: challengeCupFields()}, b, time.Now())
	test.ErrorIs(t, response.ErrAlreadyExists, err)
}

func TestCreateChecksCompetition(t *testing.T) {
	db := test.NewDB(t)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)

	closed := test.CreateCompetition(t, db)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(closed).Update("registration_end", past).Error)
	_, err := Create(db, CreateReq{CompetitionID: closed.ID, Fields: challengeCupFields()}, leader, time.Now())
	test.ErrorIs(t, response.ErrInvalidState, err)

	hidden := test.CreateCompetition(t, db)
	require.NoError(t, db.Model(hidden).Update("is_published", false).Error)
	_, err = Create(db, CreateReq{CompetitionID: hidden.ID, Fields: challengeCupFields()}, leader, time.Now())
	test.ErrorIs(t, response.ErrNotFound, err)

	open := test.CreateCompetition(t, db)
	fields := challengeCupFields()
	fields.ProjectType = ""
	_, err = Create(db, CreateReq{CompetitionID: open.ID, Fields: fields}, leader, time.Now())
	test.ErrorIs(t, response.ErrInvalidRequest, err)
}

func TestUpdateOnlyWhenEditable(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	other := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)

	draft := test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)
	fields := challengeCupFields()
	fields.Title = "新标题"

	_, err := Update(db, draft.ID, fields, other.ID)
	test.ErrorIs(t, response.ErrForbidden, err)

	_, err = Update(db, draft.ID, fields, leader.ID)
	require.NoError(t, err)
	require.Equal(t, "新标题", test.Reload[model.Project](t, db, draft.ID).Title)

	submitted := test.CreateProject(t, db, comp, leader, model.StatusSubmitted, test.InfoCollege)
	_, err = Update(db, submitted.ID, fields, leader.ID)
	test.ErrorIs(t, response.ErrInvalidState, err)

	rejected := test.CreateProject(t, db, comp, leader, model.StatusCollegeRejected, test.InfoCollege)
	_, err = Update(db, rejected.ID, fields, leader.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusCollegeRejected, test.Reload[model.Project](t, db, rejected.ID).Status)
}

func TestDeleteDraftOnly(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)

	submitted := test.CreateProject(t, db, comp, leader, model.StatusSubmitted, test.InfoCollege)
	_, err := Delete(db, submitted.ID, leader.ID)
	test.ErrorIs(t, response.ErrInvalidState, err)

	draft := test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)
	_, err = Delete(db, draft.ID, leader.ID)
	require.NoError(t, err)

	var members int64
	require.NoError(t, db.Model(&model.ProjectMember{}).Where("project_id = ?", draft.ID).Count(&members).Error)
	require.Zero(t, members)
	_, err = Find(db, draft.ID)
	test.ErrorIs(t, response.ErrNotFound, err)
}

func TestReplaceMembersAndConfirm(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	alice := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	bob := test.CreateUser(t, db, model.RoleStudent, test.MechCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)
	now := time.Now()

	// 未注册的成员整体拒绝
	_, err := ReplaceMembersOf(db, p.ID, MembersReq{Members: []MemberReq{
		{Name: alice.RealName, WorkID: *alice.WorkID},
		{Name: "路人", WorkID: "999999999999"},
	}}, leader.ID, now)
	test.ErrorIs(t, response.ErrInvalidRequest, err)

	instructor := "张老师"
	members, err := ReplaceMembersOf(db, p.ID, MembersReq{
		Members: []MemberReq{
			{Name: leader.RealName, WorkID: *leader.WorkID},
			{Name: alice.RealName, WorkID: *alice.WorkID},
			{Name: bob.RealName, WorkID: *bob.WorkID},
		},
		InstructorName: &instructor,
	}, leader.ID, now)
	require.NoError(t, err)
	require.Len(t, members, 3)
	require.Equal(t, []int{1, 2, 3}, []int{members[0].Order, members[1].Order, members[2].Order})
	require.True(t, members[0].IsLeader)
	require.False(t, members[1].IsConfirmed)
	require.Equal(t, instructor, test.Reload[model.Project](t, db, p.ID).InstructorName)

	confirmed, err := AllConfirmed(db, p.ID)
	require.NoError(t, err)
	require.False(t, confirmed)

	require.NoError(t, Confirm(db, p.ID, alice.ID, now))
	require.NoError(t, Confirm(db, p.ID, alice.ID, now))
	stranger := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	test.ErrorIs(t, response.ErrForbidden, Confirm(db, p.ID, stranger.ID, now))

	// 重排名册后已确认的成员保持确认
	members, err = ReplaceMembersOf(db, p.ID, MembersReq{Members: []MemberReq{
		{Name: bob.RealName, WorkID: *bob.WorkID},
		{Name: alice.RealName, WorkID: *alice.WorkID},
	}}, leader.ID, now)
	require.NoError(t, err)
	require.Equal(t, alice.ID, *members[2].UserID)
	require.True(t, members[2].IsConfirmed)
	require.False(t, members[1].IsConfirmed)

	require.NoError(t, Confirm(db, p.ID, bob.ID, now))
	confirmed, err = AllConfirmed(db, p.ID)
	require.NoError(t, err)
	require.True(t, confirmed)
}

func TestCanView(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	stranger := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	infoAdmin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.InfoCollege)
	mechAdmin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.MechCollege)
	schoolAdmin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	judge := test.CreateUser(t, db, model.RoleJudge, "")

	p := test.CreateProject(t, db, comp, leader, model.StatusSubmitted, test.InfoCollege)

	require.NoError(t, CanView(db, p, test.Claims(leader, "")))
	require.NoError(t, CanView(db, p, test.Claims(infoAdmin, "")))
	test.ErrorIs(t, response.ErrForbidden, CanView(db, p, test.Claims(stranger, "")))
	test.ErrorIs(t, response.ErrForbidden, CanView(db, p, test.Claims(mechAdmin, "")))
	test.ErrorIs(t, response.ErrForbidden, CanView(db, p, test.Claims(schoolAdmin, "")))
	test.ErrorIs(t, response.ErrForbidden, CanView(db, p, test.Claims(judge, "")))

	require.NoError(t, db.Create(&model.JudgeAssignment{JudgeID: judge.ID, ProjectID: p.ID, IsActive: true}).Error)
	require.NoError(t, CanView(db, p, test.Claims(judge, "")))

	p.Status = model.StatusCollegeApproved
	require.NoError(t, CanView(db, p, test.Claims(schoolAdmin, "")))
}

func TestGetProjectHandler(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)

	resp := test.DoRequest(t, GetProject, nil, test.AsUser(test.Claims(leader, "")),
		test.WithMethod(http.MethodGet), test.WithParam("id", fmt.Sprint(p.ID)))
	test.NoError(t, resp)
	detail := test.DecodeData[DetailResp](t, resp)
	require.True(t, detail.IsLeader)
	require.True(t, detail.AllConfirmed)
	require.Equal(t, "草稿", detail.StatusLabel)
	require.Len(t, detail.Members, 1)

	mine, err := Mine(db, leader.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}
