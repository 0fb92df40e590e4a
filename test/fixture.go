package test

import (
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/model"
	"competition-portal/tools"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	InfoCollege = "信息科学与技术学院"
	MechCollege = "机械工程学院"
	Password    = "Passw0rd!"
)

var hashedPassword = tools.PasswordEncrypt(Password)

// CreateUser 创建一个已启用的用户，学生与管理员使用学工号，评委使用用户名
func CreateUser(t *testing.T, db *gorm.DB, role model.Role, college string) *model.User {
	t.Helper()
	u := &model.User{
		Password: hashedPassword,
		RealName: gofakeit.Name(),
		Role:     role,
		College:  college,
		Phone:    gofakeit.Phone(),
		IsActive: true,
	}
	if role == model.RoleJudge {
		name := gofakeit.Username() + gofakeit.DigitN(6)
		u.Username = &name
	} else {
		workID := gofakeit.DigitN(12)
		u.WorkID = &workID
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Claims 以 active 角色登录 u
func Claims(u *model.User, active model.Role) *jwt.Claims {
	return &jwt.Claims{Payload: jwt.PayloadOf(u, active)}
}

type CompetitionOption func(*model.Competition)

func WithQuota(n int) CompetitionOption {
	return func(c *model.Competition) { c.FinalQuota = &n }
}

func WithType(competitionType string) CompetitionOption {
	return func(c *model.Competition) { c.CompetitionType = competitionType }
}

func WithYear(year int) CompetitionOption {
	return func(c *model.Competition) { c.Year = year }
}

func CreateCompetition(t *testing.T, db *gorm.DB, opts ...CompetitionOption) *model.Competition {
	t.Helper()
	c := &model.Competition{
		Name:            gofakeit.Company() + "创新创业大赛",
		Year:            2025,
		CompetitionType: model.CompetitionChallengeCup,
		IsPublished:     true,
		IsActive:        true,
	}
	for _, opt := range opts {
		opt(c)
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateProject 直接落库一个处于 status 的项目，名册只有已确认的队长
func CreateProject(t *testing.T, db *gorm.DB, comp *model.Competition, leader *model.User, status model.ReviewStatus, pushCollege string) *model.Project {
	t.Helper()
	team := &model.Team{
		Name:          gofakeit.Word() + gofakeit.DigitN(6) + "队",
		CompetitionID: comp.ID,
		LeaderID:      leader.ID,
	}
	require.NoError(t, db.Create(team).Error)

	p := &model.Project{
		Title:         gofakeit.Sentence(4),
		CompetitionID: comp.ID,
		TeamID:        team.ID,
		LeaderID:      leader.ID,
		PushCollege:   pushCollege,
		Status:        status,
	}
	require.NoError(t, db.Create(p).Error)

	workID := ""
	if leader.WorkID != nil {
		workID = *leader.WorkID
	}
	require.NoError(t, db.Create(&model.ProjectMember{
		ProjectID:   p.ID,
		Order:       1,
		UserID:      &leader.ID,
		Name:        leader.RealName,
		WorkID:      workID,
		College:     leader.College,
		IsLeader:    true,
		IsConfirmed: true,
	}).Error)
	return p
}

// Reload 重新读取记录
func Reload[T any](t *testing.T, db *gorm.DB, id uint) *T {
	t.Helper()
	var out T
	require.NoError(t, db.First(&out, id).Error)
	return &out
}
