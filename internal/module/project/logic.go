package project

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/internal/module/competition"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Find 读取项目，不存在时返回 ErrNotFound
func Find(db *gorm.DB, id uint) (*model.Project, error) {
	var p model.Project
	if err := db.First(&p, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("项目不存在")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &p, nil
}

// IsRosterMember 队长或名册中关联到该用户的成员
func IsRosterMember(db *gorm.DB, p *model.Project, userID uint) (bool, error) {
	if p.LeaderID == userID {
		return true, nil
	}
	var n int64
	err := db.Model(&model.ProjectMember{}).Where("project_id = ? AND user_id = ?", p.ID, userID).Count(&n).Error
	if err != nil {
		return false, response.ErrDatabase.WithOrigin(err)
	}
	return n > 0, nil
}

// CanView 按当前激活角色判断项目可见性：
// 学生看自己参与的项目，学院管理员看推送到本院的项目，
// 校级管理员看已通过学院审核的项目，评委看分配给自己的项目
func CanView(db *gorm.DB, p *model.Project, claims *jwt.Claims) error {
	var ok bool
	switch claims.ActiveRole {
	case model.RoleStudent:
		member, err := IsRosterMember(db, p, claims.UserID)
		if err != nil {
			return err
		}
		ok = member
	case model.RoleCollegeAdmin:
		ok = claims.College != "" && p.PushCollege == claims.College
	case model.RoleSchoolAdmin:
		ok = p.Status == model.StatusCollegeApproved || p.Status == model.StatusFinalApproved || p.Status == model.StatusFinalRejected
	case model.RoleJudge:
		var n int64
		err := db.Model(&model.JudgeAssignment{}).
			Where("project_id = ? AND judge_id = ? AND is_active = ?", p.ID, claims.UserID, true).
			Count(&n).Error
		if err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}
		ok = n > 0
	}
	if !ok {
		return response.ErrForbidden.WithTips("无权访问该项目")
	}
	return nil
}

func requireLeader(p *model.Project, userID uint) error {
	if p.LeaderID != userID {
		return response.ErrForbidden.WithTips("只有队长可以操作该项目")
	}
	return nil
}

func requireEditable(p *model.Project) error {
	if !p.Editable() {
		return response.ErrInvalidState.WithTipsf("项目当前状态为“%s”，不可修改", p.Status.Label())
	}
	return nil
}

// AllConfirmed 名册中是否全部成员都已确认
func AllConfirmed(db *gorm.DB, projectID uint) (bool, error) {
	var pending int64
	err := db.Model(&model.ProjectMember{}).
		Where("project_id = ? AND is_confirmed = ?", projectID, false).
		Count(&pending).Error
	if err != nil {
		return false, response.ErrDatabase.WithOrigin(err)
	}
	return pending == 0, nil
}

// Fields 项目申报信息，按竞赛类型要求不同的必填项
type Fields struct {
	Title           string         `json:"title" binding:"required,max=200"`
	Description     string         `json:"description" binding:"required"`
	Category        string         `json:"category"`
	ProjectType     string         `json:"project_type"`
	ProjectField    string         `json:"project_field"`
	Innovation      string         `json:"innovation"`
	Development     string         `json:"development"`
	AwardsText      string         `json:"awards_text"`
	PushCollege     string         `json:"push_college" binding:"required,college"`
	InstructorName  string         `json:"instructor_name"`
	InstructorTitle string         `json:"instructor_title"`
	InstructorPhone string         `json:"instructor_phone"`
	InstructorEmail string         `json:"instructor_email" binding:"omitempty,email"`
	Extra           map[string]any `json:"extra"`
}

// check 各竞赛类型的专属必填项
func (f *Fields) check(competitionType string) error {
	var missing []string
	need := func(value, label string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, label)
		}
	}
	switch competitionType {
	case model.CompetitionRedTravel:
		need(f.Category, "项目组别")
	case model.CompetitionChallengeCup:
		need(f.ProjectType, "作品类别")
	case model.CompetitionStartupPlan:
		need(f.ProjectField, "项目领域")
	default:
		return nil
	}
	need(f.Innovation, "项目创新点")
	need(f.Development, "项目开发现状")
	need(f.AwardsText, "获奖、专利及论文情况")
	if len(missing) > 0 {
		return response.ErrInvalidRequest.WithTips("以下内容不能为空：" + strings.Join(missing, "、"))
	}
	return nil
}

func (f *Fields) apply(p *model.Project) {
	p.Title = strings.TrimSpace(f.Title)
	p.Description = strings.TrimSpace(f.Description)
	p.Category = f.Category
	p.ProjectType = f.ProjectType
	p.ProjectField = f.ProjectField
	p.Innovation = strings.TrimSpace(f.Innovation)
	p.Development = strings.TrimSpace(f.Development)
	p.AwardsText = strings.TrimSpace(f.AwardsText)
	p.PushCollege = f.PushCollege
	p.InstructorName = f.InstructorName
	p.InstructorTitle = f.InstructorTitle
	p.InstructorPhone = f.InstructorPhone
	p.InstructorEmail = f.InstructorEmail
	p.Extra = f.Extra
	if p.Extra == nil {
		p.Extra = map[string]any{}
	}
}

var contentColumns = []string{
	"title", "description", "category", "project_type", "project_field",
	"innovation", "development", "awards_text", "push_college", "extra",
	"instructor_name", "instructor_title", "instructor_phone", "instructor_email",
}

type CreateReq struct {
	CompetitionID uint   `json:"competition_id" binding:"required"`
	TeamName      string `json:"team_name" binding:"max=100"`
	Fields
}

// Create 在竞赛中创建草稿项目。
// 队长在该竞赛下还没有队伍时自动建队，队名默认“<姓名>的队伍”
func Create(db *gorm.DB, req CreateReq, leader *model.User, now time.Time) (*model.Project, error) {
	var p *model.Project
	err := db.Transaction(func(tx *gorm.DB) error {
		comp, err := competition.Find(tx, req.CompetitionID)
		if err != nil {
			return err
		}
		if !competition.Visible(comp, model.RoleStudent) {
			return response.ErrNotFound.WithTips("竞赛不存在")
		}
		if !comp.RegistrationOpen(now) {
			return response.ErrInvalidState.WithTips("不在报名时间内")
		}
		if err := req.Fields.check(comp.CompetitionType); err != nil {
			return err
		}

		team, err := leaderTeam(tx, comp.ID, leader, req.TeamName)
		if err != nil {
			return err
		}

		p = &model.Project{
			CompetitionID: comp.ID,
			TeamID:        team.ID,
			LeaderID:      leader.ID,
			Status:        model.StatusDraft,
		}
		req.Fields.apply(p)
		if err := tx.Create(p).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}

		member := leaderMember(p.ID, leader, now)
		if err := tx.Create(&member).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func leaderTeam(tx *gorm.DB, competitionID uint, leader *model.User, name string) (*model.Team, error) {
	var team model.Team
	err := tx.Where("competition_id = ? AND leader_id = ?", competitionID, leader.ID).Order("id").First(&team).Error
	if err == nil {
		return &team, nil
	}
	if !database.IsNotFound(err) {
		return nil, response.ErrDatabase.WithOrigin(err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = leader.RealName + "的队伍"
	}
	team = model.Team{Name: name, CompetitionID: competitionID, LeaderID: leader.ID}
	if err := tx.Create(&team).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, response.ErrAlreadyExists.WithTips("该竞赛中已存在同名队伍")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &team, nil
}

func leaderMember(projectID uint, leader *model.User, now time.Time) model.ProjectMember {
	workID := ""
	if leader.WorkID != nil {
		workID = *leader.WorkID
	}
	return model.ProjectMember{
		ProjectID:   projectID,
		Order:       1,
		UserID:      &leader.ID,
		Name:        leader.RealName,
		WorkID:      workID,
		College:     leader.College,
		Phone:       leader.Phone,
		IsLeader:    true,
		IsConfirmed: true,
		ConfirmedAt: &now,
	}
}

// Update 仅队长可在草稿或学院退回状态下修改
func Update(db *gorm.DB, id uint, fields Fields, userID uint) (*model.Project, error) {
	var p *model.Project
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = Find(tx, id); err != nil {
			return err
		}
		if err := requireLeader(p, userID); err != nil {
			return err
		}
		if err := requireEditable(p); err != nil {
			return err
		}
		comp, err := competition.Find(tx, p.CompetitionID)
		if err != nil {
			return err
		}
		if err := fields.check(comp.CompetitionType); err != nil {
			return err
		}

		fields.apply(p)
		// 只写内容列并以原状态为条件，避免覆盖并发的审核结果
		result := tx.Model(p).Where("status = ?", p.Status).Select(contentColumns).Updates(p)
		if result.Error != nil {
			return response.ErrDatabase.WithOrigin(result.Error)
		}
		if result.RowsAffected == 0 {
			return response.ErrInvalidState.WithTips("项目状态已变化，请刷新后重试")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete 只能删除草稿项目，返回需要清理的存储 key
func Delete(db *gorm.DB, id uint, userID uint) ([]string, error) {
	var keys []string
	err := db.Transaction(func(tx *gorm.DB) error {
		p, err := Find(tx, id)
		if err != nil {
			return err
		}
		if err := requireLeader(p, userID); err != nil {
			return err
		}
		if p.Status != model.StatusDraft {
			return response.ErrInvalidState.WithTips("只能删除草稿状态的项目")
		}

		var attachments []model.ProjectAttachment
		if err := tx.Where("project_id = ?", id).Find(&attachments).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}
		for _, a := range attachments {
			keys = append(keys, a.StoredPath)
		}

		result := tx.Where("id = ? AND status = ?", id, model.StatusDraft).Delete(&model.Project{})
		if result.Error != nil {
			return response.ErrDatabase.WithOrigin(result.Error)
		}
		if result.RowsAffected == 0 {
			return response.ErrInvalidState.WithTips("项目状态已变化，请刷新后重试")
		}
		return deleteChildren(tx, id)
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// deleteChildren 级联删除项目的从属记录
func deleteChildren(tx *gorm.DB, projectID uint) error {
	children := []any{
		&model.ProjectMember{},
		&model.ProjectAttachment{},
		&model.JudgeAssignment{},
		&model.Score{},
		&model.Award{},
		&model.ExternalAward{},
	}
	for _, child := range children {
		if err := tx.Where("project_id = ?", projectID).Delete(child).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}
	}
	return nil
}

type MemberReq struct {
	Name    string `json:"name" binding:"required,max=64"`
	WorkID  string `json:"work_id" binding:"required,max=32"`
	College string `json:"college" binding:"omitempty,college"`
	Phone   string `json:"phone" binding:"max=32"`
}

type MembersReq struct {
	Members         []MemberReq `json:"members" binding:"dive"`
	InstructorName  *string     `json:"instructor_name"`
	InstructorTitle *string     `json:"instructor_title"`
	InstructorPhone *string     `json:"instructor_phone"`
	InstructorEmail *string     `json:"instructor_email"`
}

// ReplaceMembersOf 以请求中的顺序重建名册，队长固定为第 1 位且自动确认。
// 每位成员必须已注册；仍在名册中的成员保留原确认状态，新成员需重新确认
func ReplaceMembersOf(db *gorm.DB, id uint, req MembersReq, userID uint, now time.Time) ([]model.ProjectMember, error) {
	var members []model.ProjectMember
	err := db.Transaction(func(tx *gorm.DB) error {
		p, err := Find(tx, id)
		if err != nil {
			return err
		}
		if err := requireLeader(p, userID); err != nil {
			return err
		}
		if err := requireEditable(p); err != nil {
			return err
		}

		var leader model.User
		if err := tx.First(&leader, p.LeaderID).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}

		var existing []model.ProjectMember
		if err := tx.Where("project_id = ?", id).Find(&existing).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}
		confirmed := map[uint]*time.Time{}
		for _, m := range existing {
			if m.UserID != nil && m.IsConfirmed {
				confirmed[*m.UserID] = m.ConfirmedAt
			}
		}

		lead := leaderMember(id, &leader, now)
		if at, ok := confirmed[leader.ID]; ok && at != nil {
			lead.ConfirmedAt = at
		}
		members = []model.ProjectMember{lead}
		seen := map[string]bool{}
		if leader.WorkID != nil {
			seen[*leader.WorkID] = true
		}
		var unregistered []string
		for _, m := range req.Members {
			workID := strings.TrimSpace(m.WorkID)
			if seen[workID] {
				continue
			}
			seen[workID] = true

			var u model.User
			err := tx.Select("id").Where("work_id = ?", workID).First(&u).Error
			if database.IsNotFound(err) {
				unregistered = append(unregistered, m.Name+"（学号："+workID+"）")
				continue
			}
			if err != nil {
				return response.ErrDatabase.WithOrigin(err)
			}

			member := model.ProjectMember{
				ProjectID: id,
				Order:     len(members) + 1,
				UserID:    &u.ID,
				Name:      strings.TrimSpace(m.Name),
				WorkID:    workID,
				College:   m.College,
				Phone:     m.Phone,
			}
			if at, ok := confirmed[u.ID]; ok {
				member.IsConfirmed = true
				member.ConfirmedAt = at
			}
			members = append(members, member)
		}
		if len(unregistered) > 0 {
			return response.ErrInvalidRequest.WithTips("以下队员还未注册：" + strings.Join(unregistered, "、"))
		}

		if err := tx.Where("project_id = ?", id).Delete(&model.ProjectMember{}).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}
		if err := tx.Create(&members).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}

		instructor := map[string]any{}
		for column, v := range map[string]*string{
			"instructor_name":  req.InstructorName,
			"instructor_title": req.InstructorTitle,
			"instructor_phone": req.InstructorPhone,
			"instructor_email": req.InstructorEmail,
		} {
			if v != nil {
				instructor[column] = *v
			}
		}
		if len(instructor) > 0 {
			if err := tx.Model(p).Updates(instructor).Error; err != nil {
				return response.ErrDatabase.WithOrigin(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Confirm 名册中的成员确认参与，重复确认不报错
func Confirm(db *gorm.DB, id uint, userID uint, now time.Time) error {
	if _, err := Find(db, id); err != nil {
		return err
	}
	result := db.Model(&model.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_confirmed": true, "confirmed_at": gorm.Expr("COALESCE(confirmed_at, ?)", now)})
	if result.Error != nil {
		return response.ErrDatabase.WithOrigin(result.Error)
	}
	if result.RowsAffected == 0 {
		return response.ErrForbidden.WithTips("您不是该项目的成员")
	}
	return nil
}

// Mine 当前用户作为队长或名册成员参与的项目
func Mine(db *gorm.DB, userID uint) ([]model.Project, error) {
	projects := []model.Project{}
	memberOf := db.Model(&model.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)
	err := db.Preload("Competition").Preload("Team").Preload("Award").
		Where("leader_id = ? OR id IN (?)", userID, memberOf).
		Order("created_at DESC, id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return projects, nil
}

// Detail 带上竞赛、队伍、名册、附件与校级奖项
func Detail(db *gorm.DB, id uint) (*model.Project, error) {
	var p model.Project
	err := db.Preload("Competition").Preload("Team").Preload("Award").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("member_order") }).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&p, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("项目不存在")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &p, nil
}
