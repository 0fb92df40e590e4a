package competition

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"time"

	"gorm.io/gorm"
)

// Find 读取竞赛，不存在时返回 ErrNotFound
func Find(db *gorm.DB, id uint) (*model.Competition, error) {
	var c model.Competition
	if err := db.First(&c, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("竞赛不存在")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &c, nil
}

// Visible 校级管理员可见全部竞赛，其余角色只能看到已发布且有效的竞赛
func Visible(c *model.Competition, role model.Role) bool {
	if role == model.RoleSchoolAdmin {
		return true
	}
	return c.IsPublished && c.IsActive
}

type CompetitionReq struct {
	Name              string     `json:"name" binding:"required,max=200"`
	Year              int        `json:"year" binding:"required,min=2000,max=2100"`
	CompetitionType   string     `json:"competition_type" binding:"required,competition_type"`
	Description       string     `json:"description"`
	RegistrationStart *time.Time `json:"registration_start"`
	RegistrationEnd   *time.Time `json:"registration_end"`
	IsPublished       bool       `json:"is_published"`
	FinalQuota        *int       `json:"final_quota" binding:"omitempty,min=0"`
	DefenseOrderStart *time.Time `json:"defense_order_start"`
	DefenseOrderEnd   *time.Time `json:"defense_order_end"`
	QQGroupNumber     string     `json:"qq_group_number" binding:"max=32"`
}

func (r *CompetitionReq) check() error {
	if r.RegistrationStart != nil && r.RegistrationEnd != nil && r.RegistrationEnd.Before(*r.RegistrationStart) {
		return response.ErrInvalidRequest.WithTips("报名截止时间早于开始时间")
	}
	if (r.DefenseOrderStart == nil) != (r.DefenseOrderEnd == nil) {
		return response.ErrInvalidRequest.WithTips("抽签开始与结束时间需同时设置")
	}
	if r.DefenseOrderStart != nil && r.DefenseOrderEnd.Before(*r.DefenseOrderStart) {
		return response.ErrInvalidRequest.WithTips("抽签结束时间早于开始时间")
	}
	return nil
}

func (r *CompetitionReq) apply(c *model.Competition) {
	c.Name = r.Name
	c.Year = r.Year
	c.CompetitionType = r.CompetitionType
	c.Description = r.Description
	c.RegistrationStart = r.RegistrationStart
	c.RegistrationEnd = r.RegistrationEnd
	c.IsPublished = r.IsPublished
	c.FinalQuota = r.FinalQuota
	c.DefenseOrderStart = r.DefenseOrderStart
	c.DefenseOrderEnd = r.DefenseOrderEnd
	c.QQGroupNumber = r.QQGroupNumber
}

func Create(db *gorm.DB, req CompetitionReq, creatorID uint) (*model.Competition, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	c := model.Competition{IsActive: true, CreatedByID: creatorID}
	req.apply(&c)
	if err := db.Create(&c).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &c, nil
}

// Update 整体覆盖可编辑字段，未传的可选时间会被清空
func Update(db *gorm.DB, id uint, req CompetitionReq) (*model.Competition, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	c, err := Find(db, id)
	if err != nil {
		return nil, err
	}
	req.apply(c)
	if err := db.Save(c).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return c, nil
}

func TogglePublished(db *gorm.DB, id uint) (*model.Competition, error) {
	c, err := Find(db, id)
	if err != nil {
		return nil, err
	}
	c.IsPublished = !c.IsPublished
	if err := db.Model(c).Update("is_published", c.IsPublished).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return c, nil
}

// Delete 已有项目的竞赛不可删除
func Delete(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		c, err := Find(tx, id)
		if err != nil {
			return err
		}
		var projects int64
		if err := tx.Model(&model.Project{}).Where("competition_id = ?", id).Count(&projects).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}
		if projects > 0 {
			return response.ErrInvalidState.WithTipsf("该竞赛下已有 %d 个项目", projects)
		}
		if err := tx.Where("competition_id = ?", id).Delete(&model.Team{}).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}
		if err := tx.Delete(c).Error; err != nil {
			return response.ErrDatabase.WithOrigin(err)
		}
		return nil
	})
}

type ListReq struct {
	Year        int   `form:"year"`
	IsPublished *bool `form:"is_published"`
}

func List(db *gorm.DB, req ListReq, role model.Role) ([]model.Competition, error) {
	query := db.Model(&model.Competition{})
	if role != model.RoleSchoolAdmin {
		query = query.Where("is_published = ? AND is_active = ?", true, true)
	} else if req.IsPublished != nil {
		query = query.Where("is_published = ?", *req.IsPublished)
	}
	if req.Year > 0 {
		query = query.Where("year = ?", req.Year)
	}

	competitions := []model.Competition{}
	if err := query.Order("year DESC, id DESC").Find(&competitions).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return competitions, nil
}
