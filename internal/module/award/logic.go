package award

import (
	"bytes"
	"competition-portal/internal/global/certificate"
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/locker"
	"competition-portal/internal/global/metrics"
	"competition-portal/internal/global/response"
	"competition-portal/internal/global/storage"
	"competition-portal/internal/model"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func findProject(db *gorm.DB, id uint) (*model.Project, error) {
	var p model.Project
	err := db.Preload("Competition").Preload("Team").Preload("Award").First(&p, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("项目不存在")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &p, nil
}

// renderCertificate 生成证书并写入存储，返回对象 key
func renderCertificate(ctx context.Context, p *model.Project, awardName string, now time.Time) (key string, err error) {
	defer func() {
		metrics.Certificates.WithLabelValues(metrics.Result(err)).Inc()
	}()
	if certificate.Default == nil {
		return "", response.ErrExternal.WithTips("证书生成服务未初始化")
	}
	data := certificate.Data{AwardName: awardName, IssuedAt: now}
	if p.Team != nil {
		data.TeamName = p.Team.Name
	}
	if p.Competition != nil {
		data.CompetitionName = p.Competition.Name
		data.Year = p.Competition.Year
	}
	png, err := certificate.Default.Render(data)
	if err != nil {
		return "", response.ErrExternal.WithTips("证书生成失败").WithOrigin(err)
	}
	key = storage.Key("certificates", fmt.Sprintf("project_%d", p.ID), storage.UniqueName("png", now))
	if err := storage.Default.Save(ctx, key, bytes.NewReader(png), "image/png"); err != nil {
		return "", response.ErrStorage.WithOrigin(err)
	}
	return key, nil
}

// lockProject 同一项目的奖项设置与撤销互斥，保证旧证书只被读取和删除一次
func lockProject(ctx context.Context, projectID uint) (func(), error) {
	unlock, err := locker.Default.Lock(ctx, fmt.Sprintf("award:%d", projectID))
	if err != nil {
		return nil, response.ErrInvalidState.WithTips("奖项正在被其他操作修改，请稍后重试").WithOrigin(err)
	}
	return unlock, nil
}

// Set 为决赛项目设置奖项。每个项目最多一条记录，重复设置覆盖原记录；
// 新证书写入成功且记录提交后才删除旧证书
func Set(ctx context.Context, db *gorm.DB, projectID uint, awardName string, issuerID uint, now time.Time) (*model.Award, error) {
	unlock, err := lockProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := findProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if !p.IsFinal {
		return nil, response.ErrInvalidState.WithTips("只能为进入决赛的项目设置奖项")
	}

	key, err := renderCertificate(ctx, p, awardName, now)
	if err != nil {
		return nil, err
	}

	var oldKey string
	err = db.Transaction(func(tx *gorm.DB) error {
		var keys []string
		err := tx.Model(&model.Award{}).Where("project_id = ?", projectID).Pluck("certificate_path", &keys).Error
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			oldKey = keys[0]
		}
		a := &model.Award{
			ProjectID:       projectID,
			AwardName:       awardName,
			CertificatePath: key,
			IssuedByID:      issuerID,
			IssuedAt:        now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"award_name", "certificate_path", "issued_by_id", "issued_at", "updated_at"}),
		}).Create(a).Error
	})
	if err != nil {
		_ = storage.Default.Remove(ctx, key)
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	if oldKey != "" && oldKey != key {
		if err := storage.Default.Remove(ctx, oldKey); err != nil {
			log.Warn("删除旧证书失败", "key", oldKey, "error", err)
		}
	}

	var saved model.Award
	if err := db.Where("project_id = ?", projectID).First(&saved).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &saved, nil
}

// Clear 撤销奖项并删除证书
func Clear(ctx context.Context, db *gorm.DB, projectID uint) error {
	unlock, err := lockProject(ctx, projectID)
	if err != nil {
		return err
	}
	defer unlock()

	var a model.Award
	if err := db.Where("project_id = ?", projectID).First(&a).Error; err != nil {
		if database.IsNotFound(err) {
			return response.ErrNotFound.WithTips("该项目没有奖项")
		}
		return response.ErrDatabase.WithOrigin(err)
	}
	if err := db.Delete(&a).Error; err != nil {
		return response.ErrDatabase.WithOrigin(err)
	}
	if a.CertificatePath != "" {
		if err := storage.Default.Remove(ctx, a.CertificatePath); err != nil {
			log.Warn("删除证书失败", "key", a.CertificatePath, "error", err)
		}
	}
	return nil
}

// CanDownload 队长、推送学院的学院管理员和校级管理员可以下载证书
func CanDownload(p *model.Project, claims *jwt.Claims) error {
	switch claims.ActiveRole {
	case model.RoleSchoolAdmin:
		return nil
	case model.RoleCollegeAdmin:
		if claims.College != "" && claims.College == p.PushCollege {
			return nil
		}
	case model.RoleStudent:
		if p.LeaderID == claims.UserID {
			return nil
		}
	}
	return response.ErrForbidden.WithTips("无权下载该证书")
}

// AwardItem 竞赛获奖列表中的一行
type AwardItem struct {
	model.Award
	Title       string `json:"title"`
	TeamName    string `json:"team_name"`
	PushCollege string `json:"push_college"`
}

func List(db *gorm.DB, competitionID uint) ([]AwardItem, error) {
	var projects []model.Project
	err := db.Joins("JOIN award ON award.project_id = project.id").
		Where("project.competition_id = ?", competitionID).
		Preload("Team").Preload("Award").Order("project.id").Find(&projects).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	items := make([]AwardItem, 0, len(projects))
	for _, p := range projects {
		if p.Award == nil {
			continue
		}
		item := AwardItem{Award: *p.Award, Title: p.Title, PushCollege: p.PushCollege}
		if p.Team != nil {
			item.TeamName = p.Team.Name
		}
		items = append(items, item)
	}
	return items, nil
}

// SetCollection 开关项目的省级、国家级获奖材料收集
func SetCollection(db *gorm.DB, projectID uint, allow bool) error {
	result := db.Model(&model.Project{}).Where("id = ?", projectID).Update("allow_award_collection", allow)
	if result.Error != nil {
		return response.ErrDatabase.WithOrigin(result.Error)
	}
	if result.RowsAffected == 0 {
		return response.ErrNotFound.WithTips("项目不存在")
	}
	return nil
}
