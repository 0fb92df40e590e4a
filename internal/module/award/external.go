package award

import (
	"competition-portal/config"
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/response"
	"competition-portal/internal/global/storage"
	"competition-portal/internal/model"
	"competition-portal/internal/module/project"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ExternalReq struct {
	Level     model.AwardLevel `form:"level" binding:"required,oneof=provincial national"`
	AwardName string           `form:"award_name" binding:"required,max=100"`
	AwardedAt *time.Time       `form:"awarded_at" time_format:"2006-01-02"`
}

// collectable 队长在管理员开启收集后才能上传或删除
func collectable(db *gorm.DB, projectID, userID uint) (*model.Project, error) {
	p, err := project.Find(db, projectID)
	if err != nil {
		return nil, err
	}
	if p.LeaderID != userID {
		return nil, response.ErrForbidden.WithTips("只有队长可以上传获奖材料")
	}
	if !p.AllowAwardCollection {
		return nil, response.ErrInvalidState.WithTips("该项目暂未开放获奖材料收集")
	}
	return p, nil
}

// AddExternal 保存获奖证明后落库，落库失败时删除文件
func AddExternal(ctx context.Context, db *gorm.DB, projectID, userID uint, req ExternalReq, fileName string, size int64, r io.Reader) (*model.ExternalAward, error) {
	if _, err := collectable(db, projectID, userID); err != nil {
		return nil, err
	}
	ext, err := storage.CheckUpload(fileName, size, config.Get().Upload)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, response.ErrFileTooLarge.WithTips(err.Error())
		}
		return nil, response.ErrInvalidRequest.WithTips(err.Error())
	}

	key := storage.Key("external_awards", fmt.Sprintf("project_%d", projectID), storage.UniqueName(ext, time.Now()))
	if err := storage.Default.Save(ctx, key, r, mime.TypeByExtension("."+ext)); err != nil {
		return nil, response.ErrStorage.WithOrigin(err)
	}

	a := &model.ExternalAward{
		ProjectID:    projectID,
		Level:        req.Level,
		AwardName:    strings.TrimSpace(req.AwardName),
		EvidencePath: key,
		EvidenceName: path.Base(strings.ReplaceAll(fileName, "\\", "/")),
		AwardedAt:    req.AwardedAt,
		UploadedByID: userID,
	}
	if err := db.Create(a).Error; err != nil {
		_ = storage.Default.Remove(ctx, key)
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return a, nil
}

func externalOf(db *gorm.DB, projectID, awardID uint) (*model.ExternalAward, error) {
	var a model.ExternalAward
	if err := db.Where("id = ? AND project_id = ?", awardID, projectID).First(&a).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("获奖记录不存在")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &a, nil
}

func RemoveExternal(ctx context.Context, db *gorm.DB, projectID, awardID, userID uint) error {
	if _, err := collectable(db, projectID, userID); err != nil {
		return err
	}
	a, err := externalOf(db, projectID, awardID)
	if err != nil {
		return err
	}
	if err := db.Delete(a).Error; err != nil {
		return response.ErrDatabase.WithOrigin(err)
	}
	if a.EvidencePath != "" {
		if err := storage.Default.Remove(ctx, a.EvidencePath); err != nil {
			log.Warn("删除获奖材料失败", "key", a.EvidencePath, "error", err)
		}
	}
	return nil
}

func Externals(db *gorm.DB, projectID uint) ([]model.ExternalAward, error) {
	list := []model.ExternalAward{}
	if err := db.Where("project_id = ?", projectID).Order("id").Find(&list).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return list, nil
}
