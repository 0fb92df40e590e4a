package project

import (
	"competition-portal/config"
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/detector"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/metrics"
	"competition-portal/internal/global/response"
	"competition-portal/internal/global/storage"
	"competition-portal/internal/model"
	"competition-portal/tools"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// displayName 去掉客户端带来的目录部分
func displayName(name string) string {
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}

func attachmentOf(db *gorm.DB, projectID, attachmentID uint) (*model.ProjectAttachment, error) {
	var a model.ProjectAttachment
	err := db.Where("id = ? AND project_id = ?", attachmentID, projectID).First(&a).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("附件不存在")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &a, nil
}

// AddAttachment 先写文件再落库，落库失败时删除已写入的文件
func AddAttachment(ctx context.Context, db *gorm.DB, projectID, userID uint, fileName string, size int64, r io.Reader) (*model.ProjectAttachment, error) {
	p, err := Find(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireLeader(p, userID); err != nil {
		return nil, err
	}
	if err := requireEditable(p); err != nil {
		return nil, err
	}

	ext, err := storage.CheckUpload(fileName, size, config.Get().Upload)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, response.ErrFileTooLarge.WithTips(err.Error())
		}
		return nil, response.ErrInvalidRequest.WithTips(err.Error())
	}

	key := storage.Key("attachments", fmt.Sprintf("project_%d", projectID), storage.UniqueName(ext, time.Now()))
	if err := storage.Default.Save(ctx, key, r, mime.TypeByExtension("."+ext)); err != nil {
		return nil, response.ErrStorage.WithOrigin(err)
	}

	a := &model.ProjectAttachment{
		ProjectID:        projectID,
		FileName:         displayName(fileName),
		StoredPath:       key,
		FileType:         ext,
		FileSize:         size,
		UploadedByID:     userID,
		DetectedKeywords: []string{},
	}
	if err := db.Create(a).Error; err != nil {
		_ = storage.Default.Remove(ctx, key)
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return a, nil
}

// RemoveAttachment 删除记录后再删文件
func RemoveAttachment(ctx context.Context, db *gorm.DB, projectID, attachmentID, userID uint) error {
	p, err := Find(db, projectID)
	if err != nil {
		return err
	}
	if err := requireLeader(p, userID); err != nil {
		return err
	}
	if err := requireEditable(p); err != nil {
		return err
	}
	a, err := attachmentOf(db, projectID, attachmentID)
	if err != nil {
		return err
	}
	if err := db.Delete(a).Error; err != nil {
		return response.ErrDatabase.WithOrigin(err)
	}
	removeStored(ctx, []string{a.StoredPath})
	return nil
}

// CheckSensitive 调用检测服务并保存结果。
// 检测失败只记录在附件上，不作为请求错误返回
func CheckSensitive(ctx context.Context, db *gorm.DB, checker detector.Checker, a *model.ProjectAttachment, now time.Time) (*model.ProjectAttachment, error) {
	data, err := storage.ReadAll(ctx, storage.Default, a.StoredPath)
	if err != nil {
		return nil, response.ErrStorage.WithOrigin(err)
	}

	result := checker.Detect(ctx, data, a.FileType)
	outcome := "clean"
	switch {
	case result.Error != "":
		outcome = "inconclusive"
	case result.HasSensitive:
		outcome = "sensitive"
	}
	metrics.DetectorChecks.WithLabelValues(a.FileType, outcome).Inc()

	keywords := result.DetectedKeywords
	if keywords == nil {
		keywords = []string{}
	}
	a.SensitiveChecked = true
	a.HasSensitive = result.HasSensitive
	a.DetectedKeywords = keywords
	a.SensitiveDetails = result.Details
	a.SensitiveError = result.Error
	a.CheckedAt = &now
	err = db.Model(a).Select("sensitive_checked", "has_sensitive", "detected_keywords", "sensitive_details", "sensitive_error", "checked_at").Updates(a).Error
	if err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return a, nil
}

func attachmentParams(c *gin.Context) (uint, uint, bool) {
	id, ok := projectID(c)
	if !ok {
		return 0, 0, false
	}
	attachmentID, err := tools.ParamUint(c, "attachment_id")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("附件ID无效"))
		return 0, 0, false
	}
	return id, attachmentID, true
}

func UploadAttachment(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("请选择要上传的文件"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	defer file.Close()

	a, err := AddAttachment(c.Request.Context(), database.DB, id, payload.UserID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		log.Warn("上传附件失败", "project_id", id, "file", fileHeader.Filename, "error", err)
		response.Fail(c, err)
		return
	}
	log.Info("上传附件", "project_id", id, "attachment_id", a.ID, "size", a.FileSize)
	response.Success(c, a)
}

func DeleteAttachment(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, attachmentID, ok := attachmentParams(c)
	if !ok {
		return
	}
	if err := RemoveAttachment(c.Request.Context(), database.DB, id, attachmentID, payload.UserID); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("删除附件", "project_id", id, "attachment_id", attachmentID)
	response.Success(c)
}

// visibleAttachment 校验项目可见性后返回附件
func visibleAttachment(c *gin.Context) (*model.Project, *model.ProjectAttachment, bool) {
	payload, _ := jwt.GetUserPayload(c)
	id, attachmentID, ok := attachmentParams(c)
	if !ok {
		return nil, nil, false
	}
	p, err := Find(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return nil, nil, false
	}
	if err := CanView(database.DB, p, payload); err != nil {
		response.Fail(c, err)
		return nil, nil, false
	}
	a, err := attachmentOf(database.DB, id, attachmentID)
	if err != nil {
		response.Fail(c, err)
		return nil, nil, false
	}
	return p, a, true
}

func DownloadAttachment(c *gin.Context) {
	_, a, ok := visibleAttachment(c)
	if !ok {
		return
	}
	contentType := mime.TypeByExtension("." + a.FileType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := storage.Serve(c, storage.Default, a.StoredPath, a.FileName, contentType); err != nil {
		log.Error("附件下载失败", "attachment_id", a.ID, "error", err)
		response.Fail(c, response.ErrNotFound.WithTips("附件文件不存在").WithOrigin(err))
	}
}

func CheckAttachment(c *gin.Context) {
	_, a, ok := visibleAttachment(c)
	if !ok {
		return
	}
	if detector.Default == nil {
		response.Fail(c, response.ErrExternal.WithTips("检测服务未启用"))
		return
	}
	checked, err := CheckSensitive(c.Request.Context(), database.DB, detector.Default, a, time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("附件敏感信息检测",
		"attachment_id", a.ID,
		"has_sensitive", checked.HasSensitive,
		"error", checked.SensitiveError)
	response.Success(c, checked)
}
