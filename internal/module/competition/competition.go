package competition

import (
	"competition-portal/config"
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/internal/global/storage"
	"competition-portal/internal/model"
	"competition-portal/tools"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var qrcodeUpload = config.Upload{MaxSizeMB: 2, AllowedExts: []string{"png", "jpg", "jpeg"}}

func competitionID(c *gin.Context) (uint, bool) {
	id, err := tools.ParamUint(c, "id")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("竞赛ID无效"))
		return 0, false
	}
	return id, true
}

func CreateCompetition(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	var req CompetitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	comp, err := Create(database.DB, req, payload.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("创建竞赛", "competition_id", comp.ID, "name", comp.Name, "user_id", payload.UserID)
	response.Success(c, comp)
}

func UpdateCompetition(c *gin.Context) {
	id, ok := competitionID(c)
	if !ok {
		return
	}
	var req CompetitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	comp, err := Update(database.DB, id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("更新竞赛", "competition_id", id, "final_quota", comp.FinalQuota)
	response.Success(c, comp)
}

func TogglePublish(c *gin.Context) {
	id, ok := competitionID(c)
	if !ok {
		return
	}
	comp, err := TogglePublished(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("切换竞赛发布状态", "competition_id", id, "is_published", comp.IsPublished)
	response.Success(c, comp)
}

func DeleteCompetition(c *gin.Context) {
	id, ok := competitionID(c)
	if !ok {
		return
	}
	if err := Delete(database.DB, id); err != nil {
		log.Warn("删除竞赛失败", "competition_id", id, "error", err)
		response.Fail(c, err)
		return
	}
	log.Info("删除竞赛", "competition_id", id)
	response.Success(c)
}

func ListCompetitions(c *gin.Context) {
	var req ListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	competitions, err := List(database.DB, req, jwt.Acting(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	now := time.Now()
	items := make([]gin.H, 0, len(competitions))
	for i := range competitions {
		comp := &competitions[i]
		items = append(items, gin.H{
			"competition":       comp,
			"registration_open": comp.RegistrationOpen(now),
			"draw_window_open":  comp.DrawWindowOpen(now),
		})
	}
	response.Success(c, items)
}

func visibleCompetition(c *gin.Context) (*model.Competition, bool) {
	id, ok := competitionID(c)
	if !ok {
		return nil, false
	}
	comp, err := Find(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return nil, false
	}
	if !Visible(comp, jwt.Acting(c)) {
		response.Fail(c, response.ErrNotFound.WithTips("竞赛不存在"))
		return nil, false
	}
	return comp, true
}

func GetCompetition(c *gin.Context) {
	comp, ok := visibleCompetition(c)
	if !ok {
		return
	}
	var projects int64
	if err := database.DB.Model(&model.Project{}).Where("competition_id = ?", comp.ID).Count(&projects).Error; err != nil {
		response.Fail(c, response.ErrDatabase.WithOrigin(err))
		return
	}
	now := time.Now()
	response.Success(c, gin.H{
		"competition":       comp,
		"project_count":     projects,
		"registration_open": comp.RegistrationOpen(now),
		"draw_window_open":  comp.DrawWindowOpen(now),
	})
}

// UploadQRCode 替换 QQ 群二维码，新文件写入后再删除旧文件
func UploadQRCode(c *gin.Context) {
	id, ok := competitionID(c)
	if !ok {
		return
	}
	comp, err := Find(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("请上传二维码图片"))
		return
	}
	ext, err := storage.CheckUpload(fileHeader.Filename, fileHeader.Size, qrcodeUpload)
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips(err.Error()))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	defer file.Close()

	key := storage.Key("competition", fmt.Sprint(id), storage.UniqueName(ext, time.Now()))
	if err := storage.Default.Save(c.Request.Context(), key, file, fileHeader.Header.Get("Content-Type")); err != nil {
		log.Error("保存二维码失败", "competition_id", id, "error", err)
		response.Fail(c, response.ErrStorage.WithOrigin(err))
		return
	}
	old := comp.QQGroupQRCode
	if err := database.DB.Model(comp).Update("QQGroupQRCode", key).Error; err != nil {
		_ = storage.Default.Remove(c.Request.Context(), key)
		response.Fail(c, response.ErrDatabase.WithOrigin(err))
		return
	}
	comp.QQGroupQRCode = key
	if old != "" {
		if err := storage.Default.Remove(c.Request.Context(), old); err != nil {
			log.Warn("删除旧二维码失败", "key", old, "error", err)
		}
	}
	response.Success(c, comp)
}

func GetQRCode(c *gin.Context) {
	comp, ok := visibleCompetition(c)
	if !ok {
		return
	}
	if comp.QQGroupQRCode == "" {
		response.Fail(c, response.ErrNotFound.WithTips("未上传群二维码"))
		return
	}
	ext := strings.TrimPrefix(path.Ext(comp.QQGroupQRCode), ".")
	contentType := "image/jpeg"
	if ext == "png" {
		contentType = tools.PNGContentType
	}
	if err := storage.Serve(c, storage.Default, comp.QQGroupQRCode, "qrcode."+ext, contentType); err != nil {
		response.Fail(c, response.ErrNotFound.WithOrigin(err))
	}
}
