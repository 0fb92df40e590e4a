package award

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/internal/global/storage"
	"competition-portal/internal/model"
	"competition-portal/internal/module/project"
	"competition-portal/tools"
	"mime"
	"path"
	"time"

	"github.com/gin-gonic/gin"
)

func paramID(c *gin.Context, key, what string) (uint, bool) {
	id, err := tools.ParamUint(c, key)
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips(what+"ID无效"))
		return 0, false
	}
	return id, true
}

type AwardReq struct {
	AwardName string `json:"award_name" binding:"required,max=100"`
}

func SetAward(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := paramID(c, "id", "项目")
	if !ok {
		return
	}
	var req AwardReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	a, err := Set(c.Request.Context(), database.DB, id, req.AwardName, payload.UserID, time.Now())
	if err != nil {
		log.Warn("设置奖项失败", "project_id", id, "error", err)
		response.Fail(c, err)
		return
	}
	log.Info("设置奖项", "project_id", id, "award", a.AwardName, "user_id", payload.UserID)
	response.Success(c, a)
}

func ClearAward(c *gin.Context) {
	id, ok := paramID(c, "id", "项目")
	if !ok {
		return
	}
	if err := Clear(c.Request.Context(), database.DB, id); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("撤销奖项", "project_id", id)
	response.Success(c)
}

func ListAwards(c *gin.Context) {
	id, ok := paramID(c, "id", "竞赛")
	if !ok {
		return
	}
	items, err := List(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, items)
}

type CollectionReq struct {
	Allow *bool `json:"allow" binding:"required"`
}

func ToggleCollection(c *gin.Context) {
	id, ok := paramID(c, "id", "项目")
	if !ok {
		return
	}
	var req CollectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	if err := SetCollection(database.DB, id, *req.Allow); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("切换获奖材料收集", "project_id", id, "allow", *req.Allow)
	response.Success(c, gin.H{"allow_award_collection": *req.Allow})
}

func DownloadCertificate(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := paramID(c, "id", "项目")
	if !ok {
		return
	}
	p, err := findProject(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := CanDownload(p, payload); err != nil {
		response.Fail(c, err)
		return
	}
	if p.Award == nil || p.Award.CertificatePath == "" {
		response.Fail(c, response.ErrNotFound.WithTips("该项目暂无获奖证书"))
		return
	}
	name := tools.SafeFileName(p.Title) + "+" + tools.SafeFileName(p.Award.AwardName) + ".png"
	if err := storage.Serve(c, storage.Default, p.Award.CertificatePath, name, "image/png"); err != nil {
		response.Fail(c, response.ErrStorage.WithTips("证书文件不存在").WithOrigin(err))
	}
}

// viewable 获奖材料与项目详情使用同样的可见范围
func viewable(c *gin.Context) (*model.Project, bool) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := paramID(c, "id", "项目")
	if !ok {
		return nil, false
	}
	p, err := project.Find(database.DB, id)
	if err != nil {
		response.Fail(c, err)
		return nil, false
	}
	if err := project.CanView(database.DB, p, payload); err != nil {
		response.Fail(c, err)
		return nil, false
	}
	return p, true
}

func ListExternal(c *gin.Context) {
	p, ok := viewable(c)
	if !ok {
		return
	}
	list, err := Externals(database.DB, p.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, list)
}

func DownloadEvidence(c *gin.Context) {
	p, ok := viewable(c)
	if !ok {
		return
	}
	awardID, ok := paramID(c, "award_id", "获奖记录")
	if !ok {
		return
	}
	a, err := externalOf(database.DB, p.ID, awardID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	contentType := mime.TypeByExtension(path.Ext(a.EvidencePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := storage.Serve(c, storage.Default, a.EvidencePath, a.EvidenceName, contentType); err != nil {
		response.Fail(c, response.ErrStorage.WithTips("文件不存在").WithOrigin(err))
	}
}

func UploadExternal(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := paramID(c, "id", "项目")
	if !ok {
		return
	}
	var req ExternalReq
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("请上传获奖证明文件"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	defer f.Close()

	a, err := AddExternal(c.Request.Context(), database.DB, id, payload.UserID, req, fh.Filename, fh.Size, f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("上传获奖材料", "project_id", id, "level", a.Level, "award", a.AwardName, "user_id", payload.UserID)
	response.Success(c, a)
}

func DeleteExternal(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	id, ok := paramID(c, "id", "项目")
	if !ok {
		return
	}
	awardID, ok := paramID(c, "award_id", "获奖记录")
	if !ok {
		return
	}
	if err := RemoveExternal(c.Request.Context(), database.DB, id, awardID, payload.UserID); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c)
}
