package assessment

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/tools"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

type YearReq struct {
	Year int `form:"year" binding:"required,min=2000,max=2100"`
}

func bindYear(c *gin.Context) (int, bool) {
	var req YearReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("请选择年度").WithOrigin(err))
		return 0, false
	}
	return req.Year, true
}

func GetReport(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	year, ok := bindYear(c)
	if !ok {
		return
	}
	college := ""
	if payload.ActiveRole == model.RoleCollegeAdmin {
		if payload.College == "" {
			response.Fail(c, response.ErrForbidden.WithTips("账号未设置学院信息，请联系管理员"))
			return
		}
		college = payload.College
	}
	reports, err := Report(database.DB, year, college)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, reports)
}

func ExportReport(c *gin.Context) {
	year, ok := bindYear(c)
	if !ok {
		return
	}
	reports, err := Report(database.DB, year, "")
	if err != nil {
		response.Fail(c, err)
		return
	}
	data, err := Export(reports)
	if err != nil {
		log.Error("导出评估结果失败", "year", year, "error", err)
		response.Fail(c, response.ErrServerInternal.WithTips("导出失败").WithOrigin(err))
		return
	}
	name := fmt.Sprintf("%d年度学院评估_%s.xlsx", year, time.Now().Format("20060102_150405"))
	tools.SendBytes(c, data, name, tools.ExcelContentType)
}

type ListConfigReq struct {
	Year int `form:"year"`
}

func ListConfigHandler(c *gin.Context) {
	var req ListConfigReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	configs, err := ListConfigs(database.DB, req.Year)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, configs)
}

func SaveConfigHandler(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	var req ConfigReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	cfg, err := SaveConfig(database.DB, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("保存评估配置", "year", cfg.Year, "college", cfg.College, "user_id", payload.UserID)
	response.Success(c, cfg)
}

func DeleteConfigHandler(c *gin.Context) {
	id, err := tools.ParamUint(c, "id")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("配置ID无效"))
		return
	}
	if err := DeleteConfig(database.DB, id); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("删除评估配置", "id", id)
	response.Success(c)
}
