package user

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"strconv"

	"github.com/gin-gonic/gin"
)

type LoginReq struct {
	LoginType string `json:"login_type"` // campus（默认）或 judge
	Account   string `json:"account" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type LoginResp struct {
	Token          string       `json:"token"`
	User           *model.User  `json:"user"`
	ActiveRole     model.Role   `json:"active_role"`
	AvailableRoles []model.Role `json:"available_roles"`
}

func sessionOf(u *model.User, active model.Role) LoginResp {
	payload := jwt.PayloadOf(u, active)
	return LoginResp{
		Token:          jwt.CreateToken(payload),
		User:           u,
		ActiveRole:     payload.ActiveRole,
		AvailableRoles: u.AvailableRoles(),
	}
}

// Login 校内用户与评委分别登录，登录后默认以主角色活动
func Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	user, err := Authenticate(database.DB, req.LoginType, req.Account, req.Password)
	if err != nil {
		log.Warn("登录失败", "login_type", req.LoginType, "account", req.Account, "error", err)
		response.Fail(c, err)
		return
	}

	log.Info("登录成功", "user_id", user.ID, "role", user.Role)
	response.Success(c, sessionOf(user, ""))
}

func Me(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	var user model.User
	if err := database.DB.First(&user, payload.UserID).Error; err != nil {
		response.Fail(c, response.ErrDatabase.WithOrigin(err))
		return
	}
	response.Success(c, gin.H{
		"user":            user,
		"active_role":     payload.ActiveRole,
		"available_roles": user.AvailableRoles(),
	})
}

type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func ChangePassword(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	if err := ChangePasswordOf(database.DB, payload.UserID, req.OldPassword, req.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("修改密码", "user_id", payload.UserID)
	response.Success(c)
}

type SwitchRoleReq struct {
	Role model.Role `json:"role" binding:"required,role"`
}

// SwitchRole 切换激活角色并签发新 token
func SwitchRole(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	var req SwitchRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	user, err := SwitchRoleOf(database.DB, payload.UserID, req.Role)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("切换角色", "user_id", user.ID, "from", payload.ActiveRole, "to", req.Role)
	response.Success(c, sessionOf(user, req.Role))
}

func ListColleges(c *gin.Context) {
	response.Success(c, model.Colleges)
}

func CreateUser(c *gin.Context) {
	var req CreateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	user, err := CreateAccount(database.DB, req)
	if err != nil {
		log.Warn("创建用户失败", "role", req.Role, "error", err)
		response.Fail(c, err)
		return
	}
	log.Info("创建用户", "user_id", user.ID, "role", user.Role)
	response.Success(c, user)
}

// ImportStudents 上传 xlsx 名册批量导入学生
func ImportStudents(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("请上传名册文件"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	defer file.Close()

	result, err := ImportRoster(database.DB, file, c.PostForm("default_password"))
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips(err.Error()))
		return
	}
	log.Info("导入学生名册", "created", result.Created, "reset", result.Reset, "failed", len(result.Failed))
	response.Success(c, result)
}

type ListUsersReq struct {
	College  string `form:"college"`
	Keyword  string `form:"keyword"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ListStudents 学院管理员只能查询本院学生，college 参数被忽略
func ListStudents(c *gin.Context) {
	payload, _ := jwt.GetUserPayload(c)
	var req ListUsersReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	if payload.ActiveRole == model.RoleCollegeAdmin {
		req.College = payload.College
	}
	listUsers(c, model.RoleStudent, req)
}

func ListByRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListUsersReq
		if err := c.ShouldBindQuery(&req); err != nil {
			response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
			return
		}
		listUsers(c, role, req)
	}
}

func listUsers(c *gin.Context, role model.Role, req ListUsersReq) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	query := database.DB.Model(&model.User{}).Where("role = ?", role)
	if req.College != "" {
		query = query.Where("college = ?", req.College)
	}
	if req.Keyword != "" {
		like := "%" + req.Keyword + "%"
		query = query.Where("real_name LIKE ? OR work_id LIKE ? OR username LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		response.Fail(c, response.ErrDatabase.WithOrigin(err))
		return
	}
	var users []model.User
	if err := query.Order("id").Offset((req.Page - 1) * req.PageSize).Limit(req.PageSize).Find(&users).Error; err != nil {
		response.Fail(c, response.ErrDatabase.WithOrigin(err))
		return
	}
	response.Success(c, gin.H{
		"users":     users,
		"total":     total,
		"page":      req.Page,
		"page_size": req.PageSize,
	})
}

func userID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithTips("用户ID无效"))
		return 0, false
	}
	return uint(id), true
}

type GrantedRolesReq struct {
	Roles []model.Role `json:"roles" binding:"dive,role"`
}

func UpdateGrantedRoles(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req GrantedRolesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	user, err := SetGrantedRoles(database.DB, id, req.Roles)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("调整额外角色", "user_id", id, "roles", user.GrantedRoles)
	response.Success(c, user)
}

type ActiveReq struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func UpdateActive(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req ActiveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	if payload, _ := jwt.GetUserPayload(c); payload.UserID == id && !*req.IsActive {
		response.Fail(c, response.ErrInvalidRequest.WithTips("不能停用自己的账号"))
		return
	}
	if err := SetActive(database.DB, id, *req.IsActive); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("调整账号状态", "user_id", id, "is_active", *req.IsActive)
	response.Success(c)
}

type ResetPasswordReq struct {
	Password string `json:"password" binding:"required,min=6"`
}

func ResetPassword(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req ResetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	if err := SetPassword(database.DB, id, req.Password); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("重置密码", "user_id", id)
	response.Success(c)
}
