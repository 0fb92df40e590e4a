package user

import (
	"competition-portal/internal/global/database"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/tools"
	"slices"
	"strings"

	"gorm.io/gorm"
)

const (
	LoginCampus = "campus"
	LoginJudge  = "judge"
)

// Authenticate 校内用户按学工号登录；评委按用户名或邮箱登录且主角色必须是评委
func Authenticate(db *gorm.DB, loginType, account, password string) (*model.User, error) {
	var user model.User
	query := db.Model(&model.User{})
	switch loginType {
	case LoginCampus, "":
		query = query.Where("work_id = ?", account)
	case LoginJudge:
		query = query.Where("(username = ? OR email = ?) AND role = ?", account, account, model.RoleJudge)
	default:
		return nil, response.ErrInvalidRequest.WithTips("未知的登录方式")
	}

	err := query.First(&user).Error
	switch {
	case database.IsNotFound(err):
		return nil, response.ErrInvalidPassword
	case err != nil:
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	if !tools.PasswordCompare(password, user.Password) {
		return nil, response.ErrInvalidPassword
	}
	if !user.IsActive {
		return nil, response.ErrAccountDisabled.WithTips("请联系管理员")
	}
	return &user, nil
}

type CreateUserReq struct {
	Role         model.Role   `json:"role" binding:"required,role"`
	WorkID       string       `json:"work_id"`
	Username     string       `json:"username"`
	Email        string       `json:"email" binding:"omitempty,email"`
	Password     string       `json:"password" binding:"required,min=6"`
	RealName     string       `json:"real_name" binding:"required"`
	College      string       `json:"college" binding:"omitempty,college"`
	Phone        string       `json:"phone"`
	GrantedRoles []model.Role `json:"granted_roles" binding:"omitempty,dive,role"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CreateAccount 评委至少需要用户名或邮箱，其余角色需要学工号；学生与学院管理员必须填写学院
func CreateAccount(db *gorm.DB, req CreateUserReq) (*model.User, error) {
	user := model.User{
		WorkID:   optional(req.WorkID),
		Username: optional(req.Username),
		Email:    optional(req.Email),
		Password: tools.PasswordEncrypt(req.Password),
		RealName: strings.TrimSpace(req.RealName),
		Role:     req.Role,
		College:  req.College,
		Phone:    req.Phone,
		IsActive: true,
	}
	if req.Role == model.RoleJudge {
		if user.Username == nil && user.Email == nil {
			return nil, response.ErrInvalidRequest.WithTips("评委账号需要用户名或邮箱")
		}
	} else if user.WorkID == nil {
		return nil, response.ErrInvalidRequest.WithTips("校内账号需要学工号")
	}
	if (req.Role == model.RoleStudent || req.Role == model.RoleCollegeAdmin) && req.College == "" {
		return nil, response.ErrInvalidRequest.WithTips("请选择学院")
	}
	user.GrantedRoles = normalizeGranted(req.Role, req.GrantedRoles)

	if err := db.Create(&user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, response.ErrAlreadyExists.WithTips("学工号、用户名或邮箱已被使用")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &user, nil
}

// normalizeGranted 去重并去掉与主角色相同的项
func normalizeGranted(primary model.Role, roles []model.Role) []model.Role {
	out := make([]model.Role, 0, len(roles))
	for _, r := range roles {
		if r != primary && r.Valid() && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

// UpsertStudent 学工号已存在时只重置密码，否则创建学生账号
func UpsertStudent(db *gorm.DB, row StudentRow, password string) (created bool, err error) {
	var existing model.User
	err = db.Where("work_id = ?", row.WorkID).First(&existing).Error
	switch {
	case err == nil:
		if err := db.Model(&existing).Update("password", tools.PasswordEncrypt(password)).Error; err != nil {
			return false, response.ErrDatabase.WithOrigin(err)
		}
		return false, nil
	case !database.IsNotFound(err):
		return false, response.ErrDatabase.WithOrigin(err)
	}

	name := row.RealName
	if name == "" {
		suffix := row.WorkID
		if len(suffix) > 4 {
			suffix = suffix[len(suffix)-4:]
		}
		name = "学生" + suffix
	}
	_, err = CreateAccount(db, CreateUserReq{
		Role:     model.RoleStudent,
		WorkID:   row.WorkID,
		Password: password,
		RealName: name,
		College:  row.College,
		Phone:    row.Phone,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SwitchRoleOf 在 {主角色} ∪ 额外角色 中选择激活角色
func SwitchRoleOf(db *gorm.DB, userID uint, role model.Role) (*model.User, error) {
	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("用户不存在")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	if !user.HasRole(role) {
		return nil, response.ErrForbidden.WithTips("未被授予" + role.Label() + "角色")
	}
	return &user, nil
}

func SetGrantedRoles(db *gorm.DB, userID uint, roles []model.Role) (*model.User, error) {
	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, response.ErrNotFound.WithTips("用户不存在")
		}
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	user.GrantedRoles = normalizeGranted(user.Role, roles)
	if err := db.Model(&user).Update("granted_roles", user.GrantedRoles).Error; err != nil {
		return nil, response.ErrDatabase.WithOrigin(err)
	}
	return &user, nil
}

func SetActive(db *gorm.DB, userID uint, active bool) error {
	result := db.Model(&model.User{}).Where("id = ?", userID).Update("is_active", active)
	if result.Error != nil {
		return response.ErrDatabase.WithOrigin(result.Error)
	}
	if result.RowsAffected == 0 {
		return response.ErrNotFound.WithTips("用户不存在")
	}
	return nil
}

func SetPassword(db *gorm.DB, userID uint, password string) error {
	result := db.Model(&model.User{}).Where("id = ?", userID).Update("password", tools.PasswordEncrypt(password))
	if result.Error != nil {
		return response.ErrDatabase.WithOrigin(result.Error)
	}
	if result.RowsAffected == 0 {
		return response.ErrNotFound.WithTips("用户不存在")
	}
	return nil
}

func ChangePasswordOf(db *gorm.DB, userID uint, oldPassword, newPassword string) error {
	var user model.User
	if err := db.Select("id", "password").First(&user, userID).Error; err != nil {
		return response.ErrDatabase.WithOrigin(err)
	}
	if !tools.PasswordCompare(oldPassword, user.Password) {
		return response.ErrInvalidPassword.WithTips("原密码错误")
	}
	return SetPassword(db, userID, newPassword)
}
