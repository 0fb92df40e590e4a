package model

import (
	"slices"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleStudent      Role = "student"
	RoleCollegeAdmin Role = "college_admin"
	RoleSchoolAdmin  Role = "school_admin"
	RoleJudge        Role = "judge"
)

var Roles = []Role{RoleStudent, RoleCollegeAdmin, RoleSchoolAdmin, RoleJudge}

func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

func (r Role) Label() string {
	switch r {
	case RoleStudent:
		return "学生"
	case RoleCollegeAdmin:
		return "学院管理员"
	case RoleSchoolAdmin:
		return "校级管理员"
	case RoleJudge:
		return "评委"
	}
	return string(r)
}

// User 校内用户使用学工号登录，评委使用用户名或邮箱登录
type User struct {
	Model
	WorkID       *string                   `gorm:"type:varchar(32);uniqueIndex" json:"work_id"`
	Username     *string                   `gorm:"type:varchar(64);uniqueIndex" json:"username"`
	Email        *string                   `gorm:"type:varchar(128);uniqueIndex" json:"email"`
	Password     string                    `gorm:"type:varchar(255);not null" json:"-"`
	RealName     string                    `gorm:"type:varchar(64);not null" json:"real_name"`
	Role         Role                      `gorm:"type:varchar(20);not null;index" json:"role"`
	GrantedRoles datatypes.JSONSlice[Role] `gorm:"type:json" json:"granted_roles"`
	College      string                    `gorm:"type:varchar(100);index" json:"college"`
	Phone        string                    `gorm:"type:varchar(32)" json:"phone"`
	IsActive     bool                      `gorm:"not null" json:"is_active"`
}

// HasRole 主角色或额外授予的角色之一
func (u *User) HasRole(r Role) bool {
	return u.Role == r || slices.Contains(u.GrantedRoles, r)
}

// AvailableRoles 返回可切换的全部角色，主角色在前
func (u *User) AvailableRoles() []Role {
	roles := []Role{u.Role}
	for _, r := range u.GrantedRoles {
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// LoginName 用于日志与展示
func (u *User) LoginName() string {
	switch {
	case u.WorkID != nil:
		return *u.WorkID
	case u.Username != nil:
		return *u.Username
	case u.Email != nil:
		return *u.Email
	}
	return ""
}
