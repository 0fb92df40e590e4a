package user

import (
	"bytes"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"competition-portal/internal/model"
	"competition-portal/test"
	"competition-portal/tools"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMain(m *testing.M) {
	selfInit()
	m.Run()
}

func TestLoginCampus(t *testing.T) {
	db := test.NewDB(t)
	student := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)

	resp := test.DoRequest(t, Login, LoginReq{Account: *student.WorkID, Password: test.Password})
	test.NoError(t, resp)
	session := test.DecodeData[LoginResp](t, resp)
	require.Equal(t, model.RoleStudent, session.ActiveRole)

	claims, ok := jwt.ParseToken(session.Token)
	require.True(t, ok)
	require.Equal(t, student.ID, claims.UserID)

	resp = test.DoRequest(t, Login, LoginReq{Account: *student.WorkID, Password: "wrong"})
	test.ErrorEqual(t, response.ErrInvalidPassword, resp)

	resp = test.DoRequest(t, Login, LoginReq{Account: "000000000000", Password: test.Password})
	test.ErrorEqual(t, response.ErrInvalidPassword, resp)
}

func TestLoginDisabled(t *testing.T) {
	db := test.NewDB(t)
	student := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	require.NoError(t, SetActive(db, student.ID, false))

	resp := test.DoRequest(t, Login, LoginReq{Account: *student.WorkID, Password: test.Password})
	test.ErrorEqual(t, response.ErrAccountDisabled, resp)
}

func TestLoginJudge(t *testing.T) {
	db := test.NewDB(t)
	judge, err := CreateAccount(db, CreateUserReq{
		Role:     model.RoleJudge,
		Username: "judge_li",
		Email:    "li@example.com",
		Password: test.Password,
		RealName: "李评委",
	})
	require.NoError(t, err)

	for _, account := range []string{"judge_li", "li@example.com"} {
		resp := test.DoRequest(t, Login, LoginReq{LoginType: LoginJudge, Account: account, Password: test.Password})
		test.NoError(t, resp)
		require.Equal(t, judge.ID, test.DecodeData[LoginResp](t, resp).User.ID)
	}

	// 评委入口不接受校内账号
	student := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	resp := test.DoRequest(t, Login, LoginReq{LoginType: LoginJudge, Account: *student.WorkID, Password: test.Password})
	test.ErrorEqual(t, response.ErrInvalidPassword, resp)
}

func TestCreateAccountValidation(t *testing.T) {
	db := test.NewDB(t)

	_, err := CreateAccount(db, CreateUserReq{Role: model.RoleJudge, Password: test.Password, RealName: "无名"})
	test.ErrorIs(t, response.ErrInvalidRequest, err)

	_, err = CreateAccount(db, CreateUserReq{Role: model.RoleStudent, Password: test.Password, RealName: "无号"})
	test.ErrorIs(t, response.ErrInvalidRequest, err)

	_, err = CreateAccount(db, CreateUserReq{Role: model.RoleStudent, WorkID: "2022000001", Password: test.Password, RealName: "无院"})
	test.ErrorIs(t, response.ErrInvalidRequest, err)

	u, err := CreateAccount(db, CreateUserReq{
		Role:         model.RoleCollegeAdmin,
		WorkID:       "T0001",
		Password:     test.Password,
		RealName:     "王老师",
		College:      test.InfoCollege,
		GrantedRoles: []model.Role{model.RoleJudge, model.RoleCollegeAdmin, model.RoleJudge},
	})
	require.NoError(t, err)
	require.Equal(t, []model.Role{model.RoleJudge}, []model.Role(u.GrantedRoles))

	_, err = CreateAccount(db, CreateUserReq{
		Role:     model.RoleStudent,
		WorkID:   "T0001",
		Password: test.Password,
		RealName: "重复",
		College:  test.InfoCollege,
	})
	test.ErrorIs(t, response.ErrAlreadyExists, err)
}

func TestSwitchRole(t *testing.T) {
	db := test.NewDB(t)
	admin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.InfoCollege)
	claims := test.Claims(admin, "")

	resp := test.DoRequest(t, SwitchRole, SwitchRoleReq{Role: model.RoleJudge}, test.AsUser(claims))
	test.ErrorEqual(t, response.ErrForbidden, resp)

	_, err := SetGrantedRoles(db, admin.ID, []model.Role{model.RoleJudge})
	require.NoError(t, err)

	resp = test.DoRequest(t, SwitchRole, SwitchRoleReq{Role: model.RoleJudge}, test.AsUser(claims))
	test.NoError(t, resp)
	session := test.DecodeData[LoginResp](t, resp)
	require.Equal(t, model.RoleJudge, session.ActiveRole)
	require.ElementsMatch(t, []model.Role{model.RoleCollegeAdmin, model.RoleJudge}, session.AvailableRoles)

	parsed, ok := jwt.ParseToken(session.Token)
	require.True(t, ok)
	require.Equal(t, model.RoleJudge, parsed.ActiveRole)
	require.Equal(t, model.RoleCollegeAdmin, parsed.Role)
}

func TestChangePassword(t *testing.T) {
	db := test.NewDB(t)
	student := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	claims := test.Claims(student, "")

	resp := test.DoRequest(t, ChangePassword, ChangePasswordReq{OldPassword: "bad", NewPassword: "newpass1"},
		test.AsUser(claims), test.WithMethod(http.MethodPut))
	test.ErrorEqual(t, response.ErrInvalidPassword, resp)

	resp = test.DoRequest(t, ChangePassword, ChangePasswordReq{OldPassword: test.Password, NewPassword: "newpass1"},
		test.AsUser(claims), test.WithMethod(http.MethodPut))
	test.NoError(t, resp)

	_, err := Authenticate(db, LoginCampus, *student.WorkID, "newpass1")
	require.NoError(t, err)
}

func TestListStudentsScopedToCollege(t *testing.T) {
	db := test.NewDB(t)
	test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	test.CreateUser(t, db, model.RoleStudent, test.MechCollege)
	collegeAdmin := test.CreateUser(t, db, model.RoleCollegeAdmin, test.InfoCollege)
	schoolAdmin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")

	type page struct {
		Users []model.User `json:"users"`
		Total int64        `json:"total"`
	}

	// 学院管理员传入其他学院也只会看到本院
	resp := test.DoRequest(t, ListStudents, nil, test.AsUser(test.Claims(collegeAdmin, "")),
		test.WithMethod(http.MethodGet), test.WithQuery("college", test.MechCollege))
	test.NoError(t, resp)
	got := test.DecodeData[page](t, resp)
	require.EqualValues(t, 2, got.Total)
	for _, u := range got.Users {
		require.Equal(t, test.InfoCollege, u.College)
	}

	resp = test.DoRequest(t, ListStudents, nil, test.AsUser(test.Claims(schoolAdmin, "")), test.WithMethod(http.MethodGet))
	test.NoError(t, resp)
	require.EqualValues(t, 3, test.DecodeData[page](t, resp).Total)
}

func roster(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportRoster(t *testing.T) {
	db := test.NewDB(t)
	existing := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)

	data := roster(t, [][]any{
		{"学工号", "姓名", "学院", "联系方式"},
		{"2023110001", "张三", test.InfoCollege, "13800000000"},
		{"2023110002", "", test.MechCollege, ""},
		{*existing.WorkID, "", "", ""},
		{"2023110003", "李四", "不存在学院", ""},
		{"", "空行", "", ""},
	})

	result, err := ImportRoster(db, bytes.NewReader(data), "init1234")
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)
	require.Equal(t, 1, result.Reset)
	require.Len(t, result.Failed, 1)
	require.Equal(t, 5, result.Failed[0].Row)

	var named model.User
	require.NoError(t, db.Where("work_id = ?", "2023110002").First(&named).Error)
	require.Equal(t, "学生0002", named.RealName)
	require.True(t, named.IsActive)
	require.True(t, tools.PasswordCompare("init1234", named.Password))

	reloaded := test.Reload[model.User](t, db, existing.ID)
	require.True(t, tools.PasswordCompare("init1234", reloaded.Password))
}

func TestImportRosterRequiresWorkIDColumn(t *testing.T) {
	db := test.NewDB(t)
	data := roster(t, [][]any{{"姓名", "学院"}, {"张三", test.InfoCollege}})
	_, err := ImportRoster(db, bytes.NewReader(data), "init1234")
	require.Error(t, err)
}

func TestImportStudentsHandler(t *testing.T) {
	db := test.NewDB(t)
	admin := test.CreateUser(t, db, model.RoleSchoolAdmin, "")
	data := roster(t, [][]any{{"学工号", "姓名", "学院", "密码"}, {"2023110009", "王五", test.InfoCollege, "own-pass"}})

	resp := test.DoRequest(t, ImportStudents, nil, test.AsUser(test.Claims(admin, "")),
		test.WithFile("file", "roster.xlsx", data, nil))
	test.NoError(t, resp)
	require.Equal(t, 1, test.DecodeData[ImportResult](t, resp).Created)

	_, err := Authenticate(db, LoginCampus, "2023110009", "own-pass")
	require.NoError(t, err)
}
