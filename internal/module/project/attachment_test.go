package project

import (
	"competition-portal/internal/global/detector"
	"competition-portal/internal/global/response"
	"competition-portal/internal/global/storage"
	"competition-portal/internal/model"
	"competition-portal/test"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	result   detector.Result
	fileType string
	data     []byte
}

func (f *fakeChecker) Detect(_ context.Context, data []byte, fileType string) detector.Result {
	f.data, f.fileType = data, fileType
	return f.result
}

func TestAttachmentLifecycle(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)
	ctx := context.Background()

	_, err := AddAttachment(ctx, db, p.ID, leader.ID, "virus.exe", 10, strings.NewReader("x"))
	test.ErrorIs(t, response.ErrInvalidRequest, err)

	_, err = AddAttachment(ctx, db, p.ID, leader.ID, "huge.pdf", 1<<40, strings.NewReader("x"))
	test.ErrorIs(t, response.ErrFileTooLarge, err)

	a, err := AddAttachment(ctx, db, p.ID, leader.ID, `C:\docs\计划书.docx`, 7, strings.NewReader("content"))
	require.NoError(t, err)
	require.Equal(t, "计划书.docx", a.FileName)
	require.Equal(t, "docx", a.FileType)
	require.True(t, strings.HasPrefix(a.StoredPath, fmt.Sprintf("attachments/project_%d/", p.ID)))

	data, err := storage.ReadAll(ctx, storage.Default, a.StoredPath)
	require.NoError(t, err)
	require.Equal(t, "content", string(data))

	w := test.Serve(t, DownloadAttachment, nil, test.AsUser(test.Claims(leader, "")), test.WithMethod(http.MethodGet),
		test.WithParam("id", fmt.Sprint(p.ID)), test.WithParam("attachment_id", fmt.Sprint(a.ID)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "content", w.Body.String())
	require.Contains(t, w.Header().Get("Content-Disposition"), "filename*=UTF-8''")

	require.NoError(t, RemoveAttachment(ctx, db, p.ID, a.ID, leader.ID))
	_, err = storage.Default.Open(ctx, a.StoredPath)
	require.Error(t, err)
}

func TestAttachmentRequiresEditable(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusCollegeApproved, test.InfoCollege)

	_, err := AddAttachment(context.Background(), db, p.ID, leader.ID, "a.pdf", 1, strings.NewReader("x"))
	test.ErrorIs(t, response.ErrInvalidState, err)
}

func TestCheckSensitive(t *testing.T) {
	db := test.NewDB(t)
	comp := test.CreateCompetition(t, db)
	leader := test.CreateUser(t, db, model.RoleStudent, test.InfoCollege)
	p := test.CreateProject(t, db, comp, leader, model.StatusDraft, test.InfoCollege)
	ctx := context.Background()

	a, err := AddAttachment(ctx, db, p.ID, leader.ID, "poster.png", 3, strings.NewReader("img"))
	require.NoError(t, err)

	checker := &fakeChecker{result: detector.Result{
		HasSensitive:     true,
		DetectedKeywords: []string{"西南交通大学"},
		Details:          "图片右下角出现校名",
	}}
	checked, err := CheckSensitive(ctx, db, checker, a, time.Now())
	require.NoError(t, err)
	require.Equal(t, "png", checker.fileType)
	require.Equal(t, "img", string(checker.data))
	require.True(t, checked.HasSensitive)

	stored := test.Reload[model.ProjectAttachment](t, db, a.ID)
	require.True(t, stored.SensitiveChecked)
	require.Equal(t, []string{"西南交通大学"}, []string(stored.DetectedKeywords))
	require.NotNil(t, stored.CheckedAt)

	// 检测失败记为无法判定，不影响请求
	checker.result = detector.Result{Details: "识别失败：超时", Error: "超时"}
	checked, err = CheckSensitive(ctx, db, checker, stored, time.Now())
	require.NoError(t, err)
	require.False(t, checked.HasSensitive)
	require.Equal(t, "超时", test.Reload[model.ProjectAttachment](t, db, a.ID).SensitiveError)
}
