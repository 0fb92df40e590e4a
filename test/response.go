package test

import (
	"competition-portal/internal/global/response"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ErrorEqual 比较错误码，消息只要求以预期消息开头（WithTips 会追加提示）
func ErrorEqual(t *testing.T, expected *response.Error, resp response.ResponseBody) {
	t.Helper()
	require.Equal(t, expected.Code, resp.Code, "msg: %s", resp.Msg)
	require.True(t, strings.HasPrefix(resp.Msg, expected.Message), "msg %q does not start with %q", resp.Msg, expected.Message)
}

func NoError(t *testing.T, resp response.ResponseBody) {
	t.Helper()
	require.Equal(t, int32(200), resp.Code, "msg: %s origin: %s", resp.Msg, resp.Origin)
}

// ErrorIs 用于直接调用 logic 层返回的 *response.Error
func ErrorIs(t *testing.T, expected *response.Error, err error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, expected, "got %v", err)
}
