package response

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsByCode(t *testing.T) {
	derived := ErrNotFound.WithTips("项目不存在").WithOrigin(errors.New("record not found"))
	assert.ErrorIs(t, derived, ErrNotFound)
	assert.NotErrorIs(t, derived, ErrForbidden)
	assert.Equal(t, "资源不存在：项目不存在", derived.Message)
	// 派生不修改原错误
	assert.Equal(t, "资源不存在", ErrNotFound.Message)
	assert.Empty(t, ErrNotFound.Origin)
}

func TestWithOriginKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	e := ErrDatabase.WithOrigin(cause)
	require.ErrorIs(t, e, cause)
	assert.NotNil(t, e.StackTrace())
	assert.Contains(t, e.Origin, "duplicate key")
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil, ErrDatabase))
	assert.Same(t, ErrForbidden, From(ErrForbidden, ErrDatabase))

	e := From(errors.New("boom"), ErrDatabase)
	assert.ErrorIs(t, e, ErrDatabase)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[*Error]int{
		ErrInvalidRequest: http.StatusBadRequest,
		ErrTokenInvalid:   http.StatusUnauthorized,
		ErrForbidden:      http.StatusForbidden,
		ErrInvalidState:   http.StatusConflict,
		ErrFileTooLarge:   http.StatusRequestEntityTooLarge,
		ErrExternal:       http.StatusBadGateway,
	}
	for e, status := range cases {
		assert.Equal(t, status, e.HTTPStatus(), e.Message)
	}
}
