package test

import (
	"bytes"
	"competition-portal/internal/global/jwt"
	"competition-portal/internal/global/response"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type requestOptions struct {
	method string
	claims *jwt.Claims
	params gin.Params
	query  url.Values
	form   map[string]string
	file   *uploadFile
}

type uploadFile struct {
	field, name string
	content     []byte
}

type Option func(*requestOptions)

// AsUser 模拟 Auth 中间件写入的登录信息
func AsUser(claims *jwt.Claims) Option {
	return func(o *requestOptions) { o.claims = claims }
}

func WithParam(key, value string) Option {
	return func(o *requestOptions) { o.params = append(o.params, gin.Param{Key: key, Value: value}) }
}

func WithQuery(key, value string) Option {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		o.query.Add(key, value)
	}
}

func WithMethod(method string) Option {
	return func(o *requestOptions) { o.method = method }
}

// WithFile 以 multipart/form-data 上传，form 为其余表单字段
func WithFile(field, name string, content []byte, form map[string]string) Option {
	return func(o *requestOptions) {
		o.file = &uploadFile{field: field, name: name, content: content}
		o.form = form
	}
}

// Serve 执行 handler 并返回原始响应，用于校验文件下载
func Serve(t *testing.T, handlerFunc gin.HandlerFunc, request any, opts ...Option) *httptest.ResponseRecorder {
	t.Helper()
	o := &requestOptions{method: http.MethodPost}
	for _, opt := range opts {
		opt(o)
	}

	var (
		body        *bytes.Buffer
		contentType = "application/json"
	)
	switch {
	case o.file != nil:
		body = new(bytes.Buffer)
		mw := multipart.NewWriter(body)
		for k, v := range o.form {
			require.NoError(t, mw.WriteField(k, v))
		}
		fw, err := mw.CreateFormFile(o.file.field, o.file.name)
		require.NoError(t, err)
		_, err = fw.Write(o.file.content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		contentType = mw.FormDataContentType()
	case request != nil:
		requestBytes, err := json.Marshal(request)
		require.NoError(t, err)
		body = bytes.NewBuffer(requestBytes)
	default:
		body = new(bytes.Buffer)
	}

	target := "/test"
	if len(o.query) > 0 {
		target += "?" + o.query.Encode()
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(o.method, target, body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = o.params
	if o.claims != nil {
		jwt.SetUserPayload(c, o.claims)
	}
	handlerFunc(c)
	return w
}

func DoRequest(t *testing.T, handlerFunc gin.HandlerFunc, request any, opts ...Option) (resp response.ResponseBody) {
	t.Helper()
	w := Serve(t, handlerFunc, request, opts...)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return
}

// DecodeData 把响应中的 data 转为指定结构
func DecodeData[T any](t *testing.T, resp response.ResponseBody) T {
	t.Helper()
	var out T
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
