package detector

import (
	"archive/zip"
	"bytes"
	"competition-portal/config"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDetector(t *testing.T, handler http.HandlerFunc) *Detector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.Detector{
		ApiKey:         "test-key",
		TextURL:        srv.URL + "/text",
		VisionURL:      srv.URL + "/vision",
		Keywords:       []string{"西南交通大学", "交大"},
		TimeoutSeconds: 5,
	})
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestDetectImageSensitive(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	d := newTestDetector(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		reply(w, map[string]any{"output": map[string]any{"choices": []any{
			map[string]any{"message": map[string]any{"content": []any{
				map[string]any{"text": "检测结果：包含敏感信息\n发现的关键词：西南交通大学\n详细位置：标题区域"},
			}}},
		}}})
	})

	res := d.Detect(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "PNG")
	require.Empty(t, res.Error)
	require.True(t, res.HasSensitive)
	require.Equal(t, []string{"西南交通大学"}, res.DetectedKeywords)
	require.Equal(t, "/vision", gotPath)
	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, "qwen-vl-max", gotBody["model"])
}

func TestDetectDocxClean(t *testing.T) {
	var prompt string
	d := newTestDetector(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			} `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		prompt = body.Input.Messages[0].Content
		reply(w, map[string]any{"output": map[string]any{"text": "检测结果：未发现敏感信息"}})
	})

	res := d.Detect(context.Background(), makeDocx(t, "项目计划书", "团队介绍"), "docx")
	require.Empty(t, res.Error)
	require.False(t, res.HasSensitive)
	require.Empty(t, res.DetectedKeywords)
	require.Contains(t, prompt, "项目计划书\n团队介绍")
}

func TestDetectFailuresAreInconclusive(t *testing.T) {
	d := newTestDetector(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	ctx := context.Background()

	res := d.Detect(ctx, []byte("x"), "jpg")
	require.NotEmpty(t, res.Error)
	require.False(t, res.HasSensitive)

	for _, ft := range []string{"pdf", "doc", "zip", "rar"} {
		res = d.Detect(ctx, []byte("x"), ft)
		require.NotEmpty(t, res.Error, ft)
	}

	res = d.Detect(ctx, []byte("not a zip"), "docx")
	require.True(t, strings.HasPrefix(res.Error, "DOCX解析失败"))
}

func TestDetectMalformedResponse(t *testing.T) {
	d := newTestDetector(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"unexpected": true})
	})
	res := d.DetectText(context.Background(), "正文")
	require.Equal(t, "API返回格式异常", res.Error)
}

func TestDetectWithoutApiKey(t *testing.T) {
	d := New(config.Detector{})
	res := d.Detect(context.Background(), []byte("x"), "png")
	require.NotEmpty(t, res.Error)
}

func TestExtractContentFormats(t *testing.T) {
	cases := map[string]string{
		`{"output":{"choices":[{"message":{"content":"A"}}]}}`: "A",
		`{"output":{"text":"B"}}`:                               "B",
		`{"choices":[{"message":{"content":[{"text":"C"}]}}]}`: "C",
		`{"text":"D"}`:                                          "D",
	}
	for raw, want := range cases {
		got, ok := extractContent([]byte(raw))
		require.True(t, ok, raw)
		require.Equal(t, want, got)
	}
	_, ok := extractContent([]byte(`{}`))
	require.False(t, ok)
}

func makeDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var xmlBody strings.Builder
	xmlBody.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		xmlBody.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	xmlBody.WriteString(`</w:body></w:document>`)

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(xmlBody.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
