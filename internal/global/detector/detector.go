// Package detector 调用千问接口检测附件中是否出现敏感关键词。
// 任何失败都记录在 Result.Error 中，调用方视为"无法判定"而不是阻断
package detector

import (
	"competition-portal/config"
	"competition-portal/internal/global/httpclient"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const maxTextRunes = 8000

type Result struct {
	HasSensitive     bool     `json:"has_sensitive"`
	DetectedKeywords []string `json:"detected_keywords"`
	Details          string   `json:"details"`
	Error            string   `json:"error,omitempty"`
}

func failed(format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	return Result{DetectedKeywords: []string{}, Details: "识别失败：" + msg, Error: msg}
}

type Detector struct {
	client    *resty.Client
	limiter   *rate.Limiter
	apiKey    string
	textURL   string
	visionURL string
	keywords  []string
}

// Checker 由 Detector 实现，测试中可替换
type Checker interface {
	Detect(ctx context.Context, data []byte, fileType string) Result
}

var Default Checker

func Init() {
	Default = New(config.Get().Detector)
}

func New(c config.Detector) *Detector {
	timeout := time.Duration(c.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := httpclient.New(timeout)

	limit := rate.Inf
	if c.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(c.RatePerMinute))
	}
	return &Detector{
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
		apiKey:    c.ApiKey,
		textURL:   c.TextURL,
		visionURL: c.VisionURL,
		keywords:  c.Keywords,
	}
}

// Detect 按文件类型选择识别方式
func (d *Detector) Detect(ctx context.Context, data []byte, fileType string) Result {
	if d.apiKey == "" {
		return failed("未配置检测服务 API Key")
	}
	switch ft := strings.ToLower(fileType); ft {
	case "jpg", "jpeg", "png", "gif", "bmp", "webp":
		return d.detectImage(ctx, data, ft)
	case "docx":
		text, err := DocxText(data)
		if err != nil {
			return failed("DOCX解析失败：%v", err)
		}
		if strings.TrimSpace(text) == "" {
			return failed("Word文档中没有提取到文本内容，请手动检查")
		}
		return d.DetectText(ctx, text)
	case "pdf":
		return failed("PDF文件暂不支持自动识别，请手动检查")
	case "doc":
		return failed("DOC格式（旧版Word）暂不支持自动识别，请转换为DOCX或手动检查")
	default:
		return failed("不支持的文件类型：%s", fileType)
	}
}

func (d *Detector) DetectText(ctx context.Context, text string) Result {
	if runes := []rune(text); len(runes) > maxTextRunes {
		text = string(runes[:maxTextRunes])
	}
	prompt := d.prompt("文本") + "\n文本内容：\n" + text
	body := map[string]any{
		"model": "qwen-plus",
		"input": map[string]any{
			"messages": []map[string]any{{"role": "user", "content": prompt}},
		},
		"parameters": map[string]any{"temperature": 0.1},
	}
	return d.call(ctx, d.textURL, body)
}

func (d *Detector) detectImage(ctx context.Context, data []byte, ext string) Result {
	mime := "image/jpeg"
	switch ext {
	case "png", "gif", "bmp", "webp":
		mime = "image/" + ext
	}
	body := map[string]any{
		"model": "qwen-vl-max",
		"input": map[string]any{
			"messages": []map[string]any{{
				"role": "user",
				"content": []map[string]string{
					{"image": "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)},
					{"text": d.prompt("图片")},
				},
			}},
		},
		"parameters": map[string]any{"temperature": 0.1},
	}
	return d.call(ctx, d.visionURL, body)
}

func (d *Detector) prompt(subject string) string {
	return fmt.Sprintf(`你是一个专业的文档审核助手。请检查%s中是否包含以下敏感关键词：%s。
要求：
1. 仔细识别%s中的所有文字内容
2. 如果发现包含上述任一关键词，请用简洁、专业的语言说明位置
3. 输出格式必须左对齐，每行从行首开始

回复格式（如果包含敏感关键词）：
检测结果：包含敏感信息
发现的关键词：[列出所有发现的关键词，用顿号分隔]
详细位置：[说明关键词所在位置]

回复格式（如果不包含）：
检测结果：未发现敏感信息

注意：请只返回检测结果，不要添加任何解释性文字。`, subject, strings.Join(d.keywords, "、"), subject)
}

func (d *Detector) call(ctx context.Context, url string, body any) Result {
	if err := d.limiter.Wait(ctx); err != nil {
		return failed("检测请求过于频繁：%v", err)
	}
	resp, err := d.client.R().
		SetContext(ctx).
		SetAuthToken(d.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return failed("%v", err)
	}
	if resp.IsError() {
		return failed("检测服务返回 %d", resp.StatusCode())
	}
	content, ok := extractContent(resp.Body())
	if !ok {
		raw := []rune(string(resp.Body()))
		if len(raw) > 500 {
			raw = raw[:500]
		}
		return Result{DetectedKeywords: []string{}, Details: "API返回格式异常，实际返回：" + string(raw), Error: "API返回格式异常"}
	}
	return d.interpret(content)
}

// interpret 从模型回复中判断结果，关键词只取配置中出现在回复里的
func (d *Detector) interpret(content string) Result {
	res := Result{DetectedKeywords: []string{}, Details: content}
	res.HasSensitive = strings.Contains(content, "包含敏感信息") || strings.Contains(content, "发现的关键词")
	if res.HasSensitive {
		for _, k := range d.keywords {
			if strings.Contains(content, k) {
				res.DetectedKeywords = append(res.DetectedKeywords, k)
			}
		}
	}
	return res
}

type message struct {
	Content json.RawMessage `json:"content"`
}

type choice struct {
	Message message `json:"message"`
}

type apiResponse struct {
	Output struct {
		Choices []choice `json:"choices"`
		Text    string   `json:"text"`
	} `json:"output"`
	Choices []choice `json:"choices"`
	Text    string   `json:"text"`
}

// extractContent 兼容 output.choices / output.text / choices / text 四种返回格式，
// content 可能是字符串或 [{"text": ...}] 列表
func extractContent(raw []byte) (string, bool) {
	var r apiResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", false
	}
	if len(r.Output.Choices) > 0 {
		if s := flatten(r.Output.Choices[0].Message.Content); s != "" {
			return s, true
		}
	}
	if r.Output.Text != "" {
		return r.Output.Text, true
	}
	if len(r.Choices) > 0 {
		if s := flatten(r.Choices[0].Message.Content); s != "" {
			return s, true
		}
	}
	if r.Text != "" {
		return r.Text, true
	}
	return "", false
}

func flatten(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(content, &s) == nil {
		return s
	}
	var parts []map[string]any
	if json.Unmarshal(content, &parts) == nil {
		var texts []string
		for _, p := range parts {
			if t, ok := p["text"].(string); ok {
				texts = append(texts, t)
			}
		}
		return strings.Join(texts, "\n")
	}
	return ""
}
