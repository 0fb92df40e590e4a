// Package certificate 绘制获奖证书 PNG
package certificate

import (
	"bytes"
	"competition-portal/config"
	"competition-portal/internal/global/logger"
	"fmt"
	"os"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	width  = 1600
	height = 1130
)

var (
	background = drawing.ColorFromHex("FFFDF5")
	border     = drawing.ColorFromHex("B8860B")
	titleColor = drawing.ColorFromHex("8B0000")
	textColor  = drawing.ColorFromHex("333333")
)

type Data struct {
	TeamName        string
	AwardName       string
	CompetitionName string
	Year            int
	IssuedAt        time.Time
}

// Lines 证书自上而下的文字，第一行为标题，最后一行为日期
func Lines(d Data) []string {
	return []string{
		"获奖证书",
		fmt.Sprintf("兹证明 %s 队伍", d.TeamName),
		fmt.Sprintf("在%d年%s中", d.Year, d.CompetitionName),
		fmt.Sprintf("荣获 %s", d.AwardName),
		"特发此证，以资鼓励。",
		d.IssuedAt.Format("2006年01月02日"),
	}
}

var Default *Renderer

// ErrNoCJKFont 当前字体没有中文字形，证书上的中文会变成方块
var ErrNoCJKFont = errors.New("证书字体不包含中文字形，请配置 certificate.font_path")

func Init() error {
	r, err := New(config.Get().Certificate.FontPath)
	if err != nil {
		return err
	}
	Default = r
	return nil
}

// RequireCJK 启动时检查字体：release 模式下缺少中文字形直接报错，debug 模式只告警
func RequireCJK(r *Renderer, mode config.Mode) error {
	if r.SupportsCJK() {
		return nil
	}
	if mode == config.ModeRelease {
		return ErrNoCJKFont
	}
	logger.New("Certificate").Warn("证书字体不包含中文字形，生成的证书中文将显示为方块",
		"font_path", config.Get().Certificate.FontPath)
	return nil
}

type Renderer struct {
	font *truetype.Font
}

// New 加载中文字体；fontPath 为空时使用 go-chart 自带字体，中文会显示为方块
func New(fontPath string) (*Renderer, error) {
	if fontPath == "" {
		f, err := chart.GetDefaultFont()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return &Renderer{font: f}, nil
	}
	raw, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, errors.Wrap(err, "读取证书字体失败")
	}
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "解析证书字体失败")
	}
	return &Renderer{font: f}, nil
}

// SupportsCJK 字体是否包含常用汉字的字形
func (r *Renderer) SupportsCJK() bool {
	for _, c := range "获奖证书" {
		if r.font.Index(c) == 0 {
			return false
		}
	}
	return true
}

func (r *Renderer) Render(d Data) ([]byte, error) {
	canvas, err := chart.PNG(width, height)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	canvas.SetFont(r.font)

	fillRect(canvas, 0, 0, width, height, background)
	strokeRect(canvas, 30, 30, width-30, height-30, border, 8)
	strokeRect(canvas, 50, 50, width-50, height-50, border, 2)

	lines := Lines(d)
	centered(canvas, lines[0], 64, titleColor, 250)

	y := 420
	for _, line := range lines[1:4] {
		centered(canvas, line, 36, textColor, y)
		y += 110
	}
	centered(canvas, lines[4], 30, textColor, y+20)

	// 日期右对齐
	canvas.SetFontColor(textColor)
	canvas.SetFontSize(28)
	box := canvas.MeasureText(lines[5])
	canvas.Text(lines[5], width-200-box.Width(), height-150)

	buf := bytes.NewBuffer(nil)
	if err := canvas.Save(buf); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func centered(r chart.Renderer, text string, size float64, color drawing.Color, y int) {
	r.SetFontColor(color)
	r.SetFontSize(size)
	box := r.MeasureText(text)
	r.Text(text, (width-box.Width())/2, y)
}

func fillRect(r chart.Renderer, x0, y0, x1, y1 int, color drawing.Color) {
	r.SetFillColor(color)
	r.SetStrokeColor(color)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Fill()
}

func strokeRect(r chart.Renderer, x0, y0, x1, y1 int, color drawing.Color, w float64) {
	r.SetStrokeColor(color)
	r.SetStrokeWidth(w)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Stroke()
}
