package layout

import (
	"fmt"
	"strings"
)

// Geometry 描述页面尺寸与边距（mm）。
type Geometry struct {
	Width  float64
	Height float64
	Margin Margin
}

func (g Geometry) ContentWidth() float64  { return g.Width - g.Margin.Left - g.Margin.Right }
func (g Geometry) ContentHeight() float64 { return g.Height - g.Margin.Top - g.Margin.Bottom }

// Top 返回内容区顶部的 y 坐标。
func (g Geometry) Top() float64 { return g.Height - g.Margin.Top }

func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("页面尺寸无效：%gx%g", g.Width, g.Height)
	}
	if g.ContentWidth() <= 0 || g.ContentHeight() <= 0 {
		return fmt.Errorf("页边距过大，内容区为空")
	}
	return nil
}

var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"B5":     {176, 250},
	"LETTER": {215.9, 279.4},
}

// PageSize 返回预设纸张尺寸，landscape 为 true 时交换宽高。
func PageSize(name string, landscape bool) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", name)
	}
	w, h := base[0], base[1]
	if landscape {
		w, h = h, w
	}
	return w, h, nil
}

// DefaultGeometry 为 A4 纵向、四周 20mm 边距。
func DefaultGeometry() Geometry {
	return Geometry{Width: 210, Height: 297, Margin: Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}}
}

// Style 汇总排版使用的字号（pt）、行距倍数、间距（mm）与配色。
type Style struct {
	TitleSize   float64
	HeadingSize float64
	BodySize    float64
	SmallSize   float64
	HeaderSize  float64
	LineSpacing float64

	ItemGap       float64
	OptionIndent  float64
	PassageIndent float64
	ImageMargin   float64
	ImageMaxRatio float64 // 图片最大高度占内容区高度的比例

	Text     Color
	Muted    Color
	Primary  Color
	Accent   Color
	Answer   Color
	Inverse  Color
	YearFill Color
	Rule     Color

	HeaderTemplate string // 可用 ${title} ${date}
	FooterTemplate string // 可用 ${page}
}

// DefaultStyle 返回默认样式。
func DefaultStyle() Style {
	return Style{
		TitleSize:     22,
		HeadingSize:   14,
		BodySize:      11,
		SmallSize:     9,
		HeaderSize:    8,
		LineSpacing:   1.5,
		ItemGap:       3,
		OptionIndent:  4,
		PassageIndent: 6,
		ImageMargin:   8,
		ImageMaxRatio: 0.4,

		Text:     Color{R: 30, G: 30, B: 30},
		Muted:    Color{R: 110, G: 110, B: 110},
		Primary:  Color{R: 37, G: 99, B: 235},
		Accent:   Color{R: 245, G: 158, B: 11},
		Answer:   Color{R: 22, G: 163, B: 74},
		Inverse:  Color{R: 255, G: 255, B: 255},
		YearFill: Color{R: 30, G: 41, B: 59},
		Rule:     Color{R: 203, G: 213, B: 225},

		HeaderTemplate: "${title}",
		FooterTemplate: "${page}",
	}
}
