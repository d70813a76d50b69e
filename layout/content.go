package layout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ByLCY/examsheet/exam"
)

// ImageEmbedder 获取并嵌入图片；失败时返回 nil，由调用方绘制占位文字。
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, uri string) *EmbeddedImage
}

// Cover 是首页标题区的内容。
type Cover struct {
	Title   string
	Summary []string
	Date    string
}

// Engine 将题库内容逐项排版到 PageFlow 上。
type Engine struct {
	flow           *PageFlow
	m              *Measurer
	style          Style
	images         ImageEmbedder
	includeAnswers bool
	logger         *slog.Logger
}

// EngineOptions 配置 Engine。
type EngineOptions struct {
	Style          Style
	Images         ImageEmbedder
	IncludeAnswers bool
	Logger         *slog.Logger
}

func NewEngine(flow *PageFlow, m *Measurer, opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		flow:           flow,
		m:              m,
		style:          opts.Style,
		images:         opts.Images,
		includeAnswers: opts.IncludeAnswers,
		logger:         logger,
	}
}

func (e *Engine) lineHeight(size float64) float64 { return LineHeight(size, e.style.LineSpacing) }

func (e *Engine) contentWidth() float64 { return e.flow.Geometry().ContentWidth() }

// drawLine 在当前游标处绘制一行文本，然后下移一行。
func (e *Engine) drawLine(line TextLine, x, size float64, color Color) {
	lh := e.lineHeight(size)
	e.flow.EnsureSpace(lh)
	e.flow.AddText(TextBox{
		Content:  line.Content,
		X:        x,
		Y:        e.flow.CursorY() - lh*0.8,
		Width:    line.Width,
		FontSize: size,
		Color:    color,
	})
	e.flow.Advance(lh)
}

// paragraph 折行并绘制一段文字。
func (e *Engine) paragraph(text string, x, width, size float64, color Color) {
	for _, line := range e.m.BreakLines(Sanitize(text), size, width) {
		e.drawLine(line, x, size, color)
	}
}

// RenderCover 绘制首页标题、摘要与日期，下方加一条主色分隔线。
func (e *Engine) RenderCover(c Cover) {
	left := e.flow.Left()
	cw := e.contentWidth()
	lines := e.m.BreakLines(Sanitize(c.Title), e.style.TitleSize, cw)
	e.flow.EnsureSpace(e.lineHeight(e.style.TitleSize) * float64(len(lines)))
	for _, line := range lines {
		lh := e.lineHeight(e.style.TitleSize)
		e.flow.AddText(TextBox{Content: line.Content, X: left, Y: e.flow.CursorY() - lh*0.8, Width: cw, FontSize: e.style.TitleSize, Color: e.style.Text, Align: "center"})
		e.flow.Advance(lh)
	}
	for _, s := range c.Summary {
		for _, line := range e.m.BreakLines(Sanitize(s), e.style.SmallSize, cw) {
			lh := e.lineHeight(e.style.SmallSize)
			e.flow.EnsureSpace(lh)
			e.flow.AddText(TextBox{Content: line.Content, X: left, Y: e.flow.CursorY() - lh*0.8, Width: cw, FontSize: e.style.SmallSize, Color: e.style.Muted, Align: "center"})
			e.flow.Advance(lh)
		}
	}
	if c.Date != "" {
		lh := e.lineHeight(e.style.SmallSize)
		e.flow.EnsureSpace(lh)
		e.flow.AddText(TextBox{Content: Sanitize(c.Date), X: left, Y: e.flow.CursorY() - lh*0.8, Width: cw, FontSize: e.style.SmallSize, Color: e.style.Muted, Align: "center"})
		e.flow.Advance(lh)
	}
	e.flow.EnsureSpace(e.style.ItemGap * 2)
	y := e.flow.CursorY() - e.style.ItemGap
	e.flow.AddLine(Line{X1: left, Y1: y, X2: left + cw, Y2: y, Color: e.style.Primary, Width: 0.6})
	e.flow.Advance(e.style.ItemGap * 2)
}

// RenderYearHeading 绘制年份色带。标题下至少留出两行正文，避免标题孤悬在页尾。
func (e *Engine) RenderYearHeading(label string) {
	size := e.style.HeadingSize
	band := e.lineHeight(size) + 2
	e.flow.EnsureSpace(band + e.style.ItemGap + 2*e.lineHeight(e.style.BodySize))
	left := e.flow.Left()
	top := e.flow.CursorY()
	e.flow.AddRect(Rect{X: left, Y: top - band, Width: e.contentWidth(), Height: band, FillColor: e.style.YearFill})
	e.flow.AddText(TextBox{
		Content:  Sanitize(label) + " 年",
		X:        left + 3,
		Y:        top - band + (band-size*PtToMm)/2 + size*PtToMm*0.15,
		Width:    e.contentWidth() - 6,
		FontSize: size,
		Color:    e.style.Inverse,
	})
	e.flow.Advance(band + e.style.ItemGap)
}

// RenderSubjectHeading 绘制科目名称与统计标签，左侧加一条主色竖线。
func (e *Engine) RenderSubjectHeading(name string, tags []string) {
	size := e.style.HeadingSize
	lh := e.lineHeight(size)
	meta := strings.Join(tags, " · ")
	need := lh + 2*e.lineHeight(e.style.BodySize)
	if meta != "" {
		need += e.lineHeight(e.style.SmallSize)
	}
	e.flow.EnsureSpace(need)
	left := e.flow.Left()
	top := e.flow.CursorY()
	lines := e.m.BreakLines(Sanitize(name), size, e.contentWidth()-4)
	for _, line := range lines {
		e.drawLine(line, left+4, size, e.style.Primary)
	}
	if meta != "" {
		e.paragraph(meta, left+4, e.contentWidth()-4, e.style.SmallSize, e.style.Muted)
	}
	if e.flow.CursorY() < top {
		e.flow.AddLine(Line{X1: left + 1, Y1: top - 1, X2: left + 1, Y2: e.flow.CursorY() + 1, Color: e.style.Primary, Width: 0.8})
	}
	e.flow.Advance(e.style.ItemGap)
}

// RenderItem 按类型排版单个条目。只有 ctx 被取消时返回错误。
func (e *Engine) RenderItem(ctx context.Context, item exam.ContentItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch it := item.(type) {
	case exam.Note:
		e.paragraph(it.Text, e.flow.Left(), e.contentWidth(), e.style.SmallSize, e.style.Muted)
		e.flow.Advance(e.style.ItemGap / 2)
	case exam.SectionMarker:
		e.renderSection(it)
	case exam.Essay:
		e.paragraph(it.Text, e.flow.Left(), e.contentWidth(), e.style.BodySize, e.style.Text)
		e.flow.Advance(e.style.ItemGap)
	case exam.Passage:
		e.renderPassage(it)
	case exam.Figure:
		e.renderFigure(ctx, it.Src, it.Alt)
	case exam.McQuestion:
		e.renderQuestion(ctx, it)
	default:
		return fmt.Errorf("未知的条目类型 %T", item)
	}
	return nil
}

func (e *Engine) renderSection(s exam.SectionMarker) {
	size := e.style.SmallSize
	e.flow.EnsureSpace(2 + e.lineHeight(size) + e.lineHeight(e.style.BodySize))
	left := e.flow.Left()
	y := e.flow.CursorY() - 1
	e.flow.AddLine(Line{X1: left, Y1: y, X2: left + 20, Y2: y, Color: e.style.Accent, Width: 0.6})
	e.flow.Advance(2)
	e.paragraph(s.Text, left, e.contentWidth(), size, e.style.Primary)
	e.flow.Advance(e.style.ItemGap / 2)
}

// renderPassage 绘制缩进的阅读材料。只有整段落在同一页时才在左侧画强调线。
func (e *Engine) renderPassage(p exam.Passage) {
	indent := e.style.PassageIndent
	left := e.flow.Left()
	size := e.style.BodySize
	lines := e.m.BreakLines(Sanitize(p.Text), size, e.contentWidth()-indent)
	if len(lines) == 0 {
		return
	}
	e.flow.EnsureSpace(e.lineHeight(size))
	startPage, startY := e.flow.PageIndex(), e.flow.CursorY()
	for _, line := range lines {
		e.drawLine(line, left+indent, size, e.style.Text)
	}
	if e.flow.PageIndex() == startPage {
		x := left + indent/3
		e.flow.AddLine(Line{X1: x, Y1: startY, X2: x, Y2: e.flow.CursorY(), Color: e.style.Accent, Width: 0.8})
	}
	e.flow.Advance(e.style.ItemGap)
}

// renderFigure 按比例缩放并居中绘制图片；取得失败时改画占位文字。
func (e *Engine) renderFigure(ctx context.Context, src, alt string) {
	var img *EmbeddedImage
	if e.images != nil && src != "" {
		img = e.images.EmbedImage(ctx, src)
	}
	if img == nil {
		label := alt
		if label == "" {
			label = src
		}
		e.logger.Warn("图片无法载入，改用占位文字", "src", src)
		e.paragraph(fmt.Sprintf("[圖片無法載入：%s]", label), e.flow.Left(), e.contentWidth(), e.style.SmallSize, e.style.Muted)
		e.flow.Advance(e.style.ItemGap / 2)
		return
	}
	geo := e.flow.Geometry()
	w, h := FitImage(img.Width, img.Height, e.contentWidth()-e.style.ImageMargin, geo.ContentHeight()*e.style.ImageMaxRatio)
	if w <= 0 || h <= 0 {
		return
	}
	e.flow.EnsureSpace(h + e.style.ItemGap)
	x := e.flow.Left() + (e.contentWidth()-w)/2
	e.flow.AddImage(ImageBox{Handle: img.Handle, X: x, Y: e.flow.CursorY() - h, Width: w, Height: h})
	e.flow.Advance(h + e.style.ItemGap)
}

// renderQuestion 绘制选择题：题号与题干、各选项、可选的答案行以及附图。
// 先按最坏情况估算高度并预留空间（最多一整页），保证题号不会与题干分离。
func (e *Engine) renderQuestion(ctx context.Context, q exam.McQuestion) {
	size := e.style.BodySize
	lh := e.lineHeight(size)
	left := e.flow.Left()
	cw := e.contentWidth()

	label := Sanitize(q.Num) + "."
	labelW := e.m.TextWidth(label, size) + 1.5
	stem := e.m.BreakLines(Sanitize(q.Text), size, cw-labelW)

	type optLines struct {
		label string
		lines []TextLine
	}
	optX := left + labelW + e.style.OptionIndent
	var opts []optLines
	optCount := 0
	for _, o := range q.Options {
		ol := "(" + Sanitize(o.Label) + ")"
		olW := e.m.TextWidth(ol, size) + 1.5
		lines := e.m.BreakLines(Sanitize(o.Text), size, left+cw-optX-olW)
		opts = append(opts, optLines{label: ol, lines: lines})
		optCount += len(lines)
	}
	answer := ""
	if e.includeAnswers && q.Answer != "" {
		if exam.IsFreePoint(q.Answer) {
			answer = "答案：送分"
		} else {
			answer = "答案：" + Sanitize(q.Answer)
		}
	}

	var answerLines []TextLine
	if answer != "" {
		answerLines = e.m.BreakLines(answer, size, cw-labelW)
	}
	estimate := float64(len(stem)+optCount+len(answerLines)) * lh
	e.flow.EnsureSpace(math.Min(estimate, e.flow.Geometry().ContentHeight()))

	for i, line := range stem {
		e.flow.EnsureSpace(lh)
		if i == 0 {
			e.flow.AddText(TextBox{Content: label, X: left, Y: e.flow.CursorY() - lh*0.8, Width: labelW, FontSize: size, Color: e.style.Primary})
		}
		e.drawLine(line, left+labelW, size, e.style.Text)
	}
	for _, o := range opts {
		olW := e.m.TextWidth(o.label, size) + 1.5
		for i, line := range o.lines {
			e.flow.EnsureSpace(lh)
			if i == 0 {
				e.flow.AddText(TextBox{Content: o.label, X: optX, Y: e.flow.CursorY() - lh*0.8, Width: olW, FontSize: size, Color: e.style.Muted})
			}
			e.drawLine(line, optX+olW, size, e.style.Text)
		}
	}
	for _, line := range answerLines {
		e.drawLine(line, left+labelW, size, e.style.Answer)
	}
	for _, f := range q.Figures {
		e.renderFigure(ctx, f.Src, f.Alt)
	}
	e.flow.Advance(e.style.ItemGap)
}

// FitImage 将原始像素尺寸（按 96 DPI 换算为 mm）等比缩小到 maxW×maxH 之内，不放大。
func FitImage(pxW, pxH, maxW, maxH float64) (float64, float64) {
	if pxW <= 0 || pxH <= 0 {
		return 0, 0
	}
	w, h := pxW*PxToMm, pxH*PxToMm
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = maxW / w
	}
	if maxH > 0 && h*scale > maxH {
		scale = maxH / h
	}
	return w * scale, h * scale
}
