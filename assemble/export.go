// Package assemble 串联筛选、字体嵌入、排版与渲染，完成一次题库 PDF 导出。
package assemble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ByLCY/examsheet/binding"
	"github.com/ByLCY/examsheet/exam"
	"github.com/ByLCY/examsheet/fonts"
	"github.com/ByLCY/examsheet/layout"
	"github.com/ByLCY/examsheet/renderer"
	canvasrenderer "github.com/ByLCY/examsheet/renderer/canvas"
	"github.com/ByLCY/examsheet/resource"
)

// Creator 写入 PDF 元数据。
const Creator = "examsheet"

const (
	defaultTitle    = "考古題"
	defaultFontName = "Body"
)

// ProgressFunc 接收 0-100 的进度与提示文字。
type ProgressFunc func(percent int, message string)

// Options 配置一次导出。零值可用：A4、内置字体、不获取远程图片。
type Options struct {
	Title    string // 覆盖题库标题
	Geometry layout.Geometry
	Style    *layout.Style
	FontSrc  string // fonts.Load 的来源，默认 builtin:goregular
	FontName string
	Fetch    resource.FetchFunc
	Progress ProgressFunc
	Logger   *slog.Logger
	Now      func() time.Time

	// NewBackend 为每次导出创建独立的渲染后端，默认 canvas。
	NewBackend func() renderer.Backend

	// Debug 非空时写出布局调试 JSON。
	Debug io.Writer
}

// Output 是导出结果。
type Output struct {
	Bytes     []byte
	Filename  string
	PageCount int
	ExportID  string
	Layout    *layout.Result
	// MissingGlyphs 是字体中缺失、在 PDF 中显示为空白的不同字符数。
	MissingGlyphs int
}

// Extractor 从某种来源读出原始题库。
type Extractor interface {
	Extract(ctx context.Context) (exam.Archive, error)
}

// ExportFrom 先从 src 读出题库再导出。
func ExportFrom(ctx context.Context, src Extractor, sel exam.Selection, opts Options) (*Output, error) {
	archive, err := src.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取题库失败: %w", err)
	}
	return Export(ctx, archive, sel, opts)
}

// Export 按选择范围把题库排版成 PDF。
// 筛选结果为空时在分配任何页面之前返回 exam.ErrNoMatchingContent；字体失败是致命错误；
// 图片失败只记录日志并绘制占位文字。
func Export(ctx context.Context, archive exam.Archive, sel exam.Selection, opts Options) (*Output, error) {
	exportID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("export", exportID)
	report := newReporter(opts.Progress)

	if opts.Title != "" {
		archive.Title = opts.Title
	}
	if archive.Title == "" {
		archive.Title = defaultTitle
	}

	report(5, "篩選題目")
	doc, err := exam.Derive(archive, sel)
	if err != nil {
		return nil, err
	}
	logger.Info("开始导出", "title", doc.Title, "years", len(doc.Years), "subjects", doc.SubjectCount(), "items", doc.ItemCount())

	geo := opts.Geometry
	if geo.Width == 0 && geo.Height == 0 {
		geo = layout.DefaultGeometry()
	}
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	style := layout.DefaultStyle()
	if opts.Style != nil {
		style = *opts.Style
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	date := now().Format("2006-01-02")

	newBackend := opts.NewBackend
	if newBackend == nil {
		newBackend = func() renderer.Backend { return canvasrenderer.NewRenderer() }
	}
	backend := newBackend()

	report(10, "載入字型")
	fontSrc := opts.FontSrc
	if fontSrc == "" {
		fontSrc = "builtin:goregular"
	}
	fontData, err := fonts.Load(ctx, fontSrc, opts.Fetch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", resource.ErrFontEmbed, err)
	}
	fontName := opts.FontName
	if fontName == "" {
		fontName = defaultFontName
	}
	embedder := resource.NewEmbedder(opts.Fetch, backend, logger)
	if _, err := embedder.EmbedFont(fontName, fontData); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report(20, "排版中")
	measurer := layout.NewMeasurer(backend)
	flow := layout.NewPageFlow(geo, style, measurer, layout.RunningHeader{Title: doc.Title, Date: date})
	engine := layout.NewEngine(flow, measurer, layout.EngineOptions{
		Style:          style,
		Images:         embedder,
		IncludeAnswers: sel.IncludeAnswers,
		Logger:         logger,
	})

	years := doc.Labels()
	engine.RenderCover(layout.Cover{
		Title:   doc.Title,
		Summary: coverSummary(doc, years, sel.IncludeAnswers),
		Date:    binding.Interpolate("匯出日期：${date}", binding.Fields{"date": date}),
	})

	total := max(doc.ItemCount(), 1)
	done := 0
	for _, yg := range doc.Years {
		engine.RenderYearHeading(yg.Label)
		for _, subj := range yg.Subjects {
			engine.RenderSubjectHeading(subj.Name, subj.MetaTags)
			for _, item := range subj.Items {
				if err := engine.RenderItem(ctx, item); err != nil {
					return nil, err
				}
				done++
				report(20+70*done/total, fmt.Sprintf("排版中 %d/%d", done, total))
			}
		}
	}

	pages := flow.Finalize()
	result := &layout.Result{
		Pages:     pages,
		Resources: embedder.Resources(),
		Meta: layout.DocumentMeta{
			Title:    doc.Title,
			Subject:  strings.Join(subjectNames(doc), "、"),
			Creator:  Creator,
			Keywords: append([]string{exportID}, years...),
		},
	}
	if opts.Debug != nil {
		dbg := layout.DebugReport{ExportID: exportID, Flow: flow.State(), Result: result}
		if err := layout.EncodeDebugJSON(opts.Debug, dbg); err != nil {
			logger.Warn("写入调试 JSON 失败", "err", err)
		}
	}

	report(95, "產生 PDF")
	data, err := backend.Render(result)
	if err != nil {
		return nil, fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	missing := measurer.MissingGlyphs()
	if missing > 0 {
		logger.Warn("字体缺少部分字形，这些文字将显示为空白", "missing", missing, "font", fontSrc, "hint", "请在配置中设置 font.src 指向含中文字形的字体")
	}

	name := Filename(doc.Title, years, sel.IncludeAnswers)
	logger.Info("导出完成", "pages", len(pages), "bytes", len(data), "file", name)
	report(100, "準備下載")
	return &Output{
		Bytes:     data,
		Filename:  name,
		PageCount: len(pages),
		ExportID:  exportID,
		Layout:    result,

		MissingGlyphs: missing,
	}, nil
}

// newReporter 包装进度回调，保证进度单调且落在 0-100。
func newReporter(fn ProgressFunc) ProgressFunc {
	last := 0
	return func(percent int, message string) {
		percent = max(last, min(100, percent))
		last = percent
		if fn != nil {
			fn(percent, message)
		}
	}
}

func coverSummary(doc *exam.Document, years []string, includeAnswers bool) []string {
	answers := "不含答案"
	if includeAnswers {
		answers = "含答案"
	}
	line := binding.Interpolate("${span} 年 · ${subjects} 科 · ${items} 題 · ${answers}", binding.Fields{
		"span":     exam.YearSpan(years),
		"subjects": doc.SubjectCount(),
		"items":    doc.ItemCount(),
		"answers":  answers,
	})
	names := subjectNames(doc)
	if len(names) == 0 {
		return []string{line}
	}
	return []string{line, strings.Join(names, "、")}
}

// subjectNames 按首次出现顺序返回科目名称。
func subjectNames(doc *exam.Document) []string {
	seen := map[string]bool{}
	var out []string
	for _, yg := range doc.Years {
		for _, s := range yg.Subjects {
			if !seen[s.Name] {
				seen[s.Name] = true
				out = append(out, s.Name)
			}
		}
	}
	return out
}

var (
	unsafeFilename = regexp.MustCompile(`[/\\?%*:|"<>]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Filename 生成 {标题}_{年份或区间}年_{含答案|不含答案}.pdf。
func Filename(title string, years []string, includeAnswers bool) string {
	name := unsafeFilename.ReplaceAllString(strings.TrimSpace(title), "")
	name = whitespaceRun.ReplaceAllString(name, "_")
	if name == "" {
		name = defaultTitle
	}
	answers := "不含答案"
	if includeAnswers {
		answers = "含答案"
	}
	parts := []string{name}
	if span := exam.YearSpan(years); span != "" {
		parts = append(parts, span+"年")
	}
	parts = append(parts, answers)
	return strings.Join(parts, "_") + ".pdf"
}

// IsCanceled 判断导出是否因 context 取消而结束。
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
