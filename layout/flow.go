package layout

import (
	"strconv"

	"github.com/ByLCY/examsheet/binding"
)

// PageFlowState 是页面流的快照，仅用于观察。
type PageFlowState struct {
	CurrentPageIndex int     `json:"currentPageIndex"`
	CursorY          float64 `json:"cursorY"`
	PageCount        int     `json:"pageCount"`
}

// RunningHeader 是第二页起页眉使用的文字。
type RunningHeader struct {
	Title string
	Date  string
}

// PageFlow 持有当前页与写入游标，是唯一可以移动游标的组件。
// 页面在第一次 EnsureSpace 时才分配；分页时为旧页补页脚，
// 新页（第一页除外）绘制页眉与分隔线。
type PageFlow struct {
	geo      Geometry
	style    Style
	measurer *Measurer
	header   RunningHeader

	pages     []*Page
	cursorY   float64
	fresh     bool // 当前页尚未写入正文
	finalized bool
}

func NewPageFlow(geo Geometry, style Style, measurer *Measurer, header RunningHeader) *PageFlow {
	return &PageFlow{geo: geo, style: style, measurer: measurer, header: header}
}

func (f *PageFlow) Geometry() Geometry { return f.geo }

// Left 返回内容区左边界。
func (f *PageFlow) Left() float64 { return f.geo.Margin.Left }

func (f *PageFlow) CursorY() float64 { return f.cursorY }

// PageIndex 返回当前页下标；尚未分配页面时为 -1。
func (f *PageFlow) PageIndex() int { return len(f.pages) - 1 }

func (f *PageFlow) State() PageFlowState {
	return PageFlowState{CurrentPageIndex: f.PageIndex(), CursorY: f.cursorY, PageCount: len(f.pages)}
}

// EnsureSpace 保证当前页还有 height 的纵向空间，不够则换页。
// 返回是否发生了换页。比整页内容区还高的请求在新页上直接放行。
func (f *PageFlow) EnsureSpace(height float64) bool {
	if f.finalized {
		panic("layout: page flow already finalized")
	}
	if len(f.pages) > 0 && (f.fresh || f.cursorY-height >= f.geo.Margin.Bottom) {
		return false
	}
	f.newPage()
	return true
}

// Advance 将游标下移 height，不做分页检查。
func (f *PageFlow) Advance(height float64) {
	if height <= 0 {
		return
	}
	f.cursorY -= height
	f.fresh = false
}

// Finalize 为最后一页补页脚并返回全部页面。之后不能再写入。
func (f *PageFlow) Finalize() []Page {
	if !f.finalized {
		if p := f.current(); p != nil {
			f.drawFooter(p)
		}
		f.finalized = true
	}
	out := make([]Page, len(f.pages))
	for i, p := range f.pages {
		out[i] = *p
	}
	return out
}

func (f *PageFlow) AddText(tb TextBox) {
	p := f.page()
	p.Texts = append(p.Texts, tb)
}

func (f *PageFlow) AddLine(ln Line) {
	p := f.page()
	p.Lines = append(p.Lines, ln)
}

func (f *PageFlow) AddRect(rc Rect) {
	p := f.page()
	p.Rects = append(p.Rects, rc)
}

func (f *PageFlow) AddImage(ib ImageBox) {
	p := f.page()
	p.Images = append(p.Images, ib)
}

func (f *PageFlow) current() *Page {
	if len(f.pages) == 0 {
		return nil
	}
	return f.pages[len(f.pages)-1]
}

func (f *PageFlow) page() *Page {
	p := f.current()
	if p == nil || f.finalized {
		panic("layout: no active page; call EnsureSpace before drawing")
	}
	return p
}

func (f *PageFlow) newPage() {
	if prev := f.current(); prev != nil {
		f.drawFooter(prev)
	}
	p := &Page{
		Index:  len(f.pages),
		Width:  f.geo.Width,
		Height: f.geo.Height,
		Margin: f.geo.Margin,
	}
	f.pages = append(f.pages, p)
	f.cursorY = f.geo.Top()
	f.fresh = true
	if p.Index > 0 {
		f.drawHeader(p)
	}
}

// drawHeader 在内容区顶部绘制标题（左）与日期（右），下方加一条分隔线。
func (f *PageFlow) drawHeader(p *Page) {
	size := f.style.HeaderSize
	lh := LineHeight(size, f.style.LineSpacing)
	left := f.geo.Margin.Left
	cw := f.geo.ContentWidth()
	fields := binding.Fields{"title": f.header.Title, "date": f.header.Date}
	title := Sanitize(binding.Interpolate(f.style.HeaderTemplate, fields))
	date := Sanitize(f.header.Date)

	dateW := f.measurer.TextWidth(date, size)
	gap := 4.0
	title = f.truncate(title, size, cw-dateW-gap)

	baseline := f.cursorY - lh*0.8
	p.Texts = append(p.Texts,
		TextBox{Content: title, X: left, Y: baseline, Width: cw - dateW - gap, FontSize: size, Color: f.style.Muted},
		TextBox{Content: date, X: left, Y: baseline, Width: cw, FontSize: size, Color: f.style.Muted, Align: "right"},
	)
	ruleY := f.cursorY - lh - 1
	p.Lines = append(p.Lines, Line{X1: left, Y1: ruleY, X2: left + cw, Y2: ruleY, Color: f.style.Rule, Width: 0.2})
	f.cursorY = ruleY - f.style.ItemGap
}

func (f *PageFlow) drawFooter(p *Page) {
	size := f.style.HeaderSize
	text := Sanitize(binding.Interpolate(f.style.FooterTemplate, binding.Fields{"page": strconv.Itoa(p.Index + 1)}))
	if text == "" {
		return
	}
	baseline := f.geo.Margin.Bottom / 2
	p.Texts = append(p.Texts, TextBox{
		Content:  text,
		X:        f.geo.Margin.Left,
		Y:        baseline,
		Width:    f.geo.ContentWidth(),
		FontSize: size,
		Color:    f.style.Muted,
		Align:    "center",
	})
}

// truncate 在宽度不足时截断并补省略号。
func (f *PageFlow) truncate(s string, size, maxWidth float64) string {
	if f.measurer.TextWidth(s, size) <= maxWidth {
		return s
	}
	ell := "…"
	limit := maxWidth - f.measurer.TextWidth(ell, size)
	var w float64
	runes := []rune(s)
	for i, r := range runes {
		w += f.measurer.WidthOf(r, size)
		if w > limit {
			return string(runes[:i]) + ell
		}
	}
	return s
}
