package exam

// 该文件定义导出流程使用的试题模型：原始题库树（Archive）与过滤后的文档（Document）。

// Selection 是用户选择的导出范围，传入后不再修改。
// Years / Subjects 为空表示不限制。
type Selection struct {
	Years          map[string]bool
	Subjects       map[string]bool
	Keyword        string // 仅保留内容包含关键字的科目
	IncludeAnswers bool
}

// NewSelection 由年份与科目列表构造 Selection。
func NewSelection(years, subjects []string, includeAnswers bool) Selection {
	sel := Selection{IncludeAnswers: includeAnswers}
	if len(years) > 0 {
		sel.Years = make(map[string]bool, len(years))
		for _, y := range years {
			sel.Years[y] = true
		}
	}
	if len(subjects) > 0 {
		sel.Subjects = make(map[string]bool, len(subjects))
		for _, s := range subjects {
			sel.Subjects[s] = true
		}
	}
	return sel
}

func (s Selection) matchYear(year string) bool {
	return len(s.Years) == 0 || s.Years[year]
}

func (s Selection) matchSubject(name string) bool {
	return len(s.Subjects) == 0 || s.Subjects[name]
}

// Document 是一次导出所用的、已过滤的试题文档，构造后只读。
type Document struct {
	Title string
	Years []YearGroup
}

// SubjectCount 返回文档中科目（试卷）数量。
func (d *Document) SubjectCount() int {
	n := 0
	for _, yg := range d.Years {
		n += len(yg.Subjects)
	}
	return n
}

// ItemCount 返回文档中内容条目总数，用于进度计算。
func (d *Document) ItemCount() int {
	n := 0
	for _, yg := range d.Years {
		for _, s := range yg.Subjects {
			n += len(s.Items)
		}
	}
	return n
}

// YearGroup 表示某一年度下的全部科目。
type YearGroup struct {
	Label    string
	Subjects []Subject
}

// Subject 表示一份试卷。
type Subject struct {
	Name     string
	MetaTags []string
	Items    []ContentItem
}

// ContentItem 是可渲染内容条目的封闭联合类型，仅本包内的类型可实现。
type ContentItem interface {
	contentItem()
}

// Note 是试卷说明文字。
type Note struct{ Text string }

// SectionMarker 标记试卷中的大题分段，例如「乙、測驗題部分」。
type SectionMarker struct{ Text string }

// Essay 是申论题，Text 已包含题号。
type Essay struct{ Text string }

// Passage 是阅读测验的题组段落。
type Passage struct{ Text string }

// Figure 是独立的插图引用。
type Figure struct {
	Src string
	Alt string
}

// Option 是选择题的一个选项。
type Option struct {
	Label string
	Text  string
}

// McQuestion 是选择题；Answer 为空表示无答案。
type McQuestion struct {
	Num     string
	Text    string
	Options []Option
	Answer  string
	Figures []FigureRef
}

// FigureRef 是延迟解析的图片引用，渲染时才会下载并嵌入。
type FigureRef struct {
	Src string
	Alt string
}

func (Note) contentItem()          {}
func (SectionMarker) contentItem() {}
func (Essay) contentItem()         {}
func (Passage) contentItem()       {}
func (Figure) contentItem()        {}
func (McQuestion) contentItem()    {}

// Archive 是数据抽取端提供的原始题库树，尚未按 Selection 过滤。
type Archive struct {
	Title  string
	Papers []Paper
}

// Paper 对应题库中的一份 試題.json。
type Paper struct {
	Year      string
	Subject   string
	Category  string
	Notes     []string
	Questions []Question
}

// Question 对应 試題.json 中的一道题目。
type Question struct {
	Number  string
	Type    string // choice / essay
	Stem    string
	Options map[string]string
	Answer  string
	Section string
	Passage string
	Subtype string
	Figures []FigureRef
}

const (
	QuestionChoice = "choice"
	QuestionEssay  = "essay"
)
