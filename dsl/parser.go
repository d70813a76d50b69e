package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/examsheet/exam"
)

// maxYearSpan 限制单个年份区间展开后的数量。
const maxYearSpan = 200

var (
	queryLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `\d+`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[,;\-]`},
	})

	queryParser = participle.MustBuild[Query](
		participle.Lexer(queryLexer),
		participle.Elide("Whitespace", "HashComment"),
	)
)

// Query is the root AST node of a selection query, for example:
//
//	years 110-113, 108
//	subjects "刑法", "憲法"
//	keyword "毒品"
//	no-answers
type Query struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Clauses []*Clause      `parser:"( @@ ';'? )*"`
}

// Clause is one selection statement.
type Clause struct {
	Pos      lexer.Position  `parser:"" json:"-"`
	Years    *YearsClause    `parser:"  'years' @@"`
	Subjects *SubjectsClause `parser:"| 'subjects' @@"`
	Keyword  *TextLiteral    `parser:"| 'keyword' @@"`
	Title    *TextLiteral    `parser:"| 'title' @@"`
	Answers  *string         `parser:"| @( 'answers' | 'no-answers' )"`
}

// YearsClause lists years or inclusive year ranges.
type YearsClause struct {
	Ranges []*YearRange `parser:"@@ ( ',' @@ )*"`
}

// YearRange is a single year (110) or an inclusive range (110-113).
type YearRange struct {
	Pos  lexer.Position `parser:"" json:"-"`
	From int            `parser:"@Number"`
	To   *int           `parser:"( '-' @Number )?"`
}

// SubjectsClause lists subject names.
type SubjectsClause struct {
	Names []*TextLiteral `parser:"@@ ( ',' @@ )*"`
}

// TextLiteral wraps a quoted string.
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a selection query from an io.Reader.
func Parse(r io.Reader) (*Query, error) {
	return queryParser.Parse("", r)
}

// ParseString parses a selection query from a string.
func ParseString(input string) (*Query, error) {
	return queryParser.ParseString("", input)
}

// Years 返回展开后的年份列表，按出现顺序去重。
func (q *Query) Years() ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, c := range q.Clauses {
		if c.Years == nil {
			continue
		}
		for _, r := range c.Years.Ranges {
			to := r.From
			if r.To != nil {
				to = *r.To
			}
			if to < r.From {
				return nil, fmt.Errorf("%s: 年份区间 %d-%d 起止颠倒", r.Pos, r.From, to)
			}
			if to-r.From >= maxYearSpan {
				return nil, fmt.Errorf("%s: 年份区间 %d-%d 过大", r.Pos, r.From, to)
			}
			for y := r.From; y <= to; y++ {
				s := strconv.Itoa(y)
				if !seen[s] {
					seen[s] = true
					out = append(out, s)
				}
			}
		}
	}
	return out, nil
}

// Subjects 返回所有 subjects 子句中的科目名称。
func (q *Query) Subjects() []string {
	var out []string
	for _, c := range q.Clauses {
		if c.Subjects == nil {
			continue
		}
		for _, n := range c.Subjects.Names {
			if name := strings.TrimSpace(string(n.Value)); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// Title 返回最后一个 title 子句的值。
func (q *Query) Title() string {
	title := ""
	for _, c := range q.Clauses {
		if c.Title != nil {
			title = string(c.Title.Value)
		}
	}
	return title
}

// Selection 将查询转换为 exam.Selection。未出现 answers/no-answers 时使用 defaultAnswers。
func (q *Query) Selection(defaultAnswers bool) (exam.Selection, error) {
	years, err := q.Years()
	if err != nil {
		return exam.Selection{}, err
	}
	answers := defaultAnswers
	keyword := ""
	for _, c := range q.Clauses {
		switch {
		case c.Answers != nil:
			answers = *c.Answers == "answers"
		case c.Keyword != nil:
			keyword = strings.TrimSpace(string(c.Keyword.Value))
		}
	}
	sel := exam.NewSelection(years, q.Subjects(), answers)
	sel.Keyword = keyword
	return sel, nil
}

// ParseSelection 解析查询字符串并直接返回 Selection。空字符串表示不限制。
func ParseSelection(input string, defaultAnswers bool) (exam.Selection, *Query, error) {
	q, err := ParseString(input)
	if err != nil {
		return exam.Selection{}, nil, fmt.Errorf("解析筛选条件失败: %w", err)
	}
	sel, err := q.Selection(defaultAnswers)
	if err != nil {
		return exam.Selection{}, nil, err
	}
	return sel, q, nil
}
