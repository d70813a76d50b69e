package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/ByLCY/examsheet/exam"
)

// HTMLFile 从题库网站生成的类科页面读取试题。
type HTMLFile struct {
	Path string
}

// Extract 实现 assemble.Extractor。
func (h *HTMLFile) Extract(ctx context.Context) (exam.Archive, error) {
	f, err := os.Open(h.Path)
	if err != nil {
		return exam.Archive{}, fmt.Errorf("打开 %s 失败: %w", h.Path, err)
	}
	defer f.Close()
	return ParseHTML(ctx, f)
}

type htmlWalker struct {
	ctx     context.Context
	archive exam.Archive
	year    string
	paper   *exam.Paper
	section string
	passage string
}

// ParseHTML 解析类科页面：year-section → subject-card → exam-content-v2 中的条目。
// 阅读材料只挂在紧随其后的一道题上，科目统计标签在派生阶段重新计算。
func ParseHTML(ctx context.Context, r io.Reader) (exam.Archive, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return exam.Archive{}, fmt.Errorf("解析 HTML 失败: %w", err)
	}
	w := &htmlWalker{ctx: ctx}
	if err := w.walk(doc); err != nil {
		return exam.Archive{}, err
	}
	w.flush()
	return w.archive, nil
}

func (w *htmlWalker) walk(n *html.Node) error {
	if n.Type == html.ElementNode {
		switch {
		case n.Data == "h1" && hasClass(n, "page-title"):
			w.archive.Title = strings.TrimSpace(textContent(n))
			return nil
		case hasClass(n, "year-section"):
			w.flush()
			w.year = strings.TrimPrefix(attr(n, "id"), "year-")
		case n.Data == "h2" && hasClass(n, "year-heading"):
			if w.year == "" {
				w.year = strings.TrimSuffix(strings.TrimSpace(textContent(n)), "年")
			}
			return nil
		case hasClass(n, "subject-card"):
			if err := w.ctx.Err(); err != nil {
				return err
			}
			w.flush()
			w.paper = &exam.Paper{Year: w.year}
			w.section, w.passage = "", ""
		case hasClass(n, "subject-header"):
			if w.paper != nil {
				if h3 := findElement(n, "h3"); h3 != nil {
					w.paper.Subject = strings.TrimSpace(textContent(h3))
				}
			}
			return nil
		case hasClass(n, "exam-note"):
			if w.paper != nil {
				w.paper.Notes = append(w.paper.Notes, strings.TrimSpace(textContent(n)))
			}
			return nil
		case hasClass(n, "exam-section-marker"):
			w.section = strings.TrimSpace(textContent(n))
			return nil
		case hasClass(n, "reading-passage"):
			w.passage = strings.TrimSpace(textContent(n))
			return nil
		case hasClass(n, "essay-question"):
			w.addEssay(n)
			return nil
		case hasClass(n, "q-block"):
			w.addChoice(n)
			return nil
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := w.walk(c); err != nil {
			return err
		}
	}
	return nil
}

func (w *htmlWalker) flush() {
	if w.paper != nil && w.paper.Subject != "" && len(w.paper.Questions) > 0 {
		w.archive.Papers = append(w.archive.Papers, *w.paper)
	}
	w.paper = nil
}

func (w *htmlWalker) takePassage() string {
	p := w.passage
	w.passage = ""
	return p
}

func (w *htmlWalker) addEssay(n *html.Node) {
	if w.paper == nil {
		return
	}
	text := strings.TrimSpace(textContent(n))
	num, stem, ok := strings.Cut(text, "、")
	if !ok {
		num, stem = "", text
	}
	w.paper.Questions = append(w.paper.Questions, exam.Question{
		Number:  strings.TrimSpace(num),
		Type:    exam.QuestionEssay,
		Stem:    strings.TrimSpace(stem),
		Section: w.section,
		Passage: w.takePassage(),
		Figures: figures(n),
	})
}

func (w *htmlWalker) addChoice(n *html.Node) {
	if w.paper == nil {
		return
	}
	q := exam.Question{
		Number:  attr(n, "data-qnum"),
		Type:    exam.QuestionChoice,
		Answer:  attr(n, "data-answer"),
		Section: w.section,
		Passage: w.takePassage(),
		Figures: figures(n),
	}
	if stem := findClass(n, "q-text"); stem != nil {
		q.Stem = strings.TrimSpace(textContent(stem))
	}
	if mq := findClass(n, "mc-question"); mq != nil {
		q.Subtype = attr(mq, "data-subtype")
	}
	forEachClass(n, "mc-opt", func(opt *html.Node) {
		label := attr(opt, "data-val")
		if label == "" {
			return
		}
		if q.Options == nil {
			q.Options = map[string]string{}
		}
		if t := findClass(opt, "opt-text"); t != nil {
			q.Options[label] = strings.TrimSpace(textContent(t))
		}
	})
	w.paper.Questions = append(w.paper.Questions, q)
}

func figures(n *html.Node) []exam.FigureRef {
	var out []exam.FigureRef
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == "img" {
			if src := attr(c, "src"); src != "" {
				out = append(out, exam.FigureRef{Src: src, Alt: attr(c, "alt")})
			}
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
	}
	visit(n)
	return out
}

// textContent 拼接节点下的全部文本，<br> 转为换行。
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			switch c.Data {
			case "br":
				b.WriteByte('\n')
				return
			case "script", "style":
				return
			}
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
	}
	visit(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func forEachClass(n *html.Node, class string, fn func(*html.Node)) {
	if n.Type == html.ElementNode && hasClass(n, class) {
		fn(n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		forEachClass(c, class, fn)
	}
}
