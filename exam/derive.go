package exam

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNoMatchingContent 表示按 Selection 过滤后没有任何可导出的科目。
	ErrNoMatchingContent = errors.New("沒有符合篩選條件的試題")
	// ErrMalformedInput 表示抽取端提供的题库树结构不完整。
	ErrMalformedInput = errors.New("題庫資料格式錯誤")
)

const (
	maxNotesPerSubject = 3
	freePointAnswer    = "*"
)

var optionLabels = []string{"A", "B", "C", "D", "E"}

// Derive 按 Selection 过滤题库树并构造只读的 Document。
// 过滤先于构造：选择范围以外的试卷不会进入模型。
func Derive(archive Archive, sel Selection) (*Document, error) {
	byYear := map[string][]Subject{}
	// 同一年度同一科目出现多次时以最后一份为准
	seen := map[[2]string]int{}
	for i, paper := range archive.Papers {
		if strings.TrimSpace(paper.Year) == "" || strings.TrimSpace(paper.Subject) == "" {
			return nil, fmt.Errorf("%w: 第 %d 份試卷缺少年份或科目", ErrMalformedInput, i+1)
		}
		if !sel.matchYear(paper.Year) || !sel.matchSubject(paper.Subject) {
			continue
		}
		if sel.Keyword != "" && !paperContains(paper, sel.Keyword) {
			continue
		}
		subject, err := buildSubject(paper)
		if err != nil {
			return nil, err
		}
		key := [2]string{paper.Year, paper.Subject}
		if idx, ok := seen[key]; ok {
			byYear[paper.Year][idx] = subject
			continue
		}
		seen[key] = len(byYear[paper.Year])
		byYear[paper.Year] = append(byYear[paper.Year], subject)
	}
	if len(byYear) == 0 {
		return nil, ErrNoMatchingContent
	}

	years := make([]string, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	// 新年度在前，与题库网页的排序一致
	sort.Slice(years, func(i, j int) bool { return yearLess(years[j], years[i]) })

	doc := &Document{Title: archive.Title}
	for _, y := range years {
		subjects := byYear[y]
		sort.SliceStable(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
		doc.Years = append(doc.Years, YearGroup{Label: y, Subjects: subjects})
	}
	return doc, nil
}

func buildSubject(paper Paper) (Subject, error) {
	subject := Subject{Name: paper.Subject}
	notes := paper.Notes
	if len(notes) > maxNotesPerSubject {
		notes = notes[:maxNotesPerSubject]
	}
	for _, n := range notes {
		subject.Items = append(subject.Items, Note{Text: n})
	}

	var choices, essays int
	currentSection := ""
	seenPassages := map[string]bool{}
	for _, q := range paper.Questions {
		if q.Section != "" && q.Section != currentSection {
			currentSection = q.Section
			subject.Items = append(subject.Items, SectionMarker{Text: q.Section})
		}
		if q.Passage != "" && !seenPassages[q.Passage] {
			seenPassages[q.Passage] = true
			subject.Items = append(subject.Items, Passage{Text: q.Passage})
		}
		switch q.Type {
		case QuestionEssay:
			essays++
			subject.Items = append(subject.Items, Essay{Text: essayText(q)})
			for _, f := range q.Figures {
				subject.Items = append(subject.Items, Figure{Src: f.Src, Alt: f.Alt})
			}
		case QuestionChoice:
			choices++
			subject.Items = append(subject.Items, McQuestion{
				Num:     q.Number,
				Text:    q.Stem,
				Options: orderedOptions(q.Options),
				Answer:  q.Answer,
				Figures: q.Figures,
			})
		default:
			return Subject{}, fmt.Errorf("%w: %s 第 %s 題題型未知：%q", ErrMalformedInput, paper.Subject, q.Number, q.Type)
		}
	}

	if choices > 0 {
		subject.MetaTags = append(subject.MetaTags, fmt.Sprintf("選擇題 %d 題", choices))
	}
	if essays > 0 {
		subject.MetaTags = append(subject.MetaTags, fmt.Sprintf("申論題 %d 題", essays))
	}
	return subject, nil
}

func essayText(q Question) string {
	if q.Number == "" {
		return q.Stem
	}
	return q.Number + "、" + q.Stem
}

func orderedOptions(opts map[string]string) []Option {
	out := make([]Option, 0, len(opts))
	for _, label := range optionLabels {
		if text, ok := opts[label]; ok {
			out = append(out, Option{Label: label, Text: text})
		}
	}
	return out
}

func paperContains(paper Paper, keyword string) bool {
	if strings.Contains(paper.Subject, keyword) {
		return true
	}
	for _, n := range paper.Notes {
		if strings.Contains(n, keyword) {
			return true
		}
	}
	for _, q := range paper.Questions {
		if strings.Contains(q.Stem, keyword) || strings.Contains(q.Passage, keyword) {
			return true
		}
		for _, opt := range q.Options {
			if strings.Contains(opt, keyword) {
				return true
			}
		}
	}
	return false
}

// yearLess 优先按数值比较民国年份，无法解析时退回字符串比较。
func yearLess(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

// IsFreePoint 判断答案是否为「送分」。
func IsFreePoint(answer string) bool {
	return strings.TrimSpace(answer) == freePointAnswer
}

// YearSpan 返回年份集合的显示形式：单一年份为 "110"，多个年份为 "108-113"。
func YearSpan(years []string) string {
	if len(years) == 0 {
		return ""
	}
	sorted := append([]string(nil), years...)
	sort.Slice(sorted, func(i, j int) bool { return yearLess(sorted[i], sorted[j]) })
	first, last := sorted[0], sorted[len(sorted)-1]
	if first == last {
		return first
	}
	return first + "-" + last
}

// Labels 返回文档包含的年份标签。
func (d *Document) Labels() []string {
	out := make([]string, 0, len(d.Years))
	for _, yg := range d.Years {
		out = append(out, yg.Label)
	}
	return out
}
