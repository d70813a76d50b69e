package exam

import (
	"errors"
	"testing"
)

func sampleArchive() Archive {
	return Archive{
		Title: "行政警察考古題",
		Papers: []Paper{
			{
				Year:    "110",
				Subject: "警察學",
				Notes:   []string{"不必抄題", "禁止使用電子計算器", "第三則", "第四則"},
				Questions: []Question{
					{Number: "一", Type: QuestionEssay, Stem: "試述警察任務。", Section: "甲、申論題部分", Figures: []FigureRef{{Src: "images/a.png", Alt: "圖一"}}},
					{Number: "1", Type: QuestionChoice, Stem: "下列何者正確？", Section: "乙、測驗題部分", Options: map[string]string{"B": "乙", "A": "甲", "D": "丁", "C": "丙"}, Answer: "A"},
					{Number: "2", Type: QuestionChoice, Stem: "依據本文", Passage: "閱讀下文", Options: map[string]string{"A": "甲"}},
					{Number: "3", Type: QuestionChoice, Stem: "承上題", Passage: "閱讀下文", Options: map[string]string{"A": "甲"}, Answer: "*"},
				},
			},
			{Year: "113", Subject: "刑法", Questions: []Question{{Number: "1", Type: QuestionChoice, Stem: "毒品危害"}}},
			{Year: "108", Subject: "憲法", Questions: []Question{{Number: "1", Type: QuestionEssay, Stem: "基本權"}}},
		},
	}
}

func TestDeriveOrdersYearsAndBuildsItems(t *testing.T) {
	doc, err := Derive(sampleArchive(), Selection{})
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	labels := doc.Labels()
	if len(labels) != 3 || labels[0] != "113" || labels[2] != "108" {
		t.Fatalf("年份排序错误: %v", labels)
	}
	subject := doc.Years[1].Subjects[0]
	if subject.Name != "警察學" {
		t.Fatalf("unexpected subject %q", subject.Name)
	}

	var kinds []string
	for _, item := range subject.Items {
		switch item.(type) {
		case Note:
			kinds = append(kinds, "note")
		case SectionMarker:
			kinds = append(kinds, "section")
		case Essay:
			kinds = append(kinds, "essay")
		case Figure:
			kinds = append(kinds, "figure")
		case Passage:
			kinds = append(kinds, "passage")
		case McQuestion:
			kinds = append(kinds, "mc")
		}
	}
	want := []string{"note", "note", "note", "section", "essay", "figure", "section", "mc", "passage", "mc", "mc"}
	if len(kinds) != len(want) {
		t.Fatalf("条目序列不符: got=%v want=%v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("第 %d 个条目: got=%s want=%s (全部 %v)", i, kinds[i], want[i], kinds)
		}
	}

	essay := subject.Items[4].(Essay)
	if essay.Text != "一、試述警察任務。" {
		t.Fatalf("申论题文字错误: %q", essay.Text)
	}
	mc := subject.Items[7].(McQuestion)
	if len(mc.Options) != 4 || mc.Options[0].Label != "A" || mc.Options[3].Label != "D" {
		t.Fatalf("选项顺序错误: %+v", mc.Options)
	}
	if len(subject.MetaTags) != 2 || subject.MetaTags[0] != "選擇題 3 題" || subject.MetaTags[1] != "申論題 1 題" {
		t.Fatalf("meta tags 错误: %v", subject.MetaTags)
	}
}

func TestDeriveFiltersBeforeBuilding(t *testing.T) {
	sel := NewSelection([]string{"110", "113"}, nil, true)
	doc, err := Derive(sampleArchive(), sel)
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	if got := doc.SubjectCount(); got != 2 {
		t.Fatalf("expected 2 subjects, got %d", got)
	}
	for _, yg := range doc.Years {
		if yg.Label == "108" {
			t.Fatalf("108 年不应进入模型")
		}
	}

	sel.Keyword = "毒品"
	doc, err = Derive(sampleArchive(), sel)
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	if doc.SubjectCount() != 1 || doc.Years[0].Subjects[0].Name != "刑法" {
		t.Fatalf("关键字过滤失败: %+v", doc.Years)
	}
}

func TestDeriveNoMatchingContent(t *testing.T) {
	sel := NewSelection(nil, []string{"不存在的科目"}, false)
	_, err := Derive(sampleArchive(), sel)
	if !errors.Is(err, ErrNoMatchingContent) {
		t.Fatalf("expected ErrNoMatchingContent, got %v", err)
	}
}

func TestDeriveMalformedInput(t *testing.T) {
	bad := Archive{Papers: []Paper{{Year: "110"}}}
	if _, err := Derive(bad, Selection{}); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	bad = Archive{Papers: []Paper{{Year: "110", Subject: "x", Questions: []Question{{Number: "1", Type: "matching"}}}}}
	if _, err := Derive(bad, Selection{}); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput for unknown type, got %v", err)
	}
}

func TestYearSpan(t *testing.T) {
	cases := map[string][]string{
		"":        nil,
		"110":     {"110"},
		"110-113": {"113", "110"},
		"99-113":  {"113", "99", "105"},
	}
	for want, in := range cases {
		if got := YearSpan(in); got != want {
			t.Fatalf("YearSpan(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDeriveDuplicatePaperLastWins(t *testing.T) {
	second := Paper{Year: "113", Subject: "刑法", Questions: []Question{
		{Number: "一", Type: QuestionEssay, Stem: "新版題目"},
		{Number: "二", Type: QuestionEssay, Stem: "第二題"},
	}}
	archive := Archive{Papers: []Paper{
		{Year: "113", Subject: "刑法", Questions: []Question{{Number: "一", Type: QuestionEssay, Stem: "舊版題目"}}},
		second,
	}}
	doc, err := Derive(archive, Selection{})
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	want, _ := Derive(Archive{Papers: []Paper{second}}, Selection{})
	if doc.SubjectCount() != 1 || doc.ItemCount() != want.ItemCount() {
		t.Fatalf("重复试卷应以最后一份为准: subjects=%d items=%d", doc.SubjectCount(), doc.ItemCount())
	}
}
