package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/examsheet/exam"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "行政警察", "110年", "警察學", PaperFile), `{
		"subject": "警察學（含警察法規）",
		"year": 110,
		"notes": ["不必抄題"],
		"questions": [
			{"number": 1, "type": "choice", "stem": "下列何者正確？", "options": {"A": "甲", "B": 2}, "answer": "A",
			 "figures": [{"src": "images/q1.png", "alt": "圖一"}]},
			{"number": "一", "type": "essay", "stem": "試述之。"}
		]
	}`)
	// 路径中没有年份目录时回退到 JSON 的 year 字段
	writeFile(t, filepath.Join(root, "misc", "憲法", PaperFile), `{"subject": "憲法", "year": "113年", "category": "行政警察",
		"questions": [{"number": "1", "type": "essay", "stem": "基本權"}]}`)
	writeFile(t, filepath.Join(root, "empty", PaperFile), `{"subject": "空", "year": 111, "questions": []}`)
	writeFile(t, filepath.Join(root, "broken", PaperFile), `{not json`)
	writeFile(t, filepath.Join(root, "other.json"), `{"questions": [{"type": "essay"}]}`)

	archive, err := LoadDir(context.Background(), root, "題庫", "", nil)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if archive.Title != "題庫" || len(archive.Papers) != 2 {
		t.Fatalf("unexpected archive: %+v", archive)
	}
	var police, constitution exam.Paper
	for _, p := range archive.Papers {
		switch p.Year {
		case "110":
			police = p
		case "113":
			constitution = p
		}
	}
	if police.Subject != "警察學(含警察法規)" {
		t.Fatalf("括号未统一: %q", police.Subject)
	}
	if police.Category != "行政警察" {
		t.Fatalf("类科应由路径推断: %q", police.Category)
	}
	q := police.Questions[0]
	if q.Number != "1" || q.Options["B"] != "2" || q.Answer != "A" {
		t.Fatalf("数字字段应转为字符串: %+v", q)
	}
	if len(q.Figures) != 1 || q.Figures[0].Src != "行政警察/110年/警察學/images/q1.png" {
		t.Fatalf("图片路径应相对于题库根目录: %+v", q.Figures)
	}
	if constitution.Subject != "憲法" || constitution.Category != "行政警察" {
		t.Fatalf("unexpected fallback paper: %+v", constitution)
	}

	filtered, err := LoadDir(context.Background(), root, "", "不存在", nil)
	if err != nil || len(filtered.Papers) != 0 {
		t.Fatalf("类科过滤失败: %+v %v", filtered, err)
	}
}

func TestLoadDirMissingRoot(t *testing.T) {
	if _, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "none"), "", "", nil); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

const samplePage = `<!DOCTYPE html>
<html lang="zh-TW"><head><meta charset="UTF-8"><title>x</title></head>
<body>
<h1 class="page-title">行政警察考古題總覽</h1>
<div class="main">
<div class="year-section" id="year-113">
<h2 class="year-heading">113年</h2>
<div class="subject-card" id="c1">
<div class="subject-header" role="button"><h3>刑法</h3><span class="subject-toggle">&#9660;</span></div>
<div class="subject-body">
<div class="exam-meta-bar"><span class="meta-tag">選擇題 2 題</span></div>
<div class="exam-content-v2">
<div class="exam-note">本試題為單一選擇題</div>
<div class="exam-section-marker">乙、測驗題部分</div>
<div class="reading-passage">閱讀下文</div>
<div class="q-block" data-qnum="1" data-answer="C">
<div class="mc-question"><span class="q-number">1</span><span class="q-text">依題意&amp;判斷</span></div>
<div class="mc-options">
<div class="mc-opt" data-val="A"><span class="opt-label">(A)</span><span class="opt-text">甲</span></div>
<div class="mc-opt" data-val="C"><span class="opt-label">(C)</span><span class="opt-text">丙</span></div>
</div>
<div class="q-answer">答案：C</div>
</div>
<div class="q-block" data-qnum="2" data-answer="*">
<div class="mc-question"><span class="q-number">2</span></div>
<img src="images/fig.png" alt="圖二">
</div>
</div></div></div>
</div>
<div class="year-section" id="year-112">
<h2 class="year-heading">112年</h2>
<div class="subject-card" id="c2">
<div class="subject-header"><h3>憲法</h3></div>
<div class="subject-body"><div class="exam-content-v2">
<div class="essay-question">一、試述<br>基本權。</div>
</div></div></div>
</div>
</div></body></html>`

func TestParseHTML(t *testing.T) {
	archive, err := ParseHTML(context.Background(), strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	if archive.Title != "行政警察考古題總覽" {
		t.Fatalf("unexpected title %q", archive.Title)
	}
	if len(archive.Papers) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(archive.Papers))
	}
	crim := archive.Papers[0]
	if crim.Year != "113" || crim.Subject != "刑法" || len(crim.Notes) != 1 {
		t.Fatalf("unexpected paper %+v", crim)
	}
	q1, q2 := crim.Questions[0], crim.Questions[1]
	if q1.Stem != "依題意&判斷" || q1.Answer != "C" || q1.Options["C"] != "丙" || q1.Passage != "閱讀下文" || q1.Section != "乙、測驗題部分" {
		t.Fatalf("unexpected q1 %+v", q1)
	}
	if q2.Passage != "" || q2.Answer != "*" || len(q2.Figures) != 1 || q2.Figures[0].Alt != "圖二" {
		t.Fatalf("unexpected q2 %+v", q2)
	}
	essay := archive.Papers[1].Questions[0]
	if archive.Papers[1].Year != "112" || essay.Number != "一" || essay.Stem != "試述\n基本權。" || essay.Type != exam.QuestionEssay {
		t.Fatalf("unexpected essay %+v", essay)
	}

	// 解析结果可以直接派生文档
	doc, err := exam.Derive(archive, exam.Selection{})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if doc.Labels()[0] != "113" {
		t.Fatalf("unexpected labels %v", doc.Labels())
	}
}
