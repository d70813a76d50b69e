package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/examsheet/exam"
)

// PaperFile 是题库中每份试卷的文件名。
const PaperFile = "試題.json"

var (
	yearDirPattern  = regexp.MustCompile(`^(\d{3})年$`)
	yearTextPattern = regexp.MustCompile(`^(\d{2,3})`)
	parenReplacer   = strings.NewReplacer("（", "(", "）", ")")
)

// Dir 从题库目录读取全部 試題.json。
type Dir struct {
	Root     string
	Title    string
	Category string // 非空时只读取该类科
	Logger   *slog.Logger
}

// flexString 同时接受 JSON 字符串与数字。
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("期望字符串或数字: %s", data)
	}
	*f = flexString(n.String())
	return nil
}

type paperJSON struct {
	Year      flexString     `json:"year"`
	Subject   string         `json:"subject"`
	Category  string         `json:"category"`
	Notes     []string       `json:"notes"`
	Questions []questionJSON `json:"questions"`
}

type questionJSON struct {
	Number  flexString            `json:"number"`
	Type    string                `json:"type"`
	Stem    string                `json:"stem"`
	Options map[string]flexString `json:"options"`
	Answer  flexString            `json:"answer"`
	Section string                `json:"section"`
	Passage string                `json:"passage"`
	Subtype string                `json:"subtype"`
	Figures []struct {
		Src string `json:"src"`
		Alt string `json:"alt"`
	} `json:"figures"`
}

// Extract 实现 assemble.Extractor。
func (d *Dir) Extract(ctx context.Context) (exam.Archive, error) {
	return LoadDir(ctx, d.Root, d.Title, d.Category, d.Logger)
}

// LoadDir 递归读取 root 下的 試題.json。解析失败的文件只记录警告并跳过；
// 同一年份同一科目出现多次时以后读到的为准。
func LoadDir(ctx context.Context, root, title, category string, logger *slog.Logger) (exam.Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == PaperFile {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return exam.Archive{}, fmt.Errorf("遍历题库目录 %s 失败: %w", root, err)
	}
	sort.Strings(files)

	type key struct{ year, subject string }
	index := map[key]int{}
	archive := exam.Archive{Title: title}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return exam.Archive{}, err
		}
		rel, _ := filepath.Rel(root, path)
		paper, ok, err := readPaper(path, rel)
		if err != nil {
			logger.Warn("试卷 JSON 解析失败，已跳过", "path", path, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if category != "" && paper.Category != category {
			continue
		}
		k := key{paper.Year, paper.Subject}
		if i, dup := index[k]; dup {
			logger.Warn("重复的试卷，以后者为准", "year", paper.Year, "subject", paper.Subject, "path", path)
			archive.Papers[i] = paper
			continue
		}
		index[k] = len(archive.Papers)
		archive.Papers = append(archive.Papers, paper)
	}
	logger.Debug("题库读取完成", "root", root, "files", len(files), "papers", len(archive.Papers))
	return archive, nil
}

// readPaper 解析单个文件。ok 为 false 表示文件没有题目或无法推断年份。
func readPaper(path, rel string) (exam.Paper, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return exam.Paper{}, false, err
	}
	return decodePaper(data, rel)
}

func decodePaper(data []byte, rel string) (exam.Paper, bool, error) {
	var raw paperJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return exam.Paper{}, false, err
	}
	if len(raw.Questions) == 0 {
		return exam.Paper{}, false, nil
	}

	parts := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	// 路径推断优先：.../<类科>/<NNN年>/<科目>/試題.json
	year, category := "", raw.Category
	for i, part := range parts {
		if m := yearDirPattern.FindStringSubmatch(part); m != nil {
			year = m[1]
			if i > 0 {
				category = parts[i-1]
			}
		}
	}
	if year == "" {
		if m := yearTextPattern.FindStringSubmatch(strings.TrimSpace(string(raw.Year))); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				year = strconv.Itoa(n)
			}
		}
	}
	if year == "" {
		return exam.Paper{}, false, nil
	}
	subject := raw.Subject
	if subject == "" && len(parts) > 0 {
		subject = parts[len(parts)-1]
	}

	paper := exam.Paper{
		Year:     year,
		Subject:  parenReplacer.Replace(subject),
		Category: category,
		Notes:    raw.Notes,
	}
	for _, q := range raw.Questions {
		question := exam.Question{
			Number:  string(q.Number),
			Type:    q.Type,
			Stem:    q.Stem,
			Answer:  strings.TrimSpace(string(q.Answer)),
			Section: q.Section,
			Passage: q.Passage,
			Subtype: q.Subtype,
		}
		if len(q.Options) > 0 {
			question.Options = make(map[string]string, len(q.Options))
			for k, v := range q.Options {
				question.Options[k] = string(v)
			}
		}
		for _, f := range q.Figures {
			question.Figures = append(question.Figures, exam.FigureRef{Src: resolveSrc(filepath.Dir(rel), f.Src), Alt: f.Alt})
		}
		paper.Questions = append(paper.Questions, question)
	}
	return paper, true, nil
}

// resolveSrc 将相对于试卷目录的图片路径改写为相对于题库根目录。
func resolveSrc(dir, src string) string {
	src = strings.TrimSpace(src)
	if src == "" || strings.Contains(src, "://") || strings.HasPrefix(src, "data:") || filepath.IsAbs(src) || strings.HasPrefix(src, "/") {
		return src
	}
	return filepath.ToSlash(filepath.Join(dir, filepath.FromSlash(src)))
}
