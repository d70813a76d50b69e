package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ByLCY/examsheet/assemble"
	"github.com/ByLCY/examsheet/config"
	"github.com/ByLCY/examsheet/deliver"
	"github.com/ByLCY/examsheet/dsl"
	"github.com/ByLCY/examsheet/exam"
	"github.com/ByLCY/examsheet/extract"
	"github.com/ByLCY/examsheet/fonts"
	"github.com/ByLCY/examsheet/progress"
	"github.com/ByLCY/examsheet/resource"
)

func main() {
	input := flag.String("in", "", "题库目录（含 試題.json）或类科 HTML 页面")
	configPath := flag.String("config", "examsheet.yaml", "YAML 配置文件路径")
	query := flag.String("select", "", `筛选条件，例如 years 110-113 subjects "刑法" answers`)
	answers := flag.Bool("answers", false, "输出答案（可被 -select 中的 answers / no-answers 覆盖）")
	title := flag.String("title", "", "覆盖文档标题")
	category := flag.String("category", "", "只读取指定类科（仅目录输入）")
	outDir := flag.String("out", "", "输出目录，覆盖配置中的 delivery.output_dir")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	verify := flag.Bool("verify", false, "生成后读回 PDF 检查页数")
	verbose := flag.Bool("v", false, "输出调试日志")
	initConfig := flag.Bool("init-config", false, "将默认配置写入 -config 指定的路径后退出")
	listFonts := flag.Bool("fonts", false, "列出内置字体后退出")
	flag.Parse()

	if *listFonts {
		fmt.Println(strings.Join(fonts.Builtins(), "\n"))
		return
	}
	if *initConfig {
		if err := config.Default().Save(*configPath); err != nil {
			log.Fatalf("写入默认配置失败: %v", err)
		}
		fmt.Printf("已写入默认配置：%s\n", *configPath)
		return
	}
	if *input == "" {
		log.Fatalf("必须指定 -in")
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *outDir != "" {
		cfg.Delivery.OutputDir = *outDir
	}
	logger := newLogger(cfg.Log, *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req := request{
		input:    *input,
		category: *category,
		query:    *query,
		answers:  *answers,
		title:    *title,
		debug:    *debug,
		verify:   *verify,
	}
	res, err := run(ctx, cfg, req, logger)
	if err != nil {
		if errors.Is(err, exam.ErrNoMatchingContent) {
			log.Fatalf("没有符合条件的试题，请调整筛选条件")
		}
		if assemble.IsCanceled(err) {
			log.Fatalf("已取消导出")
		}
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	switch res.Method {
	case deliver.MethodShared:
		fmt.Println("已分享 PDF")
	case deliver.MethodCanceled:
		fmt.Println("已取消分享")
	default:
		fmt.Printf("已生成 PDF：%s\n", res.Location)
	}
}

type request struct {
	input    string
	category string
	query    string
	answers  bool
	title    string
	debug    string
	verify   bool
}

// run 串联读取题库、导出与交付。
func run(ctx context.Context, cfg *config.Config, req request, logger *slog.Logger) (deliver.Result, error) {
	sel, q, err := dsl.ParseSelection(req.query, req.answers)
	if err != nil {
		return deliver.Result{}, err
	}
	src, err := newExtractor(req.input, cfg.Title, req.category, logger)
	if err != nil {
		return deliver.Result{}, err
	}

	geo, err := cfg.Geometry()
	if err != nil {
		return deliver.Result{}, err
	}
	style, err := cfg.LayoutStyle()
	if err != nil {
		return deliver.Result{}, err
	}
	timeout, err := cfg.FetchTimeout()
	if err != nil {
		return deliver.Result{}, err
	}
	baseDir := cfg.Fetch.BaseDir
	if baseDir == "" {
		baseDir = inputBaseDir(req.input)
	}

	title := req.title
	if title == "" {
		title = q.Title()
	}
	reporter := progress.New(os.Stderr)
	defer reporter.Done()
	opts := assemble.Options{
		Title:    title,
		Geometry: geo,
		Style:    &style,
		FontSrc:  cfg.Font.Src,
		FontName: cfg.Font.Name,
		Fetch:    resource.NewFetcher(baseDir, timeout).Fetch,
		Progress: reporter.Report,
		Logger:   logger,
	}
	if req.debug != "" {
		f, err := createFile(req.debug)
		if err != nil {
			return deliver.Result{}, fmt.Errorf("创建调试文件失败: %w", err)
		}
		defer f.Close()
		opts.Debug = f
	}

	out, err := assemble.ExportFrom(ctx, src, sel, opts)
	if err != nil {
		return deliver.Result{}, err
	}
	if req.verify {
		if err := assemble.Verify(out); err != nil {
			return deliver.Result{}, err
		}
		logger.Info("PDF 检查通过", "pages", out.PageCount)
	}

	d := &deliver.Dispatcher{
		Download: deliver.FileDownloader{Dir: cfg.Delivery.OutputDir},
		Logger:   logger,
	}
	if len(cfg.Delivery.ShareCommand) > 0 {
		d.Share = deliver.ExecShare{Command: cfg.Delivery.ShareCommand}
	}
	return d.Deliver(ctx, deliver.File{Name: out.Filename, ContentType: "application/pdf", Data: out.Bytes})
}

// newExtractor 按输入类型选择读取方式：目录读 試題.json，文件按 HTML 页面解析。
func newExtractor(input, title, category string, logger *slog.Logger) (assemble.Extractor, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("无法读取输入 %s: %w", input, err)
	}
	if info.IsDir() {
		return &extract.Dir{Root: input, Title: title, Category: category, Logger: logger}, nil
	}
	switch strings.ToLower(filepath.Ext(input)) {
	case ".html", ".htm":
		return &extract.HTMLFile{Path: input}, nil
	}
	return nil, fmt.Errorf("不支持的输入 %s：需要目录或 HTML 文件", input)
}

// inputBaseDir 返回图片相对路径的基准目录。
func inputBaseDir(input string) string {
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		return input
	}
	return filepath.Dir(input)
}

func newLogger(cfg config.LogConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
