package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/examsheet/binding"
	"github.com/ByLCY/examsheet/layout"
)

// Config 是导出工具的配置文件（YAML）。未出现的字段保留默认值。
type Config struct {
	Title    string         `yaml:"title"`
	Font     FontConfig     `yaml:"font"`
	Page     PageConfig     `yaml:"page"`
	Style    StyleConfig    `yaml:"style"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Log      LogConfig      `yaml:"log"`
}

// FontConfig 指定正文字体。src 可为 builtin:goregular、文件路径或 http(s) 地址。
type FontConfig struct {
	Name string `yaml:"name"`
	Src  string `yaml:"src"`
}

type PageConfig struct {
	Size      string       `yaml:"size"`
	Landscape bool         `yaml:"landscape"`
	Margin    MarginConfig `yaml:"margin"`
}

// MarginConfig 使用带单位的长度，例如 "20mm"、"2cm"。
type MarginConfig struct {
	Top    string `yaml:"top"`
	Right  string `yaml:"right"`
	Bottom string `yaml:"bottom"`
	Left   string `yaml:"left"`
}

type StyleConfig struct {
	TitleSize   float64 `yaml:"title_size"`
	HeadingSize float64 `yaml:"heading_size"`
	BodySize    float64 `yaml:"body_size"`
	SmallSize   float64 `yaml:"small_size"`
	LineSpacing float64 `yaml:"line_spacing"`
	Primary     string  `yaml:"primary"`
	Accent      string  `yaml:"accent"`
	Header      string  `yaml:"header"`
	Footer      string  `yaml:"footer"`
}

type FetchConfig struct {
	Timeout string `yaml:"timeout"`
	BaseDir string `yaml:"base_dir"`
}

// DeliveryConfig 控制导出文件的交付方式。share_command 为空时直接写入 output_dir。
type DeliveryConfig struct {
	OutputDir    string   `yaml:"output_dir"`
	ShareCommand []string `yaml:"share_command"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text / json
}

func Default() *Config {
	return &Config{
		Title: "考古題",
		Font:  FontConfig{Name: "Body", Src: "builtin:goregular"},
		Page: PageConfig{
			Size:   "A4",
			Margin: MarginConfig{Top: "20mm", Right: "20mm", Bottom: "20mm", Left: "20mm"},
		},
		Style: StyleConfig{
			TitleSize:   22,
			HeadingSize: 14,
			BodySize:    11,
			SmallSize:   9,
			LineSpacing: 1.5,
			Primary:     "#2563eb",
			Accent:      "#f59e0b",
			Header:      "${title}",
			Footer:      "${page}",
		},
		Fetch:    FetchConfig{Timeout: "15s"},
		Delivery: DeliveryConfig{OutputDir: "."},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if cfg.Fetch.BaseDir != "" && !filepath.IsAbs(cfg.Fetch.BaseDir) {
		cfg.Fetch.BaseDir = filepath.Join(filepath.Dir(path), cfg.Fetch.BaseDir)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入配置失败: %w", err)
	}
	return nil
}

// Validate 检查配置能否转换为页面几何与样式。
func (c *Config) Validate() error {
	if c.Font.Src == "" {
		return fmt.Errorf("font.src 不能为空")
	}
	geo, err := c.Geometry()
	if err != nil {
		return err
	}
	if err := geo.Validate(); err != nil {
		return err
	}
	if _, err := c.LayoutStyle(); err != nil {
		return err
	}
	if _, err := c.FetchTimeout(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format 只能是 text 或 json: %s", c.Log.Format)
	}
	return nil
}

// Geometry 计算页面尺寸与边距（mm）。
func (c *Config) Geometry() (layout.Geometry, error) {
	w, h, err := layout.PageSize(c.Page.Size, c.Page.Landscape)
	if err != nil {
		return layout.Geometry{}, err
	}
	var m [4]float64
	for i, v := range []struct{ name, value string }{
		{"top", c.Page.Margin.Top},
		{"right", c.Page.Margin.Right},
		{"bottom", c.Page.Margin.Bottom},
		{"left", c.Page.Margin.Left},
	} {
		if v.value == "" {
			m[i] = 20
			continue
		}
		l, err := layout.ParseLength(v.value)
		if err != nil {
			return layout.Geometry{}, fmt.Errorf("page.margin.%s: %w", v.name, err)
		}
		if l < 0 {
			return layout.Geometry{}, fmt.Errorf("page.margin.%s 不能为负", v.name)
		}
		m[i] = l
	}
	return layout.Geometry{Width: w, Height: h, Margin: layout.Margin{Top: m[0], Right: m[1], Bottom: m[2], Left: m[3]}}, nil
}

// LayoutStyle 在默认样式上套用配置中的覆盖项。
func (c *Config) LayoutStyle() (layout.Style, error) {
	st := layout.DefaultStyle()
	for _, s := range []struct {
		name string
		v    float64
		dst  *float64
	}{
		{"title_size", c.Style.TitleSize, &st.TitleSize},
		{"heading_size", c.Style.HeadingSize, &st.HeadingSize},
		{"body_size", c.Style.BodySize, &st.BodySize},
		{"small_size", c.Style.SmallSize, &st.SmallSize},
		{"line_spacing", c.Style.LineSpacing, &st.LineSpacing},
	} {
		if s.v < 0 {
			return st, fmt.Errorf("style.%s 不能为负", s.name)
		}
		if s.v > 0 {
			*s.dst = s.v
		}
	}
	if c.Style.Primary != "" {
		col, err := layout.ParseColor(c.Style.Primary)
		if err != nil {
			return st, fmt.Errorf("style.primary: %w", err)
		}
		st.Primary = col
	}
	if c.Style.Accent != "" {
		col, err := layout.ParseColor(c.Style.Accent)
		if err != nil {
			return st, fmt.Errorf("style.accent: %w", err)
		}
		st.Accent = col
	}
	if c.Style.Header != "" {
		if err := binding.Validate(c.Style.Header, "title", "date"); err != nil {
			return st, fmt.Errorf("style.header: %w", err)
		}
		st.HeaderTemplate = c.Style.Header
	}
	if c.Style.Footer != "" {
		if err := binding.Validate(c.Style.Footer, "page"); err != nil {
			return st, fmt.Errorf("style.footer: %w", err)
		}
		st.FooterTemplate = c.Style.Footer
	}
	return st, nil
}

func (c *Config) FetchTimeout() (time.Duration, error) {
	if c.Fetch.Timeout == "" {
		return 15 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return 0, fmt.Errorf("fetch.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("fetch.timeout 必须为正")
	}
	return d, nil
}
