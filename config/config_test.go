package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ByLCY/examsheet/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil || cfg.Font.Src != "builtin:goregular" {
		t.Fatalf("LoadOrDefault should fall back to defaults: %+v %v", cfg, err)
	}
}

func TestLoad_YAMLParseError(t *testing.T) {
	path := writeConfig(t, "title: [unclosed\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "解析配置失败") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
title: 行政警察
font:
  src: fonts/NotoSansTC-Regular.ttf
page:
  size: a5
  landscape: true
  margin:
    top: 1.5cm
    left: 10mm
style:
  body_size: 10.5
  primary: "#123456"
  footer: "第 ${page} 頁"
fetch:
  timeout: 3s
  base_dir: assets
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Title != "行政警察" || cfg.Log.Level != "info" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	geo, err := cfg.Geometry()
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	if geo.Width != 210 || geo.Height != 148 || geo.Margin.Top != 15 || geo.Margin.Left != 10 || geo.Margin.Right != 20 {
		t.Fatalf("unexpected geometry %+v", geo)
	}
	st, err := cfg.LayoutStyle()
	if err != nil {
		t.Fatalf("LayoutStyle: %v", err)
	}
	if st.BodySize != 10.5 || st.Primary != (layout.Color{R: 0x12, G: 0x34, B: 0x56}) || st.FooterTemplate != "第 ${page} 頁" {
		t.Fatalf("unexpected style %+v", st)
	}
	if st.TitleSize != 22 {
		t.Fatalf("未覆盖的字号应保留默认值: %g", st.TitleSize)
	}
	if d, _ := cfg.FetchTimeout(); d != 3*time.Second {
		t.Fatalf("unexpected timeout %v", d)
	}
	if cfg.Fetch.BaseDir != filepath.Join(filepath.Dir(path), "assets") {
		t.Fatalf("base_dir 应相对于配置文件: %s", cfg.Fetch.BaseDir)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"unknown page size": "page:\n  size: A0\n",
		"bad margin":        "page:\n  margin:\n    top: wide\n",
		"huge margin":       "page:\n  margin:\n    left: 150mm\n    right: 150mm\n",
		"bad color":         "style:\n  primary: blue\n",
		"bad footer":        "style:\n  footer: \"${pages}\"\n",
		"bad timeout":       "fetch:\n  timeout: soon\n",
		"bad log format":    "log:\n  format: xml\n",
		"empty font":        "font:\n  src: \"\"\n",
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Title = "測試"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Title != "測試" || loaded.Page.Size != "A4" {
		t.Fatalf("unexpected loaded config %+v", loaded)
	}
}
