package canvasrenderer

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/ByLCY/examsheet/layout"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r := NewRenderer()
	if _, err := r.EmbedFont("GoRegular", goregular.TTF); err != nil {
		t.Fatalf("EmbedFont: %v", err)
	}
	return r
}

func TestEmbedFontRejectsInvalidData(t *testing.T) {
	r := NewRenderer()
	if _, err := r.EmbedFont("Empty", nil); err == nil {
		t.Fatalf("expected error for empty font data")
	}
	if _, err := r.EmbedFont("Junk", []byte("not a font")); err == nil {
		t.Fatalf("expected error for junk font data")
	}
}

func TestGlyphAdvance(t *testing.T) {
	r := newTestRenderer(t)
	size := 12.0

	wi, ok := r.GlyphAdvance('i', size)
	if !ok || wi <= 0 {
		t.Fatalf("'i' 应存在且宽度为正: %g %v", wi, ok)
	}
	ww, ok := r.GlyphAdvance('W', size)
	if !ok || ww <= wi {
		t.Fatalf("比例字体中 W 应比 i 宽: W=%g i=%g", ww, wi)
	}
	// 字号加倍，宽度加倍
	w2, _ := r.GlyphAdvance('W', size*2)
	if diff := w2 - 2*ww; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("宽度应与字号成正比: %g vs %g", w2, 2*ww)
	}
	// Go Regular 不含 CJK 字形
	if _, ok := r.GlyphAdvance('考', size); ok {
		t.Fatalf("缺失的字形应返回 ok=false")
	}
}

func TestGlyphAdvanceWithoutFont(t *testing.T) {
	if _, ok := NewRenderer().GlyphAdvance('a', 12); ok {
		t.Fatalf("未嵌入字体时不应返回宽度")
	}
}

func TestRenderProducesPDF(t *testing.T) {
	r := newTestRenderer(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	res := &layout.Result{
		Meta: layout.DocumentMeta{Title: "Sample", Creator: "examsheet", Keywords: []string{"110"}},
		Resources: layout.ResourceSet{
			Images: []layout.ImageResource{{Handle: 0, PixelWidth: 4, PixelHeight: 2, Image: img}},
		},
		Pages: []layout.Page{
			{
				Width: 210, Height: 297,
				Texts:  []layout.TextBox{{Content: "Hello", X: 20, Y: 270, Width: 170, FontSize: 12}},
				Images: []layout.ImageBox{{Handle: 0, X: 20, Y: 200, Width: 40, Height: 20}},
				Lines:  []layout.Line{{X1: 20, Y1: 260, X2: 190, Y2: 260}},
				Rects:  []layout.Rect{{X: 20, Y: 240, Width: 170, Height: 10, FillColor: layout.Color{R: 30, G: 41, B: 59}}},
			},
			{Width: 210, Height: 297, Texts: []layout.TextBox{{Content: "2", X: 20, Y: 10, Width: 170, FontSize: 8, Align: "center"}}},
		},
	}
	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}
}

func TestRenderErrors(t *testing.T) {
	r := newTestRenderer(t)
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("nil result should fail")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("empty pages should fail")
	}
	bad := &layout.Result{Pages: []layout.Page{{Width: 100, Height: 100, Images: []layout.ImageBox{{Handle: 3, Width: 10, Height: 10}}}}}
	if _, err := r.Render(bad); err == nil {
		t.Fatalf("invalid image handle should fail")
	}
}
