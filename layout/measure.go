package layout

import "unicode"

// GlyphMetrics 由嵌入字体提供单个字形的前进宽度（mm）。
// ok 为 false 表示字体中没有该字形。
type GlyphMetrics interface {
	GlyphAdvance(r rune, fontSize float64) (width float64, ok bool)
}

type glyphKey struct {
	r    rune
	size float64
}

// Measurer 基于字体度量计算文本宽度，并按 (字符, 字号) 缓存结果。
// 缺失字形按空格宽度计，绝不会报错。每次导出使用独立的 Measurer。
type Measurer struct {
	metrics GlyphMetrics
	cache   map[glyphKey]float64
	missing map[rune]struct{}
}

func NewMeasurer(metrics GlyphMetrics) *Measurer {
	return &Measurer{metrics: metrics, cache: map[glyphKey]float64{}, missing: map[rune]struct{}{}}
}

// WidthOf 返回字符 r 在 fontSize(pt) 下的宽度（mm）。
func (m *Measurer) WidthOf(r rune, fontSize float64) float64 {
	key := glyphKey{r: r, size: fontSize}
	if w, ok := m.cache[key]; ok {
		return w
	}
	w, ok := m.metrics.GlyphAdvance(r, fontSize)
	if !ok || w < 0 {
		if !unicode.IsSpace(r) {
			m.missing[r] = struct{}{}
		}
		w = m.spaceWidth(fontSize)
	}
	m.cache[key] = w
	return w
}

// MissingGlyphs 返回度量过程中字体缺失的不同字符数。
// 缺失的字符在 PDF 中显示为空白，调用方据此提示用户更换字体。
func (m *Measurer) MissingGlyphs() int {
	return len(m.missing)
}

func (m *Measurer) spaceWidth(fontSize float64) float64 {
	key := glyphKey{r: ' ', size: fontSize}
	if w, ok := m.cache[key]; ok {
		return w
	}
	w, ok := m.metrics.GlyphAdvance(' ', fontSize)
	if !ok || w < 0 {
		// 连空格都没有的字体，按四分之一 em 估算
		w = fontSize * PtToMm * 0.25
	}
	m.cache[key] = w
	return w
}

// TextWidth 返回整段文本宽度（mm）。
func (m *Measurer) TextWidth(s string, fontSize float64) float64 {
	var w float64
	for _, r := range s {
		w += m.WidthOf(r, fontSize)
	}
	return w
}

// LineHeight 返回给定字号与行距倍数下的行高（mm）。
func LineHeight(fontSize, spacing float64) float64 {
	if spacing <= 0 {
		spacing = 1
	}
	return fontSize * PtToMm * spacing
}
