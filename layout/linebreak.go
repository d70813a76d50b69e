package layout

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// TextLine 表示折行后的单行文本以及测得的宽度（mm）。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
}

// IsWide 判断是否为宽字符（CJK 统一表意文字、假名、谚文、全角标点等）。
// 宽字符之间可以任意断行。
func IsWide(r rune) bool {
	switch {
	case r >= 0x2E80 && r <= 0x9FFF, // 部首、标点、假名、注音、CJK 统一表意文字
		r >= 0xAC00 && r <= 0xD7AF, // 谚文音节
		r >= 0xF900 && r <= 0xFAFF, // 兼容表意文字
		r >= 0xFE30 && r <= 0xFE4F, // 兼容形式
		r >= 0xFF00 && r <= 0xFFEF, // 全角与半角形式
		r >= 0x20000 && r <= 0x3FFFF: // 扩展 B 以后
		return true
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

// widthEpsilon 吸收逐字累加宽度时的浮点误差，恰好放得下的行不会被提前断开。
const widthEpsilon = 1e-6

// BreakLines 将文本按最大宽度贪心折行。
// 显式换行符总会开启新行；宽字符可在任意位置断开；
// 西文在最近的空格处断开，没有空格时逐字符硬断。
// 每行宽度不超过 maxWidth，唯一例外是单个字符本身已超过 maxWidth。
func (m *Measurer) BreakLines(text string, fontSize, maxWidth float64) []TextLine {
	var out []TextLine
	for _, para := range strings.Split(text, "\n") {
		out = append(out, m.breakParagraph([]rune(para), fontSize, maxWidth)...)
	}
	return out
}

func (m *Measurer) breakParagraph(runes []rune, fontSize, maxWidth float64) []TextLine {
	if len(runes) == 0 {
		return []TextLine{{}}
	}
	limit := maxWidth + widthEpsilon
	var (
		out     []TextLine
		buf     []rune
		widths  []float64
		w       float64
		wrapped bool
	)
	// emit 输出 buf[:n]（去掉行尾空格），剩余部分去掉行首空格后留作下一行。
	emit := func(n int) {
		end := n
		for end > 0 && unicode.IsSpace(buf[end-1]) {
			end--
		}
		line := TextLine{Content: string(buf[:end])}
		for _, cw := range widths[:end] {
			line.Width += cw
		}
		out = append(out, line)
		for n < len(buf) && unicode.IsSpace(buf[n]) {
			n++
		}
		buf = append(buf[:0:0], buf[n:]...)
		widths = append(widths[:0:0], widths[n:]...)
		w = 0
		for _, cw := range widths {
			w += cw
		}
		wrapped = true
	}

	for _, r := range runes {
		if wrapped && len(buf) == 0 && unicode.IsSpace(r) {
			continue
		}
		cw := m.WidthOf(r, fontSize)
		if len(buf) > 0 && w+cw > limit {
			switch {
			case unicode.IsSpace(r):
				// 溢出位置的空格直接作为断点并被吞掉
				emit(len(buf))
				continue
			case IsWide(r):
				emit(len(buf))
			default:
				if sp := lastSpace(buf); sp > 0 {
					emit(sp)
				}
				// 仍然放不下时逐字符硬断
				if len(buf) > 0 && w+cw > limit {
					emit(len(buf))
				}
			}
		}
		buf = append(buf, r)
		widths = append(widths, cw)
		w += cw
	}
	if len(buf) > 0 {
		emit(len(buf))
	}
	return out
}

// lastSpace 返回 buf 中最后一个可作断点的空格下标。
// 空格之前必须已有非空白内容，否则返回 -1。
func lastSpace(buf []rune) int {
	first := 0
	for first < len(buf) && unicode.IsSpace(buf[first]) {
		first++
	}
	for i := len(buf) - 1; i > first; i-- {
		if unicode.IsSpace(buf[i]) {
			return i
		}
	}
	return -1
}
