package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/examsheet/layout"
	"github.com/ByLCY/examsheet/renderer"
)

const defaultStrokeWidth = 0.2

// Renderer draws layout results via github.com/tdewolff/canvas.
// 每次导出都应创建新的 Renderer：嵌入的字体与字形缓存只属于这一份文档。
type Renderer struct {
	mu     sync.Mutex
	family *canvas.FontFamily
	handle layout.FontHandle
	faces  map[faceKey]*canvas.FontFace
}

var (
	_ renderer.Renderer   = (*Renderer)(nil)
	_ layout.GlyphMetrics = (*Renderer)(nil)
)

type faceKey struct {
	size  float64
	color layout.Color
}

func NewRenderer() *Renderer {
	return &Renderer{faces: map[faceKey]*canvas.FontFace{}}
}

// EmbedFont 载入 TrueType/OpenType 字体数据，作为整份文档唯一的正文字体。
// 字形子集化由 PDF 写入器在输出时完成。
func (r *Renderer) EmbedFont(name string, data []byte) (layout.FontHandle, error) {
	if len(data) == 0 {
		return layout.FontHandle{}, fmt.Errorf("字体 %s 数据为空", name)
	}
	if name == "" {
		name = "Body"
	}
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return layout.FontHandle{}, fmt.Errorf("载入字体 %s 失败: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.family = family
	r.handle = layout.FontHandle{Name: name, Family: name}
	r.faces = map[faceKey]*canvas.FontFace{}
	return r.handle, nil
}

// GlyphAdvance 实现 layout.GlyphMetrics：返回字符宽度（mm），字体缺少该字形时 ok 为 false。
func (r *Renderer) GlyphAdvance(rn rune, fontSize float64) (float64, bool) {
	face, err := r.face(fontSize, layout.Color{})
	if err != nil {
		return 0, false
	}
	if face.Font.GlyphIndex(rn) == 0 {
		return 0, false
	}
	return face.TextWidth(string(rn)), true
}

func (r *Renderer) face(size float64, col layout.Color) (*canvas.FontFace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.family == nil {
		return nil, fmt.Errorf("尚未嵌入字体")
	}
	key := faceKey{size: size, color: col}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	f := r.family.Face(size, colorFromLayout(col), canvas.FontRegular, canvas.FontNormal)
	r.faces[key] = f
	return f, nil
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianI) // 与布局一致：左下角为原点，y 轴向上

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return nil, fmt.Errorf("绘制第 %d 页失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 先画色块与线条作为背景，再画图片与文本。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, res layout.ResourceSet) error {
	drawRects(ctx, page.Rects)
	drawLines(ctx, page.Lines)
	if err := drawImages(ctx, page.Images, res.Images); err != nil {
		return err
	}
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox) error {
	if tb.Content == "" {
		return nil
	}
	face, err := r.face(tb.FontSize, tb.Color)
	if err != nil {
		return err
	}

	// 处理水平对齐：left（默认）/center/right。
	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}
	ctx.DrawText(anchorX, tb.Y, canvas.NewTextLine(face, tb.Content, textAlign))
	return nil
}

func drawImages(ctx *canvas.Context, boxes []layout.ImageBox, images []layout.ImageResource) error {
	for _, box := range boxes {
		idx := int(box.Handle)
		if idx < 0 || idx >= len(images) || images[idx].Image == nil {
			return fmt.Errorf("图片句柄 %d 无效", box.Handle)
		}
		img := images[idx].Image
		if box.Width <= 0 || img.Bounds().Dx() == 0 {
			continue
		}
		dpmm := float64(img.Bounds().Dx()) / box.Width
		ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(dpmm))
	}
	return nil
}

// drawLines 绘制直线列表（毫米单位）
func drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultStrokeWidth
		}
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(w)
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
}

// drawRects 绘制无描边的填充矩形
func drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		ctx.SetFillColor(colorFromLayout(rc.FillColor))
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
	}
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
