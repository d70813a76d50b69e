package layout

import "image"

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 坐标原点位于页面左下角，单位为毫米（mm），y 轴向上；字号单位为 pt。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// ResourceSet 记录本次导出嵌入的字体与图片。
type ResourceSet struct {
	Font   FontHandle      `json:"font"`
	Images []ImageResource `json:"images"`
}

// FontHandle 是嵌入字体的句柄。
type FontHandle struct {
	Name   string `json:"name"`
	Family string `json:"family"`
}

// ImageHandle 是嵌入图片在 ResourceSet.Images 中的下标。
type ImageHandle int

// ImageResource 记录一张已解码的图片，像素尺寸为原始尺寸。
type ImageResource struct {
	Handle      ImageHandle `json:"handle"`
	Src         string      `json:"src"`
	Format      string      `json:"format"`
	PixelWidth  int         `json:"pixelWidth"`
	PixelHeight int         `json:"pixelHeight"`
	Image       image.Image `json:"-"`
}

// EmbeddedImage 是资源嵌入器返回的图片句柄与原始像素尺寸。
type EmbeddedImage struct {
	Handle ImageHandle
	Width  float64
	Height float64
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// Page 记录页面尺寸、边距与最终可以直接渲染的元素。
// 页眉页脚在分页时直接写入 Texts/Lines，不单独保存。
type Page struct {
	Index  int        `json:"index"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Margin Margin     `json:"margin"`
	Texts  []TextBox  `json:"texts"`
	Images []ImageBox `json:"images"`
	Lines  []Line     `json:"lines,omitempty"`
	Rects  []Rect     `json:"rects,omitempty"`
}

// TextBox 表示一行已经排好坐标的文本，Y 为基线位置。
type TextBox struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
	Align    string  `json:"align,omitempty"` // left(默认)/center/right，相对 X..X+Width
}

// ImageBox 描述图片位置与尺寸，(X, Y) 为左下角。
type ImageBox struct {
	Handle ImageHandle `json:"handle"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
}

// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽（mm），<=0 时由渲染器给默认值
}

// Rect 表示一个填充矩形，(X, Y) 为左下角。
type Rect struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	FillColor Color   `json:"fillColor"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
