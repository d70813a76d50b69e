package resource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"sync"

	"github.com/ByLCY/examsheet/layout"
)

// Image formats recognised by magic bytes.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Sniff 通过文件头判断图片格式；无法识别时返回空字符串。
func Sniff(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG
	default:
		return ""
	}
}

// FetchFunc 取得资源原始字节。*Fetcher 的 Fetch 方法即满足该签名。
type FetchFunc func(ctx context.Context, uri string) ([]byte, error)

// FontSink 接收字体数据，通常是渲染后端。
type FontSink interface {
	EmbedFont(name string, data []byte) (layout.FontHandle, error)
}

// Embedder 负责把图片与字体嵌入到一次导出的文档中。
// 相同地址的图片只会获取、解码一次。
type Embedder struct {
	fetch  FetchFunc
	fonts  FontSink
	logger *slog.Logger

	mu     sync.Mutex
	images []layout.ImageResource
	bySrc  map[string]*layout.EmbeddedImage
	font   layout.FontHandle
}

func NewEmbedder(fetch FetchFunc, fonts FontSink, logger *slog.Logger) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{fetch: fetch, fonts: fonts, logger: logger, bySrc: map[string]*layout.EmbeddedImage{}}
}

// EmbedImage 获取、识别并解码图片。任何失败都只记录日志并返回 nil，导出继续进行。
func (e *Embedder) EmbedImage(ctx context.Context, uri string) *layout.EmbeddedImage {
	e.mu.Lock()
	if img, ok := e.bySrc[uri]; ok {
		e.mu.Unlock()
		return img
	}
	e.mu.Unlock()

	img, err := e.embedImage(ctx, uri)
	if err != nil {
		e.logger.Warn("图片嵌入失败", "src", uri, "err", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.bySrc[uri] = img
	return img
}

func (e *Embedder) embedImage(ctx context.Context, uri string) (*layout.EmbeddedImage, error) {
	if e.fetch == nil {
		return nil, fmt.Errorf("未配置资源获取器")
	}
	data, err := e.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	format := Sniff(data)
	var decoded image.Image
	switch format {
	case FormatPNG:
		decoded, err = png.Decode(bytes.NewReader(data))
	case FormatJPEG:
		decoded, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("不支持的图片格式")
	}
	if err != nil {
		return nil, fmt.Errorf("解码 %s 图片失败: %w", format, err)
	}
	b := decoded.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("图片尺寸为 0")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	handle := layout.ImageHandle(len(e.images))
	e.images = append(e.images, layout.ImageResource{
		Handle:      handle,
		Src:         uri,
		Format:      format,
		PixelWidth:  b.Dx(),
		PixelHeight: b.Dy(),
		Image:       decoded,
	})
	return &layout.EmbeddedImage{Handle: handle, Width: float64(b.Dx()), Height: float64(b.Dy())}, nil
}

// EmbedFont 将字体数据交给渲染后端。失败是致命错误，由调用方中止导出。
func (e *Embedder) EmbedFont(name string, data []byte) (layout.FontHandle, error) {
	if e.fonts == nil {
		return layout.FontHandle{}, fmt.Errorf("%w: 未配置字体接收方", ErrFontEmbed)
	}
	h, err := e.fonts.EmbedFont(name, data)
	if err != nil {
		return layout.FontHandle{}, fmt.Errorf("%w: %s: %v", ErrFontEmbed, name, err)
	}
	e.mu.Lock()
	e.font = h
	e.mu.Unlock()
	return h, nil
}

// Resources 返回目前已嵌入的资源。
func (e *Embedder) Resources() layout.ResourceSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	images := make([]layout.ImageResource, len(e.images))
	copy(images, e.images)
	return layout.ResourceSet{Font: e.font, Images: images}
}
