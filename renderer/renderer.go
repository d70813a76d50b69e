package renderer

import "github.com/ByLCY/examsheet/layout"

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Backend 是一次导出所需的完整排版后端：提供字形度量、接收嵌入字体并最终输出文件。
type Backend interface {
	Renderer
	layout.GlyphMetrics
	EmbedFont(name string, data []byte) (layout.FontHandle, error)
}
