package assemble

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// CountPages 读回生成的 PDF 并返回页数。
func CountPages(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("读取 PDF 失败: %w", err)
	}
	return n, nil
}

// Verify 检查 PDF 可被解析且页数与排版结果一致。
func Verify(out *Output) error {
	n, err := CountPages(out.Bytes)
	if err != nil {
		return err
	}
	if n != out.PageCount {
		return fmt.Errorf("PDF 页数 %d 与排版结果 %d 不一致", n, out.PageCount)
	}
	return nil
}
