package fonts

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ByLCY/examsheet/resource"
)

// builtin 是随程序分发的字体，可写为 "builtin:goregular"。
// Go 字体不含 CJK 字形，中文题库需通过 font.src 指定外部字体。
var builtin = map[string][]byte{
	"goregular": goregular.TTF,
	"gobold":    gobold.TTF,
	"gomono":    gomono.TTF,
}

// Builtins 返回内置字体名称。
func Builtins() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load 返回字体数据。src 可写为 "builtin:goregular"、文件路径或 http(s) 地址；
// 非内置字体通过 fetch 获取。
func Load(ctx context.Context, src string, fetch resource.FetchFunc) ([]byte, error) {
	src = strings.TrimSpace(src)
	if name, ok := cutBuiltin(src); ok {
		data, found := builtin[strings.ToLower(name)]
		if !found {
			return nil, fmt.Errorf("找不到内置字体 %s（可用：%s）", name, strings.Join(Builtins(), ", "))
		}
		return data, nil
	}
	if fetch == nil {
		return nil, fmt.Errorf("无法获取字体 %s：未配置资源获取器", src)
	}
	data, err := fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	if !IsFont(data) {
		return nil, fmt.Errorf("字体 %s 格式无法识别", src)
	}
	return data, nil
}

func cutBuiltin(src string) (string, bool) {
	for _, prefix := range []string{"builtin:", "built-in:", "embed:"} {
		if strings.HasPrefix(src, prefix) {
			return strings.TrimPrefix(src, prefix), true
		}
	}
	return "", false
}

// IsFont 通过文件头判断是否为 TrueType/OpenType/WOFF 字体。
func IsFont(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	for _, magic := range [][]byte{{0x00, 0x01, 0x00, 0x00}, []byte("OTTO"), []byte("true"), []byte("ttcf"), []byte("wOFF"), []byte("wOF2")} {
		if bytes.Equal(data[:4], magic) {
			return true
		}
	}
	return false
}
