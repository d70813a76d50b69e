// Package binding 处理页眉、页脚与封面文字中的 ${name} 占位符。
package binding

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var placeholderPattern = regexp.MustCompile(`\$\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}`)

// Fields 是模板可用的取值集合，例如页眉中的 title/date 与页脚中的 page。
// 值也可以是嵌套的 Fields 或 map，用 ${meta.author} 访问。
type Fields map[string]any

// Interpolate 将 text 中的 ${name} 替换为 data 中的值，找不到的占位符原样保留。
func Interpolate(text string, data any) string {
	if data == nil || !strings.Contains(text, "${") {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		if val, ok := lookup(data, key); ok {
			return format(val)
		}
		return match
	})
}

// Names 返回模板中出现的占位符名称（按出现顺序，可能重复）。
func Names(text string) []string {
	var out []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// Validate 检查模板中的占位符是否都在 allowed 之内，用于加载配置时提前发现拼写错误。
func Validate(text string, allowed ...string) error {
	for _, name := range Names(text) {
		root, _, _ := strings.Cut(name, ".")
		if !contains(allowed, root) {
			return fmt.Errorf("模板 %q 中的占位符 ${%s} 不受支持（可用：%s）", text, name, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func lookup(data any, key string) (any, bool) {
	cur := data
	for key != "" {
		var head string
		head, key, _ = strings.Cut(key, ".")
		var ok bool
		switch m := cur.(type) {
		case Fields:
			cur, ok = m[head]
		case map[string]any:
			cur, ok = m[head]
		case map[string]string:
			cur, ok = m[head]
		}
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func format(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02")
	case []string:
		return strings.Join(v, "、")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
