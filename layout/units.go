package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// PxToMm converts image pixels at 96 DPI to millimeters.
const PxToMm = 25.4 / 96

// ParseLength parses a length such as "12mm", "1.5cm", "0.5in" or "10pt" into millimeters.
// A bare number is taken as millimeters.
func ParseLength(value string) (float64, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return 0, fmt.Errorf("长度为空")
	}
	scale := 1.0
	for _, suf := range []struct {
		s     string
		scale float64
	}{{"mm", 1}, {"cm", 10}, {"in", 25.4}, {"pt", PtToMm}} {
		if strings.HasSuffix(v, suf.s) {
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			scale = suf.scale
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return f * scale, nil
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa" (alpha ignored).
func ParseColor(value string) (Color, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(value) {
	case 3:
		r := strings.Repeat(string(value[0]), 2)
		g := strings.Repeat(string(value[1]), 2)
		b := strings.Repeat(string(value[2]), 2)
		return hexColor(r, g, b)
	case 6, 8:
		return hexColor(value[0:2], value[2:4], value[4:6])
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func hexColor(r, g, b string) (Color, error) {
	var out [3]int
	for i, s := range []string{r, g, b} {
		v, err := strconv.ParseUint(s, 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 #%s%s%s 无法解析", r, g, b)
		}
		out[i] = int(v)
	}
	return Color{R: out[0], G: out[1], B: out[2]}, nil
}
