package binding

import (
	"reflect"
	"testing"
	"time"
)

func TestInterpolateFields(t *testing.T) {
	f := Fields{
		"title": "行政警察",
		"page":  3,
		"date":  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		"years": []string{"113", "112"},
	}
	cases := map[string]string{
		"${title}":           "行政警察",
		"第 ${page} 頁":        "第 3 頁",
		"匯出 ${date}":         "匯出 2024-05-01",
		"${years}":           "113、112",
		"${ title }・${page}": "行政警察・3",
		"${missing}":         "${missing}",
		"${}":                "${}",
		"沒有占位符":              "沒有占位符",
	}
	for in, want := range cases {
		if got := Interpolate(in, f); got != want {
			t.Fatalf("Interpolate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInterpolateNested(t *testing.T) {
	data := map[string]any{"meta": map[string]string{"author": "考選部"}}
	if got := Interpolate("${meta.author}", data); got != "考選部" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Interpolate("${meta.author.name}", data); got != "${meta.author.name}" {
		t.Fatalf("path past a leaf should keep placeholder, got %q", got)
	}
	if got := Interpolate("${title}", nil); got != "${title}" {
		t.Fatalf("nil data should keep placeholder, got %q", got)
	}
}

func TestNamesAndValidate(t *testing.T) {
	if got := Names("${title} - ${date} ${title}"); !reflect.DeepEqual(got, []string{"title", "date", "title"}) {
		t.Fatalf("unexpected names %v", got)
	}
	if err := Validate("${title} ${date}", "title", "date"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate("第 ${pages} 頁", "page"); err == nil {
		t.Fatalf("expected error for unknown placeholder")
	}
}
