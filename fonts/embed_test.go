package fonts

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestLoadBuiltin(t *testing.T) {
	for _, src := range []string{"builtin:goregular", "built-in:GoRegular", "embed:goregular"} {
		data, err := Load(context.Background(), src, nil)
		if err != nil {
			t.Fatalf("Load(%q): %v", src, err)
		}
		if len(data) != len(goregular.TTF) {
			t.Fatalf("Load(%q) returned wrong font", src)
		}
	}
	if _, err := Load(context.Background(), "builtin:comic", nil); err == nil {
		t.Fatalf("unknown builtin should fail")
	}
}

func TestLoadViaFetcher(t *testing.T) {
	fetch := func(_ context.Context, uri string) ([]byte, error) {
		switch uri {
		case "fonts/ok.ttf":
			return goregular.TTF, nil
		case "fonts/bad.ttf":
			return []byte("<html>not found</html>"), nil
		}
		return nil, errors.New("boom")
	}
	if _, err := Load(context.Background(), "fonts/ok.ttf", fetch); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Load(context.Background(), "fonts/bad.ttf", fetch); err == nil {
		t.Fatalf("non-font data should fail")
	}
	if _, err := Load(context.Background(), "fonts/none.ttf", fetch); err == nil {
		t.Fatalf("fetch error should propagate")
	}
	if _, err := Load(context.Background(), "fonts/ok.ttf", nil); err == nil {
		t.Fatalf("missing fetcher should fail")
	}
}

func TestIsFont(t *testing.T) {
	if !IsFont(goregular.TTF) {
		t.Fatalf("goregular should be detected as font")
	}
	if IsFont([]byte("abc")) || IsFont([]byte("%PDF-1.7")) {
		t.Fatalf("non-font detected as font")
	}
}
