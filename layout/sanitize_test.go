package layout

import "testing"

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"a\r\nb":           "a\nb",
		"a\rb":             "a\nb",
		"a\u2028b\u2029c":  "a\nb\nc",
		"a\tb":             "a b",
		"\ufeff題目":         "題目",
		"x\x00y\x07z":      "x y z",
		"bad\xffbyte":      "bad byte",
		"e\u0301":          "\u00e9",
		"正常文字 plain text": "正常文字 plain text",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Fatalf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"a\r\n\tb\ufeff\u2028", "\xff\xfe混合\x01", "e\u0301\u0301", ""}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize 不是幂等的: %q → %q → %q", in, once, twice)
		}
	}
}
