package sys

import (
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer sentence", 10, "a longe..."},
		{"abcdef", 3, "abc"},
		{"ééééééé", 5, "éé..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateCenter(t *testing.T) {
	if got := TruncateCenter("abcdefghijkl", 9); got != "abc...jkl" {
		t.Errorf("TruncateCenter = %q, want abc...jkl", got)
	}
}

func TestTruncateWithPreserve(t *testing.T) {
	title := "A very long song title that keeps going and going well past any limit"
	got := TruncateWithPreserve(title, 40, "[YT] ", " - Band")
	if n := utf8.RuneCountInString(got); n > 40 {
		t.Fatalf("len = %d, want <= 40: %q", n, got)
	}
	if got[:5] != "[YT] " || got[len(got)-7:] != " - Band" {
		t.Errorf("prefix or suffix lost: %q", got)
	}
}
