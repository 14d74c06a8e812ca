package music

import (
	"errors"
	"testing"
	"time"
)

func TestParseOffset(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"90", 90 * time.Second},
		{"1:30", 90 * time.Second},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second},
		{"2m", 2 * time.Minute},
		{"1m30s", 90 * time.Second},
		{"1h 5m", time.Hour + 5*time.Minute},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseOffset(tt.in, now)
		if err != nil {
			t.Errorf("ParseOffset(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOffset(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseOffsetRejects(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"", "-5", "-1:00", "1:75", "1:61:00"} {
		if _, err := ParseOffset(in, now); !errors.Is(err, ErrInvalidOffset) {
			t.Errorf("ParseOffset(%q) err = %v, want ErrInvalidOffset", in, err)
		}
	}
}
