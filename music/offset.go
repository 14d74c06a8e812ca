package music

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sho0pi/naturaltime"
)

var (
	clockOffsetPattern = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{1,2})$`)
	unitOffsetPattern  = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

	naturalOnce   sync.Once
	naturalParser *naturaltime.Parser
	naturalErr    error
)

// ParseOffset reads a seek position: plain seconds, m:ss, h:mm:ss, compact
// units like 1m30s, or phrases like "2 minutes" as a last resort.
func ParseOffset(input string, now time.Time) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, input)
	}

	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	if m := clockOffsetPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		if sec >= 60 || (m[1] != "" && mins >= 60) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, input)
		}
		return time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(sec)*time.Second, nil
	}

	compact := strings.ReplaceAll(s, " ", "")
	if m := unitOffsetPattern.FindStringSubmatch(compact); m != nil && compact != "" {
		var d time.Duration
		units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
		for i, u := range units {
			if m[i+1] == "" {
				continue
			}
			n, _ := strconv.Atoi(m[i+1])
			d += time.Duration(n) * u
		}
		return d, nil
	}

	return parseNaturalOffset(input, s, now)
}

func parseNaturalOffset(input, s string, now time.Time) (time.Duration, error) {
	naturalOnce.Do(func() {
		naturalParser, naturalErr = naturaltime.New()
	})
	if naturalErr != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, input)
	}
	if !strings.HasPrefix(s, "in ") {
		s = "in " + s
	}
	t, err := naturalParser.ParseDate(s, now)
	if err != nil || t == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, input)
	}
	d := t.Sub(now).Round(time.Second)
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, input)
	}
	return d, nil
}
