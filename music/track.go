package music

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Track describes one playable piece of media. Tracks are values and are
// never mutated after resolution.
type Track struct {
	URI         string
	Title       string
	Author      string
	Duration    time.Duration
	ArtworkURL  string
	RequesterID snowflake.ID
}

// Label is the human readable "title · author" form.
func (t Track) Label() string {
	if t.Author == "" {
		return t.Title
	}
	return fmt.Sprintf("%s · %s", t.Title, t.Author)
}

// LoopMode governs what happens to a track once it finishes naturally.
type LoopMode int

const (
	LoopOff LoopMode = iota
	LoopTrack
	LoopQueue
)

func (m LoopMode) String() string {
	switch m {
	case LoopTrack:
		return "track"
	case LoopQueue:
		return "queue"
	default:
		return "off"
	}
}

// Next cycles off -> track -> queue -> off, used by the loop button.
func (m LoopMode) Next() LoopMode {
	return (m + 1) % 3
}

func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "":
		return LoopOff, nil
	case "track", "song", "one":
		return LoopTrack, nil
	case "queue", "all":
		return LoopQueue, nil
	}
	return LoopOff, fmt.Errorf("%w: %q", ErrInvalidLoopMode, s)
}

// EndReason tells the controller why a playback stopped.
type EndReason int

const (
	EndFinished EndReason = iota
	EndSkipped
	EndStopped
	EndFailed
)

func (r EndReason) String() string {
	switch r {
	case EndSkipped:
		return "skipped"
	case EndStopped:
		return "stopped"
	case EndFailed:
		return "failed"
	default:
		return "finished"
	}
}

// DisconnectReason is recorded in logs and drives the announcement text.
type DisconnectReason string

const (
	ReasonCommand  DisconnectReason = "command"
	ReasonAlone    DisconnectReason = "alone"
	ReasonIdle     DisconnectReason = "idle"
	ReasonKicked   DisconnectReason = "kicked"
	ReasonShutdown DisconnectReason = "shutdown"
)
