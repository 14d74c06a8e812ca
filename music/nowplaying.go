package music

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/sys"
)

const progressCells = 20

// Card is the rendered content of a now-playing display.
type Card struct {
	GuildID     snowflake.ID
	Title       string
	URI         string
	Author      string
	ArtworkURL  string
	RequesterID snowflake.ID
	Elapsed     time.Duration
	Duration    time.Duration
	Bar         string
	NextUp      string
	QueueLength int
	Paused      bool
	LoopMode    LoopMode
	Volume      int
}

// Clock renders "elapsed / total", or just elapsed for streams of unknown length.
func (c Card) Clock() string {
	if c.Duration <= 0 {
		return FormatClock(c.Elapsed) + " / LIVE"
	}
	return FormatClock(c.Elapsed) + " / " + FormatClock(c.Duration)
}

// BuildCard renders a view. ok is false when nothing is playing.
func BuildCard(v View) (Card, bool) {
	if v.Current == nil {
		return Card{}, false
	}
	t := v.Current
	next := sys.MsgMusicNothingNext
	if len(v.Queue) > 0 {
		next = v.Queue[0].Title
	}
	return Card{
		GuildID:     v.GuildID,
		Title:       t.Title,
		URI:         t.URI,
		Author:      t.Author,
		ArtworkURL:  t.ArtworkURL,
		RequesterID: t.RequesterID,
		Elapsed:     v.Elapsed,
		Duration:    t.Duration,
		Bar:         ProgressBar(v.Elapsed, t.Duration),
		NextUp:      next,
		QueueLength: len(v.Queue),
		Paused:      v.Paused,
		LoopMode:    v.LoopMode,
		Volume:      int(v.Volume*100 + 0.5),
	}, true
}

// ProgressBar draws a fixed width bar with a knob at the current position.
func ProgressBar(elapsed, total time.Duration) string {
	pos := 0
	if total > 0 && elapsed > 0 {
		pos = int(float64(elapsed) / float64(total) * progressCells)
	}
	if pos >= progressCells {
		pos = progressCells - 1
	}
	return strings.Repeat("▬", pos) + "🔘" + strings.Repeat("▬", progressCells-1-pos)
}

// FormatClock prints m:ss, or h:mm:ss past the hour.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// NowPlayingPresenter refreshes every live card on a fixed interval.
type NowPlayingPresenter struct {
	guilds   *Registry
	sink     DisplaySink
	interval time.Duration
	now      func() time.Time
}

func (p *NowPlayingPresenter) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick edits each card once. A card that was deleted out from under us is
// forgotten; the next track posts a fresh one.
func (p *NowPlayingPresenter) Tick(ctx context.Context) {
	now := p.now()
	for _, st := range p.guilds.All() {
		v := st.View(now)
		if v.StatusRef.IsZero() {
			continue
		}
		card, ok := BuildCard(v)
		if !ok {
			continue
		}
		err := p.sink.EditCard(ctx, v.StatusRef, card)
		switch {
		case err == nil:
		case errors.Is(err, ErrDisplayGone):
			sys.LogMusic(sys.MsgMusicDisplayGone, v.GuildID)
			st.dropStatusRef(v.StatusRef)
		default:
			sys.LogMusicWarn(sys.MsgMusicDisplayFail, v.GuildID, err)
		}
	}
}
