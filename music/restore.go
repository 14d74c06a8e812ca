package music

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/sys"
)

// pendingRestore is an unanswered restore prompt together with the request
// that triggered it. Whoever clears GuildState.restore owns finishing it.
type pendingRestore struct {
	snap   *Snapshot
	tracks []Track
	front  bool
	ref    MessageRef
	timer  Timer
}

// RestoreFlow offers to bring back a saved queue when a guild reconnects
// with nothing in memory.
type RestoreFlow struct {
	c       *Controller
	timeout time.Duration
}

// offer shows the prompt if the guild is empty and has a snapshot. When it
// returns true the tracks are parked until the prompt is answered.
func (f *RestoreFlow) offer(ctx context.Context, st *GuildState, tracks []Track, front bool) bool {
	c := f.c
	if c.store == nil {
		return false
	}

	st.mu.Lock()
	empty := st.current == nil && len(st.queue) == 0 && st.restore == nil
	text := st.textChannelID
	st.mu.Unlock()
	if !empty || text == 0 {
		return false
	}

	snap, err := c.store.Load(ctx, st.GuildID)
	if err != nil {
		sys.LogMusicWarn(sys.MsgMusicSnapshotLoadFail, st.GuildID, err)
		return false
	}
	if snap == nil || len(snap.Tracks) == 0 {
		return false
	}

	ref, err := c.display.PromptRestore(ctx, text, st.GuildID, len(snap.Tracks))
	if err != nil {
		sys.LogMusicWarn(sys.MsgMusicNotifyFail, text, err)
		return false
	}

	p := &pendingRestore{snap: snap, tracks: tracks, front: front, ref: ref}
	st.mu.Lock()
	if st.current != nil || len(st.queue) > 0 || st.restore != nil || st.session == nil {
		st.mu.Unlock()
		c.deleteDisplay(ctx, st.GuildID, ref)
		return false
	}
	st.restore = p
	p.timer = c.afterFunc(f.timeout, func() {
		f.complete(c.ctx, st, p, false, "timeout")
	})
	st.mu.Unlock()

	sys.LogMusic(sys.MsgMusicRestorePrompted, len(snap.Tracks), st.GuildID)
	return true
}

// Answer settles the prompt of a guild. ok is false when no prompt was open.
func (f *RestoreFlow) Answer(ctx context.Context, guildID snowflake.ID, accept bool) (ok bool) {
	st, found := f.c.guilds.Lookup(guildID)
	if !found {
		return false
	}
	st.mu.Lock()
	p := st.restore
	st.mu.Unlock()
	if p == nil {
		return false
	}
	decision := "declined"
	if accept {
		decision = "accepted"
	}
	return f.complete(ctx, st, p, accept, decision)
}

// cancel settles an open prompt as discarded so another command can run.
func (f *RestoreFlow) cancel(ctx context.Context, st *GuildState) {
	st.mu.Lock()
	p := st.restore
	st.mu.Unlock()
	if p != nil {
		f.complete(ctx, st, p, false, "superseded")
	}
}

func (f *RestoreFlow) complete(ctx context.Context, st *GuildState, p *pendingRestore, accept bool, why string) bool {
	c := f.c

	st.mu.Lock()
	if st.restore != p {
		st.mu.Unlock()
		return false
	}
	st.restore = nil
	if p.timer != nil {
		p.timer.Stop()
	}
	text := st.textChannelID
	sess := st.session
	st.mu.Unlock()

	sys.LogMusic(sys.MsgMusicRestoreDecided, st.GuildID, why)
	c.deleteDisplay(ctx, st.GuildID, p.ref)

	if accept {
		tracks := f.rebuild(ctx, p.snap)
		st.mu.Lock()
		if sess == nil || st.session != sess {
			// The session ended while tracks were resolving. The snapshot
			// stays so the next connection can offer it again.
			st.mu.Unlock()
			sys.LogMusicWarn(sys.MsgMusicRestoreAborted, st.GuildID)
			return true
		}
		st.queue = append(st.queue, tracks...)
		st.loopMode = p.snap.LoopMode
		st.volume = clampVolume(p.snap.Volume)
		st.session.SetVolume(st.volume)
		st.mu.Unlock()
		c.notify(ctx, text, fmt.Sprintf(sys.MsgMusicRestoreDone, len(tracks)))
	} else {
		c.notify(ctx, text, sys.MsgMusicRestoreDropped)
	}

	if err := c.store.Delete(ctx, st.GuildID); err != nil {
		sys.LogMusicWarn(sys.MsgMusicSnapshotDelFail, st.GuildID, err)
	}

	if !c.insert(ctx, st, p.tracks, p.front) && accept {
		// Nothing new was requested on top, so start the restored queue.
		c.startIfIdle(ctx, st)
	}
	return true
}

// rebuild re-resolves every saved track, keeping who asked for it.
func (f *RestoreFlow) rebuild(ctx context.Context, snap *Snapshot) []Track {
	out := make([]Track, 0, len(snap.Tracks))
	for _, t := range snap.Tracks {
		res, err := f.c.resolver.Resolve(ctx, t.URI, t.RequesterID)
		if err != nil || len(res.Tracks) == 0 {
			sys.LogMusicWarn(sys.MsgMusicRestoreSkipped, t.URI, err)
			continue
		}
		track := res.Tracks[0]
		track.RequesterID = t.RequesterID
		out = append(out, track)
	}
	return out
}
