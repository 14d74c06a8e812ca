package music

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/sys"
)

// voiceLostGrace ignores a "bot left voice" event that arrives right after a
// connect, which is what a channel move looks like from the gateway.
const voiceLostGrace = 3 * time.Second

var errStillNeeded = errors.New("session still in use")

type Options struct {
	Gateway  VoiceGateway
	Resolver *TrackResolver
	Streams  *StreamResolver
	Store    Store
	Display  DisplaySink

	// DefaultVolume is a fraction in [0,1].
	DefaultVolume  float64
	AloneTimeout   time.Duration
	IdleGrace      time.Duration
	RestoreTimeout time.Duration
	ConnectRetry   *RetryPolicy

	// Context is used for work started by callbacks and timers.
	Context   context.Context
	Now       func() time.Time
	AfterFunc AfterFunc
	Shuffle   func(n int, swap func(i, j int))
}

// Controller owns every guild's playback. All mutations of a guild's state
// happen under that guild's lock; network calls happen outside it.
type Controller struct {
	ctx      context.Context
	guilds   *Registry
	gateway  VoiceGateway
	resolver *TrackResolver
	streams  *StreamResolver
	store    Store
	display  DisplaySink

	defaultVolume float64
	connectRetry  *RetryPolicy

	now       func() time.Time
	afterFunc AfterFunc
	shuffle   func(n int, swap func(i, j int))

	Inactivity *InactivityMonitor
	Restore    *RestoreFlow
}

func NewController(opts Options) *Controller {
	c := &Controller{
		ctx:           opts.Context,
		gateway:       opts.Gateway,
		resolver:      opts.Resolver,
		streams:       opts.Streams,
		store:         opts.Store,
		display:       opts.Display,
		defaultVolume: clampVolume(opts.DefaultVolume),
		connectRetry:  opts.ConnectRetry,
		now:           opts.Now,
		afterFunc:     opts.AfterFunc,
		shuffle:       opts.Shuffle,
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.afterFunc == nil {
		c.afterFunc = realAfterFunc
	}
	if c.shuffle == nil {
		c.shuffle = rand.Shuffle
	}
	c.guilds = NewRegistry(c.defaultVolume)
	c.Inactivity = &InactivityMonitor{c: c, aloneTimeout: opts.AloneTimeout, idleGrace: opts.IdleGrace}
	c.Restore = &RestoreFlow{c: c, timeout: opts.RestoreTimeout}
	return c
}

// Presenter returns a presenter refreshing this controller's cards.
func (c *Controller) Presenter(interval time.Duration) *NowPlayingPresenter {
	return &NowPlayingPresenter{guilds: c.guilds, sink: c.display, interval: interval, now: c.now}
}

func (c *Controller) View(guildID snowflake.ID) (View, bool) {
	st, ok := c.guilds.Lookup(guildID)
	if !ok {
		return View{}, false
	}
	return st.View(c.now()), true
}

// ChannelOf reports the voice channel the bot sits in for a guild.
func (c *Controller) ChannelOf(guildID snowflake.ID) (snowflake.ID, bool) {
	st, ok := c.guilds.Lookup(guildID)
	if !ok {
		return 0, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session == nil {
		return 0, false
	}
	return st.session.ChannelID(), true
}

// Usage counts connected guilds and the tracks they hold, current included.
func (c *Controller) Usage() (sessions, tracks int) {
	now := c.now()
	for _, st := range c.guilds.All() {
		v := st.View(now)
		if !v.Connected {
			continue
		}
		sessions++
		tracks += len(v.Queue)
		if v.Current != nil {
			tracks++
		}
	}
	return sessions, tracks
}

// --- Enqueue ---

type EnqueueRequest struct {
	GuildID        snowflake.ID
	VoiceChannelID snowflake.ID
	TextChannelID  snowflake.ID
	RequesterID    snowflake.ID
	Query          string
	Front          bool
}

type EnqueueResult struct {
	Resolution
	// Started is set when the request kicked off playback.
	Started bool
	// RestorePending is set when the tracks wait behind a restore prompt.
	RestorePending bool
}

func (c *Controller) Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueResult, error) {
	st := c.guilds.Get(req.GuildID)
	c.Restore.cancel(ctx, st)

	st.mu.Lock()
	conflict := st.session != nil && st.current != nil && st.session.ChannelID() != req.VoiceChannelID
	st.mu.Unlock()
	if conflict {
		return EnqueueResult{}, ErrSessionConflict
	}

	res, err := c.resolver.Resolve(ctx, req.Query, req.RequesterID)
	if err != nil {
		return EnqueueResult{}, err
	}

	fresh, err := c.ensureSession(ctx, st, req.VoiceChannelID, req.TextChannelID)
	if err != nil {
		return EnqueueResult{}, err
	}

	out := EnqueueResult{Resolution: res}
	if fresh && c.Restore.offer(ctx, st, res.Tracks, req.Front) {
		out.RestorePending = true
		return out, nil
	}
	out.Started = c.insert(ctx, st, res.Tracks, req.Front)
	return out, nil
}

// ensureSession joins or moves to channelID. fresh is true when a new
// connection was established.
func (c *Controller) ensureSession(ctx context.Context, st *GuildState, channelID, textChannelID snowflake.ID) (fresh bool, err error) {
	st.connMu.Lock()
	defer st.connMu.Unlock()

	st.mu.Lock()
	if textChannelID != 0 {
		st.textChannelID = textChannelID
	}
	old := st.session
	if old != nil && old.ChannelID() == channelID {
		st.mu.Unlock()
		return false, nil
	}
	if old != nil && st.current != nil {
		st.mu.Unlock()
		return false, ErrSessionConflict
	}
	st.session = nil
	st.mu.Unlock()

	if old != nil {
		if err := old.Disconnect(ctx); err != nil {
			sys.LogMusicWarn(sys.MsgMusicConnectFail, st.GuildID, err)
		}
	}

	sys.LogMusic(sys.MsgMusicConnecting, channelID, st.GuildID)
	var sess VoiceSession
	err = c.connectRetry.Do(ctx, func(ctx context.Context) error {
		s, err := c.gateway.Connect(ctx, st.GuildID, channelID)
		sess = s
		return err
	})
	if err != nil {
		sys.LogMusicWarn(sys.MsgMusicConnectFail, st.GuildID, err)
		return false, err
	}

	st.mu.Lock()
	st.session = sess
	st.connectedAt = c.now()
	st.humans = -1
	st.mu.Unlock()
	return true, nil
}

// insert queues tracks and starts playback if the guild is idle. Front
// inserts keep the batch order.
func (c *Controller) insert(ctx context.Context, st *GuildState, tracks []Track, front bool) bool {
	if len(tracks) == 0 {
		return false
	}
	st.mu.Lock()
	if st.session == nil {
		st.mu.Unlock()
		return false
	}
	if front {
		q := make([]Track, 0, len(tracks)+len(st.queue))
		q = append(q, tracks...)
		st.queue = append(q, st.queue...)
	} else {
		st.queue = append(st.queue, tracks...)
	}

	if st.current != nil {
		c.persistLocked(ctx, st)
		st.mu.Unlock()
		return false
	}
	step := c.advanceLocked(ctx, st, nil, EndStopped)
	st.mu.Unlock()
	c.runStep(ctx, st, step)
	return true
}

func (c *Controller) startIfIdle(ctx context.Context, st *GuildState) {
	st.mu.Lock()
	if st.session == nil || st.current != nil || len(st.queue) == 0 {
		st.mu.Unlock()
		return
	}
	step := c.advanceLocked(ctx, st, nil, EndStopped)
	st.mu.Unlock()
	c.runStep(ctx, st, step)
}

// --- Playback loop ---

type advanceStep struct {
	staleCard MessageRef
	text      snowflake.ID

	play  bool
	track Track
	gen   uint64

	// idle fields apply when the queue ran dry.
	announce bool
	armIdle  bool
}

// advanceLocked applies loop rules to the finished track and moves the next
// one into place. Loop rules only apply to natural completion.
func (c *Controller) advanceLocked(ctx context.Context, st *GuildState, finished *Track, reason EndReason) advanceStep {
	if finished != nil && reason == EndFinished {
		switch st.loopMode {
		case LoopTrack:
			st.queue = append([]Track{*finished}, st.queue...)
		case LoopQueue:
			st.queue = append(st.queue, *finished)
		}
	}

	st.gen++
	st.paused = false
	st.startedAt = time.Time{}
	step := advanceStep{staleCard: st.statusRef, text: st.textChannelID, gen: st.gen}
	st.statusRef = MessageRef{}

	if len(st.queue) == 0 {
		st.current = nil
		c.persistLocked(ctx, st)
		natural := reason == EndFinished || reason == EndFailed
		step.announce = natural && finished != nil
		step.armIdle = natural && st.restore == nil
		if step.announce {
			sys.LogMusic(sys.MsgMusicQueueFinished, st.GuildID)
		}
		return step
	}

	next := st.queue[0]
	st.queue = append([]Track(nil), st.queue[1:]...)
	st.current = &next
	c.persistLocked(ctx, st)
	step.play = true
	step.track = next
	return step
}

func (c *Controller) runStep(ctx context.Context, st *GuildState, step advanceStep) {
	if !step.staleCard.IsZero() {
		c.deleteDisplay(ctx, st.GuildID, step.staleCard)
	}
	if step.play {
		c.play(ctx, st, step.track, step.gen)
		return
	}
	if step.announce {
		c.notify(ctx, step.text, sys.MsgMusicQueueFinishedTx)
	}
	if step.armIdle {
		c.Inactivity.armIdle(st)
	}
}

// play resolves the locator outside the lock and starts the track if it is
// still the one the guild expects. Failed tracks are dropped and the loop
// moves on.
func (c *Controller) play(ctx context.Context, st *GuildState, track Track, gen uint64) {
	locator, err := c.streams.Locate(ctx, track)

	st.mu.Lock()
	if st.gen != gen || st.session == nil {
		st.mu.Unlock()
		return
	}
	if err == nil {
		err = st.session.Play(PlayRequest{
			Locator: locator,
			Volume:  st.volume,
			OnEnd:   c.onEnd(st, gen),
		})
	}
	if err != nil {
		sys.LogMusicWarn(sys.MsgMusicStreamFail, track.URI, st.GuildID, err)
		text := st.textChannelID
		step := c.advanceLocked(ctx, st, &track, EndFailed)
		st.mu.Unlock()
		c.notify(ctx, text, fmt.Sprintf(sys.MsgMusicTrackFailed, track.Title))
		c.runStep(ctx, st, step)
		return
	}

	st.startedAt = c.now()
	c.Inactivity.cancelIdleLocked(st)
	text := st.textChannelID
	st.mu.Unlock()

	sys.LogMusic(sys.MsgMusicNowPlaying, st.GuildID, track.Label())
	c.postCard(ctx, st, gen, text)
}

// onEnd binds an end callback to one playback generation.
func (c *Controller) onEnd(st *GuildState, gen uint64) func(EndReason, error) {
	return func(reason EndReason, err error) {
		st.mu.Lock()
		if st.gen != gen || st.current == nil {
			st.mu.Unlock()
			return
		}
		finished := *st.current
		if reason == EndFailed && err != nil {
			sys.LogMusicWarn(sys.MsgMusicStreamFail, finished.URI, st.GuildID, err)
		}
		if reason != EndFinished {
			reason = EndFailed
		}
		sys.LogMusic(sys.MsgMusicTrackEnded, st.GuildID, finished.Label(), reason)
		step := c.advanceLocked(c.ctx, st, &finished, reason)
		st.mu.Unlock()
		c.runStep(c.ctx, st, step)
	}
}

func (c *Controller) postCard(ctx context.Context, st *GuildState, gen uint64, text snowflake.ID) {
	if text == 0 {
		return
	}
	card, ok := BuildCard(st.View(c.now()))
	if !ok {
		return
	}
	ref, err := c.display.PostCard(ctx, text, card)
	if err != nil {
		sys.LogMusicWarn(sys.MsgMusicDisplayFail, st.GuildID, err)
		return
	}

	st.mu.Lock()
	if st.current == nil || st.gen != gen {
		st.mu.Unlock()
		c.deleteDisplay(ctx, st.GuildID, ref)
		return
	}
	old := st.statusRef
	st.statusRef = ref
	st.mu.Unlock()
	if !old.IsZero() && old != ref {
		c.deleteDisplay(ctx, st.GuildID, old)
	}
}

// persistLocked mirrors the guild into the store. An empty guild deletes
// its snapshot unless a restore decision is still pending.
func (c *Controller) persistLocked(ctx context.Context, st *GuildState) {
	if c.store == nil {
		return
	}
	snap := st.snapshotLocked()
	if len(snap.Tracks) == 0 {
		if st.restore != nil {
			return
		}
		if err := c.store.Delete(ctx, st.GuildID); err != nil {
			sys.LogMusicWarn(sys.MsgMusicSnapshotDelFail, st.GuildID, err)
		}
		return
	}
	snap.SavedAt = c.now().UTC()
	if err := c.store.Save(ctx, st.GuildID, snap); err != nil {
		sys.LogMusicWarn(sys.MsgMusicSnapshotSaveFail, st.GuildID, err)
	}
}

func (c *Controller) deleteDisplay(ctx context.Context, guildID snowflake.ID, ref MessageRef) {
	if err := c.display.Delete(ctx, ref); err != nil {
		sys.LogMusicWarn(sys.MsgMusicDisplayFail, guildID, err)
	}
}

func (c *Controller) notify(ctx context.Context, channelID snowflake.ID, text string) {
	if channelID == 0 || c.display == nil {
		return
	}
	if err := c.display.Notify(ctx, channelID, text); err != nil {
		sys.LogMusicWarn(sys.MsgMusicNotifyFail, channelID, err)
	}
}

// --- Commands ---

// active returns the state of a connected guild after settling any pending
// restore prompt.
func (c *Controller) active(ctx context.Context, guildID snowflake.ID) (*GuildState, error) {
	st, ok := c.guilds.Lookup(guildID)
	if !ok {
		return nil, ErrNotConnected
	}
	c.Restore.cancel(ctx, st)
	st.mu.Lock()
	connected := st.session != nil
	st.mu.Unlock()
	if !connected {
		return nil, ErrNotConnected
	}
	return st, nil
}

// Pause freezes playback. changed is false when it was already paused.
func (c *Controller) Pause(ctx context.Context, guildID snowflake.ID) (changed bool, err error) {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return false, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.current == nil {
		return false, ErrNothingPlaying
	}
	if st.paused {
		return false, nil
	}
	st.paused = true
	st.pausedAt = c.now()
	st.session.SetPaused(true)
	return true, nil
}

func (c *Controller) Resume(ctx context.Context, guildID snowflake.ID) (changed bool, err error) {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return false, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.current == nil {
		return false, ErrNothingPlaying
	}
	if !st.paused {
		return false, nil
	}
	if !st.startedAt.IsZero() {
		st.startedAt = st.startedAt.Add(c.now().Sub(st.pausedAt))
	}
	st.paused = false
	st.pausedAt = time.Time{}
	st.session.SetPaused(false)
	return true, nil
}

// TogglePause flips the pause state, for the card's button.
func (c *Controller) TogglePause(ctx context.Context, guildID snowflake.ID) (paused bool, err error) {
	if v, ok := c.View(guildID); ok && v.Paused {
		_, err = c.Resume(ctx, guildID)
		return false, err
	}
	_, err = c.Pause(ctx, guildID)
	return err == nil, err
}

// Skip ends the current track. The skipped track is never requeued, even
// with looping on.
func (c *Controller) Skip(ctx context.Context, guildID snowflake.ID) (Track, error) {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return Track{}, err
	}
	st.mu.Lock()
	if st.current == nil {
		st.mu.Unlock()
		return Track{}, ErrNothingPlaying
	}
	skipped := *st.current
	sess := st.session
	step := c.advanceLocked(ctx, st, &skipped, EndSkipped)
	sess.Stop()
	st.mu.Unlock()

	sys.LogMusic(sys.MsgMusicTrackEnded, guildID, skipped.Label(), EndSkipped)
	c.runStep(ctx, st, step)
	if !step.play {
		c.Inactivity.armIdle(st)
	}
	return skipped, nil
}

// Stop clears the queue and the current track but stays connected until
// the idle grace runs out.
func (c *Controller) Stop(ctx context.Context, guildID snowflake.ID) error {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	st.queue = nil
	sess := st.session
	step := c.advanceLocked(ctx, st, nil, EndStopped)
	sess.Stop()
	st.mu.Unlock()

	c.runStep(ctx, st, step)
	c.Inactivity.armIdle(st)
	return nil
}

// Seek restarts the current track at offset. Out of range offsets leave
// playback untouched.
func (c *Controller) Seek(ctx context.Context, guildID snowflake.ID, offset time.Duration) (Track, error) {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return Track{}, err
	}
	st.mu.Lock()
	if st.current == nil {
		st.mu.Unlock()
		return Track{}, ErrNothingPlaying
	}
	track := *st.current
	gen := st.gen
	st.mu.Unlock()

	if offset < 0 || (track.Duration > 0 && offset >= track.Duration) {
		return track, ErrSeekOutOfRange
	}

	locator, err := c.streams.Locate(ctx, track)
	if err != nil {
		return track, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gen != gen || st.current == nil || st.session == nil {
		return track, ErrNothingPlaying
	}
	next := gen + 1
	err = st.session.Play(PlayRequest{
		Locator: locator,
		Offset:  offset,
		Volume:  st.volume,
		OnEnd:   c.onEnd(st, next),
	})
	if err != nil {
		return track, fmt.Errorf("%w: %w", ErrStreamUnresolvable, err)
	}
	st.gen = next
	st.startedAt = c.now().Add(-offset)
	st.paused = false
	st.pausedAt = time.Time{}
	return track, nil
}

func (c *Controller) Shuffle(ctx context.Context, guildID snowflake.ID) (int, error) {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	n := len(st.queue)
	if n < 2 {
		return n, ErrShuffleTooShort
	}
	c.shuffle(n, func(i, j int) { st.queue[i], st.queue[j] = st.queue[j], st.queue[i] })
	c.persistLocked(ctx, st)
	return n, nil
}

func (c *Controller) SetLoop(ctx context.Context, guildID snowflake.ID, mode LoopMode) error {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.loopMode = mode
	c.persistLocked(ctx, st)
	return nil
}

// CycleLoop advances the loop mode one step, for the card's button.
func (c *Controller) CycleLoop(ctx context.Context, guildID snowflake.ID) (LoopMode, error) {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return LoopOff, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.loopMode = st.loopMode.Next()
	c.persistLocked(ctx, st)
	return st.loopMode, nil
}

// SetVolume takes a fraction and clamps it to [0,1].
func (c *Controller) SetVolume(ctx context.Context, guildID snowflake.ID, volume float64) (float64, error) {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.volume = clampVolume(volume)
	st.session.SetVolume(st.volume)
	c.persistLocked(ctx, st)
	return st.volume, nil
}

// Clear empties the queue but keeps the current track playing.
func (c *Controller) Clear(ctx context.Context, guildID snowflake.ID) (int, error) {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	n := len(st.queue)
	st.queue = nil
	c.persistLocked(ctx, st)
	return n, nil
}

// Remove drops the track at a 1-based queue position.
func (c *Controller) Remove(ctx context.Context, guildID snowflake.ID, position int) (Track, error) {
	st, err := c.active(ctx, guildID)
	if err != nil {
		return Track{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if position < 1 || position > len(st.queue) {
		return Track{}, ErrQueueIndex
	}
	removed := st.queue[position-1]
	st.queue = append(st.queue[:position-1:position-1], st.queue[position:]...)
	c.persistLocked(ctx, st)
	return removed, nil
}

// --- Disconnect ---

func (c *Controller) Disconnect(ctx context.Context, guildID snowflake.ID, reason DisconnectReason) error {
	st, ok := c.guilds.Lookup(guildID)
	if !ok {
		return ErrNotConnected
	}
	return c.disconnect(ctx, st, reason, nil)
}

// HandleVoiceLost reacts to the bot being removed from voice by someone else.
func (c *Controller) HandleVoiceLost(ctx context.Context, guildID snowflake.ID) error {
	st, ok := c.guilds.Lookup(guildID)
	if !ok {
		return ErrNotConnected
	}
	return c.disconnect(ctx, st, ReasonKicked, func(st *GuildState) bool {
		return c.now().Sub(st.connectedAt) < voiceLostGrace
	})
}

// disconnect tears a guild down to its defaults, saving a snapshot first
// when there is anything to save. keep is evaluated under the lock and can
// veto the teardown.
func (c *Controller) disconnect(ctx context.Context, st *GuildState, reason DisconnectReason, keep func(*GuildState) bool) error {
	st.connMu.Lock()
	defer st.connMu.Unlock()

	st.mu.Lock()
	sess := st.session
	if sess == nil {
		st.mu.Unlock()
		return ErrNotConnected
	}
	if keep != nil && keep(st) {
		st.mu.Unlock()
		return errStillNeeded
	}

	saved := false
	if snap := st.snapshotLocked(); len(snap.Tracks) > 0 && c.store != nil {
		snap.SavedAt = c.now().UTC()
		if err := c.store.Save(ctx, st.GuildID, snap); err != nil {
			sys.LogMusicWarn(sys.MsgMusicSnapshotSaveFail, st.GuildID, err)
		} else {
			saved = true
		}
	}

	var prompt MessageRef
	if p := st.restore; p != nil {
		st.restore = nil
		if p.timer != nil {
			p.timer.Stop()
		}
		prompt = p.ref
	}

	st.gen++
	sess.Stop()
	card := st.statusRef
	text := st.textChannelID

	st.session = nil
	st.queue = nil
	st.current = nil
	st.paused = false
	st.startedAt = time.Time{}
	st.pausedAt = time.Time{}
	st.statusRef = MessageRef{}
	st.loopMode = LoopOff
	st.volume = c.defaultVolume
	st.humans = -1
	c.Inactivity.stopLocked(st)
	st.mu.Unlock()

	if err := sess.Disconnect(ctx); err != nil {
		sys.LogMusicWarn(sys.MsgMusicConnectFail, st.GuildID, err)
	}
	if !card.IsZero() {
		c.deleteDisplay(ctx, st.GuildID, card)
	}
	if !prompt.IsZero() {
		c.deleteDisplay(ctx, st.GuildID, prompt)
	}
	sys.LogMusic(sys.MsgMusicDisconnected, st.GuildID, reason)

	switch reason {
	case ReasonAlone:
		msg := sys.MsgMusicAloneLeaving
		if saved {
			msg += sys.MsgMusicQueueSaved
		}
		c.notify(ctx, text, msg)
	case ReasonIdle:
		c.notify(ctx, text, sys.MsgMusicIdleLeaving)
	}
	return nil
}

// Shutdown disconnects every guild, persisting what each had queued.
func (c *Controller) Shutdown(ctx context.Context) {
	sys.LogMusic(sys.MsgMusicShutdown)
	for _, st := range c.guilds.All() {
		if err := c.disconnect(ctx, st, ReasonShutdown, nil); err != nil && !errors.Is(err, ErrNotConnected) {
			sys.LogMusicWarn(sys.MsgMusicConnectFail, st.GuildID, err)
		}
	}
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
