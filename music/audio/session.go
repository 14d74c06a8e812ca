package audio

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/voice"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/sys"
)

var errSessionClosed = errors.New("voice session closed")

// playback is one Play call. reason is set before cancel so the stream
// goroutine can report why it was cut short.
type playback struct {
	cancel context.CancelFunc
	reason atomic.Int32
	onEnd  func(music.EndReason, error)
}

func (p *playback) interrupt(reason music.EndReason) {
	p.reason.Store(int32(reason))
	p.cancel()
}

// session implements music.VoiceSession on a disgo voice connection.
type session struct {
	guildID   snowflake.ID
	channelID snowflake.ID
	conn      voice.Conn

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	volume atomic.Int32
	gate   *pauseGate

	mu       sync.Mutex
	current  *playback
	provider *streamProvider

	onDisconnect func()
}

func newSession(guildID, channelID snowflake.ID, conn voice.Conn) *session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		guildID:   guildID,
		channelID: channelID,
		conn:      conn,
		ctx:       ctx,
		cancel:    cancel,
		gate:      newPauseGate(),
	}
	s.volume.Store(100)
	return s
}

func (s *session) ChannelID() snowflake.ID {
	return s.channelID
}

func (s *session) Play(req music.PlayRequest) error {
	if s.closed.Load() {
		return errSessionClosed
	}
	s.SetVolume(req.Volume)
	s.gate.set(false)

	ctx, cancel := context.WithCancel(s.ctx)
	p := &playback{cancel: cancel, onEnd: req.OnEnd}
	p.reason.Store(int32(music.EndStopped))
	provider := newStreamProvider(ctx, s.gate)

	s.mu.Lock()
	prev := s.current
	s.current = p
	s.provider = provider
	s.mu.Unlock()

	if prev != nil {
		prev.interrupt(music.EndStopped)
	}
	go s.stream(ctx, p, provider, req)
	return nil
}

// stream runs the transcoder and reports the end of playback exactly once.
func (s *session) stream(ctx context.Context, p *playback, provider *streamProvider, req music.PlayRequest) {
	done := make(chan struct{})
	provider.onFinish = func() { close(done) }

	errc := make(chan error, 1)
	go func() {
		defer provider.push(nil)
		t := newTranscoder(&s.volume)
		defer t.close()
		errc <- s.runTranscoder(ctx, t, req, provider)
	}()

	s.setOpusFrameProviderSafe(provider)
	s.setSpeakingSafe(voice.SpeakingFlagMicrophone)

	var (
		reason music.EndReason
		err    error
	)
	select {
	case <-done:
		reason = music.EndFinished
		if err = <-errc; err != nil {
			reason = music.EndFailed
		}
	case <-ctx.Done():
		reason = music.EndReason(p.reason.Load())
	}
	p.cancel()

	s.mu.Lock()
	last := s.provider == provider
	if s.current == p {
		s.current = nil
	}
	s.mu.Unlock()
	if last {
		s.setOpusFrameProviderSafe(nil)
		s.setSpeakingSafe(0)
	}

	if err != nil {
		sys.LogVoice("Playback failed in guild %s: %v", s.guildID, err)
	}
	if p.onEnd != nil {
		p.onEnd(reason, err)
	}
}

func (s *session) runTranscoder(ctx context.Context, t *transcoder, req music.PlayRequest, provider *streamProvider) error {
	if err := t.openInput(req.Locator); err != nil {
		return err
	}
	if err := t.seek(req.Offset); err != nil {
		return err
	}
	if err := t.setupDecoder(); err != nil {
		return err
	}
	if err := t.setupEncoder(); err != nil {
		return err
	}
	if err := t.transcode(ctx, provider.push); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *session) SetPaused(paused bool) {
	s.gate.set(paused)
	if paused {
		s.setSpeakingSafe(0)
	} else {
		s.setSpeakingSafe(voice.SpeakingFlagMicrophone)
	}
}

func (s *session) SetVolume(volume float64) {
	s.volume.Store(int32(math.Round(math.Max(0, math.Min(1, volume)) * 100)))
}

func (s *session) Stop() {
	s.mu.Lock()
	p := s.current
	s.current = nil
	s.mu.Unlock()
	if p != nil {
		p.interrupt(music.EndStopped)
	}
	s.gate.set(false)
}

func (s *session) Disconnect(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.Stop()
	s.cancel()
	s.conn.Close(ctx)
	if s.onDisconnect != nil {
		s.onDisconnect()
	}
	sys.LogVoice("Left channel %s in guild %s", s.channelID, s.guildID)
	return nil
}

// setOpusFrameProviderSafe retries a few times since the connection can
// panic while it is still settling after a join.
func (s *session) setOpusFrameProviderSafe(provider voice.OpusFrameProvider) {
	for i := range 3 {
		if s.trySetOpusFrameProvider(provider) {
			return
		}
		if i < 2 {
			select {
			case <-time.After(150 * time.Millisecond):
			case <-s.ctx.Done():
				return
			}
		}
	}
	sys.LogVoice("Exhausted retries for SetOpusFrameProvider in guild %s", s.guildID)
}

func (s *session) trySetOpusFrameProvider(provider voice.OpusFrameProvider) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	s.conn.SetOpusFrameProvider(provider)
	return true
}

func (s *session) setSpeakingSafe(flags voice.SpeakingFlags) {
	if s.ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			sys.LogVoice("SetSpeaking panic recovered in guild %s: %v", s.guildID, r)
		}
	}()
	s.conn.SetSpeaking(s.ctx, flags)
}
