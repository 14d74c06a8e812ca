package audio

import (
	"context"
	"io"
	"sync"
	"time"
)

var (
	opusSilence     = []byte{0xf8, 0xff, 0xfe}
	silenceDuration = 1 * time.Second
)

// streamProvider feeds transcoded frames to the voice connection. It pads
// the tail with silence so the last frame is not clipped, then calls
// onFinish once.
type streamProvider struct {
	frames        chan []byte
	onFinish      func()
	once          sync.Once
	gate          *pauseGate
	ctx           context.Context
	draining      bool
	silenceFrames int
}

func newStreamProvider(ctx context.Context, gate *pauseGate) *streamProvider {
	return &streamProvider{
		frames: make(chan []byte, 100),
		gate:   gate,
		ctx:    ctx,
	}
}

func (p *streamProvider) Close() {
	p.once.Do(func() {
		if p.onFinish != nil {
			p.onFinish()
		}
	})
}

func (p *streamProvider) push(f []byte) {
	select {
	case p.frames <- f:
	case <-p.ctx.Done():
	}
}

func (p *streamProvider) ProvideOpusFrame() ([]byte, error) {
	select {
	case <-p.gate.wait():
	case <-p.ctx.Done():
		return nil, io.EOF
	}

	if p.draining {
		target := int(silenceDuration.Milliseconds() / 20)
		if p.silenceFrames < target {
			p.silenceFrames++
			return opusSilence, nil
		}
		p.Close()
		return nil, io.EOF
	}

	select {
	case f := <-p.frames:
		if f == nil {
			p.draining = true
			return opusSilence, nil
		}
		return f, nil
	case <-p.ctx.Done():
		p.Close()
		return nil, io.EOF
	case <-time.After(500 * time.Millisecond):
		return opusSilence, nil
	}
}

// pauseGate is open while playing. wait returns a channel that is closed
// when audio may flow.
type pauseGate struct {
	mu sync.RWMutex
	ch chan struct{}
}

func newPauseGate() *pauseGate {
	ch := make(chan struct{})
	close(ch)
	return &pauseGate{ch: ch}
}

func (g *pauseGate) wait() <-chan struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ch
}

func (g *pauseGate) set(paused bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		if paused {
			g.ch = make(chan struct{})
		}
	default:
		if !paused {
			close(g.ch)
		}
	}
}
