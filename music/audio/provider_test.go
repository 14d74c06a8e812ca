package audio

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"
)

func TestPauseGate(t *testing.T) {
	g := newPauseGate()
	select {
	case <-g.wait():
	default:
		t.Fatal("new gate should be open")
	}

	g.set(true)
	g.set(true)
	select {
	case <-g.wait():
		t.Fatal("paused gate should block")
	default:
	}

	g.set(false)
	g.set(false)
	select {
	case <-g.wait():
	default:
		t.Fatal("resumed gate should be open")
	}
}

func TestStreamProviderDrainsWithSilence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newStreamProvider(ctx, newPauseGate())
	finished := make(chan struct{})
	p.onFinish = func() { close(finished) }

	frame := []byte{1, 2, 3}
	p.push(frame)
	p.push(nil)

	got, err := p.ProvideOpusFrame()
	if err != nil || !bytes.Equal(got, frame) {
		t.Fatalf("first frame = %v, %v", got, err)
	}

	silent := 0
	for {
		f, err := p.ProvideOpusFrame()
		if err == io.EOF {
			break
		}
		if !bytes.Equal(f, opusSilence) {
			t.Fatalf("expected silence, got %v", f)
		}
		silent++
	}
	if want := int(silenceDuration/(20*time.Millisecond)) + 1; silent != want {
		t.Errorf("silent frames = %d, want %d", silent, want)
	}
	select {
	case <-finished:
	default:
		t.Fatal("onFinish not called")
	}
}

func TestStreamProviderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newStreamProvider(ctx, newPauseGate())
	cancel()
	if _, err := p.ProvideOpusFrame(); err != io.EOF {
		t.Fatalf("err = %v, want EOF", err)
	}
}

func TestScaleS16(t *testing.T) {
	// 1000 and -1000 as little endian int16
	data := []byte{0xe8, 0x03, 0x18, 0xfc}
	scaleS16(data, 50)
	if s := int16(data[0]) | int16(data[1])<<8; s != 500 {
		t.Errorf("first sample = %d", s)
	}
	if s := int16(data[2]) | int16(data[3])<<8; s != -500 {
		t.Errorf("second sample = %d", s)
	}

	loud := []byte{0xff, 0x7f}
	scaleS16(loud, 200)
	if s := int16(loud[0]) | int16(loud[1])<<8; s != 32767 {
		t.Errorf("clipped sample = %d", s)
	}
}
