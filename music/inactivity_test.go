package music

import (
	"testing"
)

func TestAloneTimerLeavesAndSaves(t *testing.T) {
	h := newHarness(t)
	h.play(t, "alpha")
	h.play(t, "bravo")

	h.c.Inactivity.OnOccupancy(testGuild, 0)
	if h.timers.armed(testAlone) != 1 {
		t.Fatal("alone timer should be armed")
	}
	h.c.Inactivity.OnOccupancy(testGuild, 0)
	if h.timers.armed(testAlone) != 1 {
		t.Fatal("repeated updates must not stack timers")
	}

	h.timers.fire(testAlone)
	if h.view(t).Connected {
		t.Fatal("should have left")
	}
	snap, ok := h.store.get(testGuild)
	if !ok || len(snap.Tracks) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if !h.sink.noticed("Everyone left") {
		t.Fatalf("notices = %v", h.sink.notices)
	}
}

func TestAloneTimerCancelledByRejoin(t *testing.T) {
	h := newHarness(t)
	h.play(t, "alpha")

	h.c.Inactivity.OnOccupancy(testGuild, 0)
	h.c.Inactivity.OnOccupancy(testGuild, 2)
	if h.timers.armed(testAlone) != 0 {
		t.Fatal("alone timer should be cleared")
	}
	if !h.view(t).Connected {
		t.Fatal("should still be connected")
	}
}

func TestLateAloneTimerRechecksOccupancy(t *testing.T) {
	h := newHarness(t)
	h.play(t, "alpha")

	h.c.Inactivity.OnOccupancy(testGuild, 0)
	var late func()
	h.timers.mu.Lock()
	for _, tm := range h.timers.timers {
		if tm.d == testAlone {
			late = tm.f
		}
	}
	h.timers.mu.Unlock()

	// Someone rejoins, but the timer callback was already on its way.
	h.c.Inactivity.OnOccupancy(testGuild, 1)
	late()

	if !h.view(t).Connected {
		t.Fatal("a stale timer must not disconnect")
	}
}

func TestIdleTimerKeptWhilePlaying(t *testing.T) {
	h := newHarness(t)
	h.play(t, "alpha")
	h.finish(t)

	var late func()
	h.timers.mu.Lock()
	for _, tm := range h.timers.timers {
		if tm.d == testIdle {
			late = tm.f
		}
	}
	h.timers.mu.Unlock()

	h.play(t, "bravo")
	late()

	if v := h.view(t); !v.Connected || currentTitle(v) != "bravo" {
		t.Fatalf("view = %+v", v)
	}
}

func TestOccupancyIgnoredWhenDisconnected(t *testing.T) {
	h := newHarness(t)
	h.c.Inactivity.OnOccupancy(testGuild, 0)
	if h.timers.armed(testAlone) != 0 {
		t.Fatal("no timer without a session")
	}
}
