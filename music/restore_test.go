package music

import (
	"context"
	"reflect"
	"testing"

	"github.com/leeineian/minuet/sys"
)

func seedSnapshot(h *harness) {
	_ = h.store.Save(context.Background(), testGuild, Snapshot{
		Tracks: []Track{
			{URI: "https://example.com/r1", Title: "r1", RequesterID: anotherUser},
			{URI: "https://example.com/r2", Title: "r2", RequesterID: anotherUser},
		},
		LoopMode: LoopQueue,
		Volume:   0.5,
	})
}

func TestRestorePromptOnFreshConnect(t *testing.T) {
	h := newHarness(t)
	seedSnapshot(h)

	res := h.play(t, "alpha")
	if !res.RestorePending {
		t.Fatal("expected the restore prompt")
	}
	if h.sink.prompts != 1 {
		t.Fatalf("prompts = %d", h.sink.prompts)
	}
	v := h.view(t)
	if v.Current != nil || len(v.Queue) != 0 || !v.RestoreOpen {
		t.Fatalf("nothing should play while the prompt is open: %+v", v)
	}
	if _, ok := h.store.get(testGuild); !ok {
		t.Fatal("snapshot must survive until the prompt is answered")
	}
}

func TestRestoreAccepted(t *testing.T) {
	h := newHarness(t)
	seedSnapshot(h)
	h.play(t, "alpha")

	if !h.c.Restore.Answer(context.Background(), testGuild, true) {
		t.Fatal("Answer found no prompt")
	}

	v := h.view(t)
	if currentTitle(v) != "r1" || !reflect.DeepEqual(titles(v.Queue), []string{"r2", "alpha"}) {
		t.Fatalf("got current %q queue %v", currentTitle(v), titles(v.Queue))
	}
	if v.Current.RequesterID != anotherUser {
		t.Fatalf("restored track lost its requester: %v", v.Current.RequesterID)
	}
	if v.Queue[1].RequesterID != testUser {
		t.Fatalf("new request has requester %v", v.Queue[1].RequesterID)
	}
	if v.LoopMode != LoopQueue || v.Volume != 0.5 {
		t.Fatalf("settings not restored: %v %v", v.LoopMode, v.Volume)
	}
	if !h.sink.noticed("Restored **2**") {
		t.Fatalf("notices = %v", h.sink.notices)
	}
	if h.c.Restore.Answer(context.Background(), testGuild, true) {
		t.Fatal("a prompt can only be answered once")
	}
}

func TestRestoreDeclined(t *testing.T) {
	h := newHarness(t)
	seedSnapshot(h)
	h.play(t, "alpha")

	h.c.Restore.Answer(context.Background(), testGuild, false)

	v := h.view(t)
	if currentTitle(v) != "alpha" || len(v.Queue) != 0 {
		t.Fatalf("got current %q queue %v", currentTitle(v), titles(v.Queue))
	}
	snap, _ := h.store.get(testGuild)
	if got := titles(snap.Tracks); !reflect.DeepEqual(got, []string{"alpha"}) {
		t.Fatalf("old snapshot should be gone, have %v", got)
	}
	if v.LoopMode != LoopOff {
		t.Fatal("declined restore must not change settings")
	}
}

func TestRestoreTimesOutAsDiscard(t *testing.T) {
	h := newHarness(t)
	seedSnapshot(h)
	h.play(t, "alpha")

	if n := h.timers.fire(testRestore); n != 1 {
		t.Fatalf("fired %d restore timers", n)
	}
	if v := h.view(t); currentTitle(v) != "alpha" || v.RestoreOpen {
		t.Fatalf("view = %+v", v)
	}
	if len(h.sink.deleted) == 0 || h.sink.deleted[0] != h.sink.promptID {
		t.Fatal("prompt message should be removed")
	}
}

func TestRestoreSupersededByCommand(t *testing.T) {
	h := newHarness(t)
	seedSnapshot(h)
	h.play(t, "alpha")
	h.play(t, "bravo")

	v := h.view(t)
	if currentTitle(v) != "alpha" || !reflect.DeepEqual(titles(v.Queue), []string{"bravo"}) {
		t.Fatalf("got current %q queue %v", currentTitle(v), titles(v.Queue))
	}
	if h.timers.armed(testRestore) != 0 {
		t.Fatal("restore timer should be stopped")
	}
}

func TestDisconnectKeepsUnansweredSnapshot(t *testing.T) {
	h := newHarness(t)
	seedSnapshot(h)
	h.play(t, "alpha")

	if err := h.c.Disconnect(context.Background(), testGuild, ReasonCommand); err != nil {
		t.Fatal(err)
	}
	snap, ok := h.store.get(testGuild)
	if !ok || len(snap.Tracks) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if h.c.Restore.Answer(context.Background(), testGuild, true) {
		t.Fatal("prompt should be gone after disconnect")
	}
}

func TestNoPromptWithoutSnapshot(t *testing.T) {
	h := newHarness(t)
	if res := h.play(t, "alpha"); res.RestorePending || h.sink.prompts != 0 {
		t.Fatal("unexpected prompt")
	}
}

func TestRestoreKeepsSnapshotWhenSessionEndsMidRebuild(t *testing.T) {
	h := newHarness(t)
	seedSnapshot(h)
	h.play(t, "alpha")
	ctx := context.Background()

	release := h.backend.holdLoad("https://example.com/r1")
	answered := make(chan bool, 1)
	go func() { answered <- h.c.Restore.Answer(ctx, testGuild, true) }()

	<-h.backend.held
	if err := h.c.Disconnect(ctx, testGuild, ReasonCommand); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	release()

	if !<-answered {
		t.Fatal("Answer found no prompt")
	}
	snap, ok := h.store.get(testGuild)
	if !ok || !reflect.DeepEqual(titles(snap.Tracks), []string{"r1", "r2"}) {
		t.Fatalf("snapshot = %+v, %v, want r1 r2 kept", snap, ok)
	}
	if h.sink.noticed("Restored") {
		t.Fatalf("restore announced for a dropped session: %v", h.sink.notices)
	}
	if v := h.view(t); v.Connected || v.Current != nil || len(v.Queue) != 0 {
		t.Fatalf("view = %+v, want an idle guild", v)
	}
}

func TestEmptySnapshotOffersNoRestore(t *testing.T) {
	h := newHarness(t)
	store := openTestDB(t)
	h.c.store = store
	ctx := context.Background()

	if err := sys.SaveMusicSnapshot(ctx, sys.DB, testGuild, []byte(`{"version":1,"queue":[],"loop_mode":"off","volume":0.3}`), 0); err != nil {
		t.Fatal(err)
	}

	res := h.play(t, "alpha")
	if res.RestorePending || h.sink.prompts != 0 {
		t.Fatalf("empty snapshot prompted a restore: %+v", res)
	}
	if currentTitle(h.view(t)) != "alpha" {
		t.Fatalf("current = %q", currentTitle(h.view(t)))
	}
	if snap, err := store.Load(ctx, testGuild); err != nil || snap == nil || len(snap.Tracks) != 1 || snap.Tracks[0].Title != "alpha" {
		t.Fatalf("Load = %+v, %v, want the live alpha snapshot", snap, err)
	}
}
