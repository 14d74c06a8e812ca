package music

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/leeineian/minuet/sys"
)

func TestSnapshotEncoding(t *testing.T) {
	in := Snapshot{
		Tracks: []Track{
			{URI: "https://example.com/a", Title: "a", Author: "x", Duration: 95 * time.Second, RequesterID: testUser},
			{URI: "https://example.com/b", Title: "b"},
		},
		LoopMode: LoopTrack,
		Volume:   0.45,
		SavedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	data, err := EncodeSnapshot(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %+v\nwant %+v", out, in)
	}
}

func TestDecodeSnapshotCorrupt(t *testing.T) {
	for _, raw := range []string{
		"not json",
		`{"queue":[{"title":"no uri"}]}`,
		`{"queue":[],"loop_mode":"sideways"}`,
		`{"version":99}`,
	} {
		if _, err := DecodeSnapshot([]byte(raw)); !errors.Is(err, ErrPersistenceCorrupt) {
			t.Errorf("DecodeSnapshot(%q) err = %v", raw, err)
		}
	}
}

func TestDecodeSnapshotClampsVolume(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"queue":[{"uri":"u"}],"loop_mode":"queue","volume":7}`))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Volume != 1 || snap.LoopMode != LoopQueue {
		t.Fatalf("snap = %+v", snap)
	}
}

func openTestDB(t *testing.T) *SQLStore {
	t.Helper()
	if err := sys.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sys.CloseDatabase)
	return NewSQLStore(sys.DB)
}

func TestSQLStoreLifecycle(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	if snap, err := s.Load(ctx, testGuild); err != nil || snap != nil {
		t.Fatalf("empty Load = %v, %v", snap, err)
	}

	want := Snapshot{Tracks: []Track{{URI: "https://example.com/a", Title: "a"}}, LoopMode: LoopQueue, Volume: 0.3}
	if err := s.Save(ctx, testGuild, want); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, testGuild)
	if err != nil || got == nil {
		t.Fatalf("Load = %v, %v", got, err)
	}
	if got.Tracks[0].URI != "https://example.com/a" || got.LoopMode != LoopQueue || got.SavedAt.IsZero() {
		t.Fatalf("loaded %+v", got)
	}

	if n, _ := sys.CountMusicSnapshots(ctx, sys.DB); n != 1 {
		t.Fatalf("count = %d", n)
	}

	if err := s.Save(ctx, testGuild, Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(ctx, testGuild); got != nil {
		t.Fatal("saving an empty snapshot should delete it")
	}
}

func TestSQLStoreDropsCorruptRows(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	if err := sys.SaveMusicSnapshot(ctx, sys.DB, testGuild, []byte("{broken"), 1); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Load(ctx, testGuild)
	if err != nil || snap != nil {
		t.Fatalf("Load = %v, %v", snap, err)
	}
	if raw, _ := sys.GetMusicSnapshot(ctx, sys.DB, testGuild); raw != nil {
		t.Fatal("corrupt row should be removed")
	}
}
