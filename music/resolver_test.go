package music

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestResolveFallsBackToSimplifiedQuery(t *testing.T) {
	b := newFakeBackend()
	b.auto = false
	b.results["Song"] = []Candidate{{URI: "https://example.com/song", Title: "Song"}}
	r := NewTrackResolver(b, nil, 100)

	res, err := r.Resolve(context.Background(), "Artist - Song (Official Video)", testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tracks) != 1 || res.Tracks[0].URI != "https://example.com/song" {
		t.Fatalf("tracks = %+v", res.Tracks)
	}
	if res.Tracks[0].RequesterID != testUser {
		t.Fatal("requester not stamped")
	}
	if got := b.searchLog(); !reflect.DeepEqual(got, []string{"Artist - Song", "Song"}) {
		t.Fatalf("searches = %v", got)
	}
}

func TestResolveNoMatch(t *testing.T) {
	b := newFakeBackend()
	b.auto = false
	r := NewTrackResolver(b, nil, 100)

	if _, err := r.Resolve(context.Background(), "Artist - Song", testUser); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
	if _, err := r.Resolve(context.Background(), "   ", testUser); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("blank query err = %v", err)
	}
}

func TestResolveSkipsHitsWithoutURI(t *testing.T) {
	b := newFakeBackend()
	b.auto = false
	b.results["alpha"] = []Candidate{{Title: "broken"}, {URI: "https://example.com/a", Title: "alpha"}}
	r := NewTrackResolver(b, nil, 100)

	res, err := r.Resolve(context.Background(), "alpha", testUser)
	if err != nil || res.Tracks[0].Title != "alpha" {
		t.Fatalf("Resolve = %+v, %v", res, err)
	}
}

func TestResolvePlaylist(t *testing.T) {
	b := newFakeBackend()
	b.auto = false
	b.results["Band - Found"] = []Candidate{{URI: "https://example.com/found", Title: "Found"}}
	b.loads["https://example.com/list"] = Loaded{
		Playlist: true,
		Entries: []Candidate{
			{URI: "https://example.com/1", Title: "one"},
			{Title: "Found", Author: "Band"},
			{Title: "Lost", Author: "Band"},
			{URI: "https://example.com/4", Title: "four"},
		},
	}
	r := NewTrackResolver(b, nil, 3)

	res, err := r.Resolve(context.Background(), "https://example.com/list", testUser)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Playlist || res.Total != 3 {
		t.Fatalf("playlist = %v total = %d", res.Playlist, res.Total)
	}
	if got := titles(res.Tracks); !reflect.DeepEqual(got, []string{"one", "Found"}) {
		t.Fatalf("tracks = %v", got)
	}
	if !reflect.DeepEqual(res.Failed, []string{"Band - Lost"}) {
		t.Fatalf("failed = %v", res.Failed)
	}
}

func TestResolveSingleLinkIgnoresExtras(t *testing.T) {
	b := newFakeBackend()
	b.loads["https://example.com/v"] = Loaded{Entries: []Candidate{
		{URI: "https://example.com/v", Title: "v", Duration: time.Minute},
		{URI: "https://example.com/w", Title: "w"},
	}}
	r := NewTrackResolver(b, nil, 100)

	res, err := r.Resolve(context.Background(), "https://example.com/v", testUser)
	if err != nil || len(res.Tracks) != 1 || res.Playlist {
		t.Fatalf("Resolve = %+v, %v", res, err)
	}
}

func TestResolveBackendFailure(t *testing.T) {
	b := newFakeBackend()
	b.fail = errors.New("connection reset")
	r := NewTrackResolver(b, nil, 100)

	for _, q := range []string{"alpha", "https://example.com/x"} {
		if _, err := r.Resolve(context.Background(), q, testUser); !errors.Is(err, ErrLookupUnavailable) {
			t.Errorf("Resolve(%q) err = %v", q, err)
		}
	}
}

func TestStreamResolverWrapsFailure(t *testing.T) {
	s := NewStreamResolver(&fakeLocator{bad: map[string]bool{"u": true}}, nil)
	if _, err := s.Locate(context.Background(), Track{URI: "u"}); !errors.Is(err, ErrStreamUnresolvable) {
		t.Fatalf("err = %v", err)
	}
	loc, err := s.Locate(context.Background(), Track{URI: "ok"})
	if err != nil || loc != "stream:ok" {
		t.Fatalf("Locate = %q, %v", loc, err)
	}
}
