package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leeineian/minuet/music"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?list=PL1&v=abc123&t=4", "abc123"},
		{"https://youtu.be/xyz789?si=foo", "xyz789"},
		{"https://www.youtube.com/shorts/short1", "short1"},
		{"https://example.com/song", ""},
	}
	for _, c := range cases {
		if got := extractVideoID(c.in); got != c.want {
			t.Errorf("extractVideoID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsPlaylistURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://www.youtube.com/playlist?list=PL123", true},
		{"https://www.youtube.com/watch?v=abc&list=PL123", false},
		{"https://soundcloud.com/artist/sets/mix", true},
		{"https://example.com/album/42", true},
		{"https://www.youtube.com/watch?v=abc", false},
	}
	for _, c := range cases {
		if got := isPlaylistURL(c.in); got != c.want {
			t.Errorf("isPlaylistURL(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseDurationColon(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"3:20", 3*time.Minute + 20*time.Second},
		{"1:05:20", time.Hour + 5*time.Minute + 20*time.Second},
		{"LIVE", 0},
		{"42", 0},
	}
	for _, c := range cases {
		if got := parseDurationColon(c.in); got != c.want {
			t.Errorf("parseDurationColon(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMergeCandidatesDedupsAndBorrowsDurations(t *testing.T) {
	ytm := []music.Candidate{
		{URI: musicURL("a"), Title: "A"},
		{URI: musicURL("b"), Title: "B"},
	}
	yt := []music.Candidate{
		{URI: watchURL("b"), Title: "B video", Duration: time.Minute},
		{URI: watchURL("c"), Title: "C", Duration: 2 * time.Minute},
	}
	got := mergeCandidates(ytm, yt, yt)
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[1].Title != "B" || got[1].Duration != time.Minute {
		t.Errorf("second = %+v", got[1])
	}
	if got[2].Title != "C" {
		t.Errorf("third = %+v", got[2])
	}
}

func TestQueryCacheExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	c := newQueryCache(time.Minute)
	c.now = func() time.Time { return now }
	c.put("q", []music.Candidate{{Title: "x"}})
	if _, ok := c.get("q"); !ok {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.get("q"); ok {
		t.Fatal("stale entry returned")
	}
}

func TestSplitPrefix(t *testing.T) {
	b := New(Options{})
	if q, yt := b.splitPrefix("[yt] lofi beats"); q != "lofi beats" || !yt {
		t.Errorf("got %q %v", q, yt)
	}
	if q, yt := b.splitPrefix("[YTM] lofi"); q != "lofi" || yt {
		t.Errorf("got %q %v", q, yt)
	}
}

func TestParseOpenGraph(t *testing.T) {
	page := `<!doctype html><html><head>
<meta content="Song &amp; Dance - song and lyrics by Band | Spotify" property="og:title">
<meta property='og:description' content="Band · Album · Song · 2024"/>
<meta name="og:title" content="duplicate">
</head><body><meta property="og:image" content="late"></body></html>`

	og := parseOpenGraph(strings.NewReader(page))
	if got := og["og:title"]; got != "Song & Dance - song and lyrics by Band | Spotify" {
		t.Errorf("og:title = %q", got)
	}
	if got := og["og:description"]; got != "Band · Album · Song · 2024" {
		t.Errorf("og:description = %q", got)
	}
	if _, ok := og["og:image"]; ok {
		t.Error("tags after </head> should be ignored")
	}
}

func TestScrapeOpenGraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			fmt.Fprint(w, "<html><head><title>plain</title></head></html>")
			return
		}
		fmt.Fprint(w, `<html><head><meta property="og:title" content="Tune - song and lyrics by Band | Spotify"><meta property="og:description" content="Band · Tune · Song · 2020"></head></html>`)
	}))
	defer srv.Close()

	title, artist, err := scrapeOpenGraph(context.Background(), srv.Client(), srv.URL+"/spotify/track")
	if err != nil {
		t.Fatal(err)
	}
	if title != "Tune" || artist != "Band" {
		t.Errorf("got %q by %q, want Tune by Band", title, artist)
	}

	if _, _, err := scrapeOpenGraph(context.Background(), srv.Client(), srv.URL+"/missing"); err == nil {
		t.Error("a page without og:title should fail")
	}
}
