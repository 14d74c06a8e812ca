// Package youtube implements track search, link loading and stream lookup on
// top of YouTube Music, YouTube and yt-dlp.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/leeineian/minuet/music"
	"github.com/leeineian/minuet/sys"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
)

type Options struct {
	Proxy         string
	YoutubePrefix string
	YTMusicPrefix string
	PlaylistLimit int
	SearchTimeout time.Duration
	CacheTTL      time.Duration
}

// Backend satisfies music.SearchBackend and music.LocatorBackend.
type Backend struct {
	opts  Options
	http  *http.Client
	cache *queryCache
}

func New(opts Options) *Backend {
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 2600 * time.Millisecond
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.PlaylistLimit <= 0 {
		opts.PlaylistLimit = 100
	}
	if opts.YoutubePrefix == "" {
		opts.YoutubePrefix = "[YT]"
	}
	if opts.YTMusicPrefix == "" {
		opts.YTMusicPrefix = "[YTM]"
	}
	return &Backend{
		opts:  opts,
		http:  &http.Client{Timeout: 10 * time.Second},
		cache: newQueryCache(opts.CacheTTL),
	}
}

// splitPrefix honours a leading source tag and reports whether plain
// YouTube should be ranked first.
func (b *Backend) splitPrefix(q string) (query string, youtubeFirst bool) {
	upper := strings.ToUpper(q)
	switch {
	case strings.HasPrefix(upper, strings.ToUpper(b.opts.YoutubePrefix)):
		return strings.TrimSpace(q[len(b.opts.YoutubePrefix):]), true
	case strings.HasPrefix(upper, strings.ToUpper(b.opts.YTMusicPrefix)):
		return strings.TrimSpace(q[len(b.opts.YTMusicPrefix):]), false
	}
	return q, false
}

// Search queries YouTube Music and YouTube in parallel and merges the hits,
// music first. yt-dlp is the fallback when both native clients fail.
func (b *Backend) Search(ctx context.Context, q string) ([]music.Candidate, error) {
	if hit, ok := b.cache.get(q); ok {
		return hit, nil
	}
	query, youtubeFirst := b.splitPrefix(q)
	if query == "" {
		return nil, nil
	}

	sctx, cancel := context.WithTimeout(ctx, b.opts.SearchTimeout)
	defer cancel()

	var (
		mu            sync.Mutex
		ytm, yt       []music.Candidate
		ytmErr, ytErr error
		wg            sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		r, err := ytmusic.TrackSearch(query).Next()
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			ytmErr = err
			return
		}
		for _, v := range r.Tracks {
			if v.VideoID == "" {
				continue
			}
			author := ""
			if len(v.Artists) > 0 {
				author = v.Artists[0].Name
			}
			ytm = append(ytm, music.Candidate{
				URI:        musicURL(v.VideoID),
				Title:      v.Title,
				Author:     author,
				ArtworkURL: thumbnailURL(v.VideoID),
			})
		}
	}()
	go func() {
		defer wg.Done()
		r, err := ytsearch.NewClient(nil).Search(sctx, query)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			ytErr = err
			return
		}
		for _, v := range r.Results {
			if v.VideoID == "" {
				continue
			}
			yt = append(yt, music.Candidate{
				URI:        watchURL(v.VideoID),
				Title:      v.Title,
				Author:     v.Channel,
				Duration:   parseDurationColon(v.Duration),
				ArtworkURL: thumbnailURL(v.VideoID),
			})
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-sctx.Done():
	}

	mu.Lock()
	first, second := ytm, yt
	if youtubeFirst {
		first, second = yt, ytm
	}
	merged := mergeCandidates(first, second, yt)
	failed := len(merged) == 0 && (ytmErr != nil || ytErr != nil || sctx.Err() != nil)
	nativeErr := errors.Join(ytmErr, ytErr)
	mu.Unlock()

	if failed {
		es, err := ytdlpSearch(ctx, b.opts.Proxy, "ytsearch", query, 5)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", query, errors.Join(nativeErr, err))
		}
		for _, e := range es {
			id := extractVideoID(e.URL)
			merged = append(merged, music.Candidate{
				URI:        watchURL(id),
				Title:      e.Title,
				Author:     e.Uploader,
				Duration:   e.Duration,
				ArtworkURL: thumbnailURL(id),
			})
		}
	}

	if len(merged) > 0 && merged[0].Duration == 0 {
		if d, ok := b.lookupDuration(ctx, extractVideoID(merged[0].URI)); ok {
			merged[0].Duration = d
		}
	}

	if len(merged) > 0 {
		b.cache.put(q, merged)
	}
	return merged, nil
}

// mergeCandidates dedups by video id. Durations missing from the music
// results are borrowed from the plain YouTube ones.
func mergeCandidates(first, second, withDurations []music.Candidate) []music.Candidate {
	durations := make(map[string]time.Duration, len(withDurations))
	for _, c := range withDurations {
		durations[extractVideoID(c.URI)] = c.Duration
	}

	seen := make(map[string]bool)
	var out []music.Candidate
	for _, list := range [][]music.Candidate{first, second} {
		for _, c := range list {
			id := extractVideoID(c.URI)
			if seen[id] {
				continue
			}
			seen[id] = true
			if c.Duration == 0 {
				c.Duration = durations[id]
			}
			out = append(out, c)
			if len(out) == 25 {
				return out
			}
		}
	}
	return out
}

// lookupDuration finds a video's length through the search API, which is
// far cheaper than asking yt-dlp.
func (b *Backend) lookupDuration(ctx context.Context, id string) (time.Duration, bool) {
	if id == "" {
		return 0, false
	}
	sctx, cancel := context.WithTimeout(ctx, b.opts.SearchTimeout)
	defer cancel()
	r, err := ytsearch.NewClient(nil).Search(sctx, id)
	if err != nil {
		return 0, false
	}
	for _, v := range r.Results {
		if v.VideoID == id {
			d := parseDurationColon(v.Duration)
			return d, d > 0
		}
	}
	return 0, false
}

// Load opens a direct link. Playlists are flattened; links yt-dlp cannot
// read come back as title-only entries so they can be searched instead.
func (b *Backend) Load(ctx context.Context, u string) (music.Loaded, error) {
	if isPlaylistURL(u) {
		es, err := ytdlpPlaylist(ctx, b.opts.Proxy, u, b.opts.PlaylistLimit)
		if err != nil {
			return music.Loaded{}, err
		}
		loaded := music.Loaded{Playlist: true}
		for _, e := range es {
			c := music.Candidate{Title: e.Title, Author: e.Uploader, Duration: e.Duration}
			if strings.HasPrefix(e.URL, "http") {
				c.URI = e.URL
			}
			if id := extractVideoID(c.URI); id != "" {
				c.ArtworkURL = thumbnailURL(id)
			}
			if c.URI == "" && c.Title == "" {
				continue
			}
			loaded.Entries = append(loaded.Entries, c)
		}
		return loaded, nil
	}

	meta, err := ytdlpMetadata(ctx, b.opts.Proxy, u)
	if err != nil {
		if errors.Is(err, errDRM) || !isYouTubeURL(u) {
			if title, artist, serr := scrapeOpenGraph(ctx, b.http, u); serr == nil {
				sys.LogVoice("Falling back to page metadata for %s: %s", u, title)
				return music.Loaded{Entries: []music.Candidate{{Title: title, Author: artist}}}, nil
			}
		}
		return music.Loaded{}, err
	}

	c := music.Candidate{
		URI:        meta.URL,
		Title:      meta.Title,
		Author:     meta.Uploader,
		Duration:   meta.Duration,
		ArtworkURL: meta.Thumbnail,
	}
	if c.URI == "" {
		c.URI = u
	}
	if id := extractVideoID(u); id != "" && isYouTubeURL(u) {
		c.URI = watchURL(id)
		if c.ArtworkURL == "" {
			c.ArtworkURL = thumbnailURL(id)
		}
	}
	return music.Loaded{Entries: []music.Candidate{c}}, nil
}

// Locate resolves a short-lived media URL for playback.
func (b *Backend) Locate(ctx context.Context, uri string) (string, error) {
	return ytdlpStreamURL(ctx, b.opts.Proxy, uri)
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Name  string
	Value string
}

// Suggest labels search hits with their source for slash command autocomplete.
func (b *Backend) Suggest(ctx context.Context, q string) []Suggestion {
	q = strings.TrimSpace(q)
	if q == "" || strings.HasPrefix(q, "http") {
		return nil
	}
	hits, err := b.Search(ctx, q)
	if err != nil {
		return nil
	}
	out := make([]Suggestion, 0, len(hits))
	for _, h := range hits {
		prefix := b.opts.YoutubePrefix + " "
		if strings.Contains(h.URI, "music.youtube.com") {
			prefix = b.opts.YTMusicPrefix + " "
		}
		suffix := ""
		if h.Author != "" {
			suffix = " - " + h.Author
		}
		out = append(out, Suggestion{
			Name:  sys.TruncateWithPreserve(h.Title, 100, prefix, suffix),
			Value: h.URI,
		})
	}
	return out
}

type cachedItem struct {
	results   []music.Candidate
	expiresAt time.Time
}

// queryCache keeps recent search results so autocomplete and the final
// /play lookup share one round trip.
type queryCache struct {
	mu    sync.RWMutex
	items map[string]cachedItem
	ttl   time.Duration
	now   func() time.Time
}

func newQueryCache(ttl time.Duration) *queryCache {
	return &queryCache{items: make(map[string]cachedItem), ttl: ttl, now: time.Now}
}

func (c *queryCache) get(q string) ([]music.Candidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[q]
	if !ok || c.now().After(item.expiresAt) {
		return nil, false
	}
	return item.results, true
}

func (c *queryCache) put(q string, results []music.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if len(c.items) >= 512 {
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
		}
	}
	c.items[q] = cachedItem{results: results, expiresAt: now.Add(c.ttl)}
}
