package music

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

// Resolution is what a single /play request produced.
type Resolution struct {
	Tracks   []Track
	Failed   []string
	Total    int
	Playlist bool
}

// TrackResolver turns free text or a link into tracks.
type TrackResolver struct {
	backend       SearchBackend
	retry         *RetryPolicy
	playlistLimit int
}

func NewTrackResolver(backend SearchBackend, retry *RetryPolicy, playlistLimit int) *TrackResolver {
	return &TrackResolver{backend: backend, retry: retry, playlistLimit: playlistLimit}
}

// Resolve never returns an empty, error-free Resolution: no results at all
// is ErrNoMatch, backend trouble is ErrLookupUnavailable.
func (r *TrackResolver) Resolve(ctx context.Context, query string, requester snowflake.ID) (Resolution, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Resolution{}, ErrNoMatch
	}

	if !IsLink(q) {
		c, err := r.searchText(ctx, q)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Tracks: []Track{stamp(c, requester)}, Total: 1}, nil
	}

	var loaded Loaded
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		l, err := r.backend.Load(ctx, q)
		loaded = l
		return err
	})
	if err != nil {
		return Resolution{}, lookupError(err)
	}
	if len(loaded.Entries) == 0 {
		return Resolution{}, ErrNoMatch
	}

	entries := loaded.Entries
	if !loaded.Playlist {
		entries = entries[:1]
	} else if r.playlistLimit > 0 && len(entries) > r.playlistLimit {
		entries = entries[:r.playlistLimit]
	}

	res := Resolution{Total: len(entries), Playlist: loaded.Playlist}
	var unavailable error
	for _, e := range entries {
		if e.URI != "" {
			res.Tracks = append(res.Tracks, stamp(e, requester))
			continue
		}
		c, err := r.searchText(ctx, entryQuery(e))
		if err != nil {
			if errors.Is(err, ErrLookupUnavailable) {
				unavailable = err
			}
			res.Failed = append(res.Failed, entryQuery(e))
			continue
		}
		res.Tracks = append(res.Tracks, stamp(c, requester))
	}

	if len(res.Tracks) == 0 {
		if unavailable != nil {
			return Resolution{}, unavailable
		}
		return Resolution{}, ErrNoMatch
	}
	return res, nil
}

// searchText runs the cleaned query, then the simplified fallback.
func (r *TrackResolver) searchText(ctx context.Context, text string) (Candidate, error) {
	primary := CleanQuery(text)
	if primary == "" {
		primary = strings.TrimSpace(text)
	}
	if primary == "" {
		return Candidate{}, ErrNoMatch
	}

	hits, err := r.search(ctx, primary)
	if err != nil {
		return Candidate{}, err
	}
	if len(hits) > 0 {
		return hits[0], nil
	}

	fallback := SimplifyQuery(text)
	if fallback == "" || strings.EqualFold(fallback, primary) {
		return Candidate{}, ErrNoMatch
	}
	hits, err = r.search(ctx, fallback)
	if err != nil {
		return Candidate{}, err
	}
	if len(hits) == 0 {
		return Candidate{}, ErrNoMatch
	}
	return hits[0], nil
}

func (r *TrackResolver) search(ctx context.Context, q string) ([]Candidate, error) {
	var hits []Candidate
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		h, err := r.backend.Search(ctx, q)
		hits = h
		return err
	})
	if err != nil {
		return nil, lookupError(err)
	}
	out := hits[:0:0]
	for _, h := range hits {
		if h.URI != "" {
			out = append(out, h)
		}
	}
	return out, nil
}

func lookupError(err error) error {
	if errors.Is(err, ErrNoMatch) || errors.Is(err, ErrLookupUnavailable) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
}

func entryQuery(c Candidate) string {
	if c.Author == "" {
		return c.Title
	}
	return c.Author + " - " + c.Title
}

func stamp(c Candidate, requester snowflake.ID) Track {
	return Track{
		URI:         c.URI,
		Title:       c.Title,
		Author:      c.Author,
		Duration:    c.Duration,
		ArtworkURL:  c.ArtworkURL,
		RequesterID: requester,
	}
}
