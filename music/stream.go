package music

import (
	"context"
	"errors"
	"fmt"
)

// StreamResolver turns a queued track into a playable locator right
// before it starts. Locators expire, so they are never cached.
type StreamResolver struct {
	backend LocatorBackend
	retry   *RetryPolicy
}

func NewStreamResolver(backend LocatorBackend, retry *RetryPolicy) *StreamResolver {
	return &StreamResolver{backend: backend, retry: retry}
}

func (s *StreamResolver) Locate(ctx context.Context, t Track) (string, error) {
	var locator string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		l, err := s.backend.Locate(ctx, t.URI)
		if err != nil {
			return err
		}
		locator = l
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStreamUnresolvable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", ErrStreamUnresolvable, t.URI, err)
	}
	if locator == "" {
		return "", fmt.Errorf("%w: %s: empty locator", ErrStreamUnresolvable, t.URI)
	}
	return locator, nil
}
