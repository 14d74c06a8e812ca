package music

import (
	"context"
	"errors"
	"testing"
)

func quietPolicy(attempts int) *RetryPolicy {
	return &RetryPolicy{Attempts: attempts, Logf: func(string, ...any) {}}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := quietPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := quietPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return ErrNoMatch
	})
	if !errors.Is(err, ErrNoMatch) || calls != 1 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := quietPolicy(2).Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 2 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestNilPolicyRunsOnce(t *testing.T) {
	var p *RetryPolicy
	calls := 0
	_ = p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewRetryPolicy(5, 0, 0)
	p.Logf = func(string, ...any) {}
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("x")
	})
	if calls != 1 || err == nil {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}
