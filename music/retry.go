package music

import (
	"context"
	"time"

	"github.com/leeineian/minuet/sys"
	"golang.org/x/time/rate"
)

// RetryPolicy retries transient failures with exponential backoff and
// optionally throttles every attempt through a shared limiter.
// A nil policy runs the operation once.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
	Limiter  *rate.Limiter

	// Logf receives one line per failed attempt. Defaults to the music logger.
	Logf func(format string, v ...any)
}

// NewRetryPolicy builds a policy sharing one limiter of perSecond attempts.
func NewRetryPolicy(attempts int, base time.Duration, perSecond float64) *RetryPolicy {
	p := &RetryPolicy{
		Attempts: attempts,
		Base:     base,
		Max:      10 * time.Second,
	}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		p.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return p
}

func (p *RetryPolicy) backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * p.Base
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	return d
}

func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := 1
	if p != nil && p.Attempts > 1 {
		attempts = p.Attempts
	}

	var last error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := p.backoff(i - 1)
			logf := p.Logf
			if logf == nil {
				logf = sys.LogMusicWarn
			}
			logf(sys.MsgMusicLookupRetry, i, attempts, last)
			if wait > 0 {
				t := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					t.Stop()
					return ctx.Err()
				case <-t.C:
				}
			}
		}
		if p != nil && p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if permanent(err) || ctx.Err() != nil {
			return err
		}
		last = err
	}
	return last
}
