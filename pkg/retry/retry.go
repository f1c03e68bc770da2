package retry

import (
	"context"
	"math/rand"
	"time"

	amen_errors "amen-chat/pkg/errors"
)

// Policy is the shared backoff policy for operations that fail with
// conflict or transient errors. Attempts are bounded; each delay doubles
// from BaseDelay up to MaxDelay, with random jitter so concurrent callers
// do not re-collide in lockstep.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, exhausts
// the attempt ceiling, or the context is cancelled. The last error is
// returned unchanged so callers can match it with errors.Is.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !amen_errors.IsRetryable(err) {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}
	return err
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d <= 0 {
		return 0
	}
	// full jitter over [d/2, d]
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
