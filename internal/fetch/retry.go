package fetch

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy controls Retry. The sleep after failed attempt n (1-based) is
// BaseDelay*n plus a random jitter below MaxJitter.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxJitter time.Duration
}

// DefaultRetryPolicy is three attempts with a 300ms linear backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 300 * time.Millisecond, MaxJitter: 200 * time.Millisecond}
}

// Retry runs fn until it succeeds or the attempts are exhausted and returns
// the last error. Jitter only affects timing, never results.
func Retry(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) error {
	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := policy.BaseDelay * time.Duration(attempt)
		if policy.MaxJitter > 0 {
			delay += time.Duration(rand.Int63n(int64(policy.MaxJitter)))
		}
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
