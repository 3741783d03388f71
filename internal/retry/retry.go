// Package retry implements exponential backoff with caps (§5), grounded
// on the teacher's postCallbackWithRetry loop: an initial delay, a
// multiplier, a maximum delay, and a maximum attempt count. Per §9(d) this
// is available infrastructure -- it is never wrapped automatically around
// remote calls, and no node in this repository calls it.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy configures one backoff schedule.
type Policy struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultPolicy mirrors the teacher's DefaultCallbackOptions defaults.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: 2 * time.Second,
		Multiplier:   2,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  3,
	}
}

// Retryable reports whether an error should trigger another attempt. A
// nil function retries every non-nil error.
type Retryable func(error) bool

// WithBackoff invokes fn until it succeeds, the policy's attempt budget is
// exhausted, or ctx is cancelled. The last error is returned, wrapped with
// the attempt count, if every attempt fails.
func WithBackoff(ctx context.Context, policy Policy, retryable Retryable, fn func(ctx context.Context) error) error {
	delay := policy.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * policy.Multiplier)
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return fmt.Errorf("after %d attempts: %w", policy.MaxAttempts, lastErr)
}
