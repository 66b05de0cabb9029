// Package retry runs an operation under a fixed-delay attempt policy.
package retry

import (
	"context"
	"time"
)

// Policy bounds an operation: at most MaxAttempts calls with Delay between
// them. Retryable decides whether a failure is worth another attempt; a nil
// Retryable retries every error.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Do calls op until it succeeds, returns a non-retryable error, or the policy
// runs out of attempts. attempt starts at 1. The last error is returned
// unchanged; a cancelled context stops the loop between attempts.
func Do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	limit := p.attempts()
	var lastErr error
	for attempt := 1; attempt <= limit; attempt++ {
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if !p.retryable(lastErr) || attempt == limit {
			break
		}
		if !sleep(ctx, p.Delay) {
			break
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
