package reconcile

import (
	"context"
	"time"

	"github.com/Mainfreight/integration-jira-cloud/internal/tracker"
)

// Policy bounds the retry behavior for tracker calls.
type Policy struct {
	// MaxRetries is the number of attempts after the first.
	MaxRetries int
	// BaseDelay is the first backoff interval; it doubles per attempt.
	BaseDelay time.Duration
}

// DefaultPolicy matches the tracker's observed rate-limit windows.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: 2 * time.Second}
}

// withRetry runs fn, retrying retryable tracker errors with exponential
// backoff. Non-retryable errors return immediately. Context cancellation
// interrupts the backoff wait.
func withRetry(ctx context.Context, p Policy, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !tracker.Retryable(lastErr) {
			return lastErr
		}
		if attempt < p.MaxRetries {
			backoff := p.BaseDelay * time.Duration(1<<uint(attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
