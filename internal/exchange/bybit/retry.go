package bybit

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds how often and how long a failed request is reissued.
type RetryPolicy struct {
	MaxAttempts int // total attempts, including the first
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy retries three times over roughly seven seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
		Multiplier:  2.0,
	}
}

// retry reissues fn with exponential backoff until it succeeds, the policy is
// exhausted, or the error is not retryable. Reduce-only orders and stop
// amendments are safe to reissue after a transient venue failure.
func (c *Client) retry(ctx context.Context, p RetryPolicy, fn func() error) error {
	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryableError(lastErr) || attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("bybit request failed: %w", lastErr)
}
