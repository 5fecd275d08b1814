package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy describes how a network call is retried: a fixed number of attempts
// with exponentially growing delays between them.
type Policy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
}

// Default matches the pipeline-wide policy: 3 attempts, 1s, doubling.
var Default = Policy{MaxAttempts: 3, BaseDelay: 1 * time.Second, BackoffFactor: 2}

// Do runs op until it succeeds or the policy is exhausted. The last error is
// returned wrapped with the attempt count.
func Do(ctx context.Context, p Policy, op func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := op(); err != nil {
			lastErr = err

			if attempt == p.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
			}

			slog.Warn("attempt failed, retrying",
				"attempt", attempt,
				"max_attempts", p.MaxAttempts,
				"delay", delay,
				"error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			if p.BackoffFactor > 1 {
				delay = time.Duration(float64(delay) * p.BackoffFactor)
			}
			continue
		}
		return nil
	}

	return lastErr
}
