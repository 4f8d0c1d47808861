package storage

import (
	"context"
	"time"
)

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig makes exactly one attempt
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   1,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// WithAttempts returns a copy of cfg allowing n attempts
func (cfg RetryConfig) WithAttempts(n int) RetryConfig {
	if n < 1 {
		n = 1
	}
	cfg.MaxAttempts = n
	return cfg
}

// WithRetry executes op, retrying retryable errors with exponential backoff.
// It returns the number of attempts made alongside the last error.
func WithRetry(ctx context.Context, cfg RetryConfig, op func() error) (int, error) {
	var lastErr error
	delay := cfg.InitialDelay

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := op()
		if err == nil {
			return attempt, nil
		}

		lastErr = err

		// Don't retry critical errors
		if IsCritical(err) || !IsRetryable(err) {
			return attempt, err
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * cfg.BackoffFactor)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		case <-ctx.Done():
			return attempt, ctx.Err()
		}
	}

	return maxAttempts, lastErr
}
