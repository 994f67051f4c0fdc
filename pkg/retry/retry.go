// Package retry provides bounded retry with linear backoff for transient
// datasource failures.
package retry

import (
	"context"
	"strings"
	"time"
)

// Config defines retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number for each wait:
	// attempt 1 waits BaseDelay, attempt 2 waits 2*BaseDelay, and so on.
	BaseDelay time.Duration
}

// DefaultConfig returns the executor's retry policy: 3 attempts with a
// 500ms base delay.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
	}
}

// RetryableError lets errors declare their own retryability.
// apperrors.ExecutionError and llm.Error implement it.
type RetryableError interface {
	error
	IsRetryable() bool
}

// IsRetryable determines if an error is transient and worth retrying.
// Errors implementing RetryableError decide for themselves; anything else is
// pattern-matched against known transient driver messages.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if r, ok := err.(RetryableError); ok {
		return r.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"timeout",
		"timed out",
		"temporary failure",
		"too many connections",
		"too many clients",
		"i/o timeout",
		"network is unreachable",
		"the database system is starting up",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// DoWithResult executes fn, retrying transient failures up to the configured
// attempt bound. Permanent errors return immediately. Context cancellation is
// respected during waits.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var result T
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return result, err
		}

		if attempt < cfg.MaxAttempts {
			select {
			case <-time.After(cfg.BaseDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	return result, lastErr
}

// Do is DoWithResult for functions with no return value.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
