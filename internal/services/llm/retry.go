package llm

import (
	"context"
	"strings"
	"time"
)

// RetryConfig defines backoff behavior for transient provider failures.
type RetryConfig struct {
	// MaxAttempts is the total number of tries including the first.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries.
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to the backoff on each retry.
	BackoffMultiplier float64
}

// NewDefaultRetryConfig returns the retry policy applied to LLM and
// embedding calls: three attempts, exponential from 2s capped at 30s.
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// IsRateLimitError checks if an error is a provider rate limit error.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// IsConnectionError checks if an error looks like a dropped or refused
// network connection.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "unexpected EOF") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "TLS handshake timeout")
}

// IsRetryable reports whether the error qualifies for backoff. Other API
// errors bubble up immediately.
func IsRetryable(err error) bool {
	return IsRateLimitError(err) || IsConnectionError(err)
}

// CalculateBackoff computes the wait before the given retry attempt
// (attempt 0 is the first retry).
func (c *RetryConfig) CalculateBackoff(attempt int) time.Duration {
	backoff := float64(c.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
	}
	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}
	return time.Duration(backoff)
}

// WithRetry runs fn under the retry policy. Only rate-limit and
// connection errors are retried; everything else returns immediately.
func WithRetry(ctx context.Context, cfg *RetryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := cfg.CalculateBackoff(attempt - 1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
