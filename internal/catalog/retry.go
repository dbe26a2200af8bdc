package catalog

import (
	"context"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"lacuna/internal/logging"
)

// WithRetry runs op, retrying with exponential backoff on retryable
// failures (connection resets, timeouts, HTTP 429/5xx). Non-retryable
// errors fail immediately. maxRetries bounds the retry count; the initial
// attempt is not counted.
func WithRetry(ctx context.Context, logger *slog.Logger, maxRetries int, op func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxInterval = retryMaxInterval
	policy.RandomizationFactor = 0.3

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		logger.Debug("retrying catalog request",
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(maxRetries)), ctx))
}
