package concurrency

import (
	"context"
	"log/slog"
	"time"

	"bondflow/internal/domain/errs"
)

// maxBackoff caps the delay between rate-limit retries.
const maxBackoff = 30 * time.Second

// RetryRateLimited runs fn, retrying with bounded exponential backoff
// whenever it fails with ErrRateLimited. Any other error, success, or
// exhaustion of attempts ends the loop; the last error is returned so
// the caller can abandon the tier.
func RetryRateLimited(ctx context.Context, logger *slog.Logger, attempts int, base time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	delay := base
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !errs.IsUpstreamUnavailable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		logger.Warn("upstream unavailable, backing off",
			"attempt", attempt, "delay", delay.String(), "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
	return err
}
