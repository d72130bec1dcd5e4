package concurrency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"bondflow/internal/domain/errs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetryRateLimitedRecovers(t *testing.T) {
	calls := 0
	err := RetryRateLimited(context.Background(), testLogger(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errs.ErrRateLimited
		}
		return nil
	})
	if err != nil {
		t.Fatalf("got %v, want success after backoff", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryRateLimitedExhausts(t *testing.T) {
	calls := 0
	err := RetryRateLimited(context.Background(), testLogger(), 3, time.Millisecond, func() error {
		calls++
		return errs.ErrRateLimited
	})
	if !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("got %v, want the final rate-limit error", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want exactly the attempt budget", calls)
	}
}

func TestRetryRateLimitedNoRetryOnNoData(t *testing.T) {
	calls := 0
	err := RetryRateLimited(context.Background(), testLogger(), 5, time.Millisecond, func() error {
		calls++
		return errs.ErrNoData
	})
	if !errors.Is(err, errs.ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times for a no-data error, want 1", calls)
	}
}

func TestThrottleEnforcesSpacing(t *testing.T) {
	throttle := NewThrottle(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := throttle.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("three requests took %s, want at least two spacing intervals", elapsed)
	}
}

func TestThrottleDisabled(t *testing.T) {
	throttle := NewThrottle(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := throttle.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("disabled throttle took %s", elapsed)
	}
}
