package concurrency

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a fixed minimum delay between external requests.
// Safe for use from multiple workers; callers queue behind the mutex.
type Throttle struct {
	minInterval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewThrottle creates a throttle with the given minimum inter-request
// interval. A non-positive interval disables throttling.
func NewThrottle(minInterval time.Duration) *Throttle {
	return &Throttle{minInterval: minInterval}
}

// Wait blocks until the minimum interval since the previous request has
// elapsed, or the context is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.minInterval <= 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.last)
	if wait := t.minInterval - elapsed; wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	t.last = time.Now()
	return nil
}
