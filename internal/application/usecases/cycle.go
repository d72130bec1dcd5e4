package usecases

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"bondflow/internal/application/ports"
	"bondflow/internal/concurrency"
	"bondflow/internal/domain/models"
)

// CycleRunner drives the time-triggered scan cycles: every interval it
// takes a bounded batch of active instruments and resolves them in
// parallel. Cycles never overlap — a tick that arrives while a cycle is
// still running is skipped, so all writes to one instrument's current
// record stay serialized.
type CycleRunner struct {
	registry  ports.RegistryPort
	resolver  *Resolver
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	workers   int

	running atomic.Bool

	mu   sync.RWMutex
	last models.CycleStats
}

// NewCycleRunner creates a scan cycle runner.
func NewCycleRunner(registry ports.RegistryPort, resolver *Resolver, logger *slog.Logger, interval time.Duration, batchSize, workers int) *CycleRunner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	if workers <= 0 {
		workers = 4
	}
	return &CycleRunner{
		registry:  registry,
		resolver:  resolver,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		workers:   workers,
	}
}

// Run ticks until the context is cancelled. Cancellation between
// instruments is safe: each current record is written whole by the
// resolver or not at all.
func (c *CycleRunner) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// First cycle immediately rather than one interval in.
	c.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.RunCycle(ctx)
		}
	}
}

// RunCycle executes a single scan cycle, unless one is already in
// flight, in which case it reports false and does nothing.
func (c *CycleRunner) RunCycle(ctx context.Context) bool {
	if !c.running.CompareAndSwap(false, true) {
		c.logger.Warn("scan cycle still running, skipping tick")
		return false
	}
	defer c.running.Store(false)

	stats := models.CycleStats{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := c.logger.With("cycle_id", stats.CycleID)

	instruments, err := c.registry.ListActive(ctx, c.batchSize)
	if err != nil {
		log.Error("scan cycle: listing instruments failed", "error", err)
		stats.Errors++
		stats.FinishedAt = time.Now()
		c.store(stats)
		return true
	}

	jobs := make(chan models.Instrument, len(instruments))
	for _, inst := range instruments {
		jobs <- inst
	}
	close(jobs)

	pool := concurrency.NewWorkerPool(c.workers, log)
	for outcome := range pool.Run(ctx, jobs, c.resolver.ResolveAndStore) {
		switch {
		case outcome.Err != nil:
			log.Warn("scan cycle: instrument failed", "instrument", outcome.Instrument.ID, "error", outcome.Err)
			stats.Errors++
		case !outcome.Result.HasPrice():
			log.Debug("scan cycle: no price", "instrument", outcome.Instrument.ID, "reason", outcome.Result.Reason)
			stats.NoPrice++
		default:
			stats.Resolved++
		}
	}

	stats.FinishedAt = time.Now()
	c.store(stats)
	log.Info("scan cycle complete",
		"instruments", len(instruments), "resolved", stats.Resolved,
		"no_price", stats.NoPrice, "errors", stats.Errors,
		"elapsed", stats.FinishedAt.Sub(stats.StartedAt).String())
	return true
}

// LastStats returns the most recent completed cycle's stats.
func (c *CycleRunner) LastStats() models.CycleStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Running reports whether a cycle is currently in flight.
func (c *CycleRunner) Running() bool {
	return c.running.Load()
}

func (c *CycleRunner) store(stats models.CycleStats) {
	c.mu.Lock()
	c.last = stats
	c.mu.Unlock()
}
