package concurrency

import (
	"context"
	"log/slog"
	"sync"

	"bondflow/internal/domain/models"
)

// ResolveOutcome is one worker's result for a single instrument.
type ResolveOutcome struct {
	Instrument models.Instrument
	Result     models.PriceResult
	Err        error
}

// ResolveFunc resolves a single instrument's price.
type ResolveFunc func(ctx context.Context, inst models.Instrument) (models.PriceResult, error)

// WorkerPool fans a batch of instruments out to a fixed number of
// resolution workers and fans their outcomes back in. Each instrument
// appears on the input channel at most once per cycle, so no two
// workers ever write the same instrument's current record concurrently.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Run processes every instrument on jobs with resolve and returns a
// channel of outcomes. The outcome channel is closed once all workers
// have drained the input.
func (wp *WorkerPool) Run(ctx context.Context, jobs <-chan models.Instrument, resolve ResolveFunc) <-chan ResolveOutcome {
	out := make(chan ResolveOutcome)

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i, jobs, out, resolve)
	}

	go func() {
		wp.wg.Wait()
		close(out)
	}()

	return out
}

// Stop stops the worker pool.
func (wp *WorkerPool) Stop() {
	close(wp.done)
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int, jobs <-chan models.Instrument, out chan<- ResolveOutcome, resolve ResolveFunc) {
	defer wp.wg.Done()

	wp.logger.Debug("resolution worker started", "worker_id", id)
	defer wp.logger.Debug("resolution worker stopped", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			return
		case <-wp.done:
			return
		case inst, ok := <-jobs:
			if !ok {
				return
			}

			result, err := resolve(ctx, inst)
			outcome := ResolveOutcome{Instrument: inst, Result: result, Err: err}

			select {
			case out <- outcome:
			case <-ctx.Done():
				return
			case <-wp.done:
				return
			}
		}
	}
}
