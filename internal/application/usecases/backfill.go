package usecases

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"bondflow/internal/application/ports"
	"bondflow/internal/concurrency"
	"bondflow/internal/curve"
	"bondflow/internal/domain/errs"
	"bondflow/internal/domain/models"
	"bondflow/internal/quant"
)

// backfillBatchSize is how many historical rows are written per
// storage call.
const backfillBatchSize = 50

// Backfiller loads an instrument's full trade history from the market
// data gateway into the historical store, computing derived fields from
// the curve in effect on each trade date.
type Backfiller struct {
	storage ports.StoragePort
	gateway ports.MarketDataPort
	curves  *curve.Store
	logger  *slog.Logger

	retryAttempts int
	retryBase     time.Duration
}

// NewBackfiller creates a backfill job runner.
func NewBackfiller(storage ports.StoragePort, gateway ports.MarketDataPort, curves *curve.Store, logger *slog.Logger, retryAttempts int, retryBase time.Duration) *Backfiller {
	return &Backfiller{
		storage:       storage,
		gateway:       gateway,
		curves:        curves,
		logger:        logger,
		retryAttempts: retryAttempts,
		retryBase:     retryBase,
	}
}

// Backfill fetches the price series for an instrument over [from, to]
// and writes the dates not already present, in fixed-size batches. The
// existence check is application level; the storage layer's
// insert-or-update-derived semantics make concurrent re-runs safe, so
// running the same backfill twice saves zero additional rows the second
// time.
func (b *Backfiller) Backfill(ctx context.Context, inst models.Instrument, from, to time.Time) models.BackfillStats {
	stats := models.BackfillStats{InstrumentID: inst.ID}
	jobID := uuid.NewString()
	log := b.logger.With("job_id", jobID, "instrument", inst.ID)

	var points []models.PricePoint
	err := concurrency.RetryRateLimited(ctx, log, b.retryAttempts, b.retryBase, func() error {
		var ferr error
		points, ferr = b.gateway.GetPriceHistory(ctx, inst.ISIN, from, to)
		return ferr
	})
	if err != nil {
		stats.Err = err.Error()
		log.Warn("backfill: history fetch failed", "error", err)
		return stats
	}
	stats.PricesFound = len(points)
	if len(points) == 0 {
		return stats
	}

	existing, err := b.storage.HistoricalDates(ctx, inst.ID, from, to)
	if err != nil {
		stats.Err = err.Error()
		log.Warn("backfill: existing-dates lookup failed", "error", err)
		return stats
	}

	var batch []models.HistoricalPriceRecord
	for _, p := range points {
		day := dateOnly(p.Date)
		if existing[day.Format("2006-01-02")] {
			stats.SkippedExisting++
			continue
		}
		batch = append(batch, b.toHistorical(ctx, inst, day, p))

		if len(batch) >= backfillBatchSize {
			if err := b.flush(ctx, batch, &stats, log); err != nil {
				return stats
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		_ = b.flush(ctx, batch, &stats, log)
	}

	log.Info("backfill complete",
		"found", stats.PricesFound, "saved", stats.PricesSaved,
		"skipped_existing", stats.SkippedExisting)
	return stats
}

func (b *Backfiller) flush(ctx context.Context, batch []models.HistoricalPriceRecord, stats *models.BackfillStats, log *slog.Logger) error {
	if err := b.storage.InsertHistorical(ctx, batch); err != nil {
		stats.Err = err.Error()
		log.Warn("backfill: batch insert failed", "batch_size", len(batch), "error", err)
		return err
	}
	stats.PricesSaved += len(batch)
	return nil
}

// toHistorical builds a historical record from one gateway price point,
// deriving yield and spread against that date's benchmark curve. A
// missing curve or failed solve leaves the derived fields null; the
// price is always kept.
func (b *Backfiller) toHistorical(ctx context.Context, inst models.Instrument, day time.Time, p models.PricePoint) models.HistoricalPriceRecord {
	rec := models.HistoricalPriceRecord{
		InstrumentID: inst.ID,
		Date:         day,
		PricePercent: p.PricePercent,
		Volume:       p.Volume,
		YTMBps:       p.YieldBps,
		Source:       models.SourceHistorical,
	}

	if rec.YTMBps == nil && !inst.Maturity.IsZero() && inst.Maturity.After(day) {
		solved, err := quant.SolveYTM(quant.YTMInput{
			CleanPricePercent: p.PricePercent,
			CouponBps:         inst.CouponBps,
			Maturity:          inst.Maturity,
			Settlement:        day,
			Frequency:         2,
		})
		if err == nil {
			ytmBps := int(math.Round(solved.YieldPercent * 100))
			rec.YTMBps = &ytmBps
		}
	}

	if rec.YTMBps != nil && !inst.Maturity.IsZero() {
		years := inst.Maturity.Sub(day).Hours() / 24.0 / 365.25
		tenor := curve.SelectBenchmark(years)
		benchPercent, err := b.curves.HistoricalYieldFor(ctx, tenor, day)
		switch {
		case err == nil:
			spreadBps := *rec.YTMBps - int(math.Round(benchPercent*100))
			rec.SpreadBps = &spreadBps
		case errs.IsUpstreamUnavailable(err):
			b.logger.Warn("backfill: historical curve lookup failed", "date", day.Format("2006-01-02"), "error", err)
		default:
			// No curve at or before this date; spread stays null.
		}
	}

	return rec
}
