package usecases

import (
	"context"
	"log/slog"
	"time"

	"bondflow/internal/application/ports"
	"bondflow/internal/domain/models"
)

// Snapshotter copies current pricing records into the historical store,
// one row per (instrument, trading day), idempotently.
type Snapshotter struct {
	storage ports.StoragePort
	logger  *slog.Logger
	now     func() time.Time
}

// NewSnapshotter creates a daily snapshot writer.
func NewSnapshotter(storage ports.StoragePort, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{storage: storage, logger: logger, now: time.Now}
}

// SetClock overrides the snapshotter's clock. Test use only.
func (s *Snapshotter) SetClock(now func() time.Time) {
	s.now = now
}

// RunDailySnapshot copies every current pricing record with a price into
// a historical record dated today. Instruments already snapshotted today
// are skipped before the write, so re-running the snapshot the same day
// has zero duplicate effect; the (instrument, date) uniqueness
// constraint backstops concurrent writers. Per-instrument failures are
// counted and never abort the run.
func (s *Snapshotter) RunDailySnapshot(ctx context.Context) models.SnapshotStats {
	var stats models.SnapshotStats

	today := dateOnly(s.now())

	records, err := s.storage.ListCurrentPriced(ctx)
	if err != nil {
		s.logger.Error("daily snapshot: listing current pricing failed", "error", err)
		stats.Errors++
		return stats
	}
	stats.Total = len(records)

	for _, rec := range records {
		existing, err := s.storage.HistoricalDates(ctx, rec.InstrumentID, today, today)
		if err != nil {
			s.logger.Warn("daily snapshot: existence check failed", "instrument", rec.InstrumentID, "error", err)
			stats.Errors++
			continue
		}
		if existing[today.Format("2006-01-02")] {
			stats.SkippedExisting++
			continue
		}

		hist := models.HistoricalPriceRecord{
			InstrumentID: rec.InstrumentID,
			Date:         today,
			PricePercent: rec.PricePercent,
			YTMBps:       rec.YTMBps,
			SpreadBps:    rec.SpreadBps,
			Source:       rec.Source,
		}
		if err := s.storage.InsertHistorical(ctx, []models.HistoricalPriceRecord{hist}); err != nil {
			s.logger.Warn("daily snapshot: insert failed", "instrument", rec.InstrumentID, "error", err)
			stats.Errors++
			continue
		}
		stats.Copied++
	}

	s.logger.Info("daily snapshot complete",
		"total", stats.Total, "copied", stats.Copied,
		"skipped_existing", stats.SkippedExisting, "errors", stats.Errors)
	return stats
}

// dateOnly truncates a timestamp to midnight UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
