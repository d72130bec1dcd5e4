package ports

import (
	"context"
	"time"

	"bondflow/internal/domain/models"
)

// StoragePort defines the interface for persisted pricing data.
type StoragePort interface {
	// UpsertCurrentPricing writes an instrument's current pricing record
	// in a single atomic statement: price, derived fields and timestamps
	// together, never partially.
	UpsertCurrentPricing(ctx context.Context, rec models.CurrentPricingRecord) error

	// GetCurrentPricing returns the current pricing record for an
	// instrument, or nil if none exists yet.
	GetCurrentPricing(ctx context.Context, instrumentID string) (*models.CurrentPricingRecord, error)

	// ListCurrentPriced returns every current pricing record carrying a
	// non-zero price, for the daily snapshot.
	ListCurrentPriced(ctx context.Context) ([]models.CurrentPricingRecord, error)

	// LatestActualTrade returns the most recent historical record for an
	// instrument whose source is an actual trade (never an estimate), or
	// nil if there is none.
	LatestActualTrade(ctx context.Context, instrumentID string) (*models.HistoricalPriceRecord, error)

	// HistoricalDates returns the set of dates (formatted 2006-01-02)
	// already recorded for an instrument within [from, to], for
	// application-level de-duplication before a backfill write.
	HistoricalDates(ctx context.Context, instrumentID string, from, to time.Time) (map[string]bool, error)

	// InsertHistorical writes a batch of historical records. An existing
	// (instrument, date) row keeps its price and only has missing
	// derived fields filled in, so concurrent re-runs are safe.
	InsertHistorical(ctx context.Context, recs []models.HistoricalPriceRecord) error

	// SaveTreasuryYields persists benchmark yield points, ignoring
	// (date, tenor) pairs already present.
	SaveTreasuryYields(ctx context.Context, points []models.TreasuryYieldPoint) error

	// TreasuryCurveAsOf returns the curve for the latest date at or
	// before asOf, or nil if no earlier curve exists. Later curves are
	// never consulted.
	TreasuryCurveAsOf(ctx context.Context, asOf time.Time) ([]models.TreasuryYieldPoint, error)

	// Close closes the storage connection.
	Close() error
}
