// Package curve implements the benchmark yield curve store: a TTL-cached
// view of the current treasury curve, lookups into persisted historical
// curves with a strict no-look-ahead rule, and the mapping from a bond's
// remaining life onto a standard benchmark tenor.
package curve

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bondflow/internal/application/ports"
	"bondflow/internal/domain/errs"
	"bondflow/internal/domain/models"
)

// DefaultTTL is how long a fetched tenor yield is served before a
// refresh is attempted.
const DefaultTTL = time.Hour

// defaultCurve is the conservative fallback served when the rate source
// has never been reachable. Roughly a flat recent-history treasury curve;
// estimates made from it are still tagged with their usual confidence,
// the point is that valuation keeps working through an outage.
var defaultCurve = map[models.Tenor]float64{
	models.Tenor3Mo: 4.50,
	models.Tenor6Mo: 4.45,
	models.Tenor1Y:  4.35,
	models.Tenor2Y:  4.20,
	models.Tenor3Y:  4.15,
	models.Tenor5Y:  4.20,
	models.Tenor7Y:  4.30,
	models.Tenor10Y: 4.40,
	models.Tenor20Y: 4.70,
	models.Tenor30Y: 4.60,
}

// benchmarkBreakpoints are the upper bounds, in years, of each tenor's
// bucket. A duration strictly below a bound maps to that bound's tenor;
// exactly at a bound it maps to the next (longer) tenor. The bounds are
// midpoints between adjacent standard tenors.
var benchmarkBreakpoints = []struct {
	upperYears float64
	tenor      models.Tenor
}{
	{0.375, models.Tenor3Mo},
	{0.75, models.Tenor6Mo},
	{1.5, models.Tenor1Y},
	{2.5, models.Tenor2Y},
	{4.0, models.Tenor3Y},
	{6.0, models.Tenor5Y},
	{8.5, models.Tenor7Y},
	{15.0, models.Tenor10Y},
	{25.0, models.Tenor20Y},
}

// SelectBenchmark maps a time to maturity in years onto the nearest of
// the ten standard tenors. The breakpoint rule is fixed: at a midpoint
// the longer tenor wins.
func SelectBenchmark(years float64) models.Tenor {
	for _, bp := range benchmarkBreakpoints {
		if years < bp.upperYears {
			return bp.tenor
		}
	}
	return models.Tenor30Y
}

// cacheEntry is one tenor's cached current yield.
type cacheEntry struct {
	valuePercent float64
	fetchedAt    time.Time
}

// Store serves benchmark yields. Current yields come from a per-tenor
// TTL cache refreshed lazily from the rate source; historical yields
// come from storage with a nearest-earlier-date rule.
type Store struct {
	rates   ports.RateSourcePort
	storage ports.StoragePort
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[models.Tenor]cacheEntry
}

// NewStore creates a curve store. A zero ttl means DefaultTTL.
func NewStore(rates ports.RateSourcePort, storage ports.StoragePort, logger *slog.Logger, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		rates:   rates,
		storage: storage,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[models.Tenor]cacheEntry),
	}
}

// SetClock overrides the store's clock. Test use only.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// YieldFor returns the current yield in percent for a tenor. The cached
// value is served while fresh; on expiry the whole curve is refreshed
// from the rate source. A refresh failure is fail-soft: the last good
// value is served if one exists, otherwise the documented default curve.
// Valuation never hard-fails on rate-source unavailability.
func (s *Store) YieldFor(ctx context.Context, tenor models.Tenor) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[tenor]; ok && s.now().Sub(entry.fetchedAt) < s.ttl {
		return entry.valuePercent
	}

	fetched, err := s.rates.GetCurrentCurve(ctx)
	if err != nil {
		s.logger.Warn("benchmark curve refresh failed, serving fallback", "tenor", tenor, "error", err)
		if entry, ok := s.entries[tenor]; ok {
			return entry.valuePercent
		}
		return defaultCurve[tenor]
	}

	fetchedAt := s.now()
	for t, y := range fetched {
		s.entries[t] = cacheEntry{valuePercent: y, fetchedAt: fetchedAt}
	}

	if entry, ok := s.entries[tenor]; ok {
		return entry.valuePercent
	}
	// Rate source answered but without this tenor.
	return defaultCurve[tenor]
}

// HistoricalYieldFor returns the yield for a tenor as of a date. The
// exact date's curve is preferred; absent that, the nearest earlier
// date's curve is used — never a later one, to avoid look-ahead bias.
// With no curve at or before the date it returns ErrCurveUnavailable,
// which callers must handle explicitly.
func (s *Store) HistoricalYieldFor(ctx context.Context, tenor models.Tenor, asOf time.Time) (float64, error) {
	points, err := s.storage.TreasuryCurveAsOf(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, errs.ErrCurveUnavailable
	}
	for _, p := range points {
		if p.Tenor == tenor {
			return p.YieldPercent, nil
		}
	}
	return 0, errs.ErrCurveUnavailable
}

// SaveDailySeries fetches a calendar year of benchmark yields from the
// rate source and persists it, skipping (date, tenor) points already
// stored. Supports historical backfill.
func (s *Store) SaveDailySeries(ctx context.Context, year int) (int, error) {
	points, err := s.rates.GetDailySeries(ctx, year)
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, nil
	}
	if err := s.storage.SaveTreasuryYields(ctx, points); err != nil {
		return 0, err
	}
	return len(points), nil
}
