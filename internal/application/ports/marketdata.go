package ports

import (
	"context"
	"time"

	"bondflow/internal/domain/models"
)

// InstrumentProfile is the static reference data a gateway publishes for
// an instrument.
type InstrumentProfile struct {
	ISIN      string    `json:"isin"`
	Issuer    string    `json:"issuer"`
	CouponBps int       `json:"coupon_bps"`
	Maturity  time.Time `json:"maturity"`
	Rating    string    `json:"rating"`
}

// MarketDataPort defines the interface for the external market data
// gateway. Implementations distinguish rate-limit, auth and no-data
// conditions via the errs sentinels so each tier can apply its own
// retry policy.
type MarketDataPort interface {
	// GetLivePrice returns the most recent trade for an instrument,
	// keyed by its alternate identifier (ISIN).
	GetLivePrice(ctx context.Context, isin string) (*models.PricePoint, error)

	// GetPriceHistory returns the full trade series for an instrument
	// within [from, to].
	GetPriceHistory(ctx context.Context, isin string, from, to time.Time) ([]models.PricePoint, error)

	// GetInstrumentProfile returns static reference data for an
	// instrument.
	GetInstrumentProfile(ctx context.Context, isin string) (*InstrumentProfile, error)

	// Name identifies the gateway for logging.
	Name() string
}

// RateSourcePort defines the interface for the benchmark rate source.
type RateSourcePort interface {
	// GetCurrentCurve returns today's benchmark yields in percent,
	// keyed by tenor.
	GetCurrentCurve(ctx context.Context) (map[models.Tenor]float64, error)

	// GetDailySeries returns every daily yield point published for a
	// calendar year.
	GetDailySeries(ctx context.Context, year int) ([]models.TreasuryYieldPoint, error)
}

// RegistryPort defines the read-only interface onto the instrument
// registry, which is owned by an external system.
type RegistryPort interface {
	// GetInstrument returns a single instrument by primary identifier.
	GetInstrument(ctx context.Context, id string) (*models.Instrument, error)

	// ListActive returns up to limit active instruments.
	ListActive(ctx context.Context, limit int) ([]models.Instrument, error)
}
