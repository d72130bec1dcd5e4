package models

import "time"

// PriceSource identifies which resolution tier produced a price.
type PriceSource string

const (
	SourceLive       PriceSource = "live"
	SourceHistorical PriceSource = "historical"
	SourceEstimated  PriceSource = "estimated"
	SourceNone       PriceSource = "none"
)

// Confidence grades a model estimate by the quality of its rating input.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// StalenessClass buckets the age of the trade backing a price.
type StalenessClass string

const (
	StalenessFresh     StalenessClass = "fresh"      // <= 1 day
	StalenessRecent    StalenessClass = "recent"     // <= 7 days
	StalenessStale     StalenessClass = "stale"      // <= 30 days
	StalenessVeryStale StalenessClass = "very_stale" // > 30 days or unknown
)

// ClassifyStaleness maps an age in days onto a staleness class. A negative
// age means the trade date is unknown and is treated as maximally stale.
func ClassifyStaleness(ageDays int) StalenessClass {
	switch {
	case ageDays < 0:
		return StalenessVeryStale
	case ageDays <= 1:
		return StalenessFresh
	case ageDays <= 7:
		return StalenessRecent
	case ageDays <= 30:
		return StalenessStale
	default:
		return StalenessVeryStale
	}
}

// PricePoint is a single observed market price for an instrument.
type PricePoint struct {
	Date         time.Time `json:"date"`
	PricePercent float64   `json:"price_percent"`
	Volume       int64     `json:"volume"`
	YieldBps     *int      `json:"yield_bps,omitempty"`
}

// PriceResult is the outcome of one price resolution. When Source is
// SourceNone no price is available and Reason explains why; derived fields
// are pointers because a price can be valid while its derivations failed.
type PriceResult struct {
	InstrumentID   string         `json:"instrument_id"`
	PricePercent   float64        `json:"price_percent"`
	YTMBps         *int           `json:"ytm_bps,omitempty"`
	SpreadBps      *int           `json:"spread_bps,omitempty"`
	BenchmarkTenor string         `json:"benchmark_tenor,omitempty"`
	Source         PriceSource    `json:"source"`
	IsEstimated    bool           `json:"is_estimated"`
	Confidence     Confidence     `json:"confidence,omitempty"`
	StalenessDays  int            `json:"staleness_days"`
	Staleness      StalenessClass `json:"staleness"`
	TradeDate      *time.Time     `json:"trade_date,omitempty"`
	Reason         string         `json:"reason,omitempty"`
}

// HasPrice reports whether the result carries a usable price.
func (r PriceResult) HasPrice() bool {
	return r.Source != SourceNone && r.PricePercent > 0
}

// CurrentPricingRecord is the single live pricing row per instrument.
// It is only ever written whole: price, derived fields and timestamps
// together in one upsert.
type CurrentPricingRecord struct {
	InstrumentID   string         `json:"instrument_id" db:"instrument_id"`
	PricePercent   float64        `json:"price_percent" db:"price_percent"`
	YTMBps         *int           `json:"ytm_bps" db:"ytm_bps"`
	SpreadBps      *int           `json:"spread_bps" db:"spread_bps"`
	BenchmarkTenor string         `json:"benchmark_tenor" db:"benchmark_tenor"`
	Source         PriceSource    `json:"source" db:"source"`
	StalenessDays  int            `json:"staleness_days" db:"staleness_days"`
	Staleness      StalenessClass `json:"staleness" db:"staleness"`
	TradeDate      *time.Time     `json:"trade_date" db:"trade_date"`
	FetchedAt      time.Time      `json:"fetched_at" db:"fetched_at"`
}

// HistoricalPriceRecord is one append-only (instrument, date) price row.
// The price is immutable once written; derived fields may be filled later.
type HistoricalPriceRecord struct {
	InstrumentID string      `json:"instrument_id" db:"instrument_id"`
	Date         time.Time   `json:"date" db:"price_date"`
	PricePercent float64     `json:"price_percent" db:"price_percent"`
	Volume       int64       `json:"volume" db:"volume"`
	YTMBps       *int        `json:"ytm_bps" db:"ytm_bps"`
	SpreadBps    *int        `json:"spread_bps" db:"spread_bps"`
	Source       PriceSource `json:"source" db:"source"`
}

// SnapshotStats summarizes one daily snapshot run.
type SnapshotStats struct {
	Total           int `json:"total"`
	Copied          int `json:"copied"`
	SkippedExisting int `json:"skipped_existing"`
	Errors          int `json:"errors"`
}

// BackfillStats summarizes one backfill run for a single instrument.
type BackfillStats struct {
	InstrumentID    string `json:"instrument_id"`
	PricesFound     int    `json:"prices_found"`
	PricesSaved     int    `json:"prices_saved"`
	SkippedExisting int    `json:"skipped_existing"`
	Err             string `json:"error,omitempty"`
}

// CycleStats summarizes the most recent scan cycle.
type CycleStats struct {
	CycleID    string    `json:"cycle_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Resolved   int       `json:"resolved"`
	NoPrice    int       `json:"no_price"`
	Errors     int       `json:"errors"`
}
