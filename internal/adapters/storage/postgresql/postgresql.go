package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"bondflow/internal/config"
	"bondflow/internal/domain/models"
)

// schema creates the pricing tables. The uniqueness constraints on
// (instrument_id, price_date) and (curve_date, tenor) are the second
// line of defense behind the application-level de-dup checks.
const schema = `
CREATE TABLE IF NOT EXISTS current_pricing (
	instrument_id   TEXT PRIMARY KEY,
	price_percent   DOUBLE PRECISION NOT NULL,
	ytm_bps         INTEGER,
	spread_bps      INTEGER,
	benchmark_tenor TEXT,
	source          TEXT NOT NULL,
	staleness_days  INTEGER NOT NULL,
	staleness       TEXT NOT NULL,
	trade_date      DATE,
	fetched_at      TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS historical_pricing (
	instrument_id TEXT NOT NULL,
	price_date    DATE NOT NULL,
	price_percent DOUBLE PRECISION NOT NULL,
	volume        BIGINT NOT NULL DEFAULT 0,
	ytm_bps       INTEGER,
	spread_bps    INTEGER,
	source        TEXT NOT NULL,
	UNIQUE (instrument_id, price_date)
);
CREATE TABLE IF NOT EXISTS treasury_yields (
	curve_date    DATE NOT NULL,
	tenor         TEXT NOT NULL,
	yield_percent DOUBLE PRECISION NOT NULL,
	UNIQUE (curve_date, tenor)
);
`

// Adapter implements the StoragePort and RegistryPort interfaces for
// PostgreSQL.
type Adapter struct {
	db *sql.DB
}

// New creates a new PostgreSQL adapter and ensures the schema exists.
func New(cfg config.DatabaseConfig) (*Adapter, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &Adapter{db: db}, nil
}

// UpsertCurrentPricing writes the whole current pricing record in one
// statement, so a record is always fully updated or left untouched.
func (a *Adapter) UpsertCurrentPricing(ctx context.Context, rec models.CurrentPricingRecord) error {
	query := `INSERT INTO current_pricing
		(instrument_id, price_percent, ytm_bps, spread_bps, benchmark_tenor,
		 source, staleness_days, staleness, trade_date, fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (instrument_id) DO UPDATE SET
		price_percent = EXCLUDED.price_percent,
		ytm_bps = EXCLUDED.ytm_bps,
		spread_bps = EXCLUDED.spread_bps,
		benchmark_tenor = EXCLUDED.benchmark_tenor,
		source = EXCLUDED.source,
		staleness_days = EXCLUDED.staleness_days,
		staleness = EXCLUDED.staleness,
		trade_date = EXCLUDED.trade_date,
		fetched_at = EXCLUDED.fetched_at`

	_, err := a.db.ExecContext(ctx, query,
		rec.InstrumentID, rec.PricePercent, nullInt(rec.YTMBps), nullInt(rec.SpreadBps),
		rec.BenchmarkTenor, string(rec.Source), rec.StalenessDays, string(rec.Staleness),
		nullTime(rec.TradeDate), rec.FetchedAt)
	return err
}

// GetCurrentPricing returns the current pricing record for an
// instrument, or nil if none exists.
func (a *Adapter) GetCurrentPricing(ctx context.Context, instrumentID string) (*models.CurrentPricingRecord, error) {
	query := `SELECT instrument_id, price_percent, ytm_bps, spread_bps, benchmark_tenor,
			source, staleness_days, staleness, trade_date, fetched_at
		FROM current_pricing WHERE instrument_id = $1`

	rec, err := scanCurrent(a.db.QueryRowContext(ctx, query, instrumentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// ListCurrentPriced returns every current record carrying a price.
func (a *Adapter) ListCurrentPriced(ctx context.Context) ([]models.CurrentPricingRecord, error) {
	query := `SELECT instrument_id, price_percent, ytm_bps, spread_bps, benchmark_tenor,
			source, staleness_days, staleness, trade_date, fetched_at
		FROM current_pricing WHERE price_percent > 0 ORDER BY instrument_id`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.CurrentPricingRecord
	for rows.Next() {
		rec, err := scanCurrent(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// LatestActualTrade returns the most recent historical row backed by an
// actual trade, never a prior estimate.
func (a *Adapter) LatestActualTrade(ctx context.Context, instrumentID string) (*models.HistoricalPriceRecord, error) {
	query := `SELECT instrument_id, price_date, price_percent, volume, ytm_bps, spread_bps, source
		FROM historical_pricing
		WHERE instrument_id = $1 AND source <> 'estimated'
		ORDER BY price_date DESC
		LIMIT 1`

	var rec models.HistoricalPriceRecord
	var ytm, spread sql.NullInt64
	var source string
	err := a.db.QueryRowContext(ctx, query, instrumentID).Scan(
		&rec.InstrumentID, &rec.Date, &rec.PricePercent, &rec.Volume, &ytm, &spread, &source)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rec.YTMBps = intPtr(ytm)
	rec.SpreadBps = intPtr(spread)
	rec.Source = models.PriceSource(source)
	return &rec, nil
}

// HistoricalDates returns the dates already recorded for an instrument
// within [from, to], keyed by their 2006-01-02 form.
func (a *Adapter) HistoricalDates(ctx context.Context, instrumentID string, from, to time.Time) (map[string]bool, error) {
	query := `SELECT price_date FROM historical_pricing
		WHERE instrument_id = $1 AND price_date BETWEEN $2 AND $3`

	rows, err := a.db.QueryContext(ctx, query, instrumentID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make(map[string]bool)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates[d.Format("2006-01-02")] = true
	}
	return dates, rows.Err()
}

// InsertHistorical writes a batch of historical rows. A conflicting
// (instrument, date) row keeps its price; only missing derived fields
// are filled in, which makes concurrent backfill re-runs safe.
func (a *Adapter) InsertHistorical(ctx context.Context, recs []models.HistoricalPriceRecord) error {
	if len(recs) == 0 {
		return nil
	}

	query := `INSERT INTO historical_pricing
		(instrument_id, price_date, price_percent, volume, ytm_bps, spread_bps, source)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (instrument_id, price_date) DO UPDATE SET
		ytm_bps = COALESCE(historical_pricing.ytm_bps, EXCLUDED.ytm_bps),
		spread_bps = COALESCE(historical_pricing.spread_bps, EXCLUDED.spread_bps)`

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err := stmt.ExecContext(ctx, rec.InstrumentID, rec.Date, rec.PricePercent,
			rec.Volume, nullInt(rec.YTMBps), nullInt(rec.SpreadBps), string(rec.Source))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveTreasuryYields persists benchmark yield points, ignoring pairs
// already present.
func (a *Adapter) SaveTreasuryYields(ctx context.Context, points []models.TreasuryYieldPoint) error {
	if len(points) == 0 {
		return nil
	}

	query := `INSERT INTO treasury_yields (curve_date, tenor, yield_percent)
		VALUES ($1, $2, $3)
		ON CONFLICT (curve_date, tenor) DO NOTHING`

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.Date, string(p.Tenor), p.YieldPercent); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// TreasuryCurveAsOf returns the curve for the latest date at or before
// asOf; nil when no earlier curve exists.
func (a *Adapter) TreasuryCurveAsOf(ctx context.Context, asOf time.Time) ([]models.TreasuryYieldPoint, error) {
	query := `SELECT curve_date, tenor, yield_percent
		FROM treasury_yields
		WHERE curve_date = (
			SELECT MAX(curve_date) FROM treasury_yields WHERE curve_date <= $1
		)`

	rows, err := a.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.TreasuryYieldPoint
	for rows.Next() {
		var p models.TreasuryYieldPoint
		var tenor string
		if err := rows.Scan(&p.Date, &tenor, &p.YieldPercent); err != nil {
			return nil, err
		}
		p.Tenor = models.Tenor(tenor)
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close closes the storage connection.
func (a *Adapter) Close() error {
	return a.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCurrent(row rowScanner) (*models.CurrentPricingRecord, error) {
	var rec models.CurrentPricingRecord
	var ytm, spread sql.NullInt64
	var tenor sql.NullString
	var tradeDate sql.NullTime
	var source, staleness string

	err := row.Scan(&rec.InstrumentID, &rec.PricePercent, &ytm, &spread, &tenor,
		&source, &rec.StalenessDays, &staleness, &tradeDate, &rec.FetchedAt)
	if err != nil {
		return nil, err
	}

	rec.YTMBps = intPtr(ytm)
	rec.SpreadBps = intPtr(spread)
	rec.BenchmarkTenor = tenor.String
	rec.Source = models.PriceSource(source)
	rec.Staleness = models.StalenessClass(staleness)
	if tradeDate.Valid {
		d := tradeDate.Time
		rec.TradeDate = &d
	}
	return &rec, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
