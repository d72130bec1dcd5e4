package postgresql

import (
	"context"
	"database/sql"

	"bondflow/internal/domain/models"
)

// The instruments table is owned by the external instrument registry;
// this adapter only ever reads it.

// GetInstrument returns a single instrument by primary identifier, or
// nil if unknown.
func (a *Adapter) GetInstrument(ctx context.Context, id string) (*models.Instrument, error) {
	query := `SELECT id, isin, coupon_bps, maturity, rating, seniority, active
		FROM instruments WHERE id = $1`

	inst, err := scanInstrument(a.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return inst, nil
}

// ListActive returns up to limit active instruments.
func (a *Adapter) ListActive(ctx context.Context, limit int) ([]models.Instrument, error) {
	query := `SELECT id, isin, coupon_bps, maturity, rating, seniority, active
		FROM instruments WHERE active ORDER BY id LIMIT $1`

	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instruments []models.Instrument
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, *inst)
	}
	return instruments, rows.Err()
}

func scanInstrument(row rowScanner) (*models.Instrument, error) {
	var inst models.Instrument
	var isin, rating, seniority sql.NullString
	var coupon sql.NullInt64
	var maturity sql.NullTime

	err := row.Scan(&inst.ID, &isin, &coupon, &maturity, &rating, &seniority, &inst.Active)
	if err != nil {
		return nil, err
	}

	inst.ISIN = isin.String
	inst.CouponBps = int(coupon.Int64)
	if maturity.Valid {
		inst.Maturity = maturity.Time
	}
	inst.Rating = rating.String
	inst.Seniority = models.Seniority(seniority.String)
	return &inst, nil
}
