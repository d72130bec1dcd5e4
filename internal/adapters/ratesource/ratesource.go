// Package ratesource implements the RateSourcePort against the
// benchmark rate publisher's HTTP API.
package ratesource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"bondflow/internal/application/ports"
	"bondflow/internal/config"
	"bondflow/internal/domain/errs"
	"bondflow/internal/domain/models"
)

// Adapter implements the RateSourcePort interface.
type Adapter struct {
	baseURL string
	client  *http.Client
}

// New creates a new rate source adapter.
func New(cfg config.RateSourceConfig) ports.RateSourcePort {
	return &Adapter{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// curvePayload is the wire form of the current curve: yields in percent,
// quoted as strings, keyed by tenor label.
type curvePayload struct {
	Yields map[string]string `json:"yields"`
}

type seriesRow struct {
	Date   string            `json:"date"`
	Yields map[string]string `json:"yields"`
}

type seriesPayload struct {
	Rows []seriesRow `json:"rows"`
}

// GetCurrentCurve returns today's benchmark yields keyed by tenor.
func (a *Adapter) GetCurrentCurve(ctx context.Context) (map[models.Tenor]float64, error) {
	var payload curvePayload
	if err := a.get(ctx, "/v1/treasury/current", &payload); err != nil {
		return nil, err
	}
	if len(payload.Yields) == 0 {
		return nil, errs.ErrNoData
	}

	curve := make(map[models.Tenor]float64, len(payload.Yields))
	for label, raw := range payload.Yields {
		y, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		curve[models.Tenor(label)] = y.InexactFloat64()
	}
	return curve, nil
}

// GetDailySeries returns every daily yield point published for a year.
func (a *Adapter) GetDailySeries(ctx context.Context, year int) ([]models.TreasuryYieldPoint, error) {
	var payload seriesPayload
	if err := a.get(ctx, fmt.Sprintf("/v1/treasury/daily/%d", year), &payload); err != nil {
		return nil, err
	}

	var points []models.TreasuryYieldPoint
	for _, row := range payload.Rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		for label, raw := range row.Yields {
			y, err := decimal.NewFromString(raw)
			if err != nil {
				continue
			}
			points = append(points, models.TreasuryYieldPoint{
				Date:         date,
				Tenor:        models.Tenor(label),
				YieldPercent: y.InexactFloat64(),
			})
		}
	}
	if len(points) == 0 {
		return nil, errs.ErrNoData
	}
	return points, nil
}

func (a *Adapter) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("rate source %s: %w", path, errs.ErrGatewayTimeout)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("rate source %s: %w", path, errs.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("rate source %s: %w", path, errs.ErrNoData)
	default:
		return fmt.Errorf("rate source %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rate source %s: decode: %w", path, err)
	}
	return nil
}
