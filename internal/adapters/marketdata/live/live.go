// Package live implements the MarketDataPort against the bond market
// data gateway's HTTP API. HTTP status codes are mapped onto the errs
// sentinels so the engine can tell rate limits, auth failures and empty
// results apart, and a fixed inter-request throttle keeps the gateway's
// rate limiter out of the steady-state path.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"bondflow/internal/application/ports"
	"bondflow/internal/concurrency"
	"bondflow/internal/config"
	"bondflow/internal/domain/errs"
	"bondflow/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Adapter implements the MarketDataPort interface for the live gateway.
type Adapter struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	throttle *concurrency.Throttle
}

// New creates a new live gateway adapter.
func New(cfg config.GatewayConfig) ports.MarketDataPort {
	return &Adapter{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		throttle: concurrency.NewThrottle(time.Duration(cfg.RequestDelayMillis) * time.Millisecond),
	}
}

// Name identifies the gateway for logging.
func (a *Adapter) Name() string {
	return "live"
}

// pricePayload is the gateway's wire form for a single trade. Prices and
// yields are quoted as strings and parsed exactly before conversion to
// explicit-unit values.
type pricePayload struct {
	PricePercent string `json:"price"`
	Volume       int64  `json:"volume"`
	TradeDate    string `json:"trade_date"`
	YieldPercent string `json:"yield,omitempty"`
}

type historyPayload struct {
	Prices []pricePayload `json:"prices"`
}

type profilePayload struct {
	ISIN      string `json:"isin"`
	Issuer    string `json:"issuer"`
	CouponBps int    `json:"coupon_bps"`
	Maturity  string `json:"maturity"`
	Rating    string `json:"rating"`
}

// GetLivePrice returns the most recent trade for an instrument.
func (a *Adapter) GetLivePrice(ctx context.Context, isin string) (*models.PricePoint, error) {
	var payload pricePayload
	path := fmt.Sprintf("/v1/bonds/%s/price", url.PathEscape(isin))
	if err := a.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	return toPricePoint(payload)
}

// GetPriceHistory returns the full trade series within [from, to].
func (a *Adapter) GetPriceHistory(ctx context.Context, isin string, from, to time.Time) ([]models.PricePoint, error) {
	var payload historyPayload
	path := fmt.Sprintf("/v1/bonds/%s/history", url.PathEscape(isin))
	query := url.Values{
		"from": {from.Format(dateLayout)},
		"to":   {to.Format(dateLayout)},
	}
	if err := a.get(ctx, path, query, &payload); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		point, err := toPricePoint(p)
		if err != nil {
			// One malformed row does not poison the series.
			continue
		}
		points = append(points, *point)
	}
	if len(points) == 0 {
		return nil, errs.ErrNoData
	}
	return points, nil
}

// GetInstrumentProfile returns static reference data for an instrument.
func (a *Adapter) GetInstrumentProfile(ctx context.Context, isin string) (*ports.InstrumentProfile, error) {
	var payload profilePayload
	path := fmt.Sprintf("/v1/bonds/%s/profile", url.PathEscape(isin))
	if err := a.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}

	profile := &ports.InstrumentProfile{
		ISIN:      payload.ISIN,
		Issuer:    payload.Issuer,
		CouponBps: payload.CouponBps,
		Rating:    payload.Rating,
	}
	if payload.Maturity != "" {
		maturity, err := time.Parse(dateLayout, payload.Maturity)
		if err != nil {
			return nil, fmt.Errorf("gateway profile maturity %q: %w", payload.Maturity, err)
		}
		profile.Maturity = maturity
	}
	return profile, nil
}

// get performs a throttled, authenticated GET and decodes the response,
// mapping status codes onto the error taxonomy.
func (a *Adapter) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := a.throttle.Wait(ctx); err != nil {
		return err
	}

	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("gateway %s: %w", path, errs.ErrGatewayTimeout)
		}
		return fmt.Errorf("gateway %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("gateway %s: %w", path, errs.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("gateway %s: %w", path, errs.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("gateway %s: %w", path, errs.ErrNoData)
	case resp.StatusCode >= 500:
		return fmt.Errorf("gateway %s status %d: %w", path, resp.StatusCode, errs.ErrGatewayTimeout)
	default:
		return fmt.Errorf("gateway %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway %s: decode: %w", path, err)
	}
	return nil
}

// toPricePoint converts a wire payload to a domain price point.
func toPricePoint(p pricePayload) (*models.PricePoint, error) {
	if p.PricePercent == "" {
		return nil, errs.ErrNoData
	}

	price, err := decimal.NewFromString(p.PricePercent)
	if err != nil {
		return nil, fmt.Errorf("gateway price %q: %w", p.PricePercent, err)
	}

	point := &models.PricePoint{
		PricePercent: price.InexactFloat64(),
		Volume:       p.Volume,
	}
	if p.TradeDate != "" {
		d, err := time.Parse(dateLayout, p.TradeDate)
		if err != nil {
			return nil, fmt.Errorf("gateway trade date %q: %w", p.TradeDate, err)
		}
		point.Date = d
	}
	if p.YieldPercent != "" {
		y, err := decimal.NewFromString(p.YieldPercent)
		if err == nil {
			bps := int(y.Shift(2).Round(0).IntPart())
			point.YieldBps = &bps
		}
	}
	return point, nil
}
