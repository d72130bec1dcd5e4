package usecases

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"bondflow/internal/application/ports"
	"bondflow/internal/domain/errs"
	"bondflow/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStorage is an in-memory StoragePort for the engine tests.
type fakeStorage struct {
	mu         sync.Mutex
	current    map[string]models.CurrentPricingRecord
	historical map[string]models.HistoricalPriceRecord // keyed id|date
	treasury   []models.TreasuryYieldPoint

	upserts int
	inserts int
	failAll bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		current:    make(map[string]models.CurrentPricingRecord),
		historical: make(map[string]models.HistoricalPriceRecord),
	}
}

func histKey(id string, date time.Time) string {
	return id + "|" + date.Format("2006-01-02")
}

func (f *fakeStorage) UpsertCurrentPricing(_ context.Context, rec models.CurrentPricingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errs.ErrGatewayTimeout
	}
	f.current[rec.InstrumentID] = rec
	f.upserts++
	return nil
}

func (f *fakeStorage) GetCurrentPricing(_ context.Context, id string) (*models.CurrentPricingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.current[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeStorage) ListCurrentPriced(context.Context) ([]models.CurrentPricingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CurrentPricingRecord
	for _, rec := range f.current {
		if rec.PricePercent > 0 {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstrumentID < out[j].InstrumentID })
	return out, nil
}

func (f *fakeStorage) LatestActualTrade(_ context.Context, id string) (*models.HistoricalPriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.HistoricalPriceRecord
	for _, rec := range f.historical {
		rec := rec
		if rec.InstrumentID != id || rec.Source == models.SourceEstimated {
			continue
		}
		if best == nil || rec.Date.After(best.Date) {
			best = &rec
		}
	}
	return best, nil
}

func (f *fakeStorage) HistoricalDates(_ context.Context, id string, from, to time.Time) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dates := make(map[string]bool)
	for _, rec := range f.historical {
		if rec.InstrumentID == id && !rec.Date.Before(from) && !rec.Date.After(to) {
			dates[rec.Date.Format("2006-01-02")] = true
		}
	}
	return dates, nil
}

func (f *fakeStorage) InsertHistorical(_ context.Context, recs []models.HistoricalPriceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		key := histKey(rec.InstrumentID, rec.Date)
		if existing, ok := f.historical[key]; ok {
			// Price is immutable; only missing derived fields fill in.
			if existing.YTMBps == nil {
				existing.YTMBps = rec.YTMBps
			}
			if existing.SpreadBps == nil {
				existing.SpreadBps = rec.SpreadBps
			}
			f.historical[key] = existing
			continue
		}
		f.historical[key] = rec
		f.inserts++
	}
	return nil
}

func (f *fakeStorage) SaveTreasuryYields(_ context.Context, points []models.TreasuryYieldPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treasury = append(f.treasury, points...)
	return nil
}

func (f *fakeStorage) TreasuryCurveAsOf(_ context.Context, asOf time.Time) ([]models.TreasuryYieldPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best time.Time
	for _, p := range f.treasury {
		if !p.Date.After(asOf) && p.Date.After(best) {
			best = p.Date
		}
	}
	if best.IsZero() {
		return nil, nil
	}
	var out []models.TreasuryYieldPoint
	for _, p := range f.treasury {
		if p.Date.Equal(best) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStorage) Close() error { return nil }

// fakeGateway is a scriptable MarketDataPort.
type fakeGateway struct {
	mu        sync.Mutex
	livePoint *models.PricePoint
	liveErr   error
	liveCalls int

	history    []models.PricePoint
	historyErr error

	block chan struct{}
}

func (f *fakeGateway) GetLivePrice(context.Context, string) (*models.PricePoint, error) {
	f.mu.Lock()
	f.liveCalls++
	block := f.block
	point, err := f.livePoint, f.liveErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return point, nil
}

func (f *fakeGateway) GetPriceHistory(context.Context, string, time.Time, time.Time) ([]models.PricePoint, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeGateway) GetInstrumentProfile(context.Context, string) (*ports.InstrumentProfile, error) {
	return nil, errs.ErrNoData
}

func (f *fakeGateway) Name() string { return "fake" }

// fakeRateSource serves a fixed flat curve.
type fakeRateSource struct {
	curve map[models.Tenor]float64
	err   error
}

func (f *fakeRateSource) GetCurrentCurve(context.Context) (map[models.Tenor]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.curve, nil
}

func (f *fakeRateSource) GetDailySeries(context.Context, int) ([]models.TreasuryYieldPoint, error) {
	return nil, errs.ErrNoData
}

// fakeRegistry serves a fixed instrument list.
type fakeRegistry struct {
	instruments []models.Instrument
}

func (f *fakeRegistry) GetInstrument(_ context.Context, id string) (*models.Instrument, error) {
	for _, inst := range f.instruments {
		if inst.ID == id {
			return &inst, nil
		}
	}
	return nil, nil
}

func (f *fakeRegistry) ListActive(_ context.Context, limit int) ([]models.Instrument, error) {
	if len(f.instruments) > limit {
		return f.instruments[:limit], nil
	}
	return f.instruments, nil
}

// fakeCache records writes.
type fakeCache struct {
	mu      sync.Mutex
	results map[string]models.PriceResult
}

func newFakeCache() *fakeCache {
	return &fakeCache{results: make(map[string]models.PriceResult)}
}

func (f *fakeCache) SetPriceResult(_ context.Context, result models.PriceResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[result.InstrumentID] = result
	return nil
}

func (f *fakeCache) GetPriceResult(_ context.Context, id string) (*models.PriceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (f *fakeCache) Close() error { return nil }
