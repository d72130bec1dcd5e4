package curve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"bondflow/internal/application/ports"
	"bondflow/internal/domain/errs"
	"bondflow/internal/domain/models"
)

type fakeRateSource struct {
	curve map[models.Tenor]float64
	err   error
	calls int
}

func (f *fakeRateSource) GetCurrentCurve(context.Context) (map[models.Tenor]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.curve, nil
}

func (f *fakeRateSource) GetDailySeries(context.Context, int) ([]models.TreasuryYieldPoint, error) {
	return nil, errs.ErrNoData
}

// fakeStorage implements only the curve reads; the embedded nil
// interface panics on anything else, which is what we want in tests.
type fakeStorage struct {
	ports.StoragePort
	points []models.TreasuryYieldPoint
	err    error
}

func (f *fakeStorage) TreasuryCurveAsOf(_ context.Context, asOf time.Time) ([]models.TreasuryYieldPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	var best time.Time
	for _, p := range f.points {
		if !p.Date.After(asOf) && p.Date.After(best) {
			best = p.Date
		}
	}
	if best.IsZero() {
		return nil, nil
	}
	var out []models.TreasuryYieldPoint
	for _, p := range f.points {
		if p.Date.Equal(best) {
			out = append(out, p)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSelectBenchmarkSweep(t *testing.T) {
	// A dense sweep over 0.1..40 years must hit every standard tenor
	// and never map a longer duration to a shorter tenor.
	seen := make(map[models.Tenor]bool)
	prevYears := 0.0
	for y := 0.1; y <= 40.0; y += 0.1 {
		tenor := SelectBenchmark(y)
		seen[tenor] = true
		if tenor.Years() < prevYears {
			t.Fatalf("tenor went backwards at %.1f years: %s", y, tenor)
		}
		prevYears = tenor.Years()
	}
	for _, tenor := range models.StandardTenors {
		if !seen[tenor] {
			t.Errorf("tenor %s never selected across the sweep", tenor)
		}
	}
}

func TestSelectBenchmarkBoundaries(t *testing.T) {
	// Fixed rule: exactly at a midpoint breakpoint the longer tenor wins.
	cases := []struct {
		years float64
		want  models.Tenor
	}{
		{0.1, models.Tenor3Mo},
		{0.375, models.Tenor6Mo},
		{0.74, models.Tenor6Mo},
		{0.75, models.Tenor1Y},
		{1.49, models.Tenor1Y},
		{1.5, models.Tenor2Y},
		{4.0, models.Tenor5Y},
		{5.99, models.Tenor5Y},
		{6.0, models.Tenor7Y},
		{8.5, models.Tenor10Y},
		{15.0, models.Tenor20Y},
		{25.0, models.Tenor30Y},
		{40.0, models.Tenor30Y},
	}
	for _, tc := range cases {
		if got := SelectBenchmark(tc.years); got != tc.want {
			t.Errorf("SelectBenchmark(%.3f) = %s, want %s", tc.years, got, tc.want)
		}
	}
}

func TestYieldForCachesWithinTTL(t *testing.T) {
	rates := &fakeRateSource{curve: map[models.Tenor]float64{models.Tenor5Y: 4.20}}
	store := NewStore(rates, &fakeStorage{}, testLogger(), time.Hour)

	now := time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	if y := store.YieldFor(context.Background(), models.Tenor5Y); y != 4.20 {
		t.Fatalf("first read %.2f, want 4.20", y)
	}

	// A changed upstream value is not visible while the cache is fresh.
	rates.curve[models.Tenor5Y] = 4.50
	now = now.Add(30 * time.Minute)
	if y := store.YieldFor(context.Background(), models.Tenor5Y); y != 4.20 {
		t.Errorf("read inside TTL %.2f, want cached 4.20", y)
	}
	if rates.calls != 1 {
		t.Errorf("rate source called %d times inside TTL, want 1", rates.calls)
	}

	// Past the TTL the refreshed value is served.
	now = now.Add(31 * time.Minute)
	if y := store.YieldFor(context.Background(), models.Tenor5Y); y != 4.50 {
		t.Errorf("read past TTL %.2f, want refreshed 4.50", y)
	}
}

func TestYieldForFailSoft(t *testing.T) {
	rates := &fakeRateSource{curve: map[models.Tenor]float64{models.Tenor10Y: 4.40}}
	store := NewStore(rates, &fakeStorage{}, testLogger(), time.Hour)

	now := time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	if y := store.YieldFor(context.Background(), models.Tenor10Y); y != 4.40 {
		t.Fatalf("first read %.2f, want 4.40", y)
	}

	// Refresh failure past the TTL serves the last good value.
	rates.err = errors.New("rate source down")
	now = now.Add(2 * time.Hour)
	if y := store.YieldFor(context.Background(), models.Tenor10Y); y != 4.40 {
		t.Errorf("read during outage %.2f, want last good 4.40", y)
	}
}

func TestYieldForDefaultCurveWhenNeverFetched(t *testing.T) {
	rates := &fakeRateSource{err: errors.New("rate source down")}
	store := NewStore(rates, &fakeStorage{}, testLogger(), time.Hour)

	got := store.YieldFor(context.Background(), models.Tenor2Y)
	if got != defaultCurve[models.Tenor2Y] {
		t.Errorf("cold outage read %.2f, want default %.2f", got, defaultCurve[models.Tenor2Y])
	}
}

func TestHistoricalYieldForNearestEarlier(t *testing.T) {
	monday := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	storage := &fakeStorage{points: []models.TreasuryYieldPoint{
		{Date: monday, Tenor: models.Tenor5Y, YieldPercent: 4.10},
		{Date: monday.AddDate(0, 0, 7), Tenor: models.Tenor5Y, YieldPercent: 4.90},
	}}
	store := NewStore(&fakeRateSource{}, storage, testLogger(), time.Hour)

	// Saturday: no exact curve, Monday's is the nearest earlier one;
	// the following week's curve must never leak back.
	saturday := monday.AddDate(0, 0, 5)
	got, err := store.HistoricalYieldFor(context.Background(), models.Tenor5Y, saturday)
	if err != nil {
		t.Fatalf("HistoricalYieldFor: %v", err)
	}
	if got != 4.10 {
		t.Errorf("yield %.2f, want nearest earlier 4.10", got)
	}
}

func TestHistoricalYieldForUnavailable(t *testing.T) {
	store := NewStore(&fakeRateSource{}, &fakeStorage{}, testLogger(), time.Hour)

	_, err := store.HistoricalYieldFor(context.Background(), models.Tenor5Y,
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, errs.ErrCurveUnavailable) {
		t.Errorf("got %v, want ErrCurveUnavailable", err)
	}
}

func TestHistoricalYieldForMissingTenor(t *testing.T) {
	day := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	storage := &fakeStorage{points: []models.TreasuryYieldPoint{
		{Date: day, Tenor: models.Tenor5Y, YieldPercent: 4.10},
	}}
	store := NewStore(&fakeRateSource{}, storage, testLogger(), time.Hour)

	_, err := store.HistoricalYieldFor(context.Background(), models.Tenor30Y, day)
	if !errors.Is(err, errs.ErrCurveUnavailable) {
		t.Errorf("got %v, want ErrCurveUnavailable", err)
	}
}
