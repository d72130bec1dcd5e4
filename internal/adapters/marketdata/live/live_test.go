package live

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bondflow/internal/config"
	"bondflow/internal/domain/errs"
)

func newTestAdapter(url string) *Adapter {
	return New(config.GatewayConfig{
		BaseURL:        url,
		APIKey:         "test-key",
		TimeoutSeconds: 5,
	}).(*Adapter)
}

func TestGetLivePriceParsesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header %q", got)
		}
		w.Write([]byte(`{"price":"97.125","volume":250000,"trade_date":"2026-08-28","yield":"6.42"}`))
	}))
	defer srv.Close()

	point, err := newTestAdapter(srv.URL).GetLivePrice(context.Background(), "US0000000001")
	if err != nil {
		t.Fatalf("GetLivePrice: %v", err)
	}
	if point.PricePercent != 97.125 {
		t.Errorf("price %.4f, want 97.125", point.PricePercent)
	}
	if point.Volume != 250000 {
		t.Errorf("volume %d", point.Volume)
	}
	if point.YieldBps == nil || *point.YieldBps != 642 {
		t.Errorf("yield bps %v, want 642", point.YieldBps)
	}
	if point.Date.Format("2006-01-02") != "2026-08-28" {
		t.Errorf("trade date %s", point.Date)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, errs.ErrRateLimited},
		{http.StatusUnauthorized, errs.ErrUnauthorized},
		{http.StatusForbidden, errs.ErrUnauthorized},
		{http.StatusNotFound, errs.ErrNoData},
		{http.StatusBadGateway, errs.ErrGatewayTimeout},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		_, err := newTestAdapter(srv.URL).GetLivePrice(context.Background(), "US0000000001")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d mapped to %v, want %v", tc.status, err, tc.want)
		}
		srv.Close()
	}
}

func TestGetPriceHistorySkipsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("from"); got != "2026-08-01" {
			t.Errorf("from param %q", got)
		}
		w.Write([]byte(`{"prices":[
			{"price":"96.5","volume":1000,"trade_date":"2026-08-03"},
			{"price":"not-a-number","volume":1000,"trade_date":"2026-08-04"},
			{"price":"96.8","volume":2000,"trade_date":"2026-08-05"}
		]}`))
	}))
	defer srv.Close()

	from := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	points, err := newTestAdapter(srv.URL).GetPriceHistory(context.Background(), "US0000000001", from, to)
	if err != nil {
		t.Fatalf("GetPriceHistory: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("%d points, want the 2 well-formed rows", len(points))
	}
}

func TestGetPriceHistoryEmptyIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices":[]}`))
	}))
	defer srv.Close()

	from := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	_, err := newTestAdapter(srv.URL).GetPriceHistory(context.Background(), "US0000000001", from, from.AddDate(0, 0, 30))
	if !errors.Is(err, errs.ErrNoData) {
		t.Errorf("got %v, want ErrNoData for an empty series", err)
	}
}
