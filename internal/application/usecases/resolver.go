// Package usecases wires the pricing domain together: the tiered price
// resolution engine, the daily snapshot and backfill writers for the
// historical store, and the scan cycle runner.
package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"bondflow/internal/application/ports"
	"bondflow/internal/concurrency"
	"bondflow/internal/curve"
	"bondflow/internal/domain/errs"
	"bondflow/internal/domain/models"
	"bondflow/internal/quant"
)

// tier is one strategy in the resolution chain. A (nil, nil) return
// means the tier has nothing and the chain moves on.
type tier struct {
	name string
	try  func(ctx context.Context, inst models.Instrument) (*models.PriceResult, error)
}

// Resolver resolves instrument prices through an ordered tier chain:
// live gateway quote, then latest actual historical trade, then a model
// estimate from the benchmark curve and rating-implied spread. Tiers are
// attempted strictly in order, each only on the prior tier's failure.
type Resolver struct {
	storage ports.StoragePort
	cache   ports.CachePort
	gateway ports.MarketDataPort
	curves  *curve.Store
	logger  *slog.Logger

	retryAttempts int
	retryBase     time.Duration
	now           func() time.Time

	tiers []tier
}

// NewResolver creates a price resolver. cache may be nil; caching is
// best effort throughout.
func NewResolver(storage ports.StoragePort, cache ports.CachePort, gateway ports.MarketDataPort, curves *curve.Store, logger *slog.Logger, retryAttempts int, retryBase time.Duration) *Resolver {
	r := &Resolver{
		storage:       storage,
		cache:         cache,
		gateway:       gateway,
		curves:        curves,
		logger:        logger,
		retryAttempts: retryAttempts,
		retryBase:     retryBase,
		now:           time.Now,
	}
	r.tiers = []tier{
		{name: "live", try: r.tryLive},
		{name: "historical", try: r.tryHistorical},
		{name: "estimate", try: r.tryEstimate},
	}
	return r
}

// SetClock overrides the resolver's clock. Test use only.
func (r *Resolver) SetClock(now func() time.Time) {
	r.now = now
}

// ResolvePrice walks the tier chain for an instrument. It never returns
// an error for "no data": if every tier fails the result carries
// SourceNone and a reason. Derived yield and spread are computed
// opportunistically once a price is found; their failure never
// invalidates the price.
func (r *Resolver) ResolvePrice(ctx context.Context, inst models.Instrument) models.PriceResult {
	var lastReason string

	for _, t := range r.tiers {
		result, err := t.try(ctx, inst)
		if err != nil {
			lastReason = fmt.Sprintf("%s: %v", t.name, err)
			switch {
			case errs.IsUpstreamUnavailable(err):
				r.logger.Warn("resolution tier unavailable", "tier", t.name, "instrument", inst.ID, "error", err)
			case errs.IsInvalidInput(err):
				r.logger.Warn("resolution tier rejected inputs", "tier", t.name, "instrument", inst.ID, "error", err)
			default:
				r.logger.Debug("resolution tier empty", "tier", t.name, "instrument", inst.ID, "error", err)
			}
			continue
		}
		if result == nil {
			continue
		}

		result.InstrumentID = inst.ID
		if !result.IsEstimated {
			r.attachDerived(ctx, inst, result)
		}
		result.Staleness = models.ClassifyStaleness(result.StalenessDays)
		return *result
	}

	reason := lastReason
	if reason == "" {
		reason = "no pricing data available from any source"
	}
	return models.PriceResult{
		InstrumentID:  inst.ID,
		Source:        models.SourceNone,
		StalenessDays: -1,
		Staleness:     models.StalenessVeryStale,
		Reason:        reason,
	}
}

// ResolveAndStore resolves an instrument and, when a price was found,
// atomically upserts the current pricing record and mirrors the result
// to the cache. The current record is written whole or not at all.
func (r *Resolver) ResolveAndStore(ctx context.Context, inst models.Instrument) (models.PriceResult, error) {
	result := r.ResolvePrice(ctx, inst)
	if !result.HasPrice() {
		return result, nil
	}

	rec := models.CurrentPricingRecord{
		InstrumentID:   inst.ID,
		PricePercent:   result.PricePercent,
		YTMBps:         result.YTMBps,
		SpreadBps:      result.SpreadBps,
		BenchmarkTenor: result.BenchmarkTenor,
		Source:         result.Source,
		StalenessDays:  result.StalenessDays,
		Staleness:      result.Staleness,
		TradeDate:      result.TradeDate,
		FetchedAt:      r.now(),
	}
	if err := r.storage.UpsertCurrentPricing(ctx, rec); err != nil {
		return result, fmt.Errorf("upsert current pricing for %s: %w", inst.ID, err)
	}

	if r.cache != nil {
		if err := r.cache.SetPriceResult(ctx, result); err != nil {
			r.logger.Warn("pricing cache write failed", "instrument", inst.ID, "error", err)
		}
	}
	return result, nil
}

// tryLive asks the gateway for a live quote, backing off on rate limits
// before abandoning the tier. A live hit always wins regardless of
// recency; staleness is still computed and attached.
func (r *Resolver) tryLive(ctx context.Context, inst models.Instrument) (*models.PriceResult, error) {
	if inst.ISIN == "" {
		return nil, nil
	}

	var point *models.PricePoint
	err := concurrency.RetryRateLimited(ctx, r.logger, r.retryAttempts, r.retryBase, func() error {
		var ferr error
		point, ferr = r.gateway.GetLivePrice(ctx, inst.ISIN)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	if point == nil || point.PricePercent <= 0 {
		return nil, nil
	}

	tradeDate := point.Date
	return &models.PriceResult{
		PricePercent:  point.PricePercent,
		Source:        models.SourceLive,
		StalenessDays: r.ageDays(tradeDate),
		TradeDate:     &tradeDate,
	}, nil
}

// tryHistorical looks up the most recent stored record backed by an
// actual trade. Prior estimates are never recycled, so estimation error
// cannot compound across cycles.
func (r *Resolver) tryHistorical(ctx context.Context, inst models.Instrument) (*models.PriceResult, error) {
	rec, err := r.storage.LatestActualTrade(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	tradeDate := rec.Date
	return &models.PriceResult{
		PricePercent:  rec.PricePercent,
		YTMBps:        rec.YTMBps,
		SpreadBps:     rec.SpreadBps,
		Source:        models.SourceHistorical,
		StalenessDays: r.ageDays(tradeDate),
		TradeDate:     &tradeDate,
	}, nil
}

// tryEstimate synthesizes a price from the benchmark curve, the
// rating-implied credit spread and the closed-form price-from-yield
// inverse. Requires a coupon and an unexpired maturity.
func (r *Resolver) tryEstimate(ctx context.Context, inst models.Instrument) (*models.PriceResult, error) {
	asOf := r.now()
	if !inst.Maturity.After(asOf) {
		return nil, errs.InvalidInput("maturity", "missing or not in the future")
	}
	if inst.CouponBps < 0 {
		return nil, errs.InvalidInput("coupon_bps", "missing or negative")
	}

	years := inst.YearsToMaturity(asOf)
	tenor := curve.SelectBenchmark(years)
	benchPercent := r.curves.YieldFor(ctx, tenor)

	ratingTier := quant.NormalizeRating(inst.Rating)
	spreadBps := quant.SpreadBps(inst.Rating, years)
	estYieldPercent := benchPercent + float64(spreadBps)/100.0

	price := quant.PriceFromYield(estYieldPercent, inst.CouponBps, years, 2)
	if price <= 0 {
		return nil, errs.InvalidInput("estimate", "model produced a non-positive price")
	}

	ytmBps := int(math.Round(estYieldPercent * 100))
	sBps := spreadBps
	return &models.PriceResult{
		PricePercent:   price,
		YTMBps:         &ytmBps,
		SpreadBps:      &sBps,
		BenchmarkTenor: string(tenor),
		Source:         models.SourceEstimated,
		IsEstimated:    true,
		Confidence:     models.Confidence(quant.ConfidenceForTier(ratingTier)),
		StalenessDays:  -1,
	}, nil
}

// attachDerived fills in yield, benchmark tenor and spread for a freshly
// priced result where they are missing. Best effort: any failure leaves
// the price intact with null derived fields.
func (r *Resolver) attachDerived(ctx context.Context, inst models.Instrument, result *models.PriceResult) {
	if inst.Maturity.IsZero() || !inst.Maturity.After(r.now()) {
		return
	}

	years := inst.YearsToMaturity(r.now())
	tenor := curve.SelectBenchmark(years)
	result.BenchmarkTenor = string(tenor)

	if result.YTMBps == nil {
		solved, err := quant.SolveYTM(quant.YTMInput{
			CleanPricePercent: result.PricePercent,
			CouponBps:         inst.CouponBps,
			Maturity:          inst.Maturity,
			Settlement:        r.now(),
			Frequency:         2,
		})
		if err != nil {
			r.logger.Debug("derived yield unavailable", "instrument", inst.ID, "error", err)
			return
		}
		ytmBps := int(math.Round(solved.YieldPercent * 100))
		result.YTMBps = &ytmBps
	}

	if result.SpreadBps == nil && result.YTMBps != nil {
		benchPercent := r.curves.YieldFor(ctx, tenor)
		spreadBps := *result.YTMBps - int(math.Round(benchPercent*100))
		result.SpreadBps = &spreadBps
	}
}

// ageDays converts a trade date to whole days before now; -1 when the
// date is unknown.
func (r *Resolver) ageDays(tradeDate time.Time) int {
	if tradeDate.IsZero() {
		return -1
	}
	age := r.now().Sub(tradeDate)
	if age < 0 {
		return 0
	}
	return int(age.Hours() / 24)
}
