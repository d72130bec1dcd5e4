// Package quant holds the pure fixed-income math used by the pricing
// engine: the yield-to-maturity solver, its closed-form price inverse,
// and the credit spread curve. Nothing in this package performs I/O.
package quant

import (
	"math"
	"time"

	"bondflow/internal/domain/errs"
)

const (
	priceTolerance = 1e-4
	maxIterations  = 100
	derivFloor     = 1e-10

	// Annualized yield domain the solver is allowed to explore. Wide
	// enough for deeply distressed paper, tight enough that Newton
	// steps cannot diverge.
	yieldFloorPercent   = -50.0
	yieldCeilingPercent = 200.0

	// Maturities shorter than this skip the iterative solve and use a
	// simple annualized return instead.
	minSolveDays = 7
)

// YTMInput holds the parameters for a yield-to-maturity solve.
type YTMInput struct {
	// CleanPricePercent is the clean price as a percentage of par
	// (e.g. 92.50).
	CleanPricePercent float64
	// CouponBps is the annual coupon rate in basis points (e.g. 550
	// for 5.5%).
	CouponBps int
	// Maturity is the bond's maturity date.
	Maturity time.Time
	// Settlement is the valuation date; must precede Maturity.
	Settlement time.Time
	// Frequency is coupon payments per year; 0 defaults to semi-annual.
	Frequency int
}

// YTMResult is the output of SolveYTM.
type YTMResult struct {
	// YieldPercent is the annualized yield to maturity in percent.
	YieldPercent float64
	// Iterations is the number of Newton-Raphson steps taken.
	Iterations int
}

// SolveYTM finds the annualized yield y such that the present value of the
// bond's level coupon annuity plus discounted par redemption equals the
// clean price. Newton-Raphson with the analytic derivative of the
// closed-form price expression; each candidate is clamped to a bounded
// yield domain so a bad step cannot run away.
func SolveYTM(in YTMInput) (YTMResult, error) {
	if in.CleanPricePercent <= 0 {
		return YTMResult{}, errs.InvalidInput("clean_price_percent", "must be positive")
	}
	if !in.Maturity.After(in.Settlement) {
		return YTMResult{}, errs.InvalidInput("maturity", "must be after settlement")
	}
	freq := in.Frequency
	if freq <= 0 {
		freq = 2
	}

	couponPercent := float64(in.CouponBps) / 100.0
	days := in.Maturity.Sub(in.Settlement).Hours() / 24.0
	years := days / 365.25

	// Near-dated paper: the annuity collapses to at most one flow and
	// Newton on a near-flat function is pointless. Use the simple
	// annualized return to par.
	if days < minSolveDays {
		simple := (100.0 - in.CleanPricePercent) / in.CleanPricePercent / years * 100.0
		return YTMResult{YieldPercent: clamp(simple, yieldFloorPercent, yieldCeilingPercent)}, nil
	}

	periods := years * float64(freq)
	couponPerPeriod := couponPercent / float64(freq)

	// Standard approximation as the starting point: coupon income plus
	// amortization of the discount or premium over the remaining life,
	// against the average of price and par. Lands on the correct side
	// of the coupon for both discount and premium bonds.
	guess := (couponPercent + (100.0-in.CleanPricePercent)/years) /
		((100.0 + in.CleanPricePercent) / 2.0) * 100.0
	y := clamp(guess, yieldFloorPercent, yieldCeilingPercent)

	for iter := 0; iter < maxIterations; iter++ {
		price, dPdy := priceAndDeriv(y, couponPerPeriod, periods, freq)
		f := price - in.CleanPricePercent

		if math.Abs(f) < priceTolerance {
			return YTMResult{YieldPercent: y, Iterations: iter + 1}, nil
		}
		if math.Abs(dPdy) < derivFloor {
			// Flat spot; the current candidate is as good as the
			// model gets.
			return YTMResult{YieldPercent: y, Iterations: iter + 1}, nil
		}

		y = clamp(y-f/dPdy, yieldFloorPercent, yieldCeilingPercent)
	}

	return YTMResult{YieldPercent: y, Iterations: maxIterations}, nil
}

// PriceFromYield is the closed-form inverse of SolveYTM's valuation model:
// the clean price implied by an annualized yield, coupon and time to
// maturity. No iteration.
func PriceFromYield(yieldPercent float64, couponBps int, years float64, frequency int) float64 {
	freq := frequency
	if freq <= 0 {
		freq = 2
	}
	couponPerPeriod := float64(couponBps) / 100.0 / float64(freq)
	periods := years * float64(freq)

	price, _ := priceAndDeriv(yieldPercent, couponPerPeriod, periods, freq)
	return price
}

// priceAndDeriv evaluates the annuity+redemption price expression and its
// derivative with respect to the annualized yield, both per 100 par.
//
//	r      = y / (100 · f)                       per-period yield
//	price  = c · (1 − (1+r)^−n) / r + 100 · (1+r)^−n
//	dP/dy  = analytic, divided through by 100·f for the annual scale
func priceAndDeriv(yieldPercent, couponPerPeriod, periods float64, freq int) (float64, float64) {
	r := yieldPercent / 100.0 / float64(freq)

	// Degenerate zero-yield limit: undiscounted flows, derivative from
	// the series expansion.
	if math.Abs(r) < 1e-12 {
		price := couponPerPeriod*periods + 100.0
		deriv := (-couponPerPeriod*periods*(periods+1)/2.0 - 100.0*periods) / (100.0 * float64(freq))
		return price, deriv
	}

	disc := math.Pow(1.0+r, -periods)
	annuity := couponPerPeriod * (1.0 - disc) / r
	price := annuity + 100.0*disc

	// d(disc)/dr = −n·(1+r)^−(n+1)
	dDisc := -periods * math.Pow(1.0+r, -(periods + 1.0))
	dAnnuity := couponPerPeriod * (-dDisc*r - (1.0 - disc)) / (r * r)
	dPdr := dAnnuity + 100.0*dDisc

	return price, dPdr / (100.0 * float64(freq))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
