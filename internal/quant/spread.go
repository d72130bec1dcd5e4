package quant

import "strings"

// RatingTier is the canonical credit rating vocabulary used by the spread
// table. External agency ratings are normalized onto it; anything
// unrecognized becomes TierNotRated.
type RatingTier string

const (
	TierAAA      RatingTier = "AAA"
	TierAA       RatingTier = "AA"
	TierA        RatingTier = "A"
	TierBBB      RatingTier = "BBB"
	TierBB       RatingTier = "BB"
	TierB        RatingTier = "B"
	TierCCC      RatingTier = "CCC"
	TierNotRated RatingTier = "NR"
)

// spreadTenorYears are the tenor buckets at which spreads are defined.
// Queries between buckets interpolate linearly; queries at or beyond the
// edges take the edge value.
var spreadTenorYears = []float64{1, 3, 5, 7, 10, 30}

// creditSpreads holds spreads to the benchmark curve in basis points,
// per rating tier and tenor bucket. Values widen monotonically both down
// the rating scale and out the curve.
var creditSpreads = map[RatingTier][]int{
	TierAAA:      {20, 30, 40, 50, 60, 80},
	TierAA:       {30, 45, 60, 70, 85, 110},
	TierA:        {50, 70, 90, 105, 125, 160},
	TierBBB:      {90, 120, 150, 175, 200, 250},
	TierBB:       {200, 250, 300, 340, 380, 450},
	TierB:        {350, 420, 500, 550, 600, 700},
	TierCCC:      {600, 700, 800, 900, 1000, 1200},
	TierNotRated: {250, 300, 350, 400, 450, 550},
}

// agencyAliases maps Moody's style ratings onto the canonical tiers.
// S&P and Fitch notches (AA+, BBB- and so on) are handled by prefix in
// NormalizeRating.
var agencyAliases = map[string]RatingTier{
	"AAA": TierAAA,
	"AA1": TierAA, "AA2": TierAA, "AA3": TierAA,
	"A1": TierA, "A2": TierA, "A3": TierA,
	"BAA1": TierBBB, "BAA2": TierBBB, "BAA3": TierBBB,
	"BA1": TierBB, "BA2": TierBB, "BA3": TierBB,
	"B1": TierB, "B2": TierB, "B3": TierB,
	"CAA1": TierCCC, "CAA2": TierCCC, "CAA3": TierCCC,
	"CA": TierCCC, "C": TierCCC, "D": TierCCC,
}

// NormalizeRating maps an external agency rating string onto the
// canonical tier vocabulary. Notch suffixes (+, -, numeric modifiers)
// are folded into their tier; unrecognized or empty input falls back to
// TierNotRated rather than failing.
func NormalizeRating(rating string) RatingTier {
	r := strings.ToUpper(strings.TrimSpace(rating))
	if r == "" {
		return TierNotRated
	}

	if tier, ok := agencyAliases[r]; ok {
		return tier
	}

	// S&P/Fitch letter ratings with optional notch: strip +/- and
	// match longest tier prefix first so "AA-" does not land on "A".
	r = strings.TrimRight(r, "+-")
	for _, tier := range []RatingTier{TierAAA, TierAA, TierA, TierBBB, TierBB, TierB, TierCCC} {
		if r == string(tier) {
			return tier
		}
	}
	return TierNotRated
}

// IsInvestmentGrade reports whether a tier is BBB or better.
func IsInvestmentGrade(tier RatingTier) bool {
	switch tier {
	case TierAAA, TierAA, TierA, TierBBB:
		return true
	}
	return false
}

// SpreadBps returns the credit spread in basis points for a rating and a
// time to maturity in years. Between tenor buckets the spread is linearly
// interpolated; at or past the edges the edge bucket's value is returned.
// Pure and deterministic.
func SpreadBps(rating string, years float64) int {
	tier := NormalizeRating(rating)
	row := creditSpreads[tier]

	if years <= spreadTenorYears[0] {
		return row[0]
	}
	last := len(spreadTenorYears) - 1
	if years >= spreadTenorYears[last] {
		return row[last]
	}

	for i := 1; i <= last; i++ {
		if years <= spreadTenorYears[i] {
			lo, hi := spreadTenorYears[i-1], spreadTenorYears[i]
			frac := (years - lo) / (hi - lo)
			return row[i-1] + int(frac*float64(row[i]-row[i-1])+0.5)
		}
	}
	return row[last]
}

// ConfidenceForTier grades a model estimate: investment grade is high,
// rated high yield is medium, unrated is low.
func ConfidenceForTier(tier RatingTier) string {
	switch {
	case tier == TierNotRated:
		return "low"
	case IsInvestmentGrade(tier):
		return "high"
	default:
		return "medium"
	}
}
