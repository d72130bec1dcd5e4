package quant

import "testing"

func TestNormalizeRating(t *testing.T) {
	cases := []struct {
		in   string
		want RatingTier
	}{
		{"AAA", TierAAA},
		{"AA+", TierAA},
		{"AA-", TierAA},
		{"Aa2", TierAA},
		{"A", TierA},
		{"A3", TierA},
		{"BBB-", TierBBB},
		{"Baa2", TierBBB},
		{"BB+", TierBB},
		{"Ba1", TierBB},
		{"B2", TierB},
		{"CCC+", TierCCC},
		{"Caa1", TierCCC},
		{"D", TierCCC},
		{" bbb ", TierBBB},
		{"", TierNotRated},
		{"WR", TierNotRated},
		{"garbage", TierNotRated},
	}
	for _, tc := range cases {
		if got := NormalizeRating(tc.in); got != tc.want {
			t.Errorf("NormalizeRating(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSpreadBpsExactBucket(t *testing.T) {
	// A query landing exactly on a tenor bucket returns the bucket
	// value with no interpolation drift.
	if got := SpreadBps("BBB", 5); got != creditSpreads[TierBBB][2] {
		t.Errorf("BBB 5y spread %d, want bucket value %d", got, creditSpreads[TierBBB][2])
	}
}

func TestSpreadBpsInterpolation(t *testing.T) {
	// 4y is halfway between the 3y and 5y buckets.
	lo := creditSpreads[TierBBB][1]
	hi := creditSpreads[TierBBB][2]
	want := lo + (hi-lo)/2
	if got := SpreadBps("BBB", 4); got != want {
		t.Errorf("BBB 4y spread %d, want %d", got, want)
	}
}

func TestSpreadBpsEdgeClamping(t *testing.T) {
	// No extrapolation: at or past the edges the edge value is returned.
	if got := SpreadBps("A", 0.5); got != creditSpreads[TierA][0] {
		t.Errorf("A 0.5y spread %d, want 1y bucket %d", got, creditSpreads[TierA][0])
	}
	if got := SpreadBps("A", 40); got != creditSpreads[TierA][5] {
		t.Errorf("A 40y spread %d, want 30y bucket %d", got, creditSpreads[TierA][5])
	}
}

func TestSpreadBpsMonotonicInRating(t *testing.T) {
	// Spreads never tighten as credit quality worsens.
	order := []string{"AAA", "AA", "A", "BBB", "BB", "B", "CCC"}
	for _, years := range []float64{1, 2, 5, 8, 15, 30} {
		prev := -1
		for _, rating := range order {
			got := SpreadBps(rating, years)
			if got < prev {
				t.Errorf("spread at %s %gy is %d, below better-rated %d", rating, years, got, prev)
			}
			prev = got
		}
	}
}

func TestSpreadBpsMonotonicInTenor(t *testing.T) {
	for _, rating := range []string{"AAA", "BBB", "CCC", "NR"} {
		prev := -1
		for years := 1.0; years <= 30.0; years += 0.5 {
			got := SpreadBps(rating, years)
			if got < prev {
				t.Errorf("%s spread at %gy is %d, below shorter-tenor %d", rating, years, got, prev)
			}
			prev = got
		}
	}
}

func TestConfidenceForTier(t *testing.T) {
	cases := []struct {
		tier RatingTier
		want string
	}{
		{TierAAA, "high"},
		{TierBBB, "high"},
		{TierBB, "medium"},
		{TierCCC, "medium"},
		{TierNotRated, "low"},
	}
	for _, tc := range cases {
		if got := ConfidenceForTier(tc.tier); got != tc.want {
			t.Errorf("ConfidenceForTier(%s) = %s, want %s", tc.tier, got, tc.want)
		}
	}
}
