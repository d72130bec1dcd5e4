package models

import "testing"

func TestClassifyStaleness(t *testing.T) {
	cases := []struct {
		ageDays int
		want    StalenessClass
	}{
		{0, StalenessFresh},
		{1, StalenessFresh},
		{2, StalenessRecent},
		{7, StalenessRecent},
		{8, StalenessStale},
		{30, StalenessStale},
		{31, StalenessVeryStale},
		{365, StalenessVeryStale},
		{-1, StalenessVeryStale}, // unknown trade date
	}
	for _, tc := range cases {
		if got := ClassifyStaleness(tc.ageDays); got != tc.want {
			t.Errorf("ClassifyStaleness(%d) = %s, want %s", tc.ageDays, got, tc.want)
		}
	}
}
