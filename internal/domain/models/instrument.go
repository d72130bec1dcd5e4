package models

import "time"

// Seniority is the rank of a bond in the issuer's capital structure.
type Seniority string

const (
	SenioritySeniorSecured   Seniority = "senior_secured"
	SenioritySeniorUnsecured Seniority = "senior_unsecured"
	SenioritySubordinated    Seniority = "subordinated"
)

// Instrument is a corporate debt instrument as published by the instrument
// registry. All fields are read-only from the pricing engine's point of view.
type Instrument struct {
	ID        string    `json:"id" db:"id"`
	ISIN      string    `json:"isin" db:"isin"`
	CouponBps int       `json:"coupon_bps" db:"coupon_bps"`
	Maturity  time.Time `json:"maturity" db:"maturity"`
	Rating    string    `json:"rating" db:"rating"`
	Seniority Seniority `json:"seniority" db:"seniority"`
	Active    bool      `json:"active" db:"active"`
}

// CouponPercent returns the annual coupon rate as a percentage of par.
func (i Instrument) CouponPercent() float64 {
	return float64(i.CouponBps) / 100.0
}

// YearsToMaturity returns the time to maturity in years as of a date.
func (i Instrument) YearsToMaturity(asOf time.Time) float64 {
	return i.Maturity.Sub(asOf).Hours() / 24.0 / 365.25
}
