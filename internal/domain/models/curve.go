package models

import "time"

// Tenor is a standard benchmark maturity point on the treasury curve.
type Tenor string

const (
	Tenor3Mo Tenor = "3mo"
	Tenor6Mo Tenor = "6mo"
	Tenor1Y  Tenor = "1y"
	Tenor2Y  Tenor = "2y"
	Tenor3Y  Tenor = "3y"
	Tenor5Y  Tenor = "5y"
	Tenor7Y  Tenor = "7y"
	Tenor10Y Tenor = "10y"
	Tenor20Y Tenor = "20y"
	Tenor30Y Tenor = "30y"
)

// StandardTenors lists the ten benchmark tenors in ascending maturity order.
var StandardTenors = []Tenor{
	Tenor3Mo, Tenor6Mo, Tenor1Y, Tenor2Y, Tenor3Y,
	Tenor5Y, Tenor7Y, Tenor10Y, Tenor20Y, Tenor30Y,
}

// Years returns the tenor's maturity in years.
func (t Tenor) Years() float64 {
	switch t {
	case Tenor3Mo:
		return 0.25
	case Tenor6Mo:
		return 0.5
	case Tenor1Y:
		return 1
	case Tenor2Y:
		return 2
	case Tenor3Y:
		return 3
	case Tenor5Y:
		return 5
	case Tenor7Y:
		return 7
	case Tenor10Y:
		return 10
	case Tenor20Y:
		return 20
	case Tenor30Y:
		return 30
	}
	return 0
}

// TreasuryYieldPoint is one observed benchmark yield, unique on (Date, Tenor).
type TreasuryYieldPoint struct {
	Date         time.Time `json:"date" db:"curve_date"`
	Tenor        Tenor     `json:"tenor" db:"tenor"`
	YieldPercent float64   `json:"yield_percent" db:"yield_percent"`
}
