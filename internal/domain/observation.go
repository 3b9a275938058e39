package domain

import "time"

// Observation is a single dated value from a macro data series
// (balance-sheet levels, yields). Dates are calendar days.
type Observation struct {
	Date  time.Time
	Value float64
}

// MacroInputs carries the raw macro series behind the liquidity and
// yield-curve read. Nil yields and empty series mean the upstream feed
// was unavailable; consumers degrade instead of failing.
type MacroInputs struct {
	US10Y   *float64
	US02Y   *float64
	WALCL   []Observation
	WTREGEN []Observation
	RRP     []Observation
}
