package domain

import "time"

// Bar is a single OHLCV candle. Timestamps are normalized to UTC by the
// bar source; bars are immutable once fetched.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// TypicalPrice returns (high + low + close) / 3.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// BarSeries is a time-ascending sequence of bars for one instrument.
type BarSeries struct {
	Symbol string
	Bars   []Bar
}

// Empty reports whether the series holds no bars.
func (s BarSeries) Empty() bool {
	return len(s.Bars) == 0
}

// Len returns the number of bars.
func (s BarSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close prices in time order.
func (s BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar. The second return value is false
// for an empty series.
func (s BarSeries) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
