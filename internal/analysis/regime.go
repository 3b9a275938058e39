package analysis

import (
	"math"

	"aurum/internal/domain"
)

// Regime classification thresholds.
const (
	compressedBandWidth = 0.02
	compressedATRRatio  = 0.8
	trendATRRatio       = 1.2
)

// ClassifyRegime labels recent price action as Trend, Balance or
// Compressed from the ratio of the latest true range to its trailing
// average, combined with the normalized width of a Bollinger channel
// over the last period closes. Series shorter than period classify as
// Unknown; everything at or above that length gets a definite label.
func ClassifyRegime(series domain.BarSeries, period int) domain.Regime {
	if period <= 0 {
		period = DefaultRegimePeriod
	}
	if series.Len() < period {
		return domain.RegimeUnknown
	}

	bars := series.Bars
	first := period
	if series.Len() == period {
		// A series of exactly period bars has no bar beyond the warmup
		// index; fall back to the full range so the classifier stays
		// total for length >= period.
		first = 1
	}

	trs := make([]float64, 0, len(bars)-first)
	for i := first; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		trs = append(trs, math.Max(hl, math.Max(hc, lc)))
	}

	avgTR := mean(trs)
	currentTR := trs[len(trs)-1]
	atrRatio := 1.0
	if avgTR > 0 {
		atrRatio = currentTR / avgTR
	}

	window := series.Closes()
	window = window[len(window)-period:]
	sma := mean(window)
	std := stddev(window, true)
	bandWidth := 0.0
	if sma != 0 {
		bandWidth = 2 * std / sma
	}

	switch {
	case bandWidth < compressedBandWidth && atrRatio < compressedATRRatio:
		return domain.RegimeCompressed
	case atrRatio > trendATRRatio:
		return domain.RegimeTrend
	default:
		return domain.RegimeBalance
	}
}

// AverageTrueRange returns the plain mean of the true ranges over the
// trailing period bars. It serves as the baseline range for
// event-expanded volatility bands when no session record is available.
func AverageTrueRange(series domain.BarSeries, period int) (float64, error) {
	if period <= 0 {
		period = DefaultRegimePeriod
	}
	if series.Len() < 2 {
		return 0, ErrInsufficientData
	}

	bars := series.Bars
	first := len(bars) - period
	if first < 1 {
		first = 1
	}
	trs := make([]float64, 0, len(bars)-first)
	for i := first; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		trs = append(trs, math.Max(hl, math.Max(hc, lc)))
	}
	return mean(trs), nil
}
