package analysis

import (
	"math"

	"aurum/internal/domain"
)

// tradingDaysPerYear annualizes the daily volatility estimate.
const tradingDaysPerYear = 252

// highImpactCodes are the event categories whose scheduled release
// replaces the standard sigma bands with an expanded event range.
var highImpactCodes = map[string]struct{}{
	"FOMC": {},
	"NFP":  {},
	"CPI":  {},
	"PCE":  {},
}

// BandCalculator derives sigma-level price bands from a close-price
// series or an aggregated session record.
type BandCalculator struct {
	lookback  int
	precision int32
}

// NewBandCalculator builds a calculator with the given trailing
// lookback for the returns window.
func NewBandCalculator(lookback int, precision int32) *BandCalculator {
	if lookback <= 0 {
		lookback = DefaultVolatilityLookback
	}
	return &BandCalculator{lookback: lookback, precision: precision}
}

// FromCloses estimates daily volatility as the population standard
// deviation of trailing simple returns and places 1 and 2 sigma levels
// around the last close. Fewer than two observations, or a non-positive
// last price, yields ErrInsufficientData; callers treat that as
// "volatility unavailable" and carry on.
func (c *BandCalculator) FromCloses(closes []float64) (domain.VolatilityBands, error) {
	if len(closes) < 2 {
		return domain.VolatilityBands{}, ErrInsufficientData
	}
	price := closes[len(closes)-1]
	if price <= 0 {
		return domain.VolatilityBands{}, ErrInsufficientData
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			return domain.VolatilityBands{}, ErrInsufficientData
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}

	window := returns
	if len(window) > c.lookback {
		window = window[len(window)-c.lookback:]
	}

	dailyVol := stddev(window, false)
	oneSigma := price * dailyVol
	twoSigma := price * 2 * dailyVol

	return domain.VolatilityBands{
		Pivot:         round(price, c.precision),
		OneSigmaUp:    round(price+oneSigma, c.precision),
		OneSigmaDown:  round(price-oneSigma, c.precision),
		TwoSigmaUp:    round(price+twoSigma, c.precision),
		TwoSigmaDown:  round(price-twoSigma, c.precision),
		AnnualizedVol: dailyVol * math.Sqrt(tradingDaysPerYear),
	}, nil
}

// FromSession centers range-derived bands on the session pivot:
// 1 sigma is half the session range, 2 sigma the full range.
func (c *BandCalculator) FromSession(rec domain.SessionRecord) (domain.VolatilityBands, error) {
	if rec.BarCount == 0 {
		return domain.VolatilityBands{}, ErrInsufficientData
	}

	pivot := rec.Pivot.InexactFloat64()
	sessionRange := rec.Range()

	return domain.VolatilityBands{
		Pivot:        round(pivot, c.precision),
		OneSigmaUp:   round(pivot+0.5*sessionRange, c.precision),
		OneSigmaDown: round(pivot-0.5*sessionRange, c.precision),
		TwoSigmaUp:   round(pivot+sessionRange, c.precision),
		TwoSigmaDown: round(pivot-sessionRange, c.precision),
		SessionRange: sessionRange,
	}, nil
}

// ApplyEvent replaces standard bands with an expanded event range when
// the supplied event is one of the high-impact categories scheduled
// today: implied move = baseline range * event k-factor, producing
// extreme levels at price +/- implied move. Events outside the
// high-impact set leave the bands untouched.
func (c *BandCalculator) ApplyEvent(bands domain.VolatilityBands, baselineRange float64, ev domain.EconomicEvent) domain.VolatilityBands {
	if _, ok := highImpactCodes[ev.Code]; !ok || ev.KFactor <= 0 {
		return bands
	}

	pivot := bands.Pivot.InexactFloat64()
	implied := baselineRange * ev.KFactor

	bands.OneSigmaUp = round(pivot+implied, c.precision)
	bands.OneSigmaDown = round(pivot-implied, c.precision)
	bands.TwoSigmaUp = bands.OneSigmaUp
	bands.TwoSigmaDown = bands.OneSigmaDown
	bands.EventCode = ev.Code
	return bands
}
