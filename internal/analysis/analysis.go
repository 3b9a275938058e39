// Package analysis implements the market structure and regime
// descriptors: session aggregation, volatility bands, volume profile,
// regime classification, cross-asset correlation and the macro
// liquidity read. Every function here is a pure transformation over
// already-fetched bars; no I/O happens in this package.
package analysis

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoSessionData is returned when no bars fall inside the most
	// recently completed session window.
	ErrNoSessionData = errors.New("no bars inside completed session window")

	// ErrInsufficientData is returned when a series is too short or
	// malformed for the requested descriptor. Callers downgrade it to
	// an "unavailable" value instead of failing the run.
	ErrInsufficientData = errors.New("insufficient data")
)

// Defaults for the descriptor parameters.
const (
	DefaultVolatilityLookback = 20
	DefaultProfileBins        = 50
	DefaultRegimePeriod       = 20

	// PricePrecision rounds absolute price levels, BandPrecision rounds
	// derived band levels. One convention across the whole pipeline so
	// repeated runs on identical input are bit-reproducible.
	PricePrecision int32 = 2
	BandPrecision  int32 = 1
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev returns the population standard deviation when sample is
// false and the Bessel-corrected sample deviation when true.
func stddev(xs []float64, sample bool) float64 {
	n := len(xs)
	if n == 0 || (sample && n < 2) {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	div := float64(n)
	if sample {
		div = float64(n - 1)
	}
	return math.Sqrt(ss / div)
}

func round(x float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(places)
}
