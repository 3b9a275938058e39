package analysis

import (
	"aurum/internal/domain"
)

// BuildVolumeProfile bins the series by close price into equal-width
// buckets over [min(close), max(close)], sums traded volume per bucket
// and returns the midpoint of the highest-volume bucket as the VPOC.
// Ties resolve to the first bucket in ascending price order, so the
// result is deterministic. A constant-price series short-circuits to
// that price; an empty series is ErrInsufficientData.
func BuildVolumeProfile(series domain.BarSeries, bins int, precision int32) (domain.VolumeProfile, error) {
	if series.Empty() {
		return domain.VolumeProfile{}, ErrInsufficientData
	}
	if bins <= 0 {
		bins = DefaultProfileBins
	}

	minClose := series.Bars[0].Close
	maxClose := series.Bars[0].Close
	for _, b := range series.Bars {
		if b.Close < minClose {
			minClose = b.Close
		}
		if b.Close > maxClose {
			maxClose = b.Close
		}
	}

	if minClose == maxClose {
		return domain.VolumeProfile{VPOC: round(minClose, precision)}, nil
	}

	width := (maxClose - minClose) / float64(bins)
	volumes := make([]float64, bins)
	for _, b := range series.Bars {
		idx := int((b.Close - minClose) / width)
		if idx >= bins {
			idx = bins - 1 // close == maxClose lands in the top bucket
		}
		volumes[idx] += b.Volume
	}

	best := 0
	for i, v := range volumes {
		if v > volumes[best] {
			best = i
		}
	}

	vpoc := minClose + (float64(best)+0.5)*width
	return domain.VolumeProfile{
		VPOC:      round(vpoc, precision),
		MaxVolume: volumes[best],
	}, nil
}
