package analysis

import (
	"math"
	"sort"
	"time"

	"aurum/internal/domain"
)

// minCorrelationRows is the minimum number of aligned observations
// required before a correlation matrix is considered meaningful.
const minCorrelationRows = 10

// CorrelationEngine aligns close-price series on a common time grid and
// computes pairwise Pearson coefficients.
type CorrelationEngine struct {
	bucket  time.Duration
	minRows int
}

// NewCorrelationEngine builds an engine that downsamples each series to
// bucket-width intervals, keeping the last close per bucket.
func NewCorrelationEngine(bucket time.Duration) *CorrelationEngine {
	if bucket <= 0 {
		bucket = 5 * time.Minute
	}
	return &CorrelationEngine{bucket: bucket, minRows: minCorrelationRows}
}

// Matrix computes the pairwise correlation matrix for the given
// instruments. Instruments with missing or empty series are discarded;
// fewer than two survivors, or fewer than the minimum aligned rows,
// yields an explicitly empty matrix rather than a partial one.
func (e *CorrelationEngine) Matrix(series []domain.BarSeries) domain.CorrelationMatrix {
	var survivors []domain.BarSeries
	for _, s := range series {
		if !s.Empty() {
			survivors = append(survivors, s)
		}
	}
	if len(survivors) < 2 {
		return domain.CorrelationMatrix{}
	}

	// Last close per fixed-width bucket, keyed by bucket start.
	sampled := make([]map[int64]float64, len(survivors))
	for i, s := range survivors {
		buckets := make(map[int64]float64, s.Len())
		for _, b := range s.Bars {
			buckets[b.Time.Truncate(e.bucket).Unix()] = b.Close
		}
		sampled[i] = buckets
	}

	// Keep only buckets present in every surviving series.
	var keys []int64
	for k := range sampled[0] {
		shared := true
		for _, buckets := range sampled[1:] {
			if _, ok := buckets[k]; !ok {
				shared = false
				break
			}
		}
		if shared {
			keys = append(keys, k)
		}
	}
	if len(keys) < e.minRows {
		return domain.CorrelationMatrix{}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	columns := make([][]float64, len(survivors))
	for i, buckets := range sampled {
		col := make([]float64, len(keys))
		for j, k := range keys {
			col[j] = buckets[k]
		}
		columns[i] = col
	}

	symbols := make([]string, len(survivors))
	coeffs := make(map[string]map[string]float64, len(survivors))
	for i, s := range survivors {
		symbols[i] = s.Symbol
		coeffs[s.Symbol] = make(map[string]float64, len(survivors))
	}
	for i := range survivors {
		coeffs[symbols[i]][symbols[i]] = 1
		for j := i + 1; j < len(survivors); j++ {
			r := pearson(columns[i], columns[j])
			coeffs[symbols[i]][symbols[j]] = r
			coeffs[symbols[j]][symbols[i]] = r
		}
	}

	return domain.CorrelationMatrix{Symbols: symbols, Coeffs: coeffs}
}

// pearson returns the Pearson correlation coefficient of two equal
// length columns, clamped to [-1, 1]. Constant columns correlate as 0.
func pearson(xs, ys []float64) float64 {
	mx := mean(xs)
	my := mean(ys)

	var cov, vx, vy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}

	r := cov / math.Sqrt(vx*vy)
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r
}
