// Package market fetches raw OHLCV bars and macro series from external
// data vendors. Every source degrades to an error rather than
// fabricating data; callers decide which failures are fatal.
package market

import (
	"context"

	"aurum/internal/domain"
)

// Interval is a vendor-neutral bar interval token understood by every
// Source implementation.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
)

// Source supplies historical bars for a symbol. Implementations map the
// neutral symbol and interval onto their vendor's naming.
type Source interface {
	Bars(ctx context.Context, symbol string, lookbackDays int, interval Interval) (domain.BarSeries, error)
}
