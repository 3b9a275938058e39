package market

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"aurum/internal/domain"
)

// Klines per day for each supported interval, used to turn a lookback
// in days into the request limit Binance expects.
var binanceBarsPerDay = map[Interval]int{
	Interval1m:  1440,
	Interval5m:  288,
	Interval15m: 96,
	Interval1h:  24,
	Interval1d:  1,
}

const binanceMaxLimit = 1000

// BinanceSource fetches klines from Binance spot. Symbols must already
// be in Binance notation (e.g. PAXGUSDT as a gold proxy).
type BinanceSource struct {
	client *binance.Client
	logger *zap.Logger
}

// NewBinanceSource wraps a Binance client. Public kline endpoints work
// with empty credentials.
func NewBinanceSource(client *binance.Client, logger *zap.Logger) *BinanceSource {
	return &BinanceSource{client: client, logger: logger}
}

// Bars implements Source.
func (s *BinanceSource) Bars(ctx context.Context, symbol string, lookbackDays int, interval Interval) (domain.BarSeries, error) {
	perDay, ok := binanceBarsPerDay[interval]
	if !ok {
		return domain.BarSeries{}, errors.Errorf("binance: unsupported interval %q", interval)
	}
	limit := lookbackDays * perDay
	if limit <= 0 {
		limit = perDay
	}
	if limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(string(interval)).
		Limit(limit).
		Do(ctxWithTimeout)
	if err != nil {
		return domain.BarSeries{}, errors.Wrapf(err, "binance: fetch klines for %s", symbol)
	}
	if len(klines) == 0 {
		return domain.BarSeries{}, errors.Errorf("binance: no klines returned for %s", symbol)
	}

	bars := make([]domain.Bar, 0, len(klines))
	for i, k := range klines {
		open, err := strconv.ParseFloat(k.Open, 64)
		if err != nil {
			return domain.BarSeries{}, errors.Wrapf(err, "binance: parse open at index %d", i)
		}
		high, err := strconv.ParseFloat(k.High, 64)
		if err != nil {
			return domain.BarSeries{}, errors.Wrapf(err, "binance: parse high at index %d", i)
		}
		low, err := strconv.ParseFloat(k.Low, 64)
		if err != nil {
			return domain.BarSeries{}, errors.Wrapf(err, "binance: parse low at index %d", i)
		}
		closePrice, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return domain.BarSeries{}, errors.Wrapf(err, "binance: parse close at index %d", i)
		}
		volume, err := strconv.ParseFloat(k.Volume, 64)
		if err != nil {
			return domain.BarSeries{}, errors.Wrapf(err, "binance: parse volume at index %d", i)
		}

		bars = append(bars, domain.Bar{
			Time:   time.Unix(0, k.OpenTime*int64(time.Millisecond)).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	s.logger.Debug("fetched binance klines",
		zap.String("symbol", symbol),
		zap.String("interval", string(interval)),
		zap.Int("count", len(bars)))

	return domain.BarSeries{Symbol: symbol, Bars: bars}, nil
}
