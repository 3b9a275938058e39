package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"aurum/internal/domain"
	"aurum/pkg/backoff"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo intraday history is capped well below the daily depth, so we
// clamp the range token per interval instead of trusting the caller.
var yahooIntervals = map[Interval]string{
	Interval1m:  "1m",
	Interval5m:  "5m",
	Interval15m: "15m",
	Interval1h:  "1h",
	Interval1d:  "1d",
}

// YahooSource fetches bars from the Yahoo Finance chart API. It needs
// no credentials, which makes it the default vendor.
type YahooSource struct {
	client  *http.Client
	baseURL string
	aliases map[string]string
	retry   backoff.Policy
	logger  *zap.Logger
}

// NewYahooSource builds a source against the public Yahoo endpoint.
func NewYahooSource(logger *zap.Logger) *YahooSource {
	return &YahooSource{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultYahooBaseURL,
		aliases: map[string]string{
			"GOLD":   "GC=F",
			"XAUUSD": "GC=F",
			"SILVER": "SI=F",
			"SPX":    "^GSPC",
			"SPX500": "^GSPC",
			"DXY":    "DX-Y.NYB",
			"US10Y":  "^TNX",
			"VIX":    "^VIX",
		},
		retry:  backoff.Default(),
		logger: logger,
	}
}

// WithBaseURL points the source at an alternative endpoint. Used by
// tests to swap in a local server.
func (s *YahooSource) WithBaseURL(base string) *YahooSource {
	s.baseURL = base
	return s
}

func (s *YahooSource) yahooSymbol(symbol string) string {
	if mapped, ok := s.aliases[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart mirrors the chart API response shape. OHLCV arrays carry
// JSON nulls on holidays, hence the pointer elements.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func at(xs []*float64, i int) float64 {
	if i >= len(xs) {
		return 0
	}
	return deref(xs[i])
}

func yahooRange(lookbackDays int, interval Interval) string {
	switch interval {
	case Interval1m:
		return "5d"
	case Interval5m, Interval15m, Interval1h:
		if lookbackDays <= 5 {
			return "5d"
		}
		return "1mo"
	default:
		switch {
		case lookbackDays <= 30:
			return "1mo"
		case lookbackDays <= 90:
			return "3mo"
		case lookbackDays <= 180:
			return "6mo"
		case lookbackDays <= 365:
			return "1y"
		default:
			return "2y"
		}
	}
}

// Bars implements Source. Null bars get skipped and results come back
// sorted by time ascending, trimmed to the requested lookback.
func (s *YahooSource) Bars(ctx context.Context, symbol string, lookbackDays int, interval Interval) (domain.BarSeries, error) {
	token, ok := yahooIntervals[interval]
	if !ok {
		return domain.BarSeries{}, errors.Errorf("yahoo: unsupported interval %q", interval)
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		s.baseURL, url.PathEscape(s.yahooSymbol(symbol)), token, yahooRange(lookbackDays, interval))

	bars, err := backoff.RetryWithData(ctx, s.retry, func(ctx context.Context) ([]domain.Bar, error) {
		return s.fetchChart(ctx, u)
	})
	if err != nil {
		return domain.BarSeries{}, errors.Wrapf(err, "yahoo: fetch bars for %s", symbol)
	}

	if interval == Interval1d && len(bars) > lookbackDays && lookbackDays > 0 {
		bars = bars[len(bars)-lookbackDays:]
	}
	s.logger.Debug("fetched yahoo bars",
		zap.String("symbol", symbol),
		zap.String("interval", string(interval)),
		zap.Int("count", len(bars)))

	return domain.BarSeries{Symbol: symbol, Bars: bars}, nil
}

func (s *YahooSource) fetchChart(ctx context.Context, u string) ([]domain.Bar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, errors.Wrap(err, "decode chart")
	}
	if chart.Chart.Error != nil {
		return nil, errors.Errorf("api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 ||
		len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.New("no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue
		}
		bars = append(bars, domain.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
