package market

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"aurum/internal/domain"
	"aurum/pkg/backoff"
)

const defaultFredBaseURL = "https://fred.stlouisfed.org"

// FRED publishes WALCL in millions and the Treasury account / reverse
// repo series in billions; everything gets normalized to trillions so
// net liquidity arithmetic stays in one unit.
var fredUnitScale = map[string]float64{
	"WALCL":     1e-6,
	"WTREGEN":   1e-3,
	"RRPONTSYD": 1e-3,
}

// FredSource pulls macro series from the public fredgraph CSV endpoint.
// No API key is required.
type FredSource struct {
	client  *http.Client
	baseURL string
	retry   backoff.Policy
	logger  *zap.Logger
}

// NewFredSource builds a source against the public FRED endpoint.
func NewFredSource(logger *zap.Logger) *FredSource {
	return &FredSource{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultFredBaseURL,
		retry:   backoff.Default(),
		logger:  logger,
	}
}

// WithBaseURL points the source at an alternative endpoint. Used by
// tests to swap in a local server.
func (s *FredSource) WithBaseURL(base string) *FredSource {
	s.baseURL = base
	return s
}

// MacroInputs fetches the balance-sheet series over the trailing
// lookback window plus the latest 10Y and 2Y yields. Each series
// degrades independently: a failed fetch leaves its field empty or nil
// and the error surfaces only through the log.
func (s *FredSource) MacroInputs(ctx context.Context, lookbackDays int) domain.MacroInputs {
	var in domain.MacroInputs

	fetch := func(series string) []domain.Observation {
		obs, err := s.Series(ctx, series, lookbackDays)
		if err != nil {
			s.logger.Warn("macro series unavailable", zap.String("series", series), zap.Error(err))
			return nil
		}
		return obs
	}
	in.WALCL = fetch("WALCL")
	in.WTREGEN = fetch("WTREGEN")
	in.RRP = fetch("RRPONTSYD")

	yield := func(series string) *float64 {
		obs, err := s.Series(ctx, series, 30)
		if err != nil || len(obs) == 0 {
			s.logger.Warn("yield series unavailable", zap.String("series", series), zap.Error(err))
			return nil
		}
		v := obs[len(obs)-1].Value
		return &v
	}
	in.US10Y = yield("DGS10")
	in.US02Y = yield("DGS2")

	return in
}

// Series fetches a single FRED series as dated observations, oldest
// first. Missing values ("." rows) are skipped.
func (s *FredSource) Series(ctx context.Context, series string, lookbackDays int) ([]domain.Observation, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)
	u := fmt.Sprintf("%s/graph/fredgraph.csv?id=%s&cosd=%s&coed=%s",
		s.baseURL, url.QueryEscape(series),
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	body, err := backoff.RetryWithData(ctx, s.retry, func(ctx context.Context) ([]byte, error) {
		return s.get(ctx, u)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fred: fetch series %s", series)
	}

	obs, err := parseFredCSV(body, fredScale(series))
	if err != nil {
		return nil, errors.Wrapf(err, "fred: parse series %s", series)
	}
	if len(obs) == 0 {
		return nil, errors.Errorf("fred: no observations for %s", series)
	}
	return obs, nil
}

func fredScale(series string) float64 {
	if scale, ok := fredUnitScale[series]; ok {
		return scale
	}
	return 1
}

func (s *FredSource) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

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
	return body, nil
}

func parseFredCSV(body []byte, scale float64) ([]domain.Observation, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	var obs []domain.Observation
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read row")
		}
		if first {
			first = false
			continue
		}
		if len(rec) < 2 || rec[1] == "." {
			continue
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		obs = append(obs, domain.Observation{Date: date, Value: value * scale})
	}
	return obs, nil
}
