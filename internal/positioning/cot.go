// Package positioning reads the weekly CFTC Commitments of Traders
// futures-only report and extracts long/short positioning for one
// market. The report is a headered CSV whose column names drift between
// publications, so columns are located by keyword probing rather than
// fixed indexes.
package positioning

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aurum/internal/domain"
	"aurum/pkg/backoff"
)

const defaultCOTURL = "https://www.cftc.gov/dea/newcot/deafut.txt"

const strongNetThreshold = 100000

// columnProbe matches a header when every require token appears and no
// exclude token does. Excludes keep "comm" probes from landing on the
// "noncomm" columns.
type columnProbe struct {
	require []string
	exclude []string
}

func (p columnProbe) matches(header string) bool {
	h := strings.ToLower(header)
	for _, tok := range p.require {
		if !strings.Contains(h, tok) {
			return false
		}
	}
	for _, tok := range p.exclude {
		if strings.Contains(h, tok) {
			return false
		}
	}
	return true
}

// Probe candidates in preference order per field. Percentage and change
// columns are excluded so probes land on the absolute contract counts.
var (
	countExcludes = []string{"pct", "%", "change", "trader", "spread"}

	marketNameProbes = []columnProbe{
		{require: []string{"market", "name"}},
	}
	reportDateProbes = []columnProbe{
		{require: []string{"date", "yyyy-mm-dd"}},
		{require: []string{"as_of_date"}},
		{require: []string{"date"}},
	}
	specLongProbes = []columnProbe{
		{require: []string{"noncomm", "long"}, exclude: countExcludes},
		{require: []string{"non-commercial", "long"}, exclude: countExcludes},
	}
	specShortProbes = []columnProbe{
		{require: []string{"noncomm", "short"}, exclude: countExcludes},
		{require: []string{"non-commercial", "short"}, exclude: countExcludes},
	}
	commLongProbes = []columnProbe{
		{require: []string{"comm", "long"}, exclude: append([]string{"noncomm", "non-commercial"}, countExcludes...)},
	}
	commShortProbes = []columnProbe{
		{require: []string{"comm", "short"}, exclude: append([]string{"noncomm", "non-commercial"}, countExcludes...)},
	}
	openInterestProbes = []columnProbe{
		{require: []string{"open", "interest"}, exclude: countExcludes},
	}
)

// COTSource fetches and parses the futures-only report.
type COTSource struct {
	client *http.Client
	url    string
	market string
	retry  backoff.Policy
	logger *zap.Logger
}

// NewCOTSource builds a source filtering the report for rows whose
// market name contains the given keyword (e.g. "GOLD").
func NewCOTSource(market string, logger *zap.Logger) *COTSource {
	return &COTSource{
		client: &http.Client{Timeout: 30 * time.Second},
		url:    defaultCOTURL,
		market: strings.ToUpper(market),
		retry:  backoff.Default(),
		logger: logger,
	}
}

// WithURL points the source at an alternative report URL. Used by tests
// to swap in a local server.
func (s *COTSource) WithURL(u string) *COTSource {
	s.url = u
	return s
}

// Positioning fetches the latest report and extracts the market's
// snapshot. Any failure returns the explicit unavailable record
// alongside the error so callers can ship a degraded report.
func (s *COTSource) Positioning(ctx context.Context) (domain.Positioning, error) {
	body, err := backoff.RetryWithData(ctx, s.retry, func(ctx context.Context) ([]byte, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return domain.UnavailablePositioning(), errors.Wrap(err, "cot: fetch report")
	}

	pos, err := s.parse(body)
	if err != nil {
		return domain.UnavailablePositioning(), errors.Wrap(err, "cot: parse report")
	}
	return pos, nil
}

func (s *COTSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
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
		return nil, errors.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}

func probeColumn(headers []string, probes []columnProbe) int {
	for _, p := range probes {
		for i, h := range headers {
			if p.matches(h) {
				return i
			}
		}
	}
	return -1
}

func cellInt(rec []string, idx int) int64 {
	if idx < 0 || idx >= len(rec) {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(rec[idx]), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func cellString(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func (s *COTSource) parse(body []byte) (domain.Positioning, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return domain.Positioning{}, errors.Wrap(err, "read header")
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	nameIdx := probeColumn(headers, marketNameProbes)
	if nameIdx < 0 {
		nameIdx = 0
	}
	dateIdx := probeColumn(headers, reportDateProbes)
	specLongIdx := probeColumn(headers, specLongProbes)
	specShortIdx := probeColumn(headers, specShortProbes)
	commLongIdx := probeColumn(headers, commLongProbes)
	commShortIdx := probeColumn(headers, commShortProbes)
	oiIdx := probeColumn(headers, openInterestProbes)

	if specLongIdx < 0 || specShortIdx < 0 {
		return domain.Positioning{}, errors.New("speculator columns not recognized")
	}

	var latest []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Positioning{}, errors.Wrap(err, "read row")
		}
		if strings.Contains(strings.ToUpper(cellString(rec, nameIdx)), s.market) {
			latest = rec
		}
	}
	if latest == nil {
		return domain.Positioning{}, errors.Errorf("market %q not found in report", s.market)
	}

	pos := domain.Positioning{
		ReportDate:   cellString(latest, dateIdx),
		OpenInterest: cellInt(latest, oiIdx),
		Available:    true,
	}
	if pos.ReportDate == "" {
		pos.ReportDate = "Latest"
	}

	pos.Speculators = traderGroup(
		cellInt(latest, specLongIdx), cellInt(latest, specShortIdx), pos.OpenInterest)
	pos.Commercials = traderGroup(
		cellInt(latest, commLongIdx), cellInt(latest, commShortIdx), pos.OpenInterest)

	s.logger.Debug("parsed positioning report",
		zap.String("market", s.market),
		zap.String("report_date", pos.ReportDate),
		zap.Int64("spec_net", pos.Speculators.Net))

	return pos, nil
}

func traderGroup(long, short, openInterest int64) domain.TraderGroup {
	g := domain.TraderGroup{
		Long:  long,
		Short: short,
		Net:   long - short,
	}
	if openInterest > 0 {
		oi := decimal.NewFromInt(openInterest)
		g.LongPct = decimal.NewFromInt(long).Div(oi).Mul(decimal.NewFromInt(100)).Round(1)
		g.ShortPct = decimal.NewFromInt(short).Div(oi).Mul(decimal.NewFromInt(100)).Round(1)
	}
	if g.Net >= 0 {
		g.Bias = "NET LONG"
	} else {
		g.Bias = "NET SHORT"
	}
	if abs64(g.Net) > strongNetThreshold {
		g.Strength = "Strong"
	} else {
		g.Strength = "Moderate"
	}
	return g
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
