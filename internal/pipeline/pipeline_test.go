package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aurum/internal/analysis"
	"aurum/internal/calendar"
	"aurum/internal/domain"
	"aurum/internal/market"
)

type fakeSource struct {
	series map[string]domain.BarSeries
	errs   map[string]error
}

func (f *fakeSource) Bars(ctx context.Context, symbol string, lookbackDays int, interval market.Interval) (domain.BarSeries, error) {
	if err, ok := f.errs[symbol]; ok {
		return domain.BarSeries{}, err
	}
	return f.series[symbol], nil
}

type fakePositioning struct {
	pos domain.Positioning
	err error
}

func (f *fakePositioning) Positioning(ctx context.Context) (domain.Positioning, error) {
	return f.pos, f.err
}

type fakeMacro struct {
	inputs domain.MacroInputs
}

func (f *fakeMacro) MacroInputs(ctx context.Context, lookbackDays int) domain.MacroInputs {
	return f.inputs
}

type fakeGenerator struct {
	report string
	err    error
	bundle domain.Bundle
}

func (f *fakeGenerator) Generate(ctx context.Context, bundle domain.Bundle) (string, error) {
	f.bundle = bundle
	if f.err != nil {
		return "", f.err
	}
	return f.report, nil
}

type fakeChannel struct {
	sent []string
	err  error
}

func (f *fakeChannel) Send(ctx context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

// runAt is a quiet calendar day so event expansion stays out of the
// base fixtures.
var runAt = time.Date(2025, 9, 18, 20, 0, 0, 0, time.UTC)

func hourlySeries(symbol string, from, to time.Time, price func(i int) float64) domain.BarSeries {
	var bars []domain.Bar
	for i, ts := 0, from; !ts.After(to); i, ts = i+1, ts.Add(time.Hour) {
		p := price(i)
		bars = append(bars, domain.Bar{
			Time:   ts,
			Open:   p - 0.5,
			High:   p + 1,
			Low:    p - 1,
			Close:  p,
			Volume: 1000,
		})
	}
	return domain.BarSeries{Symbol: symbol, Bars: bars}
}

func testFixtures(now time.Time) (*fakeSource, Params) {
	from := now.Add(-14 * 24 * time.Hour)
	to := now.Add(-time.Hour)
	src := &fakeSource{
		series: map[string]domain.BarSeries{
			"GOLD": hourlySeries("GOLD", from, to, func(i int) float64 {
				return 2500 + 5*math.Sin(float64(i)/10)
			}),
			"DXY": hourlySeries("DXY", from, to, func(i int) float64 {
				return 100 - 0.1*math.Sin(float64(i)/10)
			}),
		},
	}
	params := Params{
		Symbol:             "GOLD",
		CorrelationSymbols: []string{"DXY"},
		LookbackDays:       14,
		Interval:           market.Interval1h,
		SourceName:         "test",
		RegimePeriod:       20,
		LiquidityEMA:       5,
	}
	return src, params
}

func newTestPipeline(t *testing.T, src *fakeSource, params Params, gen *fakeGenerator, ch *fakeChannel, posErr error) *Pipeline {
	t.Helper()
	pos := &fakePositioning{
		pos: domain.Positioning{
			ReportDate:  "2025-09-16",
			Speculators: domain.TraderGroup{Long: 250000, Short: 60000, Net: 190000, Bias: "NET LONG", Strength: "Strong"},
			Available:   true,
		},
		err: posErr,
	}
	if posErr != nil {
		pos.pos = domain.UnavailablePositioning()
	}

	ten, two := 4.1, 3.6
	macro := &fakeMacro{inputs: domain.MacroInputs{US10Y: &ten, US02Y: &two}}

	p := New(
		params,
		src,
		pos,
		macro,
		calendar.New(),
		analysis.NewSessionAggregator(time.UTC, 0, 18, analysis.PricePrecision),
		analysis.NewBandCalculator(analysis.DefaultVolatilityLookback, analysis.BandPrecision),
		analysis.NewCorrelationEngine(5*time.Minute),
		gen,
		ch,
		zap.NewNop(),
	)
	p.now = func() time.Time { return runAt }
	return p
}

func TestRunDeliversNarrative(t *testing.T) {
	src, params := testFixtures(runAt)
	gen := &fakeGenerator{report: "# Intelligence Report"}
	ch := &fakeChannel{}

	p := newTestPipeline(t, src, params, gen, ch, nil)
	require.NoError(t, p.Run(context.Background()))

	require.Equal(t, []string{"# Intelligence Report"}, ch.sent)

	b := gen.bundle
	require.Equal(t, "GOLD", b.Symbol)
	require.Equal(t, "2025-09-18 20:00 UTC", b.Timestamp)
	require.False(t, b.CurrentPrice.IsZero())
	require.NotNil(t, b.Session)
	require.NotNil(t, b.Volatility)
	require.True(t, b.Volatility.Ordered())
	require.Empty(t, b.Volatility.EventCode)
	require.NotNil(t, b.Structure.VPOC)
	require.NotEqual(t, domain.RegimeUnknown, b.Structure.Regime)
	require.Contains(t, b.Correlations, "GOLD")
	require.Contains(t, b.Correlations["GOLD"], "DXY")
	require.Less(t, b.Correlations["GOLD"]["DXY"], 0.0, "inverse fixtures must correlate negatively")
	require.True(t, b.Positioning.Available)
	require.True(t, b.Macro.Available)
	require.Equal(t, "test", b.Quality.Source)
	require.Equal(t, src.series["GOLD"].Len(), b.Quality.BarsAnalyzed)
}

func TestRunPrimaryFetchFailureIsFatal(t *testing.T) {
	src, params := testFixtures(runAt)
	src.errs = map[string]error{"GOLD": errors.New("vendor down")}
	ch := &fakeChannel{}

	p := newTestPipeline(t, src, params, &fakeGenerator{report: "r"}, ch, nil)
	err := p.Run(context.Background())
	require.Error(t, err)
	require.Empty(t, ch.sent)
}

func TestRunDegradesOnCollaboratorFailures(t *testing.T) {
	src, params := testFixtures(runAt)
	src.errs = map[string]error{"DXY": errors.New("vendor down")}
	gen := &fakeGenerator{report: "r"}
	ch := &fakeChannel{}

	p := newTestPipeline(t, src, params, gen, ch, errors.New("cftc unreachable"))
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, ch.sent, 1)
	require.False(t, gen.bundle.Positioning.Available)
	require.Empty(t, gen.bundle.Correlations, "single surviving series yields no matrix")
}

func TestRunFallsBackWhenNarrativeFails(t *testing.T) {
	src, params := testFixtures(runAt)
	gen := &fakeGenerator{err: errors.New("llm exhausted")}
	ch := &fakeChannel{}

	p := newTestPipeline(t, src, params, gen, ch, nil)
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, ch.sent, 1)
	require.Contains(t, ch.sent[0], "GOLD Market Digest")
}

func TestRunDeliveryFailureIsFatal(t *testing.T) {
	src, params := testFixtures(runAt)
	ch := &fakeChannel{err: errors.New("webhook rejected")}

	p := newTestPipeline(t, src, params, &fakeGenerator{report: "r"}, ch, nil)
	require.Error(t, p.Run(context.Background()))
}

func TestRunExpandsBandsOnEventDay(t *testing.T) {
	eventDay := time.Date(2025, 9, 17, 20, 0, 0, 0, time.UTC) // FOMC decision day
	src, params := testFixtures(eventDay)
	gen := &fakeGenerator{report: "r"}
	ch := &fakeChannel{}

	p := newTestPipeline(t, src, params, gen, ch, nil)
	p.now = func() time.Time { return eventDay }
	require.NoError(t, p.Run(context.Background()))

	require.NotNil(t, gen.bundle.Volatility)
	require.Equal(t, calendar.CodeFOMC, gen.bundle.Volatility.EventCode)
	require.True(t, gen.bundle.Volatility.Ordered())
}

func TestDailyChangePct(t *testing.T) {
	base := time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)
	series := domain.BarSeries{Symbol: "GOLD", Bars: []domain.Bar{
		{Time: base, Close: 2500},
		{Time: base.Add(12 * time.Hour), Close: 2510},
		{Time: base.Add(36 * time.Hour), Close: 2550},
	}}

	pct := dailyChangePct(series)
	require.Equal(t, "1.59", pct.String(), "2550 vs 2510 exactly a day earlier")

	require.True(t, dailyChangePct(domain.BarSeries{}).IsZero())
}
