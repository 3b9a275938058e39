// Package pipeline orchestrates one analysis run: fetch inputs
// concurrently, compute the descriptor set, generate the narrative and
// deliver it. Descriptor failures degrade the bundle; only a missing
// primary series or a failed delivery abort the run.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aurum/internal/analysis"
	"aurum/internal/calendar"
	"aurum/internal/delivery"
	"aurum/internal/domain"
	"aurum/internal/market"
	"aurum/internal/narrative"
)

// PositioningSource supplies the weekly futures positioning snapshot.
type PositioningSource interface {
	Positioning(ctx context.Context) (domain.Positioning, error)
}

// MacroSource supplies the raw macro series for the liquidity read.
type MacroSource interface {
	MacroInputs(ctx context.Context, lookbackDays int) domain.MacroInputs
}

// Params carries the per-run analysis knobs.
type Params struct {
	Symbol             string
	CorrelationSymbols []string
	LookbackDays       int
	Interval           market.Interval
	SourceName         string

	ProfileBins   int
	RegimePeriod  int
	MacroLookback int
	LiquidityEMA  int
}

// Pipeline wires the sources, analyzers and sinks of one report run.
type Pipeline struct {
	params     Params
	source     market.Source
	positions  PositioningSource
	macro      MacroSource
	calendar   *calendar.Calendar
	sessions   *analysis.SessionAggregator
	bands      *analysis.BandCalculator
	correlator *analysis.CorrelationEngine
	generator  narrative.Generator
	channel    delivery.Channel
	logger     *zap.Logger
	now        func() time.Time
}

// New assembles a pipeline from its collaborators.
func New(
	params Params,
	source market.Source,
	positions PositioningSource,
	macro MacroSource,
	cal *calendar.Calendar,
	sessions *analysis.SessionAggregator,
	bands *analysis.BandCalculator,
	correlator *analysis.CorrelationEngine,
	generator narrative.Generator,
	channel delivery.Channel,
	logger *zap.Logger,
) *Pipeline {
	if params.ProfileBins <= 0 {
		params.ProfileBins = analysis.DefaultProfileBins
	}
	if params.RegimePeriod <= 0 {
		params.RegimePeriod = analysis.DefaultRegimePeriod
	}
	if params.MacroLookback <= 0 {
		params.MacroLookback = 180
	}
	return &Pipeline{
		params:     params,
		source:     source,
		positions:  positions,
		macro:      macro,
		calendar:   cal,
		sessions:   sessions,
		bands:      bands,
		correlator: correlator,
		generator:  generator,
		channel:    channel,
		logger:     logger,
		now:        time.Now,
	}
}

type fetched struct {
	primary     domain.BarSeries
	primaryErr  error
	correlated  []domain.BarSeries
	positioning domain.Positioning
	posErr      error
	macroInputs domain.MacroInputs
}

// Run executes one full report cycle.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))
	now := p.now().UTC()

	log.Info("run started",
		zap.String("symbol", p.params.Symbol),
		zap.String("source", p.params.SourceName))

	data := p.fetch(ctx, log)
	if data.primaryErr != nil {
		return errors.Wrapf(data.primaryErr, "fetch primary series %s", p.params.Symbol)
	}
	if data.primary.Empty() {
		return errors.Errorf("primary series %s is empty", p.params.Symbol)
	}

	bundle := p.analyze(now, data, log)

	report, err := p.generator.Generate(ctx, bundle)
	if err != nil {
		log.Warn("narrative generation failed, shipping fallback digest", zap.Error(err))
		report = narrative.FallbackReport(bundle)
	}

	if err := p.channel.Send(ctx, report); err != nil {
		return errors.Wrap(err, "deliver report")
	}

	log.Info("run finished", zap.Int("report_chars", len(report)))
	return nil
}

// fetch pulls every input concurrently. Each result lands in its own
// slot, so no locking is needed beyond the WaitGroup.
func (p *Pipeline) fetch(ctx context.Context, log *zap.Logger) fetched {
	var data fetched
	data.correlated = make([]domain.BarSeries, len(p.params.CorrelationSymbols))

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		data.primary, data.primaryErr = p.source.Bars(
			ctx, p.params.Symbol, p.params.LookbackDays, p.params.Interval)
	}()

	for i, symbol := range p.params.CorrelationSymbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			series, err := p.source.Bars(ctx, symbol, p.params.LookbackDays, p.params.Interval)
			if err != nil {
				log.Warn("correlation series unavailable",
					zap.String("symbol", symbol), zap.Error(err))
				return
			}
			data.correlated[i] = series
		}(i, symbol)
	}

	if p.positions != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data.positioning, data.posErr = p.positions.Positioning(ctx)
		}()
	}

	if p.macro != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data.macroInputs = p.macro.MacroInputs(ctx, p.params.MacroLookback)
		}()
	}

	wg.Wait()
	return data
}

// analyze computes every descriptor, degrading independently on errors.
func (p *Pipeline) analyze(now time.Time, data fetched, log *zap.Logger) domain.Bundle {
	bundle := domain.Bundle{
		Timestamp: now.Format("2006-01-02 15:04 UTC"),
		Symbol:    p.params.Symbol,
		Quality: domain.DataQuality{
			BarsAnalyzed: data.primary.Len(),
			Source:       p.params.SourceName,
		},
	}

	last, _ := data.primary.Last()
	bundle.CurrentPrice = decimal.NewFromFloat(last.Close).Round(analysis.PricePrecision)
	bundle.DailyChangePct = dailyChangePct(data.primary)

	if rec, err := p.sessions.Aggregate(data.primary, now); err != nil {
		log.Warn("session aggregation unavailable", zap.Error(err))
	} else {
		bundle.Session = &rec
	}

	bundle.Volatility = p.volatility(data.primary, bundle.Session, now, log)

	if profile, err := analysis.BuildVolumeProfile(data.primary, p.params.ProfileBins, analysis.PricePrecision); err != nil {
		log.Warn("volume profile unavailable", zap.Error(err))
	} else {
		vpoc := profile.VPOC
		bundle.Structure.VPOC = &vpoc
		bundle.Structure.MaxVolume = profile.MaxVolume
	}
	bundle.Structure.Regime = analysis.ClassifyRegime(data.primary, p.params.RegimePeriod)

	all := append([]domain.BarSeries{data.primary}, data.correlated...)
	if matrix := p.correlator.Matrix(all); !matrix.Empty() {
		bundle.Correlations = matrix.Coeffs
	} else {
		log.Warn("correlation matrix unavailable")
	}

	if data.posErr != nil {
		log.Warn("positioning unavailable", zap.Error(data.posErr))
		bundle.Positioning = domain.UnavailablePositioning()
	} else {
		bundle.Positioning = data.positioning
	}

	bundle.Events = p.calendar.Context(now)
	bundle.Macro = analysis.AnalyzeMacro(data.macroInputs, p.params.LiquidityEMA)
	if !bundle.Macro.Available {
		log.Warn("macro regime unavailable")
	}

	return bundle
}

// volatility prefers session-derived bands, falls back to close-to-close
// bands, and expands either for a high-impact release day.
func (p *Pipeline) volatility(series domain.BarSeries, session *domain.SessionRecord, now time.Time, log *zap.Logger) *domain.VolatilityBands {
	var bands domain.VolatilityBands
	var err error
	if session != nil {
		bands, err = p.bands.FromSession(*session)
	} else {
		bands, err = p.bands.FromCloses(series.Closes())
	}
	if err != nil {
		log.Warn("volatility bands unavailable", zap.Error(err))
		return nil
	}

	if ev := p.calendar.HighImpactToday(now); ev != nil {
		baseline := bands.SessionRange
		if baseline == 0 {
			if atr, atrErr := analysis.AverageTrueRange(series, p.params.RegimePeriod); atrErr == nil {
				baseline = atr
			}
		}
		expanded := p.bands.ApplyEvent(bands, baseline, *ev)
		if expanded.EventCode != "" {
			log.Info("event-expanded bands applied",
				zap.String("event", ev.Code),
				zap.Float64("k_factor", ev.KFactor))
		}
		bands = expanded
	}
	return &bands
}

// dailyChangePct compares the last close with the close nearest to 24
// hours earlier. For daily bars that is simply the previous bar.
func dailyChangePct(series domain.BarSeries) decimal.Decimal {
	last, ok := series.Last()
	if !ok || series.Len() < 2 {
		return decimal.Zero
	}

	cutoff := last.Time.Add(-24 * time.Hour)
	prev := series.Bars[0]
	for _, b := range series.Bars[:series.Len()-1] {
		if b.Time.After(cutoff) {
			break
		}
		prev = b
	}
	if prev.Close == 0 {
		return decimal.Zero
	}
	pct := (last.Close - prev.Close) / prev.Close * 100
	return decimal.NewFromFloat(pct).Round(analysis.PricePrecision)
}
