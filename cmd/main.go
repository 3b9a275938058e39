// Command aurum runs the scheduled market intelligence pipeline: it
// fetches bars, positioning and macro series, computes the structure
// and regime descriptors, generates a narrative report and delivers it
// to a Discord webhook.
//
// Usage:
//
//	aurum --config config.yaml
//	aurum --config config.yaml --once
//
// Environment variables:
//
//	OPENROUTER_API_KEY   narrative API key (overrides the config file)
//	DISCORD_WEBHOOK_URL  delivery webhook (overrides the config file)
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"aurum/internal/analysis"
	"aurum/internal/calendar"
	"aurum/internal/config"
	"aurum/internal/delivery"
	"aurum/internal/market"
	"aurum/internal/narrative"
	"aurum/internal/pipeline"
	"aurum/internal/positioning"
	"aurum/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to yaml config")
	runOnce := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var source market.Source
	switch cfg.Vendor {
	case "binance":
		source = market.NewBinanceSource(binance.NewClient("", ""), logger)
	default:
		source = market.NewYahooSource(logger)
	}

	params := pipeline.Params{
		Symbol:             cfg.Symbol,
		CorrelationSymbols: cfg.CorrelationSymbols,
		LookbackDays:       cfg.LookbackDays,
		Interval:           market.Interval(cfg.Interval),
		SourceName:         cfg.Vendor,
		ProfileBins:        cfg.Analysis.ProfileBins,
		RegimePeriod:       cfg.Analysis.RegimePeriod,
		MacroLookback:      cfg.Analysis.MacroLookbackDays,
		LiquidityEMA:       cfg.Analysis.LiquidityEMAPeriod,
	}

	p := pipeline.New(
		params,
		source,
		positioning.NewCOTSource(cfg.Positioning.Market, logger),
		market.NewFredSource(logger),
		calendar.New(),
		analysis.NewSessionAggregator(cfg.SessionLocation(), cfg.Session.StartHour, cfg.Session.EndHour, analysis.PricePrecision),
		analysis.NewBandCalculator(cfg.Analysis.VolatilityLookback, analysis.BandPrecision),
		analysis.NewCorrelationEngine(5*time.Minute),
		narrative.NewClient(cfg.Narrative.APIURL, cfg.Narrative.APIKey, cfg.Narrative.Model, logger),
		delivery.NewDiscordWebhook(cfg.Discord.WebhookURL, cfg.Discord.MaxLength, logger),
		logger,
	)

	schedCfg := scheduler.Config{Mode: cfg.Schedule.Mode}
	if *runOnce {
		schedCfg.Mode = scheduler.ModeOnce
	}
	switch schedCfg.Mode {
	case scheduler.ModeInterval:
		schedCfg.Interval = cfg.Schedule.Interval
	case scheduler.ModeDaily:
		schedCfg.Hour, schedCfg.Minute, _ = cfg.DailyTime()
		schedCfg.Location = cfg.ScheduleLocation()
		schedCfg.SkipDay, _ = cfg.SkipWeekday()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scheduler.New(schedCfg, p, logger).Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("scheduler stopped", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
