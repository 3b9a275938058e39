// Package config loads the pipeline configuration from a YAML file
// with environment overrides for secrets.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"aurum/internal/market"
	"aurum/internal/scheduler"
)

// Environment variables overriding their file counterparts.
const (
	EnvNarrativeAPIKey = "OPENROUTER_API_KEY"
	EnvWebhookURL      = "DISCORD_WEBHOOK_URL"
)

// Config is the full, validated runtime configuration. Instances are
// treated as immutable after Load.
type Config struct {
	Symbol             string   `yaml:"symbol"`
	CorrelationSymbols []string `yaml:"correlation_symbols"`
	Vendor             string   `yaml:"vendor"`
	LookbackDays       int      `yaml:"lookback_days"`
	Interval           string   `yaml:"interval"`

	Session struct {
		Timezone  string `yaml:"timezone"`
		StartHour int    `yaml:"start_hour"`
		EndHour   int    `yaml:"end_hour"`
	} `yaml:"session"`

	Analysis struct {
		VolatilityLookback int `yaml:"volatility_lookback"`
		ProfileBins        int `yaml:"profile_bins"`
		RegimePeriod       int `yaml:"regime_period"`
		MacroLookbackDays  int `yaml:"macro_lookback_days"`
		LiquidityEMAPeriod int `yaml:"liquidity_ema_period"`
	} `yaml:"analysis"`

	Positioning struct {
		Market string `yaml:"market"`
	} `yaml:"positioning"`

	Narrative struct {
		APIURL string `yaml:"api_url"`
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"narrative"`

	Discord struct {
		WebhookURL string `yaml:"webhook_url"`
		MaxLength  int    `yaml:"max_length"`
	} `yaml:"discord"`

	Schedule struct {
		Mode        string        `yaml:"mode"`
		Interval    time.Duration `yaml:"interval"`
		DailyAt     string        `yaml:"daily_at"`
		Timezone    string        `yaml:"timezone"`
		SkipWeekday string        `yaml:"skip_weekday"`
	} `yaml:"schedule"`
}

// Load reads and validates the configuration file, applying defaults
// and environment overrides.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}

	if key := os.Getenv(EnvNarrativeAPIKey); key != "" {
		cfg.Narrative.APIKey = key
	}
	if url := os.Getenv(EnvWebhookURL); url != "" {
		cfg.Discord.WebhookURL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{
		Symbol:             "GOLD",
		CorrelationSymbols: []string{"DXY", "US10Y", "SPX"},
		Vendor:             "yahoo",
		LookbackDays:       30,
		Interval:           string(market.Interval1h),
	}
	cfg.Session.Timezone = "UTC"
	cfg.Session.EndHour = 21
	cfg.Analysis.VolatilityLookback = 20
	cfg.Analysis.ProfileBins = 50
	cfg.Analysis.RegimePeriod = 20
	cfg.Analysis.MacroLookbackDays = 180
	cfg.Analysis.LiquidityEMAPeriod = 20
	cfg.Positioning.Market = "GOLD"
	cfg.Narrative.APIURL = "https://openrouter.ai/api/v1/chat/completions"
	cfg.Narrative.Model = "anthropic/claude-3.5-sonnet"
	cfg.Schedule.Mode = scheduler.ModeDaily
	cfg.Schedule.DailyAt = "08:00"
	cfg.Schedule.Timezone = "UTC"
	return cfg
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return errors.New("config: symbol is required")
	}
	switch c.Vendor {
	case "yahoo", "binance":
	default:
		return errors.Errorf("config: unknown vendor %q", c.Vendor)
	}
	if c.LookbackDays <= 0 {
		return errors.New("config: lookback_days must be positive")
	}
	if c.Session.StartHour < 0 || c.Session.StartHour > 23 ||
		c.Session.EndHour < 0 || c.Session.EndHour > 23 {
		return errors.New("config: session hours must be in [0,23]")
	}
	if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
		return errors.Wrapf(err, "config: session timezone %q", c.Session.Timezone)
	}

	switch c.Schedule.Mode {
	case scheduler.ModeOnce:
	case scheduler.ModeInterval:
		if c.Schedule.Interval <= 0 {
			return errors.New("config: schedule interval must be positive")
		}
	case scheduler.ModeDaily:
		if _, _, err := c.DailyTime(); err != nil {
			return err
		}
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return errors.Wrapf(err, "config: schedule timezone %q", c.Schedule.Timezone)
		}
		if _, err := c.SkipWeekday(); err != nil {
			return err
		}
	default:
		return errors.Errorf("config: unknown schedule mode %q", c.Schedule.Mode)
	}
	return nil
}

// DailyTime parses the HH:MM daily run time.
func (c *Config) DailyTime() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.Schedule.DailyAt)
	if err != nil {
		return 0, 0, errors.Errorf("config: daily_at %q is not HH:MM", c.Schedule.DailyAt)
	}
	return t.Hour(), t.Minute(), nil
}

// SkipWeekday resolves the configured skip day; -1 means no skip.
func (c *Config) SkipWeekday() (time.Weekday, error) {
	if c.Schedule.SkipWeekday == "" {
		return -1, nil
	}
	day, ok := weekdays[strings.ToLower(c.Schedule.SkipWeekday)]
	if !ok {
		return -1, errors.Errorf("config: unknown skip_weekday %q", c.Schedule.SkipWeekday)
	}
	return day, nil
}

// SessionLocation returns the session timezone. Validate guarantees it
// loads.
func (c *Config) SessionLocation() *time.Location {
	loc, err := time.LoadLocation(c.Session.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ScheduleLocation returns the schedule timezone. Validate guarantees
// it loads.
func (c *Config) ScheduleLocation() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
