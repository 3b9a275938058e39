package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "narrative:\n  api_key: file-key\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "GOLD", cfg.Symbol)
	require.Equal(t, "yahoo", cfg.Vendor)
	require.Equal(t, []string{"DXY", "US10Y", "SPX"}, cfg.CorrelationSymbols)
	require.Equal(t, 50, cfg.Analysis.ProfileBins)
	require.Equal(t, "daily", cfg.Schedule.Mode)
	require.Equal(t, "file-key", cfg.Narrative.APIKey)
}

func TestLoadOverridesAndEnv(t *testing.T) {
	path := writeConfig(t, `
symbol: SILVER
vendor: binance
correlation_symbols: [GOLD]
narrative:
  api_key: file-key
discord:
  webhook_url: file-url
schedule:
  mode: interval
  interval: 4h
`)
	t.Setenv(EnvNarrativeAPIKey, "env-key")
	t.Setenv(EnvWebhookURL, "env-url")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "SILVER", cfg.Symbol)
	require.Equal(t, "binance", cfg.Vendor)
	require.Equal(t, 4*time.Hour, cfg.Schedule.Interval)
	require.Equal(t, "env-key", cfg.Narrative.APIKey)
	require.Equal(t, "env-url", cfg.Discord.WebhookURL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"unknown vendor":   "vendor: kraken\n",
		"bad session hour": "session:\n  end_hour: 24\n",
		"bad mode":         "schedule:\n  mode: hourly\n",
		"bad daily time":   "schedule:\n  mode: daily\n  daily_at: 25:00\n",
		"bad skip day":     "schedule:\n  skip_weekday: caturday\n",
		"zero interval":    "schedule:\n  mode: interval\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestDailyTimeAndSkipWeekday(t *testing.T) {
	path := writeConfig(t, `
schedule:
  mode: daily
  daily_at: "13:45"
  skip_weekday: Saturday
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	hour, minute, err := cfg.DailyTime()
	require.NoError(t, err)
	require.Equal(t, 13, hour)
	require.Equal(t, 45, minute)

	day, err := cfg.SkipWeekday()
	require.NoError(t, err)
	require.Equal(t, time.Saturday, day)

	cfg.Schedule.SkipWeekday = ""
	day, err = cfg.SkipWeekday()
	require.NoError(t, err)
	require.Equal(t, time.Weekday(-1), day)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
