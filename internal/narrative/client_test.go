package narrative

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aurum/internal/domain"
	"aurum/pkg/backoff"
)

func fastRetry() backoff.Policy {
	p := backoff.Default()
	p.InitialInterval = time.Millisecond
	p.MaxInterval = time.Millisecond
	return p
}

func testBundle() domain.Bundle {
	vpoc := decimal.NewFromFloat(2501.25)
	return domain.Bundle{
		Timestamp:    "2026-08-26 08:00 UTC",
		Symbol:       "GOLD",
		CurrentPrice: decimal.NewFromFloat(2520.50),
		Structure:    domain.MarketStructure{VPOC: &vpoc, Regime: domain.RegimeBalance},
		Quality:      domain.DataQuality{BarsAnalyzed: 480, Source: "yahoo"},
	}
}

func TestGenerateSendsBundleAndPrompts(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"# Report"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", zap.NewNop())
	c.retry = fastRetry()

	report, err := c.Generate(context.Background(), testBundle())
	require.NoError(t, err)
	require.Equal(t, "# Report", report)

	require.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	require.Equal(t, "system", gotReq.Messages[0].Role)
	require.Equal(t, SystemPrompt, gotReq.Messages[0].Content)
	require.Contains(t, gotReq.Messages[1].Content, `"symbol": "GOLD"`)
	require.Contains(t, gotReq.Messages[1].Content, "Game Theory Scenarios")
	require.Equal(t, defaultTemperature, gotReq.Temperature)
	require.Equal(t, defaultMaxTokens, gotReq.MaxTokens)
}

func TestGenerateRetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"late but fine"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", zap.NewNop())
	c.retry = fastRetry()

	report, err := c.Generate(context.Background(), testBundle())
	require.NoError(t, err)
	require.Equal(t, "late but fine", report)
	require.Equal(t, 3, calls)
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit","code":"429"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", zap.NewNop())
	c.retry = fastRetry()

	_, err := c.Generate(context.Background(), testBundle())
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateMissingKey(t *testing.T) {
	c := NewClient("http://unused", "", "test-model", zap.NewNop())
	_, err := c.Generate(context.Background(), testBundle())
	require.Error(t, err)
}

func TestFallbackReport(t *testing.T) {
	b := testBundle()
	b.Macro = domain.MacroRegime{
		YieldCurveSpread: 0.45,
		MacroState:       "BLUE (NORMAL)",
		NetLiquidity:     5.87,
		LiquidityTrend:   "RISING",
		CombinedSignal:   "LONG BIAS - full risk-on conditions",
		Available:        true,
	}
	b.Events.RiskWarning = "HIGH IMPACT TODAY: FOMC Rate Decision"

	report := FallbackReport(b)
	require.Contains(t, report, "GOLD Market Digest")
	require.Contains(t, report, "2501.25")
	require.Contains(t, report, "$5.87 Trillion")
	require.Contains(t, report, "LONG BIAS")
	require.Contains(t, report, "HIGH IMPACT TODAY")
}
