package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFredSeriesParsesAndScales(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "WALCL", r.URL.Query().Get("id"))
		w.Write([]byte("DATE,WALCL\n2026-08-19,6700000\n2026-08-20,.\n2026-08-21,6650000\n"))
	}))
	defer srv.Close()

	src := NewFredSource(zap.NewNop()).WithBaseURL(srv.URL)
	src.retry = fastRetry()

	obs, err := src.Series(context.Background(), "WALCL", 90)
	require.NoError(t, err)
	require.Len(t, obs, 2, "missing-value rows must be skipped")
	require.InDelta(t, 6.7, obs[0].Value, 1e-9, "millions scale to trillions")
	require.InDelta(t, 6.65, obs[1].Value, 1e-9)
	require.True(t, obs[0].Date.Before(obs[1].Date))
}

func TestFredSeriesYieldUnscaled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("DATE,DGS10\n2026-08-21,4.12\n"))
	}))
	defer srv.Close()

	src := NewFredSource(zap.NewNop()).WithBaseURL(srv.URL)
	src.retry = fastRetry()

	obs, err := src.Series(context.Background(), "DGS10", 30)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	require.Equal(t, 4.12, obs[0].Value)
}

func TestFredSeriesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("DATE,WTREGEN\n"))
	}))
	defer srv.Close()

	src := NewFredSource(zap.NewNop()).WithBaseURL(srv.URL)
	src.retry = fastRetry()

	_, err := src.Series(context.Background(), "WTREGEN", 90)
	require.Error(t, err)
}

func TestFredMacroInputsDegradesPerSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "WALCL":
			w.Write([]byte("DATE,WALCL\n2026-08-21,6700000\n"))
		case "DGS10":
			w.Write([]byte("DATE,DGS10\n2026-08-21,4.12\n"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	src := NewFredSource(zap.NewNop()).WithBaseURL(srv.URL)
	src.retry = fastRetry()

	in := src.MacroInputs(context.Background(), 90)
	require.Len(t, in.WALCL, 1)
	require.Empty(t, in.WTREGEN)
	require.Empty(t, in.RRP)
	require.NotNil(t, in.US10Y)
	require.Equal(t, 4.12, *in.US10Y)
	require.Nil(t, in.US02Y)
}
