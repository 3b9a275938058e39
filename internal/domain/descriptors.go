package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionRecord is one trading session aggregated from sub-session bars.
// Price fields are rounded to the configured price precision so repeated
// runs on identical input produce identical output.
type SessionRecord struct {
	Start    time.Time       `json:"session_start"`
	End      time.Time       `json:"session_end"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	VWAP     decimal.Decimal `json:"vwap"`
	Pivot    decimal.Decimal `json:"pivot"`
	Volume   float64         `json:"volume"`
	BarCount int             `json:"bar_count"`
}

// Range returns session high minus session low.
func (s SessionRecord) Range() float64 {
	return s.High.Sub(s.Low).InexactFloat64()
}

// VolatilityBands holds symmetric sigma levels around a pivot price.
// Invariant: TwoSigmaDown <= OneSigmaDown <= Pivot <= OneSigmaUp <= TwoSigmaUp.
type VolatilityBands struct {
	Pivot         decimal.Decimal `json:"pivot"`
	OneSigmaUp    decimal.Decimal `json:"1_sigma_up"`
	OneSigmaDown  decimal.Decimal `json:"1_sigma_down"`
	TwoSigmaUp    decimal.Decimal `json:"2_sigma_up"`
	TwoSigmaDown  decimal.Decimal `json:"2_sigma_down"`
	AnnualizedVol float64         `json:"annualized_volatility,omitempty"`
	SessionRange  float64         `json:"session_range,omitempty"`
	EventCode     string          `json:"event_code,omitempty"`
}

// Ordered reports whether the five levels satisfy the band invariant.
func (v VolatilityBands) Ordered() bool {
	return v.TwoSigmaDown.LessThanOrEqual(v.OneSigmaDown) &&
		v.OneSigmaDown.LessThanOrEqual(v.Pivot) &&
		v.Pivot.LessThanOrEqual(v.OneSigmaUp) &&
		v.OneSigmaUp.LessThanOrEqual(v.TwoSigmaUp)
}

// VolumeProfile holds the volume point of control for a bar series.
type VolumeProfile struct {
	VPOC      decimal.Decimal `json:"vpoc"`
	MaxVolume float64         `json:"max_volume"`
}

// Regime is a coarse classification of recent price behavior.
type Regime string

const (
	RegimeTrend      Regime = "Trend"
	RegimeBalance    Regime = "Balance"
	RegimeCompressed Regime = "Compressed"
	RegimeUnknown    Regime = "Unknown"
)

// CorrelationMatrix maps instrument pairs to Pearson coefficients.
// Symbols preserves the instrument order the matrix was built from.
type CorrelationMatrix struct {
	Symbols []string                      `json:"symbols"`
	Coeffs  map[string]map[string]float64 `json:"coefficients"`
}

// Empty reports whether the matrix carries no correlations.
func (m CorrelationMatrix) Empty() bool {
	return len(m.Symbols) == 0
}

// At returns the coefficient for a symbol pair.
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	row, ok := m.Coeffs[a]
	if !ok {
		return 0, false
	}
	v, ok := row[b]
	return v, ok
}

// MacroRegime is the macro liquidity and yield-curve read used as
// exogenous context in the report bundle.
type MacroRegime struct {
	YieldCurveSpread float64 `json:"yield_curve_spread"`
	CurveStatus      string  `json:"yield_curve_status"`
	MacroState       string  `json:"macro_state"`
	NetLiquidity     float64 `json:"net_liquidity"`
	LiquidityEMA     float64 `json:"liquidity_ema"`
	LiquidityTrend   string  `json:"liquidity_trend"`
	LiquidityBias    string  `json:"liquidity_bias"`
	CombinedSignal   string  `json:"combined_signal"`
	Available        bool    `json:"available"`
}
