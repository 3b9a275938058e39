package analysis

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"aurum/internal/domain"
)

// DefaultLiquidityEMAPeriod smooths the net liquidity series for the
// trend read.
const DefaultLiquidityEMAPeriod = 20

// Macro regime labels.
const (
	MacroStateNormal    = "BLUE (NORMAL)"
	MacroStateRecession = "RED (RECESSION WARNING)"
	MacroStateUnknown   = "UNKNOWN"

	CurveNormal   = "NORMAL"
	CurveInverted = "INVERTED"
	CurveUnknown  = "UNKNOWN"

	LiquidityBullish = "BULLISH (FUEL PUMPING)"
	LiquidityBearish = "BEARISH (FUEL CUT)"
	LiquidityNeutral = "NEUTRAL/CHOP"
)

// AnalyzeMacro derives the yield-curve spread, net liquidity
// (balance sheet minus treasury account minus reverse repo) with its
// EMA trend, and the combined macro bias.
func AnalyzeMacro(in domain.MacroInputs, emaPeriod int) domain.MacroRegime {
	if emaPeriod <= 0 {
		emaPeriod = DefaultLiquidityEMAPeriod
	}

	out := domain.MacroRegime{
		MacroState:     MacroStateUnknown,
		CurveStatus:    CurveUnknown,
		LiquidityTrend: "UNKNOWN",
		LiquidityBias:  LiquidityNeutral,
	}

	if in.US10Y != nil && in.US02Y != nil {
		out.YieldCurveSpread = *in.US10Y - *in.US02Y
		if out.YieldCurveSpread < 0 {
			out.CurveStatus = CurveInverted
			out.MacroState = MacroStateRecession
		} else {
			out.CurveStatus = CurveNormal
			out.MacroState = MacroStateNormal
		}
		out.Available = true
	}

	net := netLiquidity(in.WALCL, in.WTREGEN, in.RRP)
	if len(net) > 0 {
		out.NetLiquidity = net[len(net)-1]
		out.Available = true

		if len(net) >= emaPeriod {
			ema := trend.NewEmaWithPeriod[float64](emaPeriod)
			smoothed := helper.ChanToSlice(ema.Compute(helper.SliceToChan(net)))
			if len(smoothed) > 0 {
				out.LiquidityEMA = smoothed[len(smoothed)-1]

				slope := 0.0
				if len(smoothed) >= 5 {
					slope = smoothed[len(smoothed)-1] - smoothed[len(smoothed)-5]
				}
				switch {
				case out.NetLiquidity > out.LiquidityEMA && slope > 0:
					out.LiquidityTrend = "Rising"
				case out.NetLiquidity < out.LiquidityEMA && slope < 0:
					out.LiquidityTrend = "Falling"
				default:
					out.LiquidityTrend = "Flat"
				}
			}
		} else {
			out.LiquidityEMA = out.NetLiquidity
			out.LiquidityTrend = "INSUFFICIENT_DATA"
		}
	}

	out.LiquidityBias = liquidityBias(out)
	out.CombinedSignal = combinedSignal(out)
	return out
}

// netLiquidity aligns the three series on their common dates and
// returns balance sheet - treasury account - reverse repo, in input
// date order.
func netLiquidity(walcl, wtregen, rrp []domain.Observation) []float64 {
	if len(walcl) == 0 || len(wtregen) == 0 || len(rrp) == 0 {
		return nil
	}

	byDay := func(obs []domain.Observation) map[string]float64 {
		m := make(map[string]float64, len(obs))
		for _, o := range obs {
			m[o.Date.Format("2006-01-02")] = o.Value
		}
		return m
	}
	tga := byDay(wtregen)
	repo := byDay(rrp)

	var net []float64
	for _, o := range walcl {
		day := o.Date.Format("2006-01-02")
		t, okT := tga[day]
		r, okR := repo[day]
		if okT && okR {
			net = append(net, o.Value-t-r)
		}
	}
	return net
}

func liquidityBias(m domain.MacroRegime) string {
	switch {
	case m.LiquidityTrend == "Rising" && m.NetLiquidity > m.LiquidityEMA:
		return LiquidityBullish
	case (m.LiquidityTrend == "Falling" || m.LiquidityTrend == "Flat") && m.NetLiquidity < m.LiquidityEMA:
		return LiquidityBearish
	default:
		return LiquidityNeutral
	}
}

func combinedSignal(m domain.MacroRegime) string {
	switch m.LiquidityBias {
	case LiquidityBearish:
		if m.MacroState == MacroStateRecession {
			return "MAXIMUM CAUTION - bear regime plus recession signal"
		}
		return "SHORT BIAS - liquidity contracting"
	case LiquidityBullish:
		if m.MacroState == MacroStateRecession {
			return "CONFLICTING - liquidity up but curve inverted"
		}
		return "LONG BIAS - full risk-on conditions"
	default:
		return "NEUTRAL - range-bound conditions expected"
	}
}
