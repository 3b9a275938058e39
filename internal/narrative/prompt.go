package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"aurum/internal/domain"
)

// SystemPrompt frames the model as a desk analyst so the report stays
// terse and quantitative.
const SystemPrompt = `You are a ruthless institutional gold trader. No fluff. Focus on liquidity traps, correlation divergences, and sigma levels. Use strictly gold futures terminology. Provide actionable insights in a concise markdown format.`

// BuildUserPrompt embeds the descriptor bundle as indented JSON along
// with the required report structure.
func BuildUserPrompt(bundle domain.Bundle) (string, error) {
	payload, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Analyze the following market data and generate a comprehensive trading intelligence report:\n\n")
	b.Write(payload)
	b.WriteString("\n\nStructure the report with:\n")
	b.WriteString("1. Executive Synthesis\n")
	b.WriteString("2. Macro Correlations\n")
	b.WriteString("3. Market Structure\n")
	b.WriteString("4. Volatility Levels\n")
	b.WriteString("5. Game Theory Scenarios\n\n")
	b.WriteString("Be direct, quantitative, and focus on actionable intelligence.")
	return b.String(), nil
}

// FallbackReport renders the bundle as a plain markdown digest. It is
// shipped instead of the model narrative when generation fails, so a
// delivery run never goes out empty.
func FallbackReport(bundle domain.Bundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s Market Digest: %s\n\n", bundle.Symbol, bundle.Timestamp)
	fmt.Fprintf(&b, "**Price:** %s (%s%% on the day)\n", bundle.CurrentPrice.String(), bundle.DailyChangePct.String())
	fmt.Fprintf(&b, "**Regime:** %s\n", bundle.Structure.Regime)
	if bundle.Structure.VPOC != nil {
		fmt.Fprintf(&b, "**VPOC:** %s\n", bundle.Structure.VPOC.String())
	}

	if v := bundle.Volatility; v != nil {
		b.WriteString("\n### Volatility Levels\n")
		if v.EventCode != "" {
			fmt.Fprintf(&b, "Event-expanded bands (%s):\n", v.EventCode)
		}
		fmt.Fprintf(&b, "- +2σ %s / +1σ %s\n", v.TwoSigmaUp.String(), v.OneSigmaUp.String())
		fmt.Fprintf(&b, "- Pivot %s\n", v.Pivot.String())
		fmt.Fprintf(&b, "- -1σ %s / -2σ %s\n", v.OneSigmaDown.String(), v.TwoSigmaDown.String())
	}

	if bundle.Positioning.Available {
		spec := bundle.Positioning.Speculators
		fmt.Fprintf(&b, "\n**Positioning:** speculators %s (%s), net %d contracts\n",
			spec.Bias, spec.Strength, spec.Net)
	}

	if bundle.Macro.Available {
		b.WriteString("\n### Macro Regime\n")
		fmt.Fprintf(&b, "**Engine (Yield Curve):** %.3f%% (%s)\n", bundle.Macro.YieldCurveSpread, bundle.Macro.MacroState)
		fmt.Fprintf(&b, "**Fuel (Net Liquidity):** $%.2f Trillion (%s)\n", bundle.Macro.NetLiquidity, bundle.Macro.LiquidityTrend)
		fmt.Fprintf(&b, "\n**Signal:** %s\n", bundle.Macro.CombinedSignal)
	}

	if bundle.Events.RiskWarning != "" {
		fmt.Fprintf(&b, "\n**Calendar:** %s\n", bundle.Events.RiskWarning)
	}

	fmt.Fprintf(&b, "\n*Automated digest, %d bars analyzed via %s.*\n",
		bundle.Quality.BarsAnalyzed, bundle.Quality.Source)
	return b.String()
}
