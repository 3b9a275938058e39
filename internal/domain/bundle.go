package domain

import "github.com/shopspring/decimal"

// MarketStructure groups the volume-profile and regime descriptors.
type MarketStructure struct {
	VPOC      *decimal.Decimal `json:"vpoc"`
	MaxVolume float64          `json:"max_volume_node,omitempty"`
	Regime    Regime           `json:"regime"`
}

// DataQuality records provenance of the bars behind a bundle.
type DataQuality struct {
	BarsAnalyzed int    `json:"bars_analyzed"`
	Source       string `json:"data_source"`
}

// Bundle is the structured descriptor set handed to the narrative
// generator. Every field is a value object built fresh per run; nil
// pointers mean the descriptor was unavailable for this run.
type Bundle struct {
	Timestamp      string                        `json:"timestamp"`
	Symbol         string                        `json:"symbol"`
	CurrentPrice   decimal.Decimal               `json:"current_price"`
	DailyChangePct decimal.Decimal               `json:"daily_change_pct"`
	Correlations   map[string]map[string]float64 `json:"correlations"`
	Volatility     *VolatilityBands              `json:"volatility_levels"`
	Session        *SessionRecord                `json:"session"`
	Structure      MarketStructure               `json:"market_structure"`
	Positioning    Positioning                   `json:"cot_positioning"`
	Events         EventContext                  `json:"event_calendar"`
	Macro          MacroRegime                   `json:"macro_regime"`
	Quality        DataQuality                   `json:"data_quality"`
}
