package domain

import "github.com/shopspring/decimal"

// TraderGroup holds aggregate long/short contract counts for one
// reporting category of the weekly positioning report.
type TraderGroup struct {
	Long     int64           `json:"long"`
	Short    int64           `json:"short"`
	Net      int64           `json:"net"`
	LongPct  decimal.Decimal `json:"long_pct"`
	ShortPct decimal.Decimal `json:"short_pct"`
	Bias     string          `json:"bias"`
	Strength string          `json:"strength,omitempty"`
}

// Positioning is the weekly futures positioning snapshot for one
// instrument. Available is false when the upstream feed is unreachable
// or its schema is unrecognized; consumers must not abort on that.
type Positioning struct {
	ReportDate   string      `json:"report_date"`
	Speculators  TraderGroup `json:"speculators"`
	Commercials  TraderGroup `json:"commercials"`
	OpenInterest int64       `json:"open_interest"`
	Available    bool        `json:"available"`
}

// UnavailablePositioning returns the explicit empty record used when
// the positioning feed cannot be read.
func UnavailablePositioning() Positioning {
	return Positioning{
		ReportDate:  "N/A",
		Speculators: TraderGroup{Bias: "UNKNOWN"},
		Commercials: TraderGroup{Bias: "UNKNOWN"},
	}
}
