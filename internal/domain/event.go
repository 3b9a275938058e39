package domain

import "time"

// Event impact levels.
const (
	ImpactHigh   = "HIGH"
	ImpactMedium = "MEDIUM"
)

// EconomicEvent is one scheduled macro release. KFactor is the
// volatility multiplier applied to a baseline range when the event
// falls on the current day.
type EconomicEvent struct {
	Date      time.Time `json:"date"`
	Code      string    `json:"event_code"`
	Name      string    `json:"event"`
	Impact    string    `json:"impact"`
	KFactor   float64   `json:"k_factor"`
	DaysUntil int       `json:"days_until,omitempty"`
}

// EventContext summarizes the calendar for report generation.
type EventContext struct {
	Today          *EconomicEvent  `json:"today_event,omitempty"`
	Tomorrow       *EconomicEvent  `json:"tomorrow_event,omitempty"`
	Upcoming       []EconomicEvent `json:"upcoming_events"`
	RiskWarning    string          `json:"risk_warning,omitempty"`
	EventsThisWeek int             `json:"events_this_week"`
}
