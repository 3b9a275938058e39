// Package calendar tracks scheduled high-impact macro releases from a
// static date table. Dates get refreshed when a new year's schedule is
// published.
package calendar

import (
	"time"

	"aurum/internal/domain"
)

// Event codes.
const (
	CodeFOMC = "FOMC"
	CodeNFP  = "NFP"
	CodeCPI  = "CPI"
	CodePCE  = "PCE"
)

// Range expansion multipliers per event, applied to volatility bands on
// release days. Calibrated on historical gold moves around each print.
var kFactors = map[string]float64{
	CodeFOMC: 2.1,
	CodeCPI:  1.92,
	CodeNFP:  1.75,
	CodePCE:  1.5,
}

var eventNames = map[string]string{
	CodeFOMC: "FOMC Rate Decision",
	CodeNFP:  "Non-Farm Payrolls (NFP)",
	CodeCPI:  "CPI Inflation Data",
	CodePCE:  "Core PCE Price Index",
}

var fomcDates = []string{
	"2025-01-29", "2025-03-19", "2025-05-07", "2025-06-18",
	"2025-07-30", "2025-09-17", "2025-11-05", "2025-12-17",
	"2026-01-28", "2026-03-18", "2026-04-29", "2026-06-17",
	"2026-07-29", "2026-09-16", "2026-10-28", "2026-12-09",
}

var nfpDates = []string{
	"2025-01-10", "2025-02-07", "2025-03-07", "2025-04-04",
	"2025-05-02", "2025-06-06", "2025-07-03", "2025-08-01",
	"2025-09-05", "2025-10-03", "2025-11-07", "2025-12-05",
	"2026-01-09", "2026-02-06", "2026-03-06", "2026-04-03",
	"2026-05-01", "2026-06-05", "2026-07-02", "2026-08-07",
	"2026-09-04", "2026-10-02", "2026-11-06", "2026-12-04",
}

var cpiDates = []string{
	"2025-01-15", "2025-02-12", "2025-03-12", "2025-04-10",
	"2025-05-13", "2025-06-11", "2025-07-11", "2025-08-12",
	"2025-09-11", "2025-10-10", "2025-11-13", "2025-12-10",
	"2026-01-13", "2026-02-11", "2026-03-11", "2026-04-14",
	"2026-05-12", "2026-06-10", "2026-07-14", "2026-08-12",
	"2026-09-11", "2026-10-13", "2026-11-12", "2026-12-10",
}

var pceDates = []string{
	"2025-01-31", "2025-02-28", "2025-03-28", "2025-04-30",
	"2025-05-30", "2025-06-27", "2025-07-31", "2025-08-29",
	"2025-09-26", "2025-10-31", "2025-11-26", "2025-12-19",
	"2026-01-30", "2026-02-27", "2026-03-27", "2026-04-30",
	"2026-05-29", "2026-06-26", "2026-07-31", "2026-08-28",
	"2026-09-25", "2026-10-30", "2026-11-25", "2026-12-23",
}

// Calendar answers "what releases land near this date" queries against
// the static schedule above.
type Calendar struct {
	events map[string]domain.EconomicEvent
}

// New builds the calendar. When two releases share a date, the one with
// the larger expected move wins the slot.
func New() *Calendar {
	c := &Calendar{events: make(map[string]domain.EconomicEvent)}
	for _, entry := range []struct {
		code  string
		dates []string
	}{
		{CodeFOMC, fomcDates},
		{CodeNFP, nfpDates},
		{CodeCPI, cpiDates},
		{CodePCE, pceDates},
	} {
		for _, d := range entry.dates {
			if _, taken := c.events[d]; taken {
				continue
			}
			date, err := time.Parse("2006-01-02", d)
			if err != nil {
				continue
			}
			c.events[d] = domain.EconomicEvent{
				Date:    date,
				Code:    entry.code,
				Name:    eventNames[entry.code],
				Impact:  domain.ImpactHigh,
				KFactor: kFactors[entry.code],
			}
		}
	}
	return c
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// On returns the event scheduled for the calendar day of now, or nil.
func (c *Calendar) On(now time.Time) *domain.EconomicEvent {
	if ev, ok := c.events[dayKey(now)]; ok {
		out := ev
		return &out
	}
	return nil
}

// HighImpactToday reports whether a release lands on the current day.
func (c *Calendar) HighImpactToday(now time.Time) *domain.EconomicEvent {
	return c.On(now)
}

// Upcoming lists events from today through daysAhead days out, in date
// order, with DaysUntil filled in.
func (c *Calendar) Upcoming(now time.Time, daysAhead int) []domain.EconomicEvent {
	var out []domain.EconomicEvent
	for i := 0; i <= daysAhead; i++ {
		day := now.UTC().AddDate(0, 0, i)
		if ev, ok := c.events[dayKey(day)]; ok {
			ev.DaysUntil = i
			out = append(out, ev)
		}
	}
	return out
}

// Context assembles the full calendar view for a report: today and
// tomorrow flags, the week ahead, and a risk warning line.
func (c *Calendar) Context(now time.Time) domain.EventContext {
	ctx := domain.EventContext{
		Upcoming: c.Upcoming(now, 7),
	}
	ctx.EventsThisWeek = len(ctx.Upcoming)

	ctx.Today = c.On(now)
	ctx.Tomorrow = c.On(now.AddDate(0, 0, 1))

	switch {
	case ctx.Today != nil:
		ctx.RiskWarning = "HIGH IMPACT TODAY: " + ctx.Today.Name
	case ctx.Tomorrow != nil:
		ctx.RiskWarning = "Tomorrow: " + ctx.Tomorrow.Name
	}
	return ctx
}
