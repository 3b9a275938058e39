package analysis

import (
	"time"

	"aurum/internal/domain"
)

// SessionAggregator collapses sub-session bars into one record for the
// most recently completed trading session. Futures sessions span the
// prior calendar day, e.g. 18:00 -> 17:00 next day in exchange time.
type SessionAggregator struct {
	loc       *time.Location
	startHour int
	endHour   int
	precision int32
}

// NewSessionAggregator builds an aggregator for the given exchange time
// zone and session boundary hours.
func NewSessionAggregator(loc *time.Location, startHour, endHour int, precision int32) *SessionAggregator {
	return &SessionAggregator{loc: loc, startHour: startHour, endHour: endHour, precision: precision}
}

// Window returns the boundaries of the last fully completed session
// relative to now. The end is never in the future: if now has not yet
// reached today's session-end hour, the window is the one that ended
// yesterday.
func (a *SessionAggregator) Window(now time.Time) (start, end time.Time) {
	local := now.In(a.loc)
	end = time.Date(local.Year(), local.Month(), local.Day(), a.endHour, 0, 0, 0, a.loc)
	if local.Before(end) {
		end = end.AddDate(0, 0, -1)
	}
	start = time.Date(end.Year(), end.Month(), end.Day(), a.startHour, 0, 0, 0, a.loc)
	if !start.Before(end) {
		start = start.AddDate(0, 0, -1)
	}
	return start, end
}

// Aggregate filters the series to the last completed session window
// (inclusive on both boundaries) and aggregates it into a single
// record with VWAP and pivot. Returns ErrNoSessionData when the window
// holds no bars; it never returns a partial or wrong-day aggregate.
func (a *SessionAggregator) Aggregate(series domain.BarSeries, now time.Time) (domain.SessionRecord, error) {
	if series.Empty() {
		return domain.SessionRecord{}, ErrNoSessionData
	}

	start, end := a.Window(now)

	var session []domain.Bar
	for _, b := range series.Bars {
		if !b.Time.Before(start) && !b.Time.After(end) {
			session = append(session, b)
		}
	}
	if len(session) == 0 {
		return domain.SessionRecord{}, ErrNoSessionData
	}

	high := session[0].High
	low := session[0].Low
	var volume, weightedTP, typicalSum float64
	for _, b := range session {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
		volume += b.Volume
		weightedTP += b.TypicalPrice() * b.Volume
		typicalSum += b.TypicalPrice()
	}

	vwap := typicalSum / float64(len(session))
	if volume > 0 {
		vwap = weightedTP / volume
	}

	closePrice := session[len(session)-1].Close
	pivot := (high + low + closePrice) / 3

	return domain.SessionRecord{
		Start:    start,
		End:      end,
		Open:     round(session[0].Open, a.precision),
		High:     round(high, a.precision),
		Low:      round(low, a.precision),
		Close:    round(closePrice, a.precision),
		VWAP:     round(vwap, a.precision),
		Pivot:    round(pivot, a.precision),
		Volume:   volume,
		BarCount: len(session),
	}, nil
}
