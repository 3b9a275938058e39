package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aurum/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOnReleaseDay(t *testing.T) {
	c := New()

	ev := c.On(day("2025-09-17"))
	require.NotNil(t, ev)
	require.Equal(t, CodeFOMC, ev.Code)
	require.Equal(t, 2.1, ev.KFactor)
	require.Equal(t, domain.ImpactHigh, ev.Impact)

	require.Nil(t, c.On(day("2025-09-18")))
}

func TestUpcomingOrderAndDaysUntil(t *testing.T) {
	c := New()

	// 2025-09-04 sits one day before NFP and two weeks before FOMC.
	upcoming := c.Upcoming(day("2025-09-04"), 7)
	require.Len(t, upcoming, 2)
	require.Equal(t, CodeNFP, upcoming[0].Code)
	require.Equal(t, 1, upcoming[0].DaysUntil)
	require.Equal(t, CodeCPI, upcoming[1].Code)
	require.Equal(t, 7, upcoming[1].DaysUntil)
}

func TestContextTodayWarningWins(t *testing.T) {
	c := New()

	ctx := c.Context(day("2026-09-16"))
	require.NotNil(t, ctx.Today)
	require.Equal(t, CodeFOMC, ctx.Today.Code)
	require.Contains(t, ctx.RiskWarning, "HIGH IMPACT TODAY")
	require.Equal(t, len(ctx.Upcoming), ctx.EventsThisWeek)
}

func TestContextTomorrowWarning(t *testing.T) {
	c := New()

	ctx := c.Context(day("2026-09-15"))
	require.Nil(t, ctx.Today)
	require.NotNil(t, ctx.Tomorrow)
	require.Equal(t, CodeFOMC, ctx.Tomorrow.Code)
	require.Contains(t, ctx.RiskWarning, "Tomorrow")
}

func TestQuietWeek(t *testing.T) {
	c := New()

	ctx := c.Context(day("2025-09-18"))
	require.Nil(t, ctx.Today)
	require.Nil(t, ctx.Tomorrow)
	require.Empty(t, ctx.RiskWarning)
	require.Empty(t, ctx.Upcoming)
}
