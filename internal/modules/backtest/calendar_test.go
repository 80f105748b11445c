package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestShiftYears_LeapDayMapsToFeb28(t *testing.T) {
	got := ShiftYears(day(2024, time.February, 29), -1)
	assert.Equal(t, day(2023, time.February, 28), got)

	got = ShiftYears(day(2024, time.February, 29), 4)
	assert.Equal(t, day(2028, time.February, 29), got, "leap year target keeps Feb 29")
}

func TestShiftYears_PlainDate(t *testing.T) {
	got := ShiftYears(day(2020, time.June, 15), -10)
	assert.Equal(t, day(2010, time.June, 15), got)
}

func TestAsOfDates_AscendingAndComplete(t *testing.T) {
	today := day(2025, time.June, 15)

	dates := AsOfDates(today, 3, 1, 90, nil)

	require.Len(t, dates, 3)
	assert.Equal(t, day(2022, time.June, 15), dates[0].AsOf)
	assert.Equal(t, day(2023, time.June, 15), dates[0].End)
	assert.Equal(t, day(2024, time.June, 15), dates[2].AsOf)
	assert.Equal(t, day(2025, time.June, 15), dates[2].End)
}

func TestAsOfDates_HoldingPeriodMustHaveElapsed(t *testing.T) {
	today := day(2025, time.June, 15)

	dates := AsOfDates(today, 5, 2, 90, nil)

	require.NotEmpty(t, dates)
	last := dates[len(dates)-1]
	assert.Equal(t, day(2023, time.June, 15), last.AsOf, "last point is holding_years back")
	assert.False(t, last.End.After(today))
}

func TestAsOfDates_SkipsPointsBeforeStatementHistory(t *testing.T) {
	today := day(2025, time.June, 15)
	minDate := day(2022, time.December, 31)

	dates := AsOfDates(today, 5, 1, 90, &minDate)

	require.Len(t, dates, 2, "points whose lagged cutoff predates statement history are dropped")
	assert.Equal(t, day(2023, time.June, 15), dates[0].AsOf)
	assert.Equal(t, day(2024, time.June, 15), dates[1].AsOf)
}

func TestAsOfDates_LagShiftsCutoff(t *testing.T) {
	today := day(2025, time.June, 15)
	// Cutoff for the 2023-06-15 point with a 90 day lag is 2023-03-17.
	minDate := day(2023, time.March, 18)

	dates := AsOfDates(today, 3, 1, 90, &minDate)

	require.Len(t, dates, 1)
	assert.Equal(t, day(2024, time.June, 15), dates[0].AsOf)
}
