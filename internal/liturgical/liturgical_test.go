package liturgical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconcal/internal/schedule"
)

func TestEasterDay(t *testing.T) {
	d, err := EasterDay(2026)
	require.NoError(t, err)
	assert.Equal(t, schedule.Date{Year: 2026, Month: time.April, Day: 5}, d)

	_, err = EasterDay(1999)
	assert.Error(t, err)
}

func TestDateOfEasterOffsets(t *testing.T) {
	tests := []struct {
		day  Day
		want schedule.Date
	}{
		{AshWednesday, schedule.Date{Year: 2026, Month: time.February, Day: 18}},
		{PalmSunday, schedule.Date{Year: 2026, Month: time.March, Day: 29}},
		{GoodFriday, schedule.Date{Year: 2026, Month: time.April, Day: 3}},
		{EasterSunday, schedule.Date{Year: 2026, Month: time.April, Day: 5}},
		{Ascension, schedule.Date{Year: 2026, Month: time.May, Day: 14}},
		{Pentecost, schedule.Date{Year: 2026, Month: time.May, Day: 24}},
	}
	for _, tt := range tests {
		got, err := DateOf(tt.day, 2026)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestAdventSpan(t *testing.T) {
	start, end := AdventSpan(2026)
	assert.Equal(t, schedule.Date{Year: 2026, Month: time.November, Day: 29}, start)
	assert.Equal(t, schedule.Date{Year: 2026, Month: time.December, Day: 24}, end)
	// Advent always opens on a Sunday.
	assert.Equal(t, schedule.Sunday, start.Weekday())

	start, _ = AdventSpan(2025)
	assert.Equal(t, schedule.Sunday, start.Weekday())
	assert.Equal(t, schedule.Date{Year: 2025, Month: time.November, Day: 30}, start)
}

func TestLentSpan(t *testing.T) {
	start, end, err := LentSpan(2026)
	require.NoError(t, err)
	assert.Equal(t, schedule.Date{Year: 2026, Month: time.February, Day: 18}, start)
	assert.Equal(t, schedule.Date{Year: 2026, Month: time.April, Day: 4}, end)
}

func TestSolemnityDates(t *testing.T) {
	dates, err := SolemnityDates(2026)
	require.NoError(t, err)
	assert.Contains(t, dates, schedule.Date{Year: 2026, Month: time.January, Day: 1})
	assert.Contains(t, dates, schedule.Date{Year: 2026, Month: time.May, Day: 14})
	assert.Contains(t, dates, schedule.Date{Year: 2026, Month: time.August, Day: 15})
	assert.Contains(t, dates, schedule.Date{Year: 2026, Month: time.December, Day: 25})
	assert.Len(t, dates, 7)
}
