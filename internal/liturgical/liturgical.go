// Package liturgical resolves Easter-anchored dates and the liturgical
// seasons used as recurrence periods.
package liturgical

import (
	"fmt"
	"time"

	"reconcal/internal/schedule"
)

// easterByYear holds Western Easter Sunday dates. To be extended on a year
// basis; RangeForYear fails loudly on a missing year rather than guessing.
var easterByYear = map[int]schedule.Date{
	2024: {Year: 2024, Month: time.March, Day: 31},
	2025: {Year: 2025, Month: time.April, Day: 20},
	2026: {Year: 2026, Month: time.April, Day: 5},
	2027: {Year: 2027, Month: time.March, Day: 28},
	2028: {Year: 2028, Month: time.April, Day: 16},
	2029: {Year: 2029, Month: time.April, Day: 1},
	2030: {Year: 2030, Month: time.April, Day: 21},
}

// EasterDay returns Easter Sunday for the given year.
func EasterDay(year int) (schedule.Date, error) {
	d, ok := easterByYear[year]
	if !ok {
		return schedule.Date{}, fmt.Errorf("easter day not known for year %d", year)
	}
	return d, nil
}

// Day is a named liturgical day defined by its offset from Easter Sunday.
type Day int

const (
	AshWednesday Day = iota
	PalmSunday
	HolyMonday
	HolyTuesday
	HolyWednesday
	MaundyThursday
	GoodFriday
	HolySaturday
	EasterSunday
	EasterMonday
	Ascension
	Pentecost
)

var offsetByDay = map[Day]int{
	AshWednesday:   -46,
	PalmSunday:     -7,
	HolyMonday:     -6,
	HolyTuesday:    -5,
	HolyWednesday:  -4,
	MaundyThursday: -3,
	GoodFriday:     -2,
	HolySaturday:   -1,
	EasterSunday:   0,
	EasterMonday:   1,
	Ascension:      39,
	Pentecost:      49,
}

// DateOf returns the calendar date of a liturgical day in the given year.
func DateOf(day Day, year int) (schedule.Date, error) {
	easter, err := EasterDay(year)
	if err != nil {
		return schedule.Date{}, err
	}
	offset, ok := offsetByDay[day]
	if !ok {
		return schedule.Date{}, fmt.Errorf("liturgical day %d has no offset", day)
	}
	return easter.AddDays(offset), nil
}

// AdventSpan returns the Advent season of the given year: from the fourth
// Sunday before Christmas up to Christmas Eve inclusive.
func AdventSpan(year int) (schedule.Date, schedule.Date) {
	christmas := schedule.Date{Year: year, Month: time.December, Day: 25}
	// weekday() in Monday-first terms: Sunday is 6, so Christmas weekday + 22
	// days back lands on the fourth Sunday before.
	start := christmas.AddDays(-(int(christmas.Weekday()) + 22))
	return start, christmas.AddDays(-1)
}

// LentSpan returns the Lent season of the given year: Ash Wednesday up to
// Holy Saturday inclusive.
func LentSpan(year int) (schedule.Date, schedule.Date, error) {
	start, err := DateOf(AshWednesday, year)
	if err != nil {
		return schedule.Date{}, schedule.Date{}, err
	}
	end, err := DateOf(HolySaturday, year)
	if err != nil {
		return schedule.Date{}, schedule.Date{}, err
	}
	return start, end, nil
}

// SolemnityDates returns the solemnity dates of the given year observed by
// the schedules (the ones parish schedules commonly single out).
func SolemnityDates(year int) ([]schedule.Date, error) {
	easterSunday, err := DateOf(EasterSunday, year)
	if err != nil {
		return nil, err
	}
	ascension, err := DateOf(Ascension, year)
	if err != nil {
		return nil, err
	}
	pentecost, err := DateOf(Pentecost, year)
	if err != nil {
		return nil, err
	}
	return []schedule.Date{
		{Year: year, Month: time.January, Day: 1}, // Mary, Mother of God
		easterSunday,
		ascension,
		pentecost,
		{Year: year, Month: time.August, Day: 15},  // Assumption
		{Year: year, Month: time.November, Day: 1}, // All Saints
		{Year: year, Month: time.December, Day: 25}, // Christmas
	}, nil
}
