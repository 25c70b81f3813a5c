package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// Period restricts a recurrence to a named calendar span (a month, a
// liturgical season, school holidays) or to an explicit date range.
//
// The variant set is closed: NamedPeriod and CustomPeriod. Both are
// comparable, so a Period can be used directly as a map key.
type Period interface {
	isPeriod()

	// Key returns a canonical string that orders and identifies the
	// period; equal periods have equal keys.
	Key() string
}

// NamedPeriod is one of the known calendar periods.
type NamedPeriod string

const (
	PeriodJanuary   NamedPeriod = "january"
	PeriodFebruary  NamedPeriod = "february"
	PeriodMarch     NamedPeriod = "march"
	PeriodApril     NamedPeriod = "april"
	PeriodMay       NamedPeriod = "may"
	PeriodJune      NamedPeriod = "june"
	PeriodJuly      NamedPeriod = "july"
	PeriodAugust    NamedPeriod = "august"
	PeriodSeptember NamedPeriod = "september"
	PeriodOctober   NamedPeriod = "october"
	PeriodNovember  NamedPeriod = "november"
	PeriodDecember  NamedPeriod = "december"

	PeriodSummer NamedPeriod = "summer"
	PeriodWinter NamedPeriod = "winter"

	PeriodAdvent      NamedPeriod = "advent"
	PeriodLent        NamedPeriod = "lent"
	PeriodSolemnities NamedPeriod = "solemnities"

	PeriodSchoolHolidays NamedPeriod = "school_holidays"
)

// positionByNamedPeriod fixes the display and sort order of named periods.
var positionByNamedPeriod = map[NamedPeriod]int{
	PeriodJanuary:   1,
	PeriodFebruary:  2,
	PeriodMarch:     3,
	PeriodApril:     4,
	PeriodMay:       5,
	PeriodJune:      6,
	PeriodJuly:      7,
	PeriodAugust:    8,
	PeriodSeptember: 9,
	PeriodOctober:   10,
	PeriodNovember:  11,
	PeriodDecember:  12,

	PeriodSummer:         13,
	PeriodWinter:         14,
	PeriodAdvent:         15,
	PeriodLent:           16,
	PeriodSolemnities:    17,
	PeriodSchoolHolidays: 18,
}

func (p NamedPeriod) isPeriod() {}

func (p NamedPeriod) Key() string {
	pos, ok := positionByNamedPeriod[p]
	if !ok {
		// Unknown named periods sort last but still have a stable key.
		return fmt.Sprintf("named:99:%s", string(p))
	}
	return fmt.Sprintf("named:%02d:%s", pos, string(p))
}

// ParseNamedPeriod validates a period name from a snapshot file.
func ParseNamedPeriod(s string) (NamedPeriod, error) {
	p := NamedPeriod(s)
	if _, ok := positionByNamedPeriod[p]; !ok {
		return "", fmt.Errorf("unknown period %q", s)
	}
	return p, nil
}

// CustomPeriod is an explicit date span, inclusive on both ends. It covers
// spans no named period can express, such as zone-specific school holidays
// supplied by a moderator.
type CustomPeriod struct {
	Start Date
	End   Date
}

func (p CustomPeriod) isPeriod() {}

func (p CustomPeriod) Key() string {
	return "custom:" + p.Start.String() + ".." + p.End.String()
}

func (p CustomPeriod) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// PeriodsKey returns a canonical grouping key for a period list: sorted,
// deduplicated and joined, so two lists with the same members in any order
// produce the same key.
func PeriodsKey(periods []Period) string {
	keys := make([]string, 0, len(periods))
	for _, p := range periods {
		keys = append(keys, p.Key())
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// SortPeriods returns a new slice ordered by canonical key.
func SortPeriods(periods []Period) []Period {
	out := make([]Period, len(periods))
	copy(out, periods)
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// DatesKey returns a canonical grouping key for a date list.
func DatesKey(dates []Date) string {
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, d.String())
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
