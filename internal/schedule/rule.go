package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// RuleExceptions restricts or punches holes into a date rule's recurrence.
// An empty OnlyInPeriods means unrestricted.
type RuleExceptions struct {
	OnlyInPeriods []Period
	NotInPeriods  []Period
	NotOnDates    []Date
}

func (e RuleExceptions) IsEmpty() bool {
	return len(e.OnlyInPeriods) == 0 && len(e.NotInPeriods) == 0 && len(e.NotOnDates) == 0
}

// Key is the canonical form of the exceptions, used in merge keys.
func (e RuleExceptions) Key() string {
	return PeriodsKey(e.OnlyInPeriods) + "|" + PeriodsKey(e.NotInPeriods) + "|" + DatesKey(e.NotOnDates)
}

// DateRule is the recurrence shape of a schedule item. The variant set is
// closed: WeeklyRule and OneOffRule. Code matching on the variant must
// switch exhaustively and panic on anything else, so an accidentally added
// variant fails loudly instead of being silently skipped.
type DateRule interface {
	isDateRule()

	// Exceptions returns the period/date restrictions carried by the rule.
	Exceptions() RuleExceptions

	// WithExceptions returns a copy of the rule carrying the given
	// restrictions.
	WithExceptions(e RuleExceptions) DateRule

	// Key returns a canonical content key for the whole rule.
	Key() string
}

// WeeklyRule recurs every matching weekday indefinitely.
type WeeklyRule struct {
	ByWeekdays []Weekday
	Except     RuleExceptions
}

func (r WeeklyRule) isDateRule() {}

func (r WeeklyRule) Exceptions() RuleExceptions { return r.Except }

func (r WeeklyRule) WithExceptions(e RuleExceptions) DateRule {
	r.Except = e
	return r
}

// SortedWeekdays returns the weekday set deduplicated and in Monday-first
// order.
func (r WeeklyRule) SortedWeekdays() []Weekday {
	seen := map[Weekday]bool{}
	out := make([]Weekday, 0, len(r.ByWeekdays))
	for _, w := range r.ByWeekdays {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r WeeklyRule) Key() string {
	days := r.SortedWeekdays()
	names := make([]string, len(days))
	for i, w := range days {
		names[i] = w.String()
	}
	return "weekly:" + strings.Join(names, ",") + ";" + r.Except.Key()
}

// OneOffRule matches a single calendar date.
type OneOffRule struct {
	Date   Date
	Except RuleExceptions
}

func (r OneOffRule) isDateRule() {}

func (r OneOffRule) Exceptions() RuleExceptions { return r.Except }

func (r OneOffRule) WithExceptions(e RuleExceptions) DateRule {
	r.Except = e
	return r
}

func (r OneOffRule) Key() string {
	return "oneoff:" + r.Date.String() + ";" + r.Except.Key()
}

// IsOneOff reports whether the rule describes a single date rather than a
// recurring pattern.
func IsOneOff(r DateRule) bool {
	switch r.(type) {
	case OneOffRule:
		return true
	case WeeklyRule:
		return false
	default:
		panic(fmt.Sprintf("unhandled date rule variant %T", r))
	}
}
