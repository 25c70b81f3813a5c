package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// Total order over schedule items. The comparator must be deterministic
// for identical inputs: the resource hash and the idempotent-skip check
// both depend on stable output order.

func sortDates(dates []Date) []Date {
	out := make([]Date, len(dates))
	copy(out, dates)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func weeklyRuleKey(rule WeeklyRule) string {
	days := rule.SortedWeekdays()
	minDay := 7
	if len(days) > 0 {
		minDay = int(days[0])
	}
	names := make([]string, len(days))
	for i, w := range days {
		names[i] = fmt.Sprintf("%d", int(w))
	}
	return fmt.Sprintf("%s|%d|%02d|%s",
		PeriodsKey(rule.Except.OnlyInPeriods), minDay, len(days), strings.Join(names, ","))
}

// CompareItems orders schedule items: non-cancellations first, then
// one-off before regular, then by earliest date/weekday, then by start and
// end time.
func CompareItems(a, b ScheduleItem) int {
	if a.IsCancellation != b.IsCancellation {
		if !a.IsCancellation {
			return -1
		}
		return 1
	}

	aOneOff, bOneOff := IsOneOff(a.DateRule), IsOneOff(b.DateRule)
	if aOneOff != bOneOff {
		// One-off items come first.
		if aOneOff {
			return -1
		}
		return 1
	}

	switch ruleA := a.DateRule.(type) {
	case OneOffRule:
		ruleB := b.DateRule.(OneOffRule)
		if c := ruleA.Date.Compare(ruleB.Date); c != 0 {
			return c
		}
	case WeeklyRule:
		ruleB := b.DateRule.(WeeklyRule)
		if keyA, keyB := weeklyRuleKey(ruleA), weeklyRuleKey(ruleB); keyA != keyB {
			if keyA < keyB {
				return -1
			}
			return 1
		}
	default:
		panic(fmt.Sprintf("unhandled date rule variant %T", a.DateRule))
	}

	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}

	endA, okA := a.ResolvedEndTime()
	endB, okB := b.ResolvedEndTime()
	if okA != okB {
		// Items without an end time come first.
		if !okA {
			return -1
		}
		return 1
	}
	return endA.Compare(endB)
}

// CompareSourced orders sourced items, tie-breaking on the explanation
// text when all temporal keys are equal.
func CompareSourced(a, b SourcedScheduleItem) int {
	if c := CompareItems(a.Item, b.Item); c != 0 {
		return c
	}
	return strings.Compare(a.Explanation, b.Explanation)
}

// SortSourced returns a new slice in canonical order.
func SortSourced(items []SourcedScheduleItem) []SourcedScheduleItem {
	out := make([]SourcedScheduleItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return CompareSourced(out[i], out[j]) < 0 })
	return out
}
