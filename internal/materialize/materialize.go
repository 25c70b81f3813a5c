// Package materialize expands a single schedule item into concrete event
// occurrences within a bounded date window. All arithmetic happens in
// civil (wall-clock) terms; timezone resolution belongs to the boundary
// that needs absolute instants.
package materialize

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"reconcal/internal/holiday"
	"reconcal/internal/schedule"
)

const (
	defaultMaxDays        = 366
	defaultMaxOccurrences = 1000
)

// Window bounds an expansion. End is inclusive; MaxDays and
// MaxOccurrences keep perpetual weekly rules O(window) instead of
// unbounded.
type Window struct {
	Start schedule.Date
	End   schedule.Date

	MaxDays        int
	MaxOccurrences int
}

func (w Window) normalized() Window {
	if w.MaxDays <= 0 {
		w.MaxDays = defaultMaxDays
	}
	if w.MaxOccurrences <= 0 {
		w.MaxOccurrences = defaultMaxOccurrences
	}
	if capped := w.Start.AddDays(w.MaxDays); w.End.IsZero() || capped.Before(w.End) {
		w.End = capped
	}
	return w
}

var rruleWeekdays = map[schedule.Weekday]rrule.Weekday{
	schedule.Monday:    rrule.MO,
	schedule.Tuesday:   rrule.TU,
	schedule.Wednesday: rrule.WE,
	schedule.Thursday:  rrule.TH,
	schedule.Friday:    rrule.FR,
	schedule.Saturday:  rrule.SA,
	schedule.Sunday:    rrule.SU,
}

// Materialize expands one schedule item into its ordered, deduplicated
// occurrences within the window. Cancellation items are expanded exactly
// like positive ones; applying cancellation semantics is the caller's
// responsibility when combining items.
//
// A weekly rule with an empty weekday set produces zero occurrences.
func Materialize(item schedule.ScheduleItem, zone *holiday.Zone, w Window) ([]schedule.Event, error) {
	w = w.normalized()
	if w.End.Before(w.Start) {
		return nil, nil
	}

	var dates []schedule.Date
	var err error

	switch rule := item.DateRule.(type) {
	case schedule.OneOffRule:
		dates, err = oneOffDates(rule, zone, w)
	case schedule.WeeklyRule:
		dates, err = weeklyDates(rule, zone, w)
	default:
		panic(fmt.Sprintf("unhandled date rule variant %T", item.DateRule))
	}
	if err != nil {
		return nil, err
	}

	events := make([]schedule.Event, 0, len(dates))
	for _, d := range dates {
		events = append(events, eventOn(item, d))
	}
	return schedule.SortEvents(events), nil
}

func oneOffDates(rule schedule.OneOffRule, zone *holiday.Zone, w Window) ([]schedule.Date, error) {
	d := rule.Date
	if d.Before(w.Start) || d.After(w.End) {
		return nil, nil
	}
	keep, err := includeDate(d, rule.Except, zone)
	if err != nil || !keep {
		return nil, err
	}
	return []schedule.Date{d}, nil
}

func weeklyDates(rule schedule.WeeklyRule, zone *holiday.Zone, w Window) ([]schedule.Date, error) {
	weekdays := rule.SortedWeekdays()
	if len(weekdays) == 0 {
		// Ill-formed rule: treated as producing zero occurrences.
		return nil, nil
	}

	byWeekday := make([]rrule.Weekday, len(weekdays))
	for i, wd := range weekdays {
		byWeekday[i] = rruleWeekdays[wd]
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byWeekday,
		Dtstart:   w.Start.Time(time.UTC),
	})
	if err != nil {
		return nil, err
	}

	candidates := r.Between(w.Start.Time(time.UTC), w.End.Time(time.UTC), true)

	var dates []schedule.Date
	for _, t := range candidates {
		d := schedule.DateOf(t)
		keep, err := includeDate(d, rule.Except, zone)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		dates = append(dates, d)
		if len(dates) >= w.MaxOccurrences {
			break
		}
	}
	return dates, nil
}

func eventOn(item schedule.ScheduleItem, d schedule.Date) schedule.Event {
	ev := schedule.Event{
		Start: schedule.DateTime{Date: d, Time: item.StartTime},
	}
	if end, ok := item.ResolvedEndTime(); ok {
		ev.End = schedule.DateTime{Date: d, Time: end}
		ev.HasEnd = true
	}
	return ev
}
