// Package schedule holds the value model shared by the reconciliation
// pipeline: civil dates and times, recurrence rules, schedule items,
// provenance sources and materialized events.
//
// Everything in this package is an immutable value with structural
// equality; nothing here performs I/O.
package schedule

import (
	"fmt"
	"time"
)

// Weekday is a day of the week, Monday-first as schedules are usually
// written that way.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// ParseWeekday parses the lowercase English weekday name used in snapshot
// files.
func ParseWeekday(s string) (Weekday, error) {
	for i, name := range weekdayNames {
		if s == name {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdayOf converts the stdlib Sunday-first weekday.
func WeekdayOf(w time.Weekday) Weekday {
	if w == time.Sunday {
		return Sunday
	}
	return Weekday(int(w) - 1)
}

// Date is a civil calendar date, independent of any timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its civil date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns the date at midnight in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Weekday() Weekday {
	return WeekdayOf(d.Time(time.UTC).Weekday())
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// DaysUntil returns the number of days from d to o (negative if o is
// earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.Time(time.UTC).Sub(d.Time(time.UTC)) / (24 * time.Hour))
}

func (d Date) Compare(o Date) int {
	if c := d.Year - o.Year; c != 0 {
		return sign(c)
	}
	if c := int(d.Month) - int(o.Month); c != 0 {
		return sign(c)
	}
	return sign(d.Day - o.Day)
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// TimeOfDay is a wall-clock time with minute precision, which is all the
// upstream parsers ever produce.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) Compare(o TimeOfDay) int { return sign(t.Minutes() - o.Minutes()) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// PlusHours adds whole hours, clamping at 23:59 so the result stays within
// the same day.
func (t TimeOfDay) PlusHours(hours int) TimeOfDay {
	total := t.Minutes() + hours*60
	if total > 24*60-1 {
		total = 24*60 - 1
	}
	return TimeOfDayFromMinutes(total)
}

func TimeOfDayFromMinutes(minutes int) TimeOfDay {
	return TimeOfDay{Hour: minutes / 60, Minute: minutes % 60}
}

// ParseTimeOfDay parses an HH:MM string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// DateTime is a civil date plus wall-clock time. Resolution against a
// timezone happens only at the boundary where an absolute instant is
// needed; recurrence arithmetic stays independent of DST transitions.
type DateTime struct {
	Date Date
	Time TimeOfDay
}

func (dt DateTime) Compare(o DateTime) int {
	if c := dt.Date.Compare(o.Date); c != 0 {
		return c
	}
	return dt.Time.Compare(o.Time)
}

// In resolves the civil datetime to an absolute instant in loc.
func (dt DateTime) In(loc *time.Location) time.Time {
	return time.Date(dt.Date.Year, dt.Date.Month, dt.Date.Day,
		dt.Time.Hour, dt.Time.Minute, 0, 0, loc)
}

func (dt DateTime) String() string {
	return dt.Date.String() + " " + dt.Time.String()
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
