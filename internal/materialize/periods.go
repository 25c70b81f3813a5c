package materialize

import (
	"fmt"
	"time"

	"reconcal/internal/holiday"
	"reconcal/internal/liturgical"
	"reconcal/internal/schedule"
)

var monthByPeriod = map[schedule.NamedPeriod]time.Month{
	schedule.PeriodJanuary:   time.January,
	schedule.PeriodFebruary:  time.February,
	schedule.PeriodMarch:     time.March,
	schedule.PeriodApril:     time.April,
	schedule.PeriodMay:       time.May,
	schedule.PeriodJune:      time.June,
	schedule.PeriodJuly:      time.July,
	schedule.PeriodAugust:    time.August,
	schedule.PeriodSeptember: time.September,
	schedule.PeriodOctober:   time.October,
	schedule.PeriodNovember:  time.November,
	schedule.PeriodDecember:  time.December,
}

// periodContains tests civil-date membership in a period. School-holiday
// membership is delegated to the resolved zone calendar; liturgical
// seasons are computed for the date's own year.
func periodContains(p schedule.Period, d schedule.Date, zone *holiday.Zone) (bool, error) {
	switch period := p.(type) {
	case schedule.CustomPeriod:
		return period.Contains(d), nil

	case schedule.NamedPeriod:
		if month, ok := monthByPeriod[period]; ok {
			return d.Month == month, nil
		}

		switch period {
		case schedule.PeriodSummer:
			// June 21 to September 20.
			return afterInYear(d, time.June, 21) && beforeInYear(d, time.September, 20), nil

		case schedule.PeriodWinter:
			// December 21 to March 19, crossing the year boundary.
			return afterInYear(d, time.December, 21) || beforeInYear(d, time.March, 19), nil

		case schedule.PeriodAdvent:
			start, end := liturgical.AdventSpan(d.Year)
			return !d.Before(start) && !d.After(end), nil

		case schedule.PeriodLent:
			start, end, err := liturgical.LentSpan(d.Year)
			if err != nil {
				return false, err
			}
			return !d.Before(start) && !d.After(end), nil

		case schedule.PeriodSolemnities:
			dates, err := liturgical.SolemnityDates(d.Year)
			if err != nil {
				return false, err
			}
			for _, s := range dates {
				if s == d {
					return true, nil
				}
			}
			return false, nil

		case schedule.PeriodSchoolHolidays:
			return zone.Contains(d), nil

		default:
			return false, fmt.Errorf("period %q has no membership rule", period)
		}

	default:
		panic(fmt.Sprintf("unhandled period variant %T", p))
	}
}

func afterInYear(d schedule.Date, month time.Month, day int) bool {
	return d.Month > month || (d.Month == month && d.Day >= day)
}

func beforeInYear(d schedule.Date, month time.Month, day int) bool {
	return d.Month < month || (d.Month == month && d.Day <= day)
}

// includeDate applies a rule's restrictions to a candidate date: the date
// is kept if it falls in at least one only-in period (or the list is
// empty), in none of the not-in periods, and is not an excluded date.
func includeDate(d schedule.Date, e schedule.RuleExceptions, zone *holiday.Zone) (bool, error) {
	if len(e.OnlyInPeriods) > 0 {
		inAny := false
		for _, p := range e.OnlyInPeriods {
			ok, err := periodContains(p, d, zone)
			if err != nil {
				return false, err
			}
			if ok {
				inAny = true
				break
			}
		}
		if !inAny {
			return false, nil
		}
	}

	for _, p := range e.NotInPeriods {
		ok, err := periodContains(p, d, zone)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}

	for _, excluded := range e.NotOnDates {
		if excluded == d {
			return false, nil
		}
	}

	return true, nil
}
