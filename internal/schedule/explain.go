package schedule

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Explanation rendering. The explanation is a short templated sentence
// derived entirely from the item's structure; the merge passes compare
// explanation strings, so the wording must be a pure function of the item.

var displayNameByWeekday = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

var phraseByNamedPeriod = map[NamedPeriod]string{
	PeriodJanuary:   "in January",
	PeriodFebruary:  "in February",
	PeriodMarch:     "in March",
	PeriodApril:     "in April",
	PeriodMay:       "in May",
	PeriodJune:      "in June",
	PeriodJuly:      "in July",
	PeriodAugust:    "in August",
	PeriodSeptember: "in September",
	PeriodOctober:   "in October",
	PeriodNovember:  "in November",
	PeriodDecember:  "in December",

	PeriodSummer: "in summer",
	PeriodWinter: "in winter",

	PeriodAdvent:      "during Advent",
	PeriodLent:        "during Lent",
	PeriodSolemnities: "on solemnity days",

	PeriodSchoolHolidays: "during school holidays",
}

func explainDate(d Date) string {
	return d.Time(time.UTC).Format("Monday 2 January 2006")
}

func explainPeriod(p Period) string {
	switch period := p.(type) {
	case NamedPeriod:
		if phrase, ok := phraseByNamedPeriod[period]; ok {
			return phrase
		}
		return string(period)
	case CustomPeriod:
		return fmt.Sprintf("from %s to %s", explainDate(period.Start), explainDate(period.End))
	default:
		panic(fmt.Sprintf("unhandled period variant %T", p))
	}
}

func explainPeriods(periods []Period) string {
	phrases := make([]string, 0, len(periods))
	for _, p := range SortPeriods(periods) {
		phrases = append(phrases, explainPeriod(p))
	}
	return enumerateWithAnd(phrases)
}

func explainWeekly(rule WeeklyRule) string {
	days := rule.SortedWeekdays()
	if len(days) == 0 {
		// Ill-formed rule; it materializes to nothing, but the explanation
		// must not panic.
		return "every week"
	}
	names := make([]string, len(days))
	for i, w := range days {
		names[i] = displayNameByWeekday[w]
	}
	return "every week on " + enumerateWithAnd(names)
}

func explainTime(item ScheduleItem) string {
	if (item.StartTime == TimeOfDay{}) {
		return ""
	}
	if end, ok := item.ResolvedEndTime(); ok {
		return fmt.Sprintf(" from %s to %s", item.StartTime, end)
	}
	return fmt.Sprintf(" starting at %s", item.StartTime)
}

// Explain renders the human-readable sentence for a schedule item, e.g.
// "Every week on Monday and Wednesday from 18:00 to 19:00, except during
// school holidays."
func Explain(item ScheduleItem) string {
	var b strings.Builder

	if item.IsCancellation {
		b.WriteString("no confessions ")
	}

	var exceptions RuleExceptions
	switch rule := item.DateRule.(type) {
	case WeeklyRule:
		b.WriteString(explainWeekly(rule))
		exceptions = rule.Except
	case OneOffRule:
		b.WriteString("on " + explainDate(rule.Date))
		exceptions = rule.Except
	default:
		panic(fmt.Sprintf("unhandled date rule variant %T", item.DateRule))
	}

	b.WriteString(explainTime(item))

	explanation := b.String()

	if len(exceptions.OnlyInPeriods) > 0 {
		explanation = explainPeriods(exceptions.OnlyInPeriods) + ", " + explanation
	}
	if len(exceptions.NotInPeriods) > 0 {
		explanation += ", except " + explainPeriods(exceptions.NotInPeriods)
	}
	if len(exceptions.NotOnDates) > 0 {
		phrases := make([]string, 0, len(exceptions.NotOnDates))
		for _, d := range sortDates(exceptions.NotOnDates) {
			phrases = append(phrases, "on "+explainDate(d))
		}
		explanation += ", except " + enumerateWithAnd(phrases)
	}

	return capitalize(explanation) + "."
}

func enumerateWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
