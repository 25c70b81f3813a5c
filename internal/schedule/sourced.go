package schedule

import "strings"

// SourcedScheduleItem is a schedule item plus its derived explanation, the
// sources that agree on it, and the trial occurrences used by the merge
// passes. The events are working data for dedup decisions, not the final
// display output.
type SourcedScheduleItem struct {
	Item        ScheduleItem
	Explanation string
	Sources     []Source
	Events      []Event
}

// SourcedSchedulesOfChurch is the ordered, capped list of sourced items
// attributed to one church id (which may be nil or the explicitly-other
// sentinel).
type SourcedSchedulesOfChurch struct {
	ChurchID         *int
	SourcedSchedules []SourcedScheduleItem
}

func (c SourcedSchedulesOfChurch) ChurchRef() ChurchRef { return RefOf(c.ChurchID) }

func (c SourcedSchedulesOfChurch) IsChurchExplicitlyOther() bool {
	return c.ChurchRef().IsOther()
}

// SourcedSchedulesList is the merged output for one website: per-church
// sourced items plus the source lists backing each website-level boolean
// fact.
type SourcedSchedulesList struct {
	SourcedSchedulesOfChurches []SourcedSchedulesOfChurch

	PossibleByAppointmentSources []Source
	IsRelatedToMassSources       []Source
	IsRelatedToAdorationSources  []Source
	IsRelatedToPermanenceSources []Source
	WillBeSeasonalEventsSources  []Source
}

// HashKey is a canonical content fingerprint input for the whole list, fed
// into the resource hash. It covers items, explanations and source
// identities but not the trial events, which are derived data.
func (l SourcedSchedulesList) HashKey() string {
	var b strings.Builder
	for _, church := range l.SourcedSchedulesOfChurches {
		b.WriteString("church=")
		b.WriteString(church.ChurchRef().String())
		b.WriteByte('\n')
		for _, item := range church.SourcedSchedules {
			b.WriteString(item.Item.ContentKey())
			b.WriteByte('|')
			b.WriteString(item.Explanation)
			b.WriteByte('|')
			b.WriteString(strings.Join(SourceKeys(item.Sources), ","))
			b.WriteByte('\n')
		}
	}
	for _, sources := range [][]Source{
		l.PossibleByAppointmentSources,
		l.IsRelatedToMassSources,
		l.IsRelatedToAdorationSources,
		l.IsRelatedToPermanenceSources,
		l.WillBeSeasonalEventsSources,
	} {
		b.WriteString("fact=")
		b.WriteString(strings.Join(SourceKeys(sources), ","))
		b.WriteByte('\n')
	}
	return b.String()
}
