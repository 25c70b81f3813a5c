// Package index converts merged schedules into concrete, church-attributed
// occurrences suitable for display and search indexing.
package index

import (
	"fmt"

	"github.com/google/uuid"

	"reconcal/internal/holiday"
	"reconcal/internal/materialize"
	"reconcal/internal/schedule"
)

// IndexedEndHours pads events without an explicit end so search windows
// still catch them.
const IndexedEndHours = 4

// IndexEvent is one materialized occurrence attributed to a church.
// DisplayedEndTime stays nil when the source gave no end, so the UI can
// distinguish "unknown duration" from an explicit one; IndexedEndTime is
// always set for search-window queries.
type IndexEvent struct {
	ChurchID          *int
	Day               schedule.Date
	StartTime         schedule.TimeOfDay
	IndexedEndTime    schedule.TimeOfDay
	DisplayedEndTime  *schedule.TimeOfDay
	IsExplicitlyOther bool
	HasBeenModerated  bool
	ChurchColor       string
}

// UniqueKey is the tuple that must be unique within one computation.
func (e IndexEvent) UniqueKey() string {
	displayed := "-"
	if e.DisplayedEndTime != nil {
		displayed = e.DisplayedEndTime.String()
	}
	return fmt.Sprintf("%s|%s|%s|%s|%t",
		schedule.RefOf(e.ChurchID), e.Day, e.StartTime, displayed, e.IsExplicitlyOther)
}

// HashTuple is the full canonical form fed into the resource hash.
func (e IndexEvent) HashTuple() string {
	displayed := "-"
	if e.DisplayedEndTime != nil {
		displayed = e.DisplayedEndTime.String()
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%t|%t|%s",
		schedule.RefOf(e.ChurchID), e.Day, e.StartTime, e.IndexedEndTime, displayed,
		e.IsExplicitlyOther, e.HasBeenModerated, e.ChurchColor)
}

// Options configure index event building.
type Options struct {
	// Window bounds the display expansion (typically ~10 days).
	Window materialize.Window
	Zone   *holiday.Zone

	// SourceModerated reports whether a source has been human-moderated.
	SourceModerated func(schedule.Source) bool
}

// ModerationByParsing builds a SourceModerated lookup from the per-parsing
// moderation flags. The external API feed is always considered moderated.
func ModerationByParsing(moderated map[uuid.UUID]bool) func(schedule.Source) bool {
	return func(s schedule.Source) bool {
		switch source := s.(type) {
		case schedule.ParsingSource:
			return moderated[source.ParsingID]
		case schedule.ExternalAPISource:
			return true
		default:
			panic(fmt.Sprintf("unhandled source variant %T", s))
		}
	}
}

// churchOccurrence is one deduplicated occurrence under one church entry,
// before attribution rules are applied.
type churchOccurrence struct {
	ref       schedule.ChurchRef
	event     schedule.Event
	moderated bool
}

// BuildIndexEvents materializes every merged item over the display window
// and applies the attribution rules: occurrences already covered by a real
// church suppress their unattributed twins; surviving unattributed
// occurrences broadcast to every real church; explicitly-other occurrences
// are emitted once with no church. Cancellation items are negative: each
// occurrence cancels the same church's positive occurrence at the same
// start slot, and cancellations themselves never become index events.
func BuildIndexEvents(list schedule.SourcedSchedulesList, opts Options) ([]IndexEvent, error) {
	occurrences, realRefs, err := collectOccurrences(list, opts)
	if err != nil {
		return nil, err
	}

	realSlots := map[schedule.Event]bool{}
	for _, occ := range occurrences {
		if occ.ref.IsReal() {
			realSlots[occ.event] = true
		}
	}

	colorByRef := assignColors(list)

	var out []IndexEvent
	for _, occ := range occurrences {
		if occ.ref.IsReal() {
			out = append(out, makeIndexEvent(occ.ref.Ptr(), occ, false, colorByRef[occ.ref]))
			continue
		}

		if realSlots[occ.event] {
			// Presumed to be the same event already attached to a real
			// church; emitting it would double-count in search.
			continue
		}

		if occ.ref.IsOther() {
			out = append(out, makeIndexEvent(nil, occ, true, NoChurchColor(true)))
			continue
		}

		// Truly unattributed: assumed to apply to the whole website.
		for _, ref := range realRefs {
			out = append(out, makeIndexEvent(ref.Ptr(), occ, false, NoChurchColor(false)))
		}
	}

	return out, nil
}

// collectOccurrences expands every sourced item over the display window
// and unions identical (start, end) occurrences under the same church,
// OR-ing the moderation flag across contributing sources. Cancellation
// items are expanded into a negative slot set first, so a cancelled slot
// never surfaces no matter the item order within the church.
func collectOccurrences(list schedule.SourcedSchedulesList, opts Options) ([]churchOccurrence, []schedule.ChurchRef, error) {
	var occurrences []churchOccurrence
	var realRefs []schedule.ChurchRef

	for _, church := range list.SourcedSchedulesOfChurches {
		ref := church.ChurchRef()
		if ref.IsReal() {
			realRefs = append(realRefs, ref)
		}

		cancelledSlots := map[schedule.DateTime]bool{}
		for _, item := range church.SourcedSchedules {
			if !item.Item.IsCancellation {
				continue
			}
			events, err := materialize.Materialize(item.Item, opts.Zone, opts.Window)
			if err != nil {
				return nil, nil, err
			}
			for _, event := range events {
				cancelledSlots[event.Start] = true
			}
		}

		var order []schedule.Event
		moderatedByEvent := map[schedule.Event]bool{}

		for _, item := range church.SourcedSchedules {
			if item.Item.IsCancellation {
				continue
			}
			events, err := materialize.Materialize(item.Item, opts.Zone, opts.Window)
			if err != nil {
				return nil, nil, err
			}

			moderated := false
			for _, source := range item.Sources {
				if opts.SourceModerated(source) {
					moderated = true
					break
				}
			}

			for _, event := range events {
				if cancelledSlots[event.Start] {
					continue
				}
				if _, seen := moderatedByEvent[event]; !seen {
					order = append(order, event)
				}
				moderatedByEvent[event] = moderatedByEvent[event] || moderated
			}
		}

		for _, event := range order {
			occurrences = append(occurrences, churchOccurrence{
				ref:       ref,
				event:     event,
				moderated: moderatedByEvent[event],
			})
		}
	}

	return occurrences, realRefs, nil
}

// assignColors gives each real church its positional display color in
// merge order.
func assignColors(list schedule.SourcedSchedulesList) map[schedule.ChurchRef]string {
	colors := map[schedule.ChurchRef]string{}
	position := 0
	for _, church := range list.SourcedSchedulesOfChurches {
		ref := church.ChurchRef()
		if ref.IsReal() {
			colors[ref] = ChurchColor(position)
			position++
		}
	}
	return colors
}

func makeIndexEvent(churchID *int, occ churchOccurrence, isOther bool, color string) IndexEvent {
	ev := IndexEvent{
		ChurchID:          churchID,
		Day:               occ.event.Start.Date,
		StartTime:         occ.event.Start.Time,
		IsExplicitlyOther: isOther,
		HasBeenModerated:  occ.moderated,
		ChurchColor:       color,
	}
	if occ.event.HasEnd {
		end := occ.event.End.Time
		ev.DisplayedEndTime = &end
		ev.IndexedEndTime = end
	} else {
		ev.IndexedEndTime = occ.event.Start.Time.PlusHours(IndexedEndHours)
	}
	return ev
}
