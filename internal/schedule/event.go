package schedule

import "sort"

// Event is one concrete materialized occurrence in civil time. HasEnd
// distinguishes "unknown duration" from an explicit end; the struct stays
// comparable so events can be map keys and deduplicated with ==.
type Event struct {
	Start  DateTime
	End    DateTime
	HasEnd bool
}

func (e Event) Compare(o Event) int {
	if c := e.Start.Compare(o.Start); c != 0 {
		return c
	}
	if e.HasEnd != o.HasEnd {
		// Events without an end sort before events with one.
		if !e.HasEnd {
			return -1
		}
		return 1
	}
	return e.End.Compare(o.End)
}

// SortEvents orders and deduplicates events in place-free fashion,
// returning a new slice.
func SortEvents(events []Event) []Event {
	seen := map[Event]bool{}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}
