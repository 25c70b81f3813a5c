// Package holiday resolves French school-holiday calendars. A Zone is the
// resolved calendar for one school zone; the materializer consults it to
// test school-holiday period membership.
package holiday

import (
	"fmt"
	"sort"

	"reconcal/internal/schedule"
)

// ZoneName identifies a French school-holiday zone.
type ZoneName string

const (
	ZoneA   ZoneName = "fr_zone_a"
	ZoneB   ZoneName = "fr_zone_b"
	ZoneC   ZoneName = "fr_zone_c"
	Corsica ZoneName = "corsica"
)

// ParseZoneName validates a zone name from config or snapshot files.
func ParseZoneName(s string) (ZoneName, error) {
	switch z := ZoneName(s); z {
	case ZoneA, ZoneB, ZoneC, Corsica:
		return z, nil
	default:
		return "", fmt.Errorf("unknown holiday zone %q", s)
	}
}

// DateRange is a half-open civil span [Start, End), matching the ICS
// DTSTART/DTEND convention of the official feed.
type DateRange struct {
	Start schedule.Date
	End   schedule.Date
}

func (r DateRange) Contains(d schedule.Date) bool {
	return !d.Before(r.Start) && d.Before(r.End)
}

// Zone is a resolved school-holiday calendar for one zone.
type Zone struct {
	Name   ZoneName
	Ranges []DateRange
}

// Contains reports whether d falls inside a school holiday of the zone.
func (z *Zone) Contains(d schedule.Date) bool {
	if z == nil {
		return false
	}
	for _, r := range z.Ranges {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// NewZone builds a Zone with its ranges sorted and deduplicated so that
// equal inputs always produce an identical calendar.
func NewZone(name ZoneName, ranges []DateRange) *Zone {
	seen := map[DateRange]bool{}
	out := make([]DateRange, 0, len(ranges))
	for _, r := range ranges {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Start.Compare(out[j].Start); c != 0 {
			return c < 0
		}
		return out[i].End.Before(out[j].End)
	})
	return &Zone{Name: name, Ranges: out}
}
