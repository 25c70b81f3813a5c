package holiday

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "reconcal/internal/log"
	"reconcal/internal/schedule"
)

// ParseFeed parses the official school-holiday ICS feed (data.gouv.fr)
// into per-zone holiday ranges. Only VEVENTs whose SUMMARY starts with
// "Vacances" are kept; the LOCATION property names the zones the span
// applies to.
func ParseFeed(body []byte) (map[ZoneName][]DateRange, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	rangesByZone := make(map[ZoneName][]DateRange)
	kept := 0

	for _, ve := range cal.Events() {
		summary := propValue(ve, ical.ComponentPropertySummary)
		if !strings.HasPrefix(summary, "Vacances") {
			continue
		}

		zones := parseZones(propValue(ve, ical.ComponentPropertyLocation))
		if len(zones) == 0 {
			continue
		}

		start, err := datePropValue(ve, ical.ComponentPropertyDtStart)
		if err != nil {
			appLog.Error("holiday feed: skipping vevent with bad DTSTART", err, "summary", summary)
			continue
		}
		end, err := datePropValue(ve, ical.ComponentPropertyDtEnd)
		if err != nil {
			appLog.Error("holiday feed: skipping vevent with bad DTEND", err, "summary", summary)
			continue
		}

		r := DateRange{Start: start, End: end}
		for _, zone := range zones {
			rangesByZone[zone] = append(rangesByZone[zone], r)
		}
		kept++
	}

	appLog.Debug("holiday feed parsed", "kept_events", kept, "zones", len(rangesByZone))
	return rangesByZone, nil
}

// ZoneFromFeed builds the resolved calendar for one zone out of a parsed
// feed body.
func ZoneFromFeed(name ZoneName, body []byte) (*Zone, error) {
	rangesByZone, err := ParseFeed(body)
	if err != nil {
		return nil, err
	}
	return NewZone(name, rangesByZone[name]), nil
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// datePropValue reads an all-day date property (VALUE=DATE, YYYYMMDD).
func datePropValue(ve *ical.VEvent, prop ical.ComponentProperty) (schedule.Date, error) {
	p := ve.GetProperty(prop)
	if p == nil {
		return schedule.Date{}, errors.New("missing date property")
	}
	t, err := time.Parse("20060102", strings.TrimSpace(p.Value))
	if err != nil {
		return schedule.Date{}, err
	}
	return schedule.DateOf(t), nil
}

// parseZones extracts zone names from a LOCATION value such as
// "Zones A/B/C", "Zone B" or "Corse".
func parseZones(location string) []ZoneName {
	var zones []ZoneName

	switch {
	case strings.Contains(location, "Zones A/B/C"):
		zones = append(zones, ZoneA, ZoneB, ZoneC)
	case strings.Contains(location, "Zones A/B"):
		zones = append(zones, ZoneA, ZoneB)
	case strings.Contains(location, "Zones B/C"):
		zones = append(zones, ZoneB, ZoneC)
	case strings.Contains(location, "Zones A/C"):
		zones = append(zones, ZoneA, ZoneC)
	case strings.Contains(location, "Zone A"):
		zones = append(zones, ZoneA)
	case strings.Contains(location, "Zone B"):
		zones = append(zones, ZoneB)
	case strings.Contains(location, "Zone C"):
		zones = append(zones, ZoneC)
	}

	if strings.Contains(location, "Corse") {
		zones = append(zones, Corsica)
	}

	return zones
}
