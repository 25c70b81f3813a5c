package holiday

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconcal/internal/schedule"
)

// sampleFeed mirrors the shape of the official data.gouv.fr feed: all-day
// events, "Vacances ..." summaries, zones named in LOCATION.
func sampleFeed() []byte {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Education nationale//Calendrier scolaire//FR",
		"BEGIN:VEVENT",
		"UID:noel-2026",
		"SUMMARY:Vacances de Noël - Zones A/B/C",
		"LOCATION:Zones A/B/C",
		"DTSTART;VALUE=DATE:20261219",
		"DTEND;VALUE=DATE:20270104",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:hiver-2026-b",
		"SUMMARY:Vacances d'Hiver - Zone B",
		"LOCATION:Zone B",
		"DTSTART;VALUE=DATE:20260207",
		"DTEND;VALUE=DATE:20260223",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:hiver-2026-corse",
		"SUMMARY:Vacances d'Hiver - Corse",
		"LOCATION:Corse",
		"DTSTART;VALUE=DATE:20260214",
		"DTEND;VALUE=DATE:20260302",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:rentree-2026",
		"SUMMARY:Rentrée scolaire des élèves",
		"LOCATION:Zones A/B/C",
		"DTSTART;VALUE=DATE:20260901",
		"DTEND;VALUE=DATE:20260902",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestParseFeed(t *testing.T) {
	rangesByZone, err := ParseFeed(sampleFeed())
	require.NoError(t, err)

	// The "Rentrée" event is not a holiday span and must be skipped.
	assert.Len(t, rangesByZone[ZoneA], 1)
	assert.Len(t, rangesByZone[ZoneB], 2)
	assert.Len(t, rangesByZone[ZoneC], 1)
	assert.Len(t, rangesByZone[Corsica], 1)

	assert.Contains(t, rangesByZone[ZoneB], DateRange{
		Start: schedule.Date{Year: 2026, Month: time.February, Day: 7},
		End:   schedule.Date{Year: 2026, Month: time.February, Day: 23},
	})
}

func TestParseFeedEmptyBody(t *testing.T) {
	_, err := ParseFeed(nil)
	assert.Error(t, err)
}

func TestZoneFromFeed(t *testing.T) {
	zone, err := ZoneFromFeed(ZoneB, sampleFeed())
	require.NoError(t, err)

	assert.True(t, zone.Contains(schedule.Date{Year: 2026, Month: time.February, Day: 10}))
	assert.True(t, zone.Contains(schedule.Date{Year: 2026, Month: time.December, Day: 25}))
	// End is exclusive: back to school on February 23.
	assert.False(t, zone.Contains(schedule.Date{Year: 2026, Month: time.February, Day: 23}))
	// The Corsican winter break does not apply to zone B.
	assert.False(t, zone.Contains(schedule.Date{Year: 2026, Month: time.February, Day: 28}))
}
