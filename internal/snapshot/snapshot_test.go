package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconcal/internal/resources"
	"reconcal/internal/schedule"
)

const sampleSnapshot = `
websites:
  - name: st-lambert
    holiday_zone: fr_zone_c
    churches:
      - id: 0
        name: Église Saint-Lambert
        zipcode: "75015"
        version: 101
      - id: 1
        name: Chapelle Sainte-Rita
        zipcode: "75015"
        version: 102
    scraping_versions: [11, 12]
    scraping_prunings:
      - {source: 11, target: 31}
    pruning_parsings:
      - {source: 31, target: 41}
    parsings:
      - id: 11111111-1111-1111-1111-111111111111
        moderated: true
        churches:
          0: Église Saint-Lambert
          1: Chapelle Sainte-Rita
        schedules:
          possible_by_appointment: true
          schedules:
            - church_id: 0
              start_time: "18:00"
              end_time: "19:00"
              weekly:
                by_weekdays: [monday, wednesday]
              not_in_periods: [school_holidays]
            - is_cancellation: true
              start_time: "18:00"
              one_off: "2026-12-25"
            - church_id: 1
              start_time: "10:00"
              duration_minutes: 45
              weekly:
                by_weekdays: [saturday]
              only_in_periods: ["2026-07-01..2026-08-31"]
    external_api:
      location_versions: [51]
      schedule_versions: [61, 62]
      matching_version: 7
      schedules:
        is_related_to_mass: true
        schedules:
          - church_id: 0
            start_time: "17:30"
            weekly:
              by_weekdays: [friday]
`

func loadSample(t *testing.T) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSnapshot), 0o600))
	f, err := Load(path)
	require.NoError(t, err)
	return f
}

func TestLoadSnapshot(t *testing.T) {
	f := loadSample(t)
	require.Len(t, f.Websites, 1)

	w := f.Websites[0]
	assert.Equal(t, "st-lambert", w.Name)
	assert.Equal(t, "fr_zone_c", w.HolidayZone)
	require.Len(t, w.Churches, 2)
	assert.Equal(t, "Église Saint-Lambert", w.Churches[0].Name)
}

func TestWebsiteInput(t *testing.T) {
	w := loadSample(t).Websites[0]
	today := schedule.Date{Year: 2026, Month: time.March, Day: 1}

	in, err := w.Input(today)
	require.NoError(t, err)

	assert.Equal(t, today, in.Today)
	require.Len(t, in.Churches, 2)
	assert.Equal(t, "75015", in.Churches[0].Zipcode)

	assert.Equal(t, []int64{101, 102}, in.Refs.ChurchVersions)
	assert.Equal(t, []int64{11, 12}, in.Refs.ScrapingVersions)
	assert.Equal(t, []resources.LinkRef{{SourceVersion: 11, TargetVersion: 31}}, in.Refs.ScrapingPrunings)
	assert.Equal(t, []int64{61, 62}, in.Refs.ScheduleVersions)
	require.NotNil(t, in.Refs.MatchingVersion)
	assert.Equal(t, int64(7), *in.Refs.MatchingVersion)

	// One parsing source plus the external API source.
	require.Len(t, in.Sources, 2)

	parsing, ok := in.Sources[0].(schedule.ParsingSource)
	require.True(t, ok)
	assert.Equal(t, "parsing:11111111-1111-1111-1111-111111111111", parsing.Key())
	assert.True(t, in.ModeratedByParsing[parsing.ParsingID])
	assert.Equal(t, "Église Saint-Lambert", in.ParsingChurches[parsing.ParsingID][0])

	require.NotNil(t, parsing.Schedules)
	assert.True(t, parsing.Schedules.PossibleByAppointment)
	require.Len(t, parsing.Schedules.Schedules, 3)

	weekly := parsing.Schedules.Schedules[0]
	require.NotNil(t, weekly.ChurchID)
	assert.Equal(t, 0, *weekly.ChurchID)
	assert.Equal(t, schedule.TimeOfDay{Hour: 18}, weekly.StartTime)
	rule, ok := weekly.DateRule.(schedule.WeeklyRule)
	require.True(t, ok)
	assert.Equal(t, []schedule.Weekday{schedule.Monday, schedule.Wednesday}, rule.SortedWeekdays())
	assert.Equal(t, []schedule.Period{schedule.PeriodSchoolHolidays}, rule.Except.NotInPeriods)

	oneOff := parsing.Schedules.Schedules[1]
	assert.Nil(t, oneOff.ChurchID)
	assert.True(t, oneOff.IsCancellation)
	oneOffRule, ok := oneOff.DateRule.(schedule.OneOffRule)
	require.True(t, ok)
	assert.Equal(t, schedule.Date{Year: 2026, Month: time.December, Day: 25}, oneOffRule.Date)

	custom := parsing.Schedules.Schedules[2]
	require.NotNil(t, custom.DurationMinutes)
	assert.Equal(t, 45, *custom.DurationMinutes)
	customRule := custom.DateRule.(schedule.WeeklyRule)
	assert.Equal(t, []schedule.Period{schedule.CustomPeriod{
		Start: schedule.Date{Year: 2026, Month: time.July, Day: 1},
		End:   schedule.Date{Year: 2026, Month: time.August, Day: 31},
	}}, customRule.Except.OnlyInPeriods)

	api, ok := in.Sources[1].(schedule.ExternalAPISource)
	require.True(t, ok)
	require.NotNil(t, api.Schedules)
	assert.True(t, api.Schedules.IsRelatedToMass)
}

func TestWebsiteInputRejectsBadData(t *testing.T) {
	today := schedule.Date{Year: 2026, Month: time.March, Day: 1}

	badUUID := Website{Name: "w", Parsings: []Parsing{{ID: "not-a-uuid"}}}
	_, err := badUUID.Input(today)
	assert.Error(t, err)

	badRule := Website{Name: "w", Parsings: []Parsing{{
		ID: "11111111-1111-1111-1111-111111111111",
		Schedules: &SchedulesList{Schedules: []ScheduleItem{{
			StartTime: "18:00",
			Weekly:    &WeeklyRule{ByWeekdays: []string{"monday"}},
			OneOff:    "2026-12-25",
		}}},
	}}}
	_, err = badRule.Input(today)
	assert.ErrorContains(t, err, "both weekly and one_off")

	noRule := Website{Name: "w", Parsings: []Parsing{{
		ID:        "11111111-1111-1111-1111-111111111111",
		Schedules: &SchedulesList{Schedules: []ScheduleItem{{StartTime: "18:00"}}},
	}}}
	_, err = noRule.Input(today)
	assert.ErrorContains(t, err, "neither weekly nor one_off")

	badWeekday := Website{Name: "w", Parsings: []Parsing{{
		ID: "11111111-1111-1111-1111-111111111111",
		Schedules: &SchedulesList{Schedules: []ScheduleItem{{
			Weekly: &WeeklyRule{ByWeekdays: []string{"lundi"}},
		}}},
	}}}
	_, err = badWeekday.Input(today)
	assert.ErrorContains(t, err, "unknown weekday")

	badPeriod := Website{Name: "w", Parsings: []Parsing{{
		ID: "11111111-1111-1111-1111-111111111111",
		Schedules: &SchedulesList{Schedules: []ScheduleItem{{
			Weekly:        &WeeklyRule{ByWeekdays: []string{"monday"}},
			OnlyInPeriods: []string{"carnival"},
		}}},
	}}}
	_, err = badPeriod.Input(today)
	assert.ErrorContains(t, err, "unknown period")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
