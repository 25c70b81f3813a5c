package index

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconcal/internal/materialize"
	"reconcal/internal/schedule"
)

var (
	parsing1 = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	parsing2 = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func intPtr(n int) *int { return &n }

// displayWindow covers Monday March 2 to Sunday March 8, 2026.
func displayWindow() materialize.Window {
	return materialize.Window{
		Start: schedule.Date{Year: 2026, Month: time.March, Day: 2},
		End:   schedule.Date{Year: 2026, Month: time.March, Day: 8},
	}
}

func weeklySourced(day schedule.Weekday, hour int, withEnd bool, sources ...schedule.Source) schedule.SourcedScheduleItem {
	item := schedule.ScheduleItem{
		StartTime: schedule.TimeOfDay{Hour: hour},
		DateRule:  schedule.WeeklyRule{ByWeekdays: []schedule.Weekday{day}},
	}
	if withEnd {
		end := schedule.TimeOfDay{Hour: hour + 1}
		item.EndTime = &end
	}
	return schedule.SourcedScheduleItem{
		Item:        item,
		Explanation: schedule.Explain(item),
		Sources:     sources,
	}
}

func churchEntry(id *int, items ...schedule.SourcedScheduleItem) schedule.SourcedSchedulesOfChurch {
	return schedule.SourcedSchedulesOfChurch{ChurchID: id, SourcedSchedules: items}
}

func options(moderated map[uuid.UUID]bool) Options {
	return Options{
		Window:          displayWindow(),
		SourceModerated: ModerationByParsing(moderated),
	}
}

func TestBuildIndexEventsForRealChurch(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing1})),
		},
	}

	events, err := BuildIndexEvents(list, options(map[uuid.UUID]bool{parsing1: true}))
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	require.NotNil(t, ev.ChurchID)
	assert.Equal(t, 0, *ev.ChurchID)
	assert.Equal(t, schedule.Date{Year: 2026, Month: time.March, Day: 2}, ev.Day)
	assert.Equal(t, "18:00", ev.StartTime.String())
	require.NotNil(t, ev.DisplayedEndTime)
	assert.Equal(t, "19:00", ev.DisplayedEndTime.String())
	assert.Equal(t, "19:00", ev.IndexedEndTime.String())
	assert.True(t, ev.HasBeenModerated)
	assert.False(t, ev.IsExplicitlyOther)
	assert.Equal(t, ChurchColor(0), ev.ChurchColor)
}

func TestIndexedEndPadsEventsWithoutEnd(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 17, false, schedule.ParsingSource{ParsingID: parsing1})),
		},
	}

	events, err := BuildIndexEvents(list, options(nil))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].DisplayedEndTime)
	assert.Equal(t, "21:00", events[0].IndexedEndTime.String())
}

func TestIndexedEndClampsAtMidnight(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 21, false, schedule.ParsingSource{ParsingID: parsing1})),
		},
	}

	events, err := BuildIndexEvents(list, options(nil))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "23:59", events[0].IndexedEndTime.String())
}

func TestRealChurchSuppressesUnattributedTwin(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing1})),
			churchEntry(intPtr(1)),
			churchEntry(nil,
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing2})),
		},
	}

	events, err := BuildIndexEvents(list, options(nil))
	require.NoError(t, err)

	// The unattributed occurrence coincides with church 0's slot: no
	// broadcast, only the real event survives.
	require.Len(t, events, 1)
	require.NotNil(t, events[0].ChurchID)
	assert.Equal(t, 0, *events[0].ChurchID)
}

func TestUnattributedBroadcastsToAllRealChurches(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing1})),
			churchEntry(intPtr(1)),
			churchEntry(nil,
				weeklySourced(schedule.Tuesday, 9, true, schedule.ParsingSource{ParsingID: parsing2})),
		},
	}

	events, err := BuildIndexEvents(list, options(nil))
	require.NoError(t, err)
	require.Len(t, events, 3)

	var broadcastIDs []int
	for _, ev := range events[1:] {
		require.NotNil(t, ev.ChurchID)
		broadcastIDs = append(broadcastIDs, *ev.ChurchID)
		assert.Equal(t, NoChurchColor(false), ev.ChurchColor)
		assert.False(t, ev.IsExplicitlyOther)
	}
	assert.ElementsMatch(t, []int{0, 1}, broadcastIDs)
}

func TestExplicitlyOtherEmitsSingleChurchlessEvent(t *testing.T) {
	other := schedule.ChurchIDOther
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing1})),
			churchEntry(intPtr(1)),
			churchEntry(&other,
				weeklySourced(schedule.Wednesday, 10, true, schedule.ParsingSource{ParsingID: parsing2})),
		},
	}

	events, err := BuildIndexEvents(list, options(nil))
	require.NoError(t, err)
	require.Len(t, events, 2)

	ev := events[1]
	assert.Nil(t, ev.ChurchID)
	assert.True(t, ev.IsExplicitlyOther)
	assert.Equal(t, NoChurchColor(true), ev.ChurchColor)
}

func TestExplicitlyOtherSuppressedByRealSlot(t *testing.T) {
	other := schedule.ChurchIDOther
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing1})),
			churchEntry(&other,
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing2})),
		},
	}

	events, err := BuildIndexEvents(list, options(nil))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].ChurchID)
}

func oneOffSourced(day schedule.Date, hour int, cancellation bool, sources ...schedule.Source) schedule.SourcedScheduleItem {
	item := schedule.ScheduleItem{
		IsCancellation: cancellation,
		StartTime:      schedule.TimeOfDay{Hour: hour},
		DateRule:       schedule.OneOffRule{Date: day},
	}
	return schedule.SourcedScheduleItem{
		Item:        item,
		Explanation: schedule.Explain(item),
		Sources:     sources,
	}
}

func TestLoneCancellationEmitsNoEvents(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(1),
				oneOffSourced(schedule.Date{Year: 2026, Month: time.March, Day: 9}, 18, true,
					schedule.ParsingSource{ParsingID: parsing1})),
		},
	}

	opts := options(nil)
	opts.Window.End = schedule.Date{Year: 2026, Month: time.March, Day: 15}
	events, err := BuildIndexEvents(list, opts)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCancellationSuppressesMatchingOccurrence(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing1}),
				oneOffSourced(schedule.Date{Year: 2026, Month: time.March, Day: 9}, 18, true,
					schedule.ParsingSource{ParsingID: parsing2}),
			),
		},
	}

	opts := options(nil)
	opts.Window.End = schedule.Date{Year: 2026, Month: time.March, Day: 15}
	events, err := BuildIndexEvents(list, opts)
	require.NoError(t, err)

	// Mondays March 2 and 9 fall in the window; only the uncancelled one
	// survives.
	require.Len(t, events, 1)
	assert.Equal(t, schedule.Date{Year: 2026, Month: time.March, Day: 2}, events[0].Day)
}

func TestCancellationDoesNotSuppressUnattributedTwin(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, false, schedule.ParsingSource{ParsingID: parsing1})),
			churchEntry(nil,
				weeklySourced(schedule.Monday, 18, false, schedule.ParsingSource{ParsingID: parsing2})),
		},
	}
	cancellation := list.SourcedSchedulesOfChurches[0].SourcedSchedules[0]
	cancellation.Item.IsCancellation = true
	cancellation.Explanation = schedule.Explain(cancellation.Item)
	list.SourcedSchedulesOfChurches[0].SourcedSchedules = []schedule.SourcedScheduleItem{cancellation}

	events, err := BuildIndexEvents(list, options(nil))
	require.NoError(t, err)

	// Church 0 cancelled its Monday slot, so no real occurrence exists and
	// the unattributed one must still broadcast instead of being treated as
	// covered.
	require.Len(t, events, 1)
	require.NotNil(t, events[0].ChurchID)
	assert.Equal(t, 0, *events[0].ChurchID)
	assert.Equal(t, NoChurchColor(false), events[0].ChurchColor)
}

func TestModerationORsAcrossSources(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, true,
					schedule.ParsingSource{ParsingID: parsing1},
					schedule.ParsingSource{ParsingID: parsing2})),
		},
	}

	events, err := BuildIndexEvents(list, options(map[uuid.UUID]bool{parsing1: false, parsing2: true}))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].HasBeenModerated)
}

func TestModerationORsAcrossItemsSharingASlot(t *testing.T) {
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing1}),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing2}),
			),
		},
	}

	events, err := BuildIndexEvents(list, options(map[uuid.UUID]bool{parsing2: true}))
	require.NoError(t, err)
	// The two items produce the same occurrence: one event, moderated.
	require.Len(t, events, 1)
	assert.True(t, events[0].HasBeenModerated)
}

func TestExternalAPIAlwaysModerated(t *testing.T) {
	moderated := ModerationByParsing(nil)
	assert.True(t, moderated(schedule.ExternalAPISource{}))
	assert.False(t, moderated(schedule.ParsingSource{ParsingID: parsing1}))
}

func TestUniqueKeysWithinComputation(t *testing.T) {
	other := schedule.ChurchIDOther
	list := schedule.SourcedSchedulesList{
		SourcedSchedulesOfChurches: []schedule.SourcedSchedulesOfChurch{
			churchEntry(intPtr(0),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing1}),
				weeklySourced(schedule.Saturday, 10, false, schedule.ParsingSource{ParsingID: parsing1}),
			),
			churchEntry(intPtr(1),
				weeklySourced(schedule.Monday, 18, true, schedule.ParsingSource{ParsingID: parsing2})),
			churchEntry(&other,
				weeklySourced(schedule.Friday, 16, true, schedule.ParsingSource{ParsingID: parsing2})),
			churchEntry(nil,
				weeklySourced(schedule.Tuesday, 9, true, schedule.ParsingSource{ParsingID: parsing2})),
		},
	}

	events, err := BuildIndexEvents(list, options(nil))
	require.NoError(t, err)
	require.NotEmpty(t, events)

	seen := map[string]bool{}
	for _, ev := range events {
		key := ev.UniqueKey()
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestChurchColors(t *testing.T) {
	assert.Equal(t, "#C0EDF2", ChurchColor(0))
	assert.Equal(t, "#B7E7CC", ChurchColor(1))
	assert.Equal(t, "#E4D8F3", ChurchColor(2))

	generated := ChurchColor(3)
	assert.Len(t, generated, 7)
	assert.NotContains(t, []string{ChurchColor(0), ChurchColor(1), ChurchColor(2)}, generated)
	// Stable across calls.
	assert.Equal(t, generated, ChurchColor(3))

	assert.Equal(t, "#E8A5B3", NoChurchColor(true))
	assert.Equal(t, "lightgray", NoChurchColor(false))
}
