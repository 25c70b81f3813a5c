package schedule

import "fmt"

// ChurchIDOther is the sentinel meaning "explicitly another church than the
// ones known for the website" (a parser saw wording like "at the chapel of
// the neighbouring parish"). It is distinct from an absent church id, which
// means the source did not attribute the item at all. The two shapes are
// treated differently by the elimination and broadcast passes, so the
// three-way distinction (real id / nil / -1) must not be collapsed.
const ChurchIDOther = -1

// ChurchRef is the comparable form of a nullable church id, usable as a map
// key while preserving the nil / -1 / real distinction.
type ChurchRef struct {
	ID    int
	Known bool
}

func RefOf(id *int) ChurchRef {
	if id == nil {
		return ChurchRef{}
	}
	return ChurchRef{ID: *id, Known: true}
}

func (r ChurchRef) Ptr() *int {
	if !r.Known {
		return nil
	}
	id := r.ID
	return &id
}

func (r ChurchRef) IsOther() bool { return r.Known && r.ID == ChurchIDOther }

// IsReal reports whether the reference names an actual church of the
// website.
func (r ChurchRef) IsReal() bool { return r.Known && r.ID != ChurchIDOther }

func (r ChurchRef) String() string {
	if !r.Known {
		return "none"
	}
	return fmt.Sprintf("%d", r.ID)
}

// ScheduleItem is one recurring or one-off confession rule as produced by
// an upstream parser. It is an immutable value; equality is structural.
type ScheduleItem struct {
	ChurchID        *int
	IsCancellation  bool
	StartTime       TimeOfDay
	EndTime         *TimeOfDay
	DurationMinutes *int
	DateRule        DateRule
}

func (it ScheduleItem) ChurchRef() ChurchRef { return RefOf(it.ChurchID) }

func (it ScheduleItem) HasRealChurch() bool { return it.ChurchRef().IsReal() }

// ResolvedEndTime returns the explicit end time, or one derived from the
// duration when only a duration was parsed.
func (it ScheduleItem) ResolvedEndTime() (TimeOfDay, bool) {
	if it.EndTime != nil {
		return *it.EndTime, true
	}
	if it.DurationMinutes != nil {
		return TimeOfDayFromMinutes(min(it.StartTime.Minutes()+*it.DurationMinutes, 24*60-1)), true
	}
	return TimeOfDay{}, false
}

// ContentKey is the canonical structural identity of the item, ignoring
// provenance. Two items with equal keys describe the same rule.
func (it ScheduleItem) ContentKey() string {
	end := "-"
	if t, ok := it.ResolvedEndTime(); ok {
		end = t.String()
	}
	return fmt.Sprintf("%s|%t|%s|%s|%s",
		it.ChurchRef(), it.IsCancellation, it.StartTime, end, it.DateRule.Key())
}

func (it ScheduleItem) Equal(o ScheduleItem) bool {
	return it.ContentKey() == o.ContentKey()
}

// SchedulesList is the unit produced by one upstream parser run: the
// schedule items plus boolean facts that are not tied to a single item.
type SchedulesList struct {
	Schedules []ScheduleItem

	PossibleByAppointment bool
	IsRelatedToMass       bool
	IsRelatedToAdoration  bool
	IsRelatedToPermanence bool
	WillBeSeasonalEvents  bool
}
