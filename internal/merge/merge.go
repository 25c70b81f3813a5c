// Package merge folds the schedule items of every source for one website
// into a deduplicated, explained, source-attributed list per church.
package merge

import (
	"sort"

	"reconcal/internal/holiday"
	"reconcal/internal/materialize"
	"reconcal/internal/schedule"
)

// DefaultMaxSchedulesPerChurch caps each church's merged list.
const DefaultMaxSchedulesPerChurch = 30

// Options bound the trial expansion used for merge decisions.
type Options struct {
	Window                materialize.Window
	Zone                  *holiday.Zone
	MaxSchedulesPerChurch int
}

// BuildSourcedSchedules runs the whole merge pipeline: expand every
// (source, item) pair, merge similar weekly rules, eliminate
// unknown-church duplicates and redundant exception-free rules, then sort,
// group by church and cap. Churches in knownChurchIDs always get an entry,
// empty if nothing survived for them.
//
// A source with a nil schedules list contributes nothing; an item with
// zero occurrences in the window is silently dropped. Cancellation items
// are negative: their occurrences are subtracted from the matching
// positive occurrences of the same church, and a positive item cancelled
// everywhere in the window is dropped like any other empty item.
func BuildSourcedSchedules(sources []schedule.Source, knownChurchIDs []int, opts Options) (schedule.SourcedSchedulesList, error) {
	if opts.MaxSchedulesPerChurch <= 0 {
		opts.MaxSchedulesPerChurch = DefaultMaxSchedulesPerChurch
	}

	var out schedule.SourcedSchedulesList
	var items []schedule.SourcedScheduleItem

	for _, source := range sources {
		list := source.SchedulesList()
		if list == nil {
			continue
		}

		for _, item := range list.Schedules {
			events, err := materialize.Materialize(item, opts.Zone, opts.Window)
			if err != nil {
				return schedule.SourcedSchedulesList{}, err
			}
			if len(events) == 0 {
				continue
			}
			items = append(items, schedule.SourcedScheduleItem{
				Item:        item,
				Explanation: schedule.Explain(item),
				Sources:     []schedule.Source{source},
				Events:      events,
			})
		}

		if list.PossibleByAppointment {
			out.PossibleByAppointmentSources = append(out.PossibleByAppointmentSources, source)
		}
		if list.IsRelatedToMass {
			out.IsRelatedToMassSources = append(out.IsRelatedToMassSources, source)
		}
		if list.IsRelatedToAdoration {
			out.IsRelatedToAdorationSources = append(out.IsRelatedToAdorationSources, source)
		}
		if list.IsRelatedToPermanence {
			out.IsRelatedToPermanenceSources = append(out.IsRelatedToPermanenceSources, source)
		}
		if list.WillBeSeasonalEvents {
			out.WillBeSeasonalEventsSources = append(out.WillBeSeasonalEventsSources, source)
		}
	}

	items = applyCancellations(items)
	items = MergeItems(items)
	out.SourcedSchedulesOfChurches = groupByChurch(items, knownChurchIDs, opts.MaxSchedulesPerChurch)
	return out, nil
}

// applyCancellations subtracts each church's cancellation occurrences from
// the trial events of its positive items, matching on the start slot. The
// cancellation items themselves survive, carrying their own explanation;
// positive items left without occurrences are dropped.
func applyCancellations(items []schedule.SourcedScheduleItem) []schedule.SourcedScheduleItem {
	cancelled := map[schedule.ChurchRef]map[schedule.DateTime]bool{}
	for _, item := range items {
		if !item.Item.IsCancellation {
			continue
		}
		ref := item.Item.ChurchRef()
		if cancelled[ref] == nil {
			cancelled[ref] = map[schedule.DateTime]bool{}
		}
		for _, ev := range item.Events {
			cancelled[ref][ev.Start] = true
		}
	}
	if len(cancelled) == 0 {
		return items
	}

	var out []schedule.SourcedScheduleItem
	for _, item := range items {
		if item.Item.IsCancellation {
			out = append(out, item)
			continue
		}
		slots := cancelled[item.Item.ChurchRef()]
		if len(slots) == 0 {
			out = append(out, item)
			continue
		}
		kept := make([]schedule.Event, 0, len(item.Events))
		for _, ev := range item.Events {
			if !slots[ev.Start] {
				kept = append(kept, ev)
			}
		}
		if len(kept) == 0 {
			continue
		}
		item.Events = kept
		out = append(out, item)
	}
	return out
}

// MergeItems applies the three merge passes in order. Running it on its
// own output is a fixed point.
func MergeItems(items []schedule.SourcedScheduleItem) []schedule.SourcedScheduleItem {
	items = applyOnSameChurch(items, mergeSimilarWeeklyRules)
	items = eliminateSimilarWithUnknownChurch(items)
	items = applyOnSameChurch(items, eliminateRedundantExceptions)
	return items
}

// applyOnSameChurch partitions items by church id (preserving first-seen
// group order, so the result is deterministic) and applies fn per group.
func applyOnSameChurch(
	items []schedule.SourcedScheduleItem,
	fn func([]schedule.SourcedScheduleItem) []schedule.SourcedScheduleItem,
) []schedule.SourcedScheduleItem {
	var order []schedule.ChurchRef
	groups := map[schedule.ChurchRef][]schedule.SourcedScheduleItem{}
	for _, item := range items {
		ref := item.Item.ChurchRef()
		if _, seen := groups[ref]; !seen {
			order = append(order, ref)
		}
		groups[ref] = append(groups[ref], item)
	}

	var out []schedule.SourcedScheduleItem
	for _, ref := range order {
		out = append(out, fn(groups[ref])...)
	}
	return out
}

// mergeSimilarWeeklyRules unions the weekday sets of weekly items that
// agree on everything else: cancellation flag, times, period restrictions
// and excluded dates. Sources and trial events are unioned; the
// explanation is regenerated from the combined item.
func mergeSimilarWeeklyRules(items []schedule.SourcedScheduleItem) []schedule.SourcedScheduleItem {
	var out []schedule.SourcedScheduleItem
	var keyOrder []string
	groups := map[string][]schedule.SourcedScheduleItem{}

	for _, item := range items {
		rule, isWeekly := item.Item.DateRule.(schedule.WeeklyRule)
		if !isWeekly {
			out = append(out, item)
			continue
		}

		end := "-"
		if t, ok := item.Item.ResolvedEndTime(); ok {
			end = t.String()
		}
		key := boolKey(item.Item.IsCancellation) + "|" +
			item.Item.StartTime.String() + "|" + end + "|" + rule.Except.Key()

		if _, seen := groups[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		groups[key] = append(groups[key], item)
	}

	for _, key := range keyOrder {
		group := groups[key]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}

		var weekdays []schedule.Weekday
		var sources [][]schedule.Source
		var events []schedule.Event
		for _, item := range group {
			rule := item.Item.DateRule.(schedule.WeeklyRule)
			weekdays = append(weekdays, rule.ByWeekdays...)
			sources = append(sources, item.Sources)
			events = append(events, item.Events...)
		}

		combined := group[0].Item
		firstRule := combined.DateRule.(schedule.WeeklyRule)
		combined.DateRule = schedule.WeeklyRule{
			ByWeekdays: schedule.WeeklyRule{ByWeekdays: weekdays}.SortedWeekdays(),
			Except:     firstRule.Except,
		}

		out = append(out, schedule.SourcedScheduleItem{
			Item:        combined,
			Explanation: schedule.Explain(combined),
			Sources:     schedule.DedupSources(sources...),
			Events:      schedule.SortEvents(events),
		})
	}

	return out
}

// eliminateSimilarWithUnknownChurch drops items without a real church
// whose explanation already occurs on a real-church item (they are
// presumed to describe the same real event), then merges remaining
// same-(church, explanation) duplicates into one item carrying the union
// of sources.
func eliminateSimilarWithUnknownChurch(items []schedule.SourcedScheduleItem) []schedule.SourcedScheduleItem {
	realExplanations := map[string]bool{}
	for _, item := range items {
		if item.Item.HasRealChurch() {
			realExplanations[item.Explanation] = true
		}
	}

	type groupKey struct {
		church      schedule.ChurchRef
		explanation string
	}
	var keyOrder []groupKey
	groups := map[groupKey][]schedule.SourcedScheduleItem{}

	for _, item := range items {
		if !item.Item.HasRealChurch() && realExplanations[item.Explanation] {
			// Already captured under a real church.
			continue
		}
		key := groupKey{church: item.Item.ChurchRef(), explanation: item.Explanation}
		if _, seen := groups[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		groups[key] = append(groups[key], item)
	}

	var out []schedule.SourcedScheduleItem
	for _, key := range keyOrder {
		group := groups[key]
		merged := group[0]
		if len(group) > 1 {
			var sources [][]schedule.Source
			var events []schedule.Event
			for _, item := range group {
				sources = append(sources, item.Sources)
				events = append(events, item.Events...)
			}
			merged.Sources = schedule.DedupSources(sources...)
			merged.Events = schedule.SortEvents(events)
		}
		out = append(out, merged)
	}
	return out
}

// eliminateRedundantExceptions prefers the more specific rule: when a
// regular item carries exceptions and is the only item whose unqualified
// form matches another plain item's explanation, the plain item is
// dropped.
func eliminateRedundantExceptions(items []schedule.SourcedScheduleItem) []schedule.SourcedScheduleItem {
	qualifiedByPlainExplanation := map[string]int{}
	for _, item := range items {
		if schedule.IsOneOff(item.Item.DateRule) {
			continue
		}
		if item.Item.DateRule.Exceptions().IsEmpty() {
			continue
		}
		stripped := item.Item
		stripped.DateRule = stripped.DateRule.WithExceptions(schedule.RuleExceptions{})
		qualifiedByPlainExplanation[schedule.Explain(stripped)]++
	}

	var out []schedule.SourcedScheduleItem
	for _, item := range items {
		if !schedule.IsOneOff(item.Item.DateRule) && item.Item.DateRule.Exceptions().IsEmpty() {
			if qualifiedByPlainExplanation[item.Explanation] == 1 {
				// The exception-bearing sibling uniquely explains this one.
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// groupByChurch sorts the surviving items, partitions them per church id,
// caps each list and adds empty entries for known churches without items.
// Output order: real church ids ascending, then the explicitly-other
// sentinel, then the unattributed entry.
func groupByChurch(items []schedule.SourcedScheduleItem, knownChurchIDs []int, maxPerChurch int) []schedule.SourcedSchedulesOfChurch {
	items = schedule.SortSourced(items)

	byChurch := map[schedule.ChurchRef][]schedule.SourcedScheduleItem{}
	for _, item := range items {
		ref := item.Item.ChurchRef()
		byChurch[ref] = append(byChurch[ref], item)
	}

	refSet := map[schedule.ChurchRef]bool{}
	var realIDs []int
	for _, id := range knownChurchIDs {
		ref := schedule.ChurchRef{ID: id, Known: true}
		if ref.IsReal() && !refSet[ref] {
			refSet[ref] = true
			realIDs = append(realIDs, id)
		}
	}
	for ref := range byChurch {
		if ref.IsReal() && !refSet[ref] {
			refSet[ref] = true
			realIDs = append(realIDs, ref.ID)
		}
	}
	sort.Ints(realIDs)

	var refs []schedule.ChurchRef
	for _, id := range realIDs {
		refs = append(refs, schedule.ChurchRef{ID: id, Known: true})
	}
	if other := (schedule.ChurchRef{ID: schedule.ChurchIDOther, Known: true}); len(byChurch[other]) > 0 {
		refs = append(refs, other)
	}
	if unattributed := (schedule.ChurchRef{}); len(byChurch[unattributed]) > 0 {
		refs = append(refs, unattributed)
	}

	out := make([]schedule.SourcedSchedulesOfChurch, 0, len(refs))
	for _, ref := range refs {
		churchItems := byChurch[ref]
		if len(churchItems) > maxPerChurch {
			churchItems = churchItems[:maxPerChurch]
		}
		out = append(out, schedule.SourcedSchedulesOfChurch{
			ChurchID:         ref.Ptr(),
			SourcedSchedules: churchItems,
		})
	}
	return out
}

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
