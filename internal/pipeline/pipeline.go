// Package pipeline orchestrates one website's reconciliation: sources in,
// merged schedules, index events and resource hash out. The computation is
// pure and single-threaded per website; callers may run websites in
// parallel with no coordination.
package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"reconcal/internal/holiday"
	"reconcal/internal/index"
	"reconcal/internal/materialize"
	"reconcal/internal/merge"
	"reconcal/internal/resources"
	"reconcal/internal/schedule"
)

const (
	// DefaultMergeWindowDays bounds the trial expansion used for merge
	// decisions.
	DefaultMergeWindowDays = 365
	// DefaultDisplayWindowDays bounds the index event expansion.
	DefaultDisplayWindowDays = 10
)

// Church is one real church of a website, under the integer id shared with
// the upstream parsers.
type Church struct {
	ID      int
	Name    string
	Zipcode string
}

// Input is one website's immutable snapshot.
type Input struct {
	Churches []Church
	Sources  []schedule.Source

	// ParsingChurches holds, per parsing, the church id assignment the
	// parser worked with. It must agree with Churches; a mismatch is a
	// data-integrity bug upstream and fails the run.
	ParsingChurches map[uuid.UUID]map[int]string

	ModeratedByParsing map[uuid.UUID]bool

	Zone *holiday.Zone
	Refs resources.Refs

	// Today anchors the expansion windows.
	Today schedule.Date

	MergeWindowDays       int
	DisplayWindowDays     int
	MaxOccurrences        int
	MaxSchedulesPerChurch int
}

// Result is the complete output of one reconciliation run; a new run
// always yields a new, complete set replacing the previous one.
type Result struct {
	Schedules          schedule.SourcedSchedulesList
	IndexEvents        []index.IndexEvent
	ResourceHash       string
	ChurchIdentityByID map[int]string
	Timezone           string
}

// Reconcile runs the merge, index and hash stages over one website
// snapshot. Empty input is not an error: it yields empty schedules per
// known church and no index events.
func Reconcile(in Input) (Result, error) {
	identity := map[int]string{}
	churchIDs := make([]int, 0, len(in.Churches))
	for _, church := range in.Churches {
		identity[church.ID] = church.Name
		churchIDs = append(churchIDs, church.ID)
	}

	if err := assertChurchMapsAgree(identity, in.ParsingChurches); err != nil {
		return Result{}, err
	}

	mergeWindow := materialize.Window{
		Start:          in.Today,
		End:            in.Today.AddDays(orDefault(in.MergeWindowDays, DefaultMergeWindowDays)),
		MaxOccurrences: in.MaxOccurrences,
	}
	schedules, err := merge.BuildSourcedSchedules(in.Sources, churchIDs, merge.Options{
		Window:                mergeWindow,
		Zone:                  in.Zone,
		MaxSchedulesPerChurch: in.MaxSchedulesPerChurch,
	})
	if err != nil {
		return Result{}, err
	}

	displayWindow := materialize.Window{
		Start:          in.Today,
		End:            in.Today.AddDays(orDefault(in.DisplayWindowDays, DefaultDisplayWindowDays)),
		MaxOccurrences: in.MaxOccurrences,
	}
	events, err := index.BuildIndexEvents(schedules, index.Options{
		Window:          displayWindow,
		Zone:            in.Zone,
		SourceModerated: index.ModerationByParsing(in.ModeratedByParsing),
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Schedules:          schedules,
		IndexEvents:        events,
		ResourceHash:       resources.Hash(in.Refs, schedules, identity, events),
		ChurchIdentityByID: identity,
		Timezone:           TimezoneOfChurches(in.Churches),
	}, nil
}

// assertChurchMapsAgree checks the shared church-id assignment against
// what each parsing declared.
func assertChurchMapsAgree(identity map[int]string, parsingChurches map[uuid.UUID]map[int]string) error {
	for parsingID, declared := range parsingChurches {
		if len(declared) != len(identity) {
			return fmt.Errorf("church id maps disagree: parsing %s declares %d churches, scheduling has %d",
				parsingID, len(declared), len(identity))
		}
		for id, name := range declared {
			if identity[id] != name {
				return fmt.Errorf("church id maps disagree: parsing %s declares church %d as %q, scheduling has %q",
					parsingID, id, name, identity[id])
			}
		}
	}
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
