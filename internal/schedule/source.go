package schedule

import (
	"sort"

	"github.com/google/uuid"
)

// Source identifies which upstream producer contributed a schedules list.
// The variant set is closed: ParsingSource (one LLM parsing run) and
// ExternalAPISource (the locations/schedules feed adapter). Identity is
// (type, id); the wrapped schedules list does not participate.
type Source interface {
	isSource()

	// Key is the stable identity of the source.
	Key() string

	// SchedulesList returns the wrapped list, which may be nil for a
	// source that produced nothing.
	SchedulesList() *SchedulesList
}

// ParsingSource is the output of one LLM parsing run over scraped text,
// keyed by the immutable parsing id.
type ParsingSource struct {
	ParsingID uuid.UUID
	Schedules *SchedulesList
}

func (s ParsingSource) isSource() {}

func (s ParsingSource) Key() string { return "parsing:" + s.ParsingID.String() }

func (s ParsingSource) SchedulesList() *SchedulesList { return s.Schedules }

// ExternalAPISource is the adapter output over the external
// locations/schedules feed. There is at most one per website.
type ExternalAPISource struct {
	Schedules *SchedulesList
}

func (s ExternalAPISource) isSource() {}

func (s ExternalAPISource) Key() string { return "external_api" }

func (s ExternalAPISource) SchedulesList() *SchedulesList { return s.Schedules }

// DedupSources unions source lists, keeping the first occurrence of each
// identity in input order so the result is deterministic.
func DedupSources(lists ...[]Source) []Source {
	seen := map[string]bool{}
	var out []Source
	for _, list := range lists {
		for _, s := range list {
			if !seen[s.Key()] {
				seen[s.Key()] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// SourceKeys returns the sorted identity keys of a source list, used for
// order-insensitive comparison.
func SourceKeys(sources []Source) []string {
	keys := make([]string, 0, len(sources))
	for _, s := range DedupSources(sources) {
		keys = append(keys, s.Key())
	}
	sort.Strings(keys)
	return keys
}
