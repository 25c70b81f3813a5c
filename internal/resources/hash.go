// Package resources fingerprints everything a reconciliation run depends
// on, so callers can skip re-indexing when nothing changed. Upstream
// entities are modeled as opaque (stable id, version id) pairs; the hash
// never touches storage.
package resources

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"reconcal/internal/index"
	"reconcal/internal/schedule"
)

// LinkRef is one versioned link between two upstream entities, e.g. which
// pruning version was parsed by which parsing version.
type LinkRef struct {
	SourceVersion int64
	TargetVersion int64
}

// Refs lists the version ids of every upstream entity and linking relation
// a computation consumed.
type Refs struct {
	ChurchVersions   []int64
	ScrapingVersions []int64
	ImageVersions    []int64

	ScrapingPrunings []LinkRef
	ImagePrunings    []LinkRef
	PruningParsings  []LinkRef

	LocationVersions []int64
	ScheduleVersions []int64
	MatchingVersion  *int64
}

// Hash computes the content fingerprint over the upstream refs, the merged
// schedules, the church identity map and the produced index events. Field
// order is fixed and every collection is sorted, so identical snapshots
// hash identically; any upstream change, visible in the output or not,
// changes the digest. Equality is therefore a conservative idempotence
// check, not an equivalence of visible output.
func Hash(refs Refs,
	schedules schedule.SourcedSchedulesList,
	churchIdentityByID map[int]string,
	events []index.IndexEvent,
) string {
	var b strings.Builder

	writeVersions(&b, "churches", refs.ChurchVersions)
	writeVersions(&b, "scrapings", refs.ScrapingVersions)
	writeVersions(&b, "images", refs.ImageVersions)

	writeLinks(&b, "scraping_prunings", refs.ScrapingPrunings)
	writeLinks(&b, "image_prunings", refs.ImagePrunings)
	writeLinks(&b, "pruning_parsings", refs.PruningParsings)

	writeVersions(&b, "locations", refs.LocationVersions)
	writeVersions(&b, "schedules", refs.ScheduleVersions)
	if refs.MatchingVersion != nil {
		fmt.Fprintf(&b, "matching:%d\n", *refs.MatchingVersion)
	}

	b.WriteString("merged:\n")
	b.WriteString(schedules.HashKey())

	ids := make([]int, 0, len(churchIdentityByID))
	for id := range churchIdentityByID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "identity:%d=%s\n", id, churchIdentityByID[id])
	}

	tuples := make([]string, 0, len(events))
	for _, ev := range events {
		tuples = append(tuples, ev.HashTuple())
	}
	sort.Strings(tuples)
	b.WriteString("events:\n")
	b.WriteString(strings.Join(tuples, "\n"))

	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

func writeVersions(b *strings.Builder, label string, versions []int64) {
	sorted := make([]int64, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	b.WriteString(label)
	b.WriteByte(':')
	for _, v := range sorted {
		fmt.Fprintf(b, "%d,", v)
	}
	b.WriteByte('\n')
}

func writeLinks(b *strings.Builder, label string, links []LinkRef) {
	sorted := make([]LinkRef, len(links))
	copy(sorted, links)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SourceVersion != sorted[j].SourceVersion {
			return sorted[i].SourceVersion < sorted[j].SourceVersion
		}
		return sorted[i].TargetVersion < sorted[j].TargetVersion
	})

	b.WriteString(label)
	b.WriteByte(':')
	for _, l := range sorted {
		fmt.Fprintf(b, "(%d,%d),", l.SourceVersion, l.TargetVersion)
	}
	b.WriteByte('\n')
}
