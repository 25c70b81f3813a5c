package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"reconcal/internal/index"
	"reconcal/internal/pipeline"
	"reconcal/internal/schedule"
)

// outputDoc is the JSON document written per website. It is a flattened,
// stable representation of the reconciliation result; readers key off
// resource_hash to detect changes.
type outputDoc struct {
	Website      string    `json:"website"`
	ComputedAt   time.Time `json:"computed_at"`
	Timezone     string    `json:"timezone"`
	ResourceHash string    `json:"resource_hash"`

	Churches map[int]string `json:"churches"`

	Schedules   []churchSchedulesDoc `json:"schedules"`
	Facts       factsDoc             `json:"facts"`
	IndexEvents []indexEventDoc      `json:"index_events"`
}

type churchSchedulesDoc struct {
	ChurchID          *int          `json:"church_id"`
	IsExplicitlyOther bool          `json:"is_explicitly_other,omitempty"`
	Schedules         []scheduleDoc `json:"schedules"`
}

type scheduleDoc struct {
	Explanation    string   `json:"explanation"`
	IsCancellation bool     `json:"is_cancellation,omitempty"`
	Sources        []string `json:"sources"`
}

type factsDoc struct {
	PossibleByAppointment []string `json:"possible_by_appointment,omitempty"`
	IsRelatedToMass       []string `json:"is_related_to_mass,omitempty"`
	IsRelatedToAdoration  []string `json:"is_related_to_adoration,omitempty"`
	IsRelatedToPermanence []string `json:"is_related_to_permanence,omitempty"`
	WillBeSeasonalEvents  []string `json:"will_be_seasonal_events,omitempty"`
}

type indexEventDoc struct {
	ChurchID          *int   `json:"church_id"`
	Day               string `json:"day"`
	StartTime         string `json:"start_time"`
	IndexedEndTime    string `json:"indexed_end_time"`
	DisplayedEndTime  string `json:"displayed_end_time,omitempty"`
	IsExplicitlyOther bool   `json:"is_explicitly_other,omitempty"`
	HasBeenModerated  bool   `json:"has_been_moderated"`
	ChurchColor       string `json:"church_color"`
}

func writeResult(path, website string, result pipeline.Result) error {
	doc := outputDoc{
		Website:      website,
		ComputedAt:   time.Now().UTC(),
		Timezone:     result.Timezone,
		ResourceHash: result.ResourceHash,
		Churches:     result.ChurchIdentityByID,
		Facts: factsDoc{
			PossibleByAppointment: schedule.SourceKeys(result.Schedules.PossibleByAppointmentSources),
			IsRelatedToMass:       schedule.SourceKeys(result.Schedules.IsRelatedToMassSources),
			IsRelatedToAdoration:  schedule.SourceKeys(result.Schedules.IsRelatedToAdorationSources),
			IsRelatedToPermanence: schedule.SourceKeys(result.Schedules.IsRelatedToPermanenceSources),
			WillBeSeasonalEvents:  schedule.SourceKeys(result.Schedules.WillBeSeasonalEventsSources),
		},
	}

	for _, church := range result.Schedules.SourcedSchedulesOfChurches {
		entry := churchSchedulesDoc{
			ChurchID:          church.ChurchID,
			IsExplicitlyOther: church.IsChurchExplicitlyOther(),
			Schedules:         []scheduleDoc{},
		}
		for _, item := range church.SourcedSchedules {
			entry.Schedules = append(entry.Schedules, scheduleDoc{
				Explanation:    item.Explanation,
				IsCancellation: item.Item.IsCancellation,
				Sources:        schedule.SourceKeys(item.Sources),
			})
		}
		doc.Schedules = append(doc.Schedules, entry)
	}

	for _, ev := range result.IndexEvents {
		doc.IndexEvents = append(doc.IndexEvents, indexEventDoc{
			ChurchID:          ev.ChurchID,
			Day:               ev.Day.String(),
			StartTime:         ev.StartTime.String(),
			IndexedEndTime:    ev.IndexedEndTime.String(),
			DisplayedEndTime:  displayedEnd(ev),
			IsExplicitlyOther: ev.IsExplicitlyOther,
			HasBeenModerated:  ev.HasBeenModerated,
			ChurchColor:       ev.ChurchColor,
		})
	}

	return writeJSON(path, doc)
}

func displayedEnd(ev index.IndexEvent) string {
	if ev.DisplayedEndTime == nil {
		return ""
	}
	return ev.DisplayedEndTime.String()
}

// writeJSON writes atomically via a temp file + rename, like the config
// writer.
func writeJSON(path string, doc outputDoc) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".reconcal-out-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
