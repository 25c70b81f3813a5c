// Package snapshot reads the YAML files that stand in for collaborator
// supplied immutable upstream snapshots: websites, churches, parsing
// outputs, the external API feed and provenance version ids. The wire
// types are deliberately separate from the engine's value model.
package snapshot

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"reconcal/internal/pipeline"
	"reconcal/internal/resources"
	"reconcal/internal/schedule"
)

// File is the top-level snapshot document.
type File struct {
	Websites []Website `yaml:"websites"`
}

// Website is one website's snapshot.
type Website struct {
	Name        string   `yaml:"name"`
	HolidayZone string   `yaml:"holiday_zone"`
	Churches    []Church `yaml:"churches"`

	ScrapingVersions []int64 `yaml:"scraping_versions"`
	ImageVersions    []int64 `yaml:"image_versions"`
	ScrapingPrunings []Link  `yaml:"scraping_prunings"`
	ImagePrunings    []Link  `yaml:"image_prunings"`
	PruningParsings  []Link  `yaml:"pruning_parsings"`

	Parsings    []Parsing    `yaml:"parsings"`
	ExternalAPI *ExternalAPI `yaml:"external_api"`
}

type Church struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Zipcode string `yaml:"zipcode"`
	Version int64  `yaml:"version"`
}

type Link struct {
	Source int64 `yaml:"source"`
	Target int64 `yaml:"target"`
}

// Parsing is one LLM parsing run's immutable output.
type Parsing struct {
	ID        string         `yaml:"id"`
	Moderated bool           `yaml:"moderated"`
	Churches  map[int]string `yaml:"churches"`
	Schedules *SchedulesList `yaml:"schedules"`
}

// ExternalAPI is the external locations/schedules feed snapshot.
type ExternalAPI struct {
	LocationVersions []int64        `yaml:"location_versions"`
	ScheduleVersions []int64        `yaml:"schedule_versions"`
	MatchingVersion  *int64         `yaml:"matching_version"`
	Schedules        *SchedulesList `yaml:"schedules"`
}

type SchedulesList struct {
	Schedules []ScheduleItem `yaml:"schedules"`

	PossibleByAppointment bool `yaml:"possible_by_appointment"`
	IsRelatedToMass       bool `yaml:"is_related_to_mass"`
	IsRelatedToAdoration  bool `yaml:"is_related_to_adoration"`
	IsRelatedToPermanence bool `yaml:"is_related_to_permanence"`
	WillBeSeasonalEvents  bool `yaml:"will_be_seasonal_events"`
}

// ScheduleItem is the wire form of one rule. Exactly one of weekly and
// one_off must be set.
type ScheduleItem struct {
	ChurchID        *int   `yaml:"church_id"`
	IsCancellation  bool   `yaml:"is_cancellation"`
	StartTime       string `yaml:"start_time"`
	EndTime         string `yaml:"end_time"`
	DurationMinutes *int   `yaml:"duration_minutes"`

	Weekly *WeeklyRule `yaml:"weekly"`
	OneOff string      `yaml:"one_off"`

	OnlyInPeriods []string `yaml:"only_in_periods"`
	NotInPeriods  []string `yaml:"not_in_periods"`
	NotOnDates    []string `yaml:"not_on_dates"`
}

type WeeklyRule struct {
	ByWeekdays []string `yaml:"by_weekdays"`
}

// Load reads and decodes a snapshot file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return &f, nil
}

// Input converts a website snapshot into a pipeline input. The holiday
// zone calendar is resolved by the caller (it may come from the feed
// fetcher or a cache) and injected here.
func (w Website) Input(today schedule.Date) (pipeline.Input, error) {
	in := pipeline.Input{
		ParsingChurches:    map[uuid.UUID]map[int]string{},
		ModeratedByParsing: map[uuid.UUID]bool{},
		Today:              today,
	}

	for _, church := range w.Churches {
		in.Churches = append(in.Churches, pipeline.Church{
			ID:      church.ID,
			Name:    church.Name,
			Zipcode: church.Zipcode,
		})
		in.Refs.ChurchVersions = append(in.Refs.ChurchVersions, church.Version)
	}

	in.Refs.ScrapingVersions = w.ScrapingVersions
	in.Refs.ImageVersions = w.ImageVersions
	in.Refs.ScrapingPrunings = links(w.ScrapingPrunings)
	in.Refs.ImagePrunings = links(w.ImagePrunings)
	in.Refs.PruningParsings = links(w.PruningParsings)

	for _, parsing := range w.Parsings {
		id, err := uuid.Parse(parsing.ID)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("website %s: parsing id %q: %w", w.Name, parsing.ID, err)
		}
		list, err := parsing.Schedules.toModel()
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("website %s: parsing %s: %w", w.Name, parsing.ID, err)
		}
		in.Sources = append(in.Sources, schedule.ParsingSource{ParsingID: id, Schedules: list})
		in.ModeratedByParsing[id] = parsing.Moderated
		if parsing.Churches != nil {
			in.ParsingChurches[id] = parsing.Churches
		}
	}

	if w.ExternalAPI != nil {
		list, err := w.ExternalAPI.Schedules.toModel()
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("website %s: external api: %w", w.Name, err)
		}
		in.Sources = append(in.Sources, schedule.ExternalAPISource{Schedules: list})
		in.Refs.LocationVersions = w.ExternalAPI.LocationVersions
		in.Refs.ScheduleVersions = w.ExternalAPI.ScheduleVersions
		in.Refs.MatchingVersion = w.ExternalAPI.MatchingVersion
	}

	return in, nil
}

func links(in []Link) []resources.LinkRef {
	out := make([]resources.LinkRef, 0, len(in))
	for _, l := range in {
		out = append(out, resources.LinkRef{SourceVersion: l.Source, TargetVersion: l.Target})
	}
	return out
}

func (l *SchedulesList) toModel() (*schedule.SchedulesList, error) {
	if l == nil {
		return nil, nil
	}
	out := &schedule.SchedulesList{
		PossibleByAppointment: l.PossibleByAppointment,
		IsRelatedToMass:       l.IsRelatedToMass,
		IsRelatedToAdoration:  l.IsRelatedToAdoration,
		IsRelatedToPermanence: l.IsRelatedToPermanence,
		WillBeSeasonalEvents:  l.WillBeSeasonalEvents,
	}
	for i, item := range l.Schedules {
		converted, err := item.toModel()
		if err != nil {
			return nil, fmt.Errorf("schedule %d: %w", i, err)
		}
		out.Schedules = append(out.Schedules, converted)
	}
	return out, nil
}

func (item ScheduleItem) toModel() (schedule.ScheduleItem, error) {
	out := schedule.ScheduleItem{
		ChurchID:        item.ChurchID,
		IsCancellation:  item.IsCancellation,
		DurationMinutes: item.DurationMinutes,
	}

	if item.StartTime != "" {
		start, err := schedule.ParseTimeOfDay(item.StartTime)
		if err != nil {
			return schedule.ScheduleItem{}, fmt.Errorf("start_time: %w", err)
		}
		out.StartTime = start
	}
	if item.EndTime != "" {
		end, err := schedule.ParseTimeOfDay(item.EndTime)
		if err != nil {
			return schedule.ScheduleItem{}, fmt.Errorf("end_time: %w", err)
		}
		out.EndTime = &end
	}

	except, err := exceptions(item.OnlyInPeriods, item.NotInPeriods, item.NotOnDates)
	if err != nil {
		return schedule.ScheduleItem{}, err
	}

	switch {
	case item.Weekly != nil && item.OneOff != "":
		return schedule.ScheduleItem{}, fmt.Errorf("both weekly and one_off set")
	case item.Weekly != nil:
		var weekdays []schedule.Weekday
		for _, name := range item.Weekly.ByWeekdays {
			w, err := schedule.ParseWeekday(name)
			if err != nil {
				return schedule.ScheduleItem{}, err
			}
			weekdays = append(weekdays, w)
		}
		out.DateRule = schedule.WeeklyRule{ByWeekdays: weekdays, Except: except}
	case item.OneOff != "":
		d, err := schedule.ParseDate(item.OneOff)
		if err != nil {
			return schedule.ScheduleItem{}, fmt.Errorf("one_off: %w", err)
		}
		out.DateRule = schedule.OneOffRule{Date: d, Except: except}
	default:
		return schedule.ScheduleItem{}, fmt.Errorf("neither weekly nor one_off set")
	}

	return out, nil
}

func exceptions(onlyIn, notIn, notOn []string) (schedule.RuleExceptions, error) {
	var out schedule.RuleExceptions
	var err error
	if out.OnlyInPeriods, err = periods(onlyIn); err != nil {
		return schedule.RuleExceptions{}, fmt.Errorf("only_in_periods: %w", err)
	}
	if out.NotInPeriods, err = periods(notIn); err != nil {
		return schedule.RuleExceptions{}, fmt.Errorf("not_in_periods: %w", err)
	}
	for _, s := range notOn {
		d, err := schedule.ParseDate(s)
		if err != nil {
			return schedule.RuleExceptions{}, fmt.Errorf("not_on_dates: %w", err)
		}
		out.NotOnDates = append(out.NotOnDates, d)
	}
	return out, nil
}

// periods parses period strings: either a named period ("advent") or a
// custom span ("2026-07-01..2026-08-31").
func periods(in []string) ([]schedule.Period, error) {
	var out []schedule.Period
	for _, s := range in {
		p, err := parsePeriod(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePeriod(s string) (schedule.Period, error) {
	if named, err := schedule.ParseNamedPeriod(s); err == nil {
		return named, nil
	}
	for i := 0; i+2 <= len(s); i++ {
		if s[i:i+2] == ".." {
			start, err := schedule.ParseDate(s[:i])
			if err != nil {
				return nil, fmt.Errorf("period %q: %w", s, err)
			}
			end, err := schedule.ParseDate(s[i+2:])
			if err != nil {
				return nil, fmt.Errorf("period %q: %w", s, err)
			}
			return schedule.CustomPeriod{Start: start, End: end}, nil
		}
	}
	return nil, fmt.Errorf("unknown period %q", s)
}
