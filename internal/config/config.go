package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// HolidayConfig describes the French school-holiday feed used to resolve
// "school_holidays" periods.
type HolidayConfig struct {
	// URL is the ICS feed endpoint; empty means the official data.gouv.fr
	// feed.
	URL string `yaml:"url" json:"url"`
	// CacheDir stores the conditional-request disk cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	// Zone selects the holiday zone applied to every website unless the
	// snapshot overrides it (fr_zone_a, fr_zone_b, fr_zone_c, corsica).
	Zone string `yaml:"zone" json:"zone"`
}

// Config is the top-level application configuration.
type Config struct {
	// SnapshotPath points at the YAML snapshot of upstream inputs.
	SnapshotPath string `yaml:"snapshot" json:"snapshot"`

	// OutputDir receives one JSON result file per website.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// RefreshCron is a cron-style schedule string (e.g. "0 3 * * *") used
	// for periodic recomputation in daemon mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// MergeWindowDays bounds the trial expansion driving merge decisions.
	MergeWindowDays int `yaml:"merge_window_days" json:"merge_window_days"`

	// DisplayWindowDays bounds the index event expansion.
	DisplayWindowDays int `yaml:"display_window_days" json:"display_window_days"`

	// MaxOccurrences caps occurrences per rule expansion.
	MaxOccurrences int `yaml:"max_occurrences" json:"max_occurrences"`

	// MaxSchedulesPerChurch caps merged rules kept per church entry.
	MaxSchedulesPerChurch int `yaml:"max_schedules_per_church" json:"max_schedules_per_church"`

	// Holiday configures the school-holiday feed.
	Holiday HolidayConfig `yaml:"holiday" json:"holiday"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		SnapshotPath:          "/etc/reconcal/snapshot.yaml",
		OutputDir:             "/var/lib/reconcal",
		RefreshCron:           "0 3 * * *",
		MergeWindowDays:       365,
		DisplayWindowDays:     10,
		MaxOccurrences:        1000,
		MaxSchedulesPerChurch: 30,
		Holiday: HolidayConfig{
			CacheDir: "/var/cache/reconcal/holiday",
			Zone:     "fr_zone_c",
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.SnapshotPath == "" {
		c.SnapshotPath = def.SnapshotPath
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.MergeWindowDays <= 0 {
		c.MergeWindowDays = def.MergeWindowDays
	}
	if c.DisplayWindowDays <= 0 {
		c.DisplayWindowDays = def.DisplayWindowDays
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = def.MaxOccurrences
	}
	if c.MaxSchedulesPerChurch <= 0 {
		c.MaxSchedulesPerChurch = def.MaxSchedulesPerChurch
	}
	if c.Holiday.CacheDir == "" {
		c.Holiday.CacheDir = def.Holiday.CacheDir
	}
	if c.Holiday.Zone == "" {
		c.Holiday.Zone = def.Holiday.Zone
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".reconcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
