package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"reconcal/internal/config"
	"reconcal/internal/holiday"
	appLog "reconcal/internal/log"
	"reconcal/internal/pipeline"
	"reconcal/internal/schedule"
	"reconcal/internal/snapshot"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath   string
	snapshotPath string
	outputDir    string
	once         bool
}

func main() {
	appLog.Info("reconcal starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file when provided.
	if flags.snapshotPath != "" {
		conf.SnapshotPath = flags.snapshotPath
	}
	if flags.outputDir != "" {
		conf.OutputDir = flags.outputDir
	}

	appLog.Info("effective config",
		"snapshot", conf.SnapshotPath,
		"output_dir", conf.OutputDir,
		"refresh", conf.RefreshCron,
		"merge_window_days", conf.MergeWindowDays,
		"display_window_days", conf.DisplayWindowDays,
		"holiday_zone", conf.Holiday.Zone,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	r := &runner{
		conf:    conf,
		fetcher: holiday.NewFetcher(conf.Holiday.CacheDir),
		zones:   map[holiday.ZoneName]*holiday.Zone{},
	}

	if flags.once {
		if err := r.run(ctx); err != nil {
			appLog.Error("run failed", err)
			os.Exit(1)
		}
		appLog.Info("reconcal done")
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if err := r.run(ctx); err != nil {
			appLog.Error("scheduled run failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	// Initial run before the first cron tick.
	if err := r.run(ctx); err != nil {
		appLog.Error("initial run failed", err)
	}

	<-ctx.Done()
	time.Sleep(100 * time.Millisecond)
	appLog.Info("reconcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/reconcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.snapshotPath, "snapshot", "", "Path to snapshot file (overrides config if set)")
	flag.StringVar(&cfg.outputDir, "out", "", "Output directory (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one reconciliation cycle and exit")

	flag.Parse()

	return cfg
}

// runner recomputes every website of the snapshot. Zone calendars are
// cached per zone name for the lifetime of the process; the fetcher's
// disk cache covers restarts.
type runner struct {
	conf    *config.Config
	fetcher *holiday.Fetcher
	zones   map[holiday.ZoneName]*holiday.Zone
}

func (r *runner) run(ctx context.Context) error {
	start := time.Now()
	snap, err := snapshot.Load(r.conf.SnapshotPath)
	if err != nil {
		return err
	}
	today := schedule.DateOf(time.Now())

	var failed int
	for _, website := range snap.Websites {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.runWebsite(ctx, website, today); err != nil {
			appLog.Error("website reconciliation failed", err, "website", website.Name)
			failed++
		}
	}

	appLog.Info("run complete",
		"websites", len(snap.Websites),
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	if failed > 0 {
		return fmt.Errorf("%d of %d websites failed", failed, len(snap.Websites))
	}
	return nil
}

func (r *runner) runWebsite(ctx context.Context, website snapshot.Website, today schedule.Date) error {
	in, err := website.Input(today)
	if err != nil {
		return err
	}
	in.Zone = r.zoneFor(ctx, website)
	in.MergeWindowDays = r.conf.MergeWindowDays
	in.DisplayWindowDays = r.conf.DisplayWindowDays
	in.MaxOccurrences = r.conf.MaxOccurrences
	in.MaxSchedulesPerChurch = r.conf.MaxSchedulesPerChurch

	result, err := pipeline.Reconcile(in)
	if err != nil {
		return err
	}

	outPath := filepath.Join(r.conf.OutputDir, website.Name+".json")
	if previousHash(outPath) == result.ResourceHash {
		appLog.Debug("resource hash unchanged, skipping write",
			"website", website.Name, "hash", result.ResourceHash)
		return nil
	}

	if err := writeResult(outPath, website.Name, result); err != nil {
		return err
	}
	appLog.Info("website reconciled",
		"website", website.Name,
		"schedules", len(result.Schedules.SourcedSchedulesOfChurches),
		"index_events", len(result.IndexEvents),
		"hash", result.ResourceHash,
	)
	return nil
}

// zoneFor resolves the holiday zone for a website, preferring its own
// declared zone over the configured default. Resolution failures degrade
// to no zone: school-holiday periods then never match, which only widens
// exceptions, never invents occurrences.
func (r *runner) zoneFor(ctx context.Context, website snapshot.Website) *holiday.Zone {
	zoneName := website.HolidayZone
	if zoneName == "" {
		zoneName = r.conf.Holiday.Zone
	}
	name, err := holiday.ParseZoneName(zoneName)
	if err != nil {
		appLog.Error("unknown holiday zone", err, "website", website.Name, "zone", zoneName)
		return nil
	}

	if zone, ok := r.zones[name]; ok {
		return zone
	}

	url := r.conf.Holiday.URL
	if url == "" {
		url = holiday.DefaultFeedURL
	}
	zone, err := r.fetcher.FetchZone(ctx, url, name)
	if err != nil {
		appLog.Error("holiday feed unavailable", err, "zone", string(name))
		return nil
	}
	r.zones[name] = zone
	return zone
}

// previousHash reads the resource hash out of an earlier output file, if
// any. Any read or decode failure just means "recompute".
func previousHash(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			appLog.Debug("previous output unreadable", "path", path, "error", err.Error())
		}
		return ""
	}
	var doc struct {
		ResourceHash string `json:"resource_hash"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ""
	}
	return doc.ResourceHash
}
