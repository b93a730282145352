// Command pipeline runs the full player-value pipeline: it loads the match
// calendar, unavailability, appearance and standings feeds, builds the
// appearance panel, estimates the rotation and injury proxies, converts
// effects to money and writes the three output tables plus run metadata.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"pvcli/internal/combine"
	"pvcli/internal/config"
	"pvcli/internal/exporter"
	"pvcli/internal/feeds"
	"pvcli/internal/injury"
	"pvcli/internal/money"
	"pvcli/internal/panel"
	"pvcli/internal/rotation"
	"pvcli/internal/runmeta"
	"pvcli/internal/stakes"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (defaults to pvcli.yaml if present)")
	matchesPath := flag.String("matches", "", "match calendar CSV (defaults to <data_dir>/match_calendar.csv)")
	spellsPath := flag.String("spells", "", "unavailability spells CSV (defaults to <data_dir>/unavailability_spells.csv)")
	minutesPath := flag.String("minutes", "", "appearance CSV (defaults to <data_dir>/appearances.csv)")
	standingsPath := flag.String("standings", "", "standings/revenue feed, CSV or XLSX (defaults to <data_dir>/season_standings.csv)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if *matchesPath == "" {
		*matchesPath = cfg.MatchesPath()
	}
	if *spellsPath == "" {
		*spellsPath = cfg.SpellsPath()
	}
	if *minutesPath == "" {
		*minutesPath = cfg.MinutesPath()
	}
	if *standingsPath == "" {
		*standingsPath = cfg.StandingsPath()
	}

	ctx := context.Background()
	run := runmeta.NewRun()
	run.AddInput("matches", *matchesPath)
	run.AddInput("spells", *spellsPath)
	run.AddInput("minutes", *minutesPath)
	run.AddInput("standings", *standingsPath)
	run.AddParam("rotation_min_matches", cfg.Rotation.MinMatches)
	run.AddParam("rotation_min_hard", cfg.Rotation.MinHard)
	run.AddParam("rotation_min_easy", cfg.Rotation.MinEasy)
	run.AddParam("injury_min_unavailable", cfg.Injury.MinUnavailable)
	run.AddParam("injury_min_available", cfg.Injury.MinAvailable)
	run.AddParam("injury_cluster_threshold", cfg.Injury.ClusterThreshold)
	run.AddParam("workers", cfg.Workers)

	logger.Info("Starting player value pipeline", "run_id", run.ID)

	// Feeds.
	start := time.Now()
	matches, hasCounts, err := feeds.LoadMatches(*matchesPath, logger)
	if err != nil {
		logger.Error("Failed to load match calendar", "error", err)
		os.Exit(1)
	}
	spells, err := feeds.LoadSpells(*spellsPath, logger)
	if err != nil {
		logger.Error("Failed to load unavailability feed", "error", err)
		os.Exit(1)
	}
	minutes, err := feeds.LoadMinutes(*minutesPath, logger)
	if err != nil {
		logger.Error("Failed to load appearance feed", "error", err)
		os.Exit(1)
	}
	standings, err := feeds.LoadStandings(*standingsPath, logger)
	if err != nil {
		logger.Error("Failed to load standings feed", "error", err)
		os.Exit(1)
	}
	run.RecordStage("load_feeds", len(matches)+len(spells)+len(minutes)+len(standings), 0, time.Since(start))

	// Panel.
	start = time.Now()
	builder := panel.NewBuilder(logger)
	if !hasCounts {
		matches = builder.AddSquadInjuryCounts(matches, spells)
	}
	rows, err := builder.BuildAppearancePanel(ctx, matches, spells, minutes)
	if err != nil {
		logger.Error("Failed to build appearance panel", "error", err)
		os.Exit(1)
	}
	run.RecordStage("build_panel", len(rows), 0, time.Since(start))

	// Rotation proxy.
	start = time.Now()
	strata := stakes.ClassifyMatches(matches)
	rotEst := rotation.NewEstimator(rotation.Config{
		MinMatches: cfg.Rotation.MinMatches,
		MinHard:    cfg.Rotation.MinHard,
		MinEasy:    cfg.Rotation.MinEasy,
	}, logger)
	rotRecords, rotSummary := rotEst.Estimate(ctx, rows, strata)
	run.RecordStage("rotation_proxy", rotSummary.Kept, rotSummary.SkippedMinSample, time.Since(start))

	// Injury proxy.
	start = time.Now()
	injEst := injury.NewEstimator(injury.Config{
		MinUnavailable:   cfg.Injury.MinUnavailable,
		MinAvailable:     cfg.Injury.MinAvailable,
		ClusterThreshold: cfg.Injury.ClusterThreshold,
		Workers:          cfg.Workers,
	}, logger)
	injRecords, injSummary, err := injEst.Estimate(ctx, rows)
	if err != nil {
		logger.Error("Failed to estimate injury proxy", "error", err)
		os.Exit(1)
	}
	run.RecordStage("injury_proxy", injSummary.Kept,
		injSummary.SkippedNotIdentified+injSummary.SkippedFitFailed, time.Since(start))

	// Money conversion.
	start = time.Now()
	converter := money.NewConverter(logger)
	rates, err := converter.FitSeasonRates(ctx, standings)
	if err != nil {
		logger.Error("Failed to fit season money rates", "error", err)
		os.Exit(1)
	}
	injRecords = converter.Apply(ctx, injRecords, rates)
	run.RecordStage("money_conversion", len(rates), 0, time.Since(start))

	// Combined table.
	start = time.Now()
	combined, err := combine.NewCombiner(logger).Combine(ctx, rotRecords, injRecords)
	if err != nil {
		logger.Error("Failed to combine proxies", "error", err)
		os.Exit(1)
	}
	run.RecordStage("combine", len(combined), 0, time.Since(start))

	// Export.
	start = time.Now()
	writer := exporter.NewCSVWriter(logger)
	if err := writer.WriteRotation(cfg.RotationTablePath(), rotRecords); err != nil {
		logger.Error("Failed to write rotation proxy table", "error", err)
		os.Exit(1)
	}
	if err := writer.WriteInjury(cfg.InjuryTablePath(), injRecords); err != nil {
		logger.Error("Failed to write injury proxy table", "error", err)
		os.Exit(1)
	}
	if err := writer.WriteCombined(cfg.CombinedTablePath(), combined); err != nil {
		logger.Error("Failed to write combined value table", "error", err)
		os.Exit(1)
	}
	run.RecordStage("export", len(rotRecords)+len(injRecords)+len(combined), 0, time.Since(start))

	metaPath, err := run.Write(cfg.Paths.MetadataDir, logger)
	if err != nil {
		logger.Error("Failed to write run metadata", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Pipeline complete (run %s)\n", run.ID)
	fmt.Printf("  rotation proxy : %d players kept, %d skipped -> %s\n",
		rotSummary.Kept, rotSummary.SkippedMinSample, cfg.RotationTablePath())
	fmt.Printf("  injury proxy   : %d players kept, %d not identified, %d fit failures -> %s\n",
		injSummary.Kept, injSummary.SkippedNotIdentified, injSummary.SkippedFitFailed, cfg.InjuryTablePath())
	fmt.Printf("  combined table : %d rows -> %s\n", len(combined), cfg.CombinedTablePath())
	fmt.Printf("  run metadata   : %s\n", metaPath)
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
