// Command value-report rebuilds the combined player value table from proxy
// tables an earlier pipeline run already wrote, without re-running the
// estimations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"pvcli/internal/combine"
	"pvcli/internal/config"
	"pvcli/internal/exporter"
	"pvcli/internal/feeds"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (defaults to pvcli.yaml if present)")
	rotationPath := flag.String("rotation", "", "rotation proxy CSV (defaults to <results_dir>/rotation_proxy.csv)")
	injuryPath := flag.String("injury", "", "injury proxy CSV (defaults to <results_dir>/injury_proxy.csv)")
	outPath := flag.String("out", "", "combined table output path (defaults to <results_dir>/player_value_table.csv)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.Default()

	if *rotationPath == "" {
		*rotationPath = cfg.RotationTablePath()
	}
	if *injuryPath == "" {
		*injuryPath = cfg.InjuryTablePath()
	}
	if *outPath == "" {
		*outPath = cfg.CombinedTablePath()
	}

	rot, err := feeds.LoadRotationTable(*rotationPath, logger)
	if err != nil {
		logger.Error("Failed to load rotation proxy table", "error", err, "path", *rotationPath)
		os.Exit(1)
	}
	inj, err := feeds.LoadInjuryTable(*injuryPath, logger)
	if err != nil {
		logger.Error("Failed to load injury proxy table", "error", err, "path", *injuryPath)
		os.Exit(1)
	}

	rows, err := combine.NewCombiner(logger).Combine(context.Background(), rot, inj)
	if err != nil {
		logger.Error("Failed to combine proxies", "error", err)
		os.Exit(1)
	}

	if err := exporter.NewCSVWriter(logger).WriteCombined(*outPath, rows); err != nil {
		logger.Error("Failed to write combined value table", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Combined value table: %d rows -> %s\n", len(rows), *outPath)
}
