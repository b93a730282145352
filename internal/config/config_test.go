package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, "results", cfg.Paths.ResultsDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Rotation.MinMatches)
	assert.Equal(t, 1, cfg.Rotation.MinHard)
	assert.Equal(t, 1, cfg.Rotation.MinEasy)
	assert.Equal(t, 2, cfg.Injury.MinUnavailable)
	assert.Equal(t, 2, cfg.Injury.MinAvailable)
	assert.Equal(t, 10, cfg.Injury.ClusterThreshold)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pvcli.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths:
  data_dir: /srv/feeds
  results_dir: /srv/out
logging:
  level: debug
  format: json
rotation:
  min_matches: 5
injury:
  cluster_threshold: 12
workers: 8
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/feeds", cfg.Paths.DataDir)
	assert.Equal(t, "/srv/out", cfg.Paths.ResultsDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5, cfg.Rotation.MinMatches)
	assert.Equal(t, 12, cfg.Injury.ClusterThreshold)
	assert.Equal(t, 8, cfg.Workers)

	// Unset file fields keep their defaults.
	assert.Equal(t, 1, cfg.Rotation.MinHard)
	assert.Equal(t, 2, cfg.Injury.MinUnavailable)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pvcli.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("PV_WORKERS", "2")
	t.Setenv("PV_INJURY_CLUSTER_THRESHOLD", "20")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 20, cfg.Injury.ClusterThreshold)
}

func TestOutputPaths(t *testing.T) {
	cfg := &Config{}
	cfg.Paths.ResultsDir = "out"
	cfg.Paths.DataDir = "in"

	assert.Equal(t, filepath.Join("out", "rotation_proxy.csv"), cfg.RotationTablePath())
	assert.Equal(t, filepath.Join("out", "injury_proxy.csv"), cfg.InjuryTablePath())
	assert.Equal(t, filepath.Join("out", "player_value_table.csv"), cfg.CombinedTablePath())
	assert.Equal(t, filepath.Join("in", "match_calendar.csv"), cfg.MatchesPath())
	assert.Equal(t, filepath.Join("in", "season_standings.csv"), cfg.StandingsPath())
}
