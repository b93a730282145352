// Package config provides configuration loading for the proxy pipeline.
//
// Configuration is resolved in three layers: struct tag defaults, an optional
// YAML file, and PV_* environment variables (highest precedence). Every
// threshold that shapes estimator output is configuration here, never a
// hard-coded constant inside an estimator.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Rotation RotationConfig `yaml:"rotation" envconfig:"ROTATION"`
	Injury   InjuryConfig   `yaml:"injury" envconfig:"INJURY"`
	Workers  int            `yaml:"workers" envconfig:"WORKERS" default:"4" validate:"min=1"`
}

// PathsConfig contains file system paths used by the pipeline.
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data" validate:"required"`
	ResultsDir  string `yaml:"results_dir" envconfig:"RESULTS_DIR" default:"results" validate:"required"`
	MetadataDir string `yaml:"metadata_dir" envconfig:"METADATA_DIR" default:"results/run_metadata" validate:"required"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

// RotationConfig contains minimum-sample filters for the rotation proxy.
// A player-team-season group failing any of these is excluded, not an error.
type RotationConfig struct {
	MinMatches int `yaml:"min_matches" envconfig:"MIN_MATCHES" default:"3" validate:"min=1"`
	MinHard    int `yaml:"min_hard" envconfig:"MIN_HARD" default:"1" validate:"min=1"`
	MinEasy    int `yaml:"min_easy" envconfig:"MIN_EASY" default:"1" validate:"min=1"`
}

// InjuryConfig contains identification thresholds for the injury proxy.
//
// ClusterThreshold is the minimum number of distinct opponents required
// before cluster-robust standard errors are used; below it the estimator
// falls back to HC1, because clustered inference is unreliable with too few
// clusters.
type InjuryConfig struct {
	MinUnavailable   int `yaml:"min_unavailable" envconfig:"MIN_UNAVAILABLE" default:"2" validate:"min=1"`
	MinAvailable     int `yaml:"min_available" envconfig:"MIN_AVAILABLE" default:"2" validate:"min=1"`
	ClusterThreshold int `yaml:"cluster_threshold" envconfig:"CLUSTER_THRESHOLD" default:"10" validate:"min=2"`
}

// Load loads configuration from defaults, an optional YAML file and PV_*
// environment variables, then validates the result.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PV", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configFile == "" {
		configFile = defaultConfigFile()
	}
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config from file %s: %w", configFile, err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// MatchesPath returns the default location of the match calendar feed.
func (c *Config) MatchesPath() string {
	return filepath.Join(c.Paths.DataDir, "match_calendar.csv")
}

// SpellsPath returns the default location of the unavailability feed.
func (c *Config) SpellsPath() string {
	return filepath.Join(c.Paths.DataDir, "unavailability_spells.csv")
}

// MinutesPath returns the default location of the appearance feed.
func (c *Config) MinutesPath() string {
	return filepath.Join(c.Paths.DataDir, "appearances.csv")
}

// StandingsPath returns the default location of the standings/revenue feed.
func (c *Config) StandingsPath() string {
	return filepath.Join(c.Paths.DataDir, "season_standings.csv")
}

// RotationTablePath returns the default output path for the rotation proxy table.
func (c *Config) RotationTablePath() string {
	return filepath.Join(c.Paths.ResultsDir, "rotation_proxy.csv")
}

// InjuryTablePath returns the default output path for the injury proxy table.
func (c *Config) InjuryTablePath() string {
	return filepath.Join(c.Paths.ResultsDir, "injury_proxy.csv")
}

// CombinedTablePath returns the default output path for the combined value table.
func (c *Config) CombinedTablePath() string {
	return filepath.Join(c.Paths.ResultsDir, "player_value_table.csv")
}

func defaultConfigFile() string {
	if p := os.Getenv("PV_CONFIG_FILE"); p != "" {
		return p
	}
	return "pvcli.yaml"
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge overlays file values on top of the env-derived config. A field set in
// the file wins over the envconfig defaults; fields the file leaves unset fall
// back to the env-derived values. Path overrides from the environment that
// differ from their defaults are kept even when the file also sets them.
func merge(file, env Config) Config {
	out := file

	if env.Paths.DataDir != "" && env.Paths.DataDir != "data" {
		out.Paths.DataDir = env.Paths.DataDir
	}
	if out.Paths.DataDir == "" {
		out.Paths.DataDir = env.Paths.DataDir
	}
	if env.Paths.ResultsDir != "" && env.Paths.ResultsDir != "results" {
		out.Paths.ResultsDir = env.Paths.ResultsDir
	}
	if out.Paths.ResultsDir == "" {
		out.Paths.ResultsDir = env.Paths.ResultsDir
	}
	if env.Paths.MetadataDir != "" && env.Paths.MetadataDir != "results/run_metadata" {
		out.Paths.MetadataDir = env.Paths.MetadataDir
	}
	if out.Paths.MetadataDir == "" {
		out.Paths.MetadataDir = env.Paths.MetadataDir
	}

	if out.Logging.Level == "" {
		out.Logging.Level = env.Logging.Level
	}
	if out.Logging.Format == "" {
		out.Logging.Format = env.Logging.Format
	}

	if out.Rotation.MinMatches == 0 {
		out.Rotation.MinMatches = env.Rotation.MinMatches
	}
	if out.Rotation.MinHard == 0 {
		out.Rotation.MinHard = env.Rotation.MinHard
	}
	if out.Rotation.MinEasy == 0 {
		out.Rotation.MinEasy = env.Rotation.MinEasy
	}

	if out.Injury.MinUnavailable == 0 {
		out.Injury.MinUnavailable = env.Injury.MinUnavailable
	}
	if out.Injury.MinAvailable == 0 {
		out.Injury.MinAvailable = env.Injury.MinAvailable
	}
	if out.Injury.ClusterThreshold == 0 {
		out.Injury.ClusterThreshold = env.Injury.ClusterThreshold
	}

	if out.Workers == 0 {
		out.Workers = env.Workers
	}
	return out
}
