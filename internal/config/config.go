// Package config loads application configuration from environment variables
// (prefix NYSR) with an optional YAML file underneath; environment values
// take precedence. Every analysis parameter (race allow-list, reference
// levels, rate representation) is explicit here so a run is reproducible
// from its config alone.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" envconfig:"SOURCE"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
}

// SourceConfig describes where the incident CSV comes from.
type SourceConfig struct {
	URL       string        `yaml:"url" envconfig:"URL" default:"https://data.cityofnewyork.us/api/views/833y-fsy8/rows.csv?accessType=DOWNLOAD"`
	CacheFile string        `yaml:"cache_file" envconfig:"CACHE_FILE" default:"data/shooting_incidents.csv"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"2m"`
	Offline   bool          `yaml:"offline" envconfig:"OFFLINE" default:"false"`
}

// PathsConfig contains file system paths configuration.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"reports"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text"`
}

// AnalysisConfig parameterizes the aggregation and regression stages.
type AnalysisConfig struct {
	DateColumn   string   `yaml:"date_column" envconfig:"DATE_COLUMN" default:"OCCUR_DATE"`
	DateLayout   string   `yaml:"date_layout" envconfig:"DATE_LAYOUT" default:"01/02/2006"`
	RegionColumn string   `yaml:"region_column" envconfig:"REGION_COLUMN" default:"BORO"`
	RaceColumn   string   `yaml:"race_column" envconfig:"RACE_COLUMN" default:"VIC_RACE"`
	FatalColumn  string   `yaml:"fatal_column" envconfig:"FATAL_COLUMN" default:"STATISTICAL_MURDER_FLAG"`
	DropColumns  []string `yaml:"drop_columns" envconfig:"DROP_COLUMNS" default:"INCIDENT_KEY,OCCUR_TIME,PRECINCT,JURISDICTION_CODE,LOCATION_DESC,PERP_AGE_GROUP,PERP_SEX,PERP_RACE,X_COORD_CD,Y_COORD_CD,Latitude,Longitude,Lon_Lat"`

	// IncludeRaces is the regression allow-list. Nothing is hard-coded
	// downstream and no automatic small-sample exclusion rule exists.
	IncludeRaces []string `yaml:"include_races" envconfig:"INCLUDE_RACES" default:"BLACK,BLACK HISPANIC,WHITE,WHITE HISPANIC"`

	// ReferenceRace / ReferenceRegion pin regression reference levels; empty
	// means first retained level in sort order.
	ReferenceRace   string `yaml:"reference_race" envconfig:"REFERENCE_RACE" default:""`
	ReferenceRegion string `yaml:"reference_region" envconfig:"REFERENCE_REGION" default:""`

	// Populations (residents per region) drive the per-1,000 rate table.
	Populations map[string]int `yaml:"populations" envconfig:"POPULATIONS" default:"BRONX:1438159,BROOKLYN:2621793,MANHATTAN:1658379,QUEENS:2278906,STATEN ISLAND:491133"`
}

// EnvPrefix is the environment variable prefix for all settings.
const EnvPrefix = "NYSR"

// Load loads configuration from environment variables, then lets an optional
// YAML file fill fields the environment left at their defaults. An empty
// path skips the file entirely.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyFile overlays YAML values onto the config. A file value only fills a
// field the environment left alone: fields whose environment variable is set
// keep the environment value, so precedence is env over file over struct
// defaults.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.Source.URL != "" && !envSet("SOURCE_URL") {
		c.Source.URL = file.Source.URL
	}
	if file.Source.CacheFile != "" && !envSet("SOURCE_CACHE_FILE") {
		c.Source.CacheFile = file.Source.CacheFile
	}
	if file.Source.Timeout != 0 && !envSet("SOURCE_TIMEOUT") {
		c.Source.Timeout = file.Source.Timeout
	}
	if file.Source.Offline && !envSet("SOURCE_OFFLINE") {
		c.Source.Offline = true
	}
	if file.Paths.DataDir != "" && !envSet("PATHS_DATA_DIR") {
		c.Paths.DataDir = file.Paths.DataDir
	}
	if file.Paths.OutputDir != "" && !envSet("PATHS_OUTPUT_DIR") {
		c.Paths.OutputDir = file.Paths.OutputDir
	}
	if file.Logging.Level != "" && !envSet("LOGGING_LEVEL") {
		c.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" && !envSet("LOGGING_FORMAT") {
		c.Logging.Format = file.Logging.Format
	}
	if file.Analysis.DateColumn != "" && !envSet("ANALYSIS_DATE_COLUMN") {
		c.Analysis.DateColumn = file.Analysis.DateColumn
	}
	if file.Analysis.DateLayout != "" && !envSet("ANALYSIS_DATE_LAYOUT") {
		c.Analysis.DateLayout = file.Analysis.DateLayout
	}
	if file.Analysis.RegionColumn != "" && !envSet("ANALYSIS_REGION_COLUMN") {
		c.Analysis.RegionColumn = file.Analysis.RegionColumn
	}
	if file.Analysis.RaceColumn != "" && !envSet("ANALYSIS_RACE_COLUMN") {
		c.Analysis.RaceColumn = file.Analysis.RaceColumn
	}
	if file.Analysis.FatalColumn != "" && !envSet("ANALYSIS_FATAL_COLUMN") {
		c.Analysis.FatalColumn = file.Analysis.FatalColumn
	}
	if len(file.Analysis.DropColumns) > 0 && !envSet("ANALYSIS_DROP_COLUMNS") {
		c.Analysis.DropColumns = file.Analysis.DropColumns
	}
	if len(file.Analysis.IncludeRaces) > 0 && !envSet("ANALYSIS_INCLUDE_RACES") {
		c.Analysis.IncludeRaces = file.Analysis.IncludeRaces
	}
	if file.Analysis.ReferenceRace != "" && !envSet("ANALYSIS_REFERENCE_RACE") {
		c.Analysis.ReferenceRace = file.Analysis.ReferenceRace
	}
	if file.Analysis.ReferenceRegion != "" && !envSet("ANALYSIS_REFERENCE_REGION") {
		c.Analysis.ReferenceRegion = file.Analysis.ReferenceRegion
	}
	if len(file.Analysis.Populations) > 0 && !envSet("ANALYSIS_POPULATIONS") {
		c.Analysis.Populations = file.Analysis.Populations
	}
	return nil
}

// envSet reports whether the prefixed environment variable is present,
// including when set to an empty string.
func envSet(suffix string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + suffix)
	return ok
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.Source.URL == "" && !c.Source.Offline {
		return fmt.Errorf("source: url is empty and offline mode is off")
	}
	if c.Source.CacheFile == "" {
		return fmt.Errorf("source: cache_file is empty")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source: timeout must be positive, got %s", c.Source.Timeout)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging: unknown format %q", c.Logging.Format)
	}

	a := c.Analysis
	for name, value := range map[string]string{
		"date_column":   a.DateColumn,
		"date_layout":   a.DateLayout,
		"region_column": a.RegionColumn,
		"race_column":   a.RaceColumn,
		"fatal_column":  a.FatalColumn,
	} {
		if value == "" {
			return fmt.Errorf("analysis: %s is empty", name)
		}
	}
	if len(a.IncludeRaces) == 0 {
		return fmt.Errorf("analysis: include_races is empty")
	}
	for region, population := range a.Populations {
		if population <= 0 {
			return fmt.Errorf("analysis: population for %q must be positive, got %d", region, population)
		}
	}
	return nil
}
