package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Contains(t, cfg.Source.URL, "data.cityofnewyork.us")
	assert.Equal(t, 2*time.Minute, cfg.Source.Timeout)
	assert.Equal(t, "OCCUR_DATE", cfg.Analysis.DateColumn)
	assert.Equal(t, "BORO", cfg.Analysis.RegionColumn)
	assert.Equal(t, "VIC_RACE", cfg.Analysis.RaceColumn)
	assert.Contains(t, cfg.Analysis.DropColumns, "PRECINCT")
	assert.Contains(t, cfg.Analysis.IncludeRaces, "BLACK HISPANIC")
	assert.Len(t, cfg.Analysis.Populations, 5)
	assert.Positive(t, cfg.Analysis.Populations["STATEN ISLAND"])
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NYSR_LOGGING_LEVEL", "debug")
	t.Setenv("NYSR_ANALYSIS_REFERENCE_RACE", "WHITE")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "WHITE", cfg.Analysis.ReferenceRace)
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: warn
analysis:
  include_races:
    - BLACK
    - WHITE
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, []string{"BLACK", "WHITE"}, cfg.Analysis.IncludeRaces)
	// Untouched fields keep their defaults.
	assert.Equal(t, "OCCUR_DATE", cfg.Analysis.DateColumn)
}

func TestLoad_FileOverlay_EnvWins(t *testing.T) {
	t.Setenv("NYSR_LOGGING_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: warn
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level, "env var beats the file value")
	assert.Equal(t, "json", cfg.Logging.Format, "file value beats the default")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad logging level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "unknown level",
		},
		{
			name:    "bad logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "unknown format",
		},
		{
			name:    "empty race column",
			mutate:  func(c *Config) { c.Analysis.RaceColumn = "" },
			wantErr: "race_column is empty",
		},
		{
			name:    "empty allow-list",
			mutate:  func(c *Config) { c.Analysis.IncludeRaces = nil },
			wantErr: "include_races is empty",
		},
		{
			name:    "non-positive population",
			mutate:  func(c *Config) { c.Analysis.Populations = map[string]int{"BRONX": 0} },
			wantErr: "must be positive",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Source.Timeout = 0 },
			wantErr: "timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
