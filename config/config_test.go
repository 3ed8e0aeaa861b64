package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultIdentifierColumn, cfg.Layout.IdentifierColumn)
	require.Equal(t, DefaultMinNameQueryLen, cfg.Matching.MinNameQueryLen)
	require.True(t, cfg.Matching.ForceIncludeOrigin)
	require.InDelta(t, 0.05, cfg.Aggregate.LowerPercentile, 1e-12)
	require.InDelta(t, 0.95, cfg.Aggregate.UpperPercentile, 1e-12)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PEERXCEL_DATA_DIR", "/srv/peers")
	t.Setenv("PEERXCEL_LOG_LEVEL", "debug")
	t.Setenv("PEERXCEL_LAYOUT_PRIORITY_CATEGORY", "Consumer - Apparel")
	t.Setenv("PEERXCEL_LAYOUT_SHEET_FILTER", "equity,peers")
	t.Setenv("PEERXCEL_MATCHING_MIN_NAME_QUERY_LEN", "5")
	t.Setenv("PEERXCEL_AGGREGATE_MIN_SECTOR_SAMPLE", "3")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/srv/peers", cfg.DataDir)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "Consumer - Apparel", cfg.Layout.PriorityCategory)
	require.Equal(t, []string{"equity", "peers"}, cfg.Layout.SheetFilter)
	require.Equal(t, 5, cfg.Matching.MinNameQueryLen)
	require.Equal(t, 3, cfg.Aggregate.MinSectorSample)
	// untouched values keep their defaults
	require.Equal(t, DefaultPrimaryName, cfg.Layout.PrimaryName)
	require.Equal(t, DefaultSentinels, cfg.Matching.Sentinels)
}

func TestLoadFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peerxcel.yaml")
	doc := `data_dir: /from/file
log_level: warn
layout:
  identifier_column: Ticker
aggregate:
  lower_percentile: 0.1
  upper_percentile: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("PEERXCEL_CONFIG_FILE", path)
	t.Setenv("PEERXCEL_LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/from/file", cfg.DataDir)
	require.Equal(t, "error", cfg.LogLevel)
	require.Equal(t, "Ticker", cfg.Layout.IdentifierColumn)
	require.Equal(t, DefaultPrimaryCategory, cfg.Layout.PrimaryCategory)
	require.InDelta(t, 0.1, cfg.Aggregate.LowerPercentile, 1e-12)
	require.InDelta(t, 0.9, cfg.Aggregate.UpperPercentile, 1e-12)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("PEERXCEL_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)

	t.Setenv("PEERXCEL_CONFIG_FILE", "")
	t.Setenv("PEERXCEL_MATCHING_MIN_NAME_QUERY_LEN", "four")
	_, err = Load()
	require.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"inverted percentiles": func(c *Config) { c.Aggregate.LowerPercentile, c.Aggregate.UpperPercentile = 0.9, 0.1 },
		"blank identifier":     func(c *Config) { c.Layout.IdentifierColumn = "" },
		"unknown log level":    func(c *Config) { c.LogLevel = "verbose" },
		"no workbook slots":    func(c *Config) { c.Limits.MaxOpenWorkbooks = 0 },
		"zero sample":          func(c *Config) { c.Aggregate.MinGroupSample = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
