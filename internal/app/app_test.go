package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/corpus/corpustest"
	"github.com/vinodismyname/peerxcel/internal/pipeline"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	corpustest.WriteWorkbook(t, dir, "Consumer.xlsx", corpustest.Sheet{Name: "Equity", Rows: [][]string{
		{"Holding", "Universe", "Sub-Industry", "Focus", "RIC", "ROE"},
		{"Acme Inc", "Acme", "Consumer - Retail", "", "ACM.N", "0.10"},
		{"Widget Co", "Widget", "Consumer - Retail", "", "WDG.N", "0.10"},
	}})
	corpustest.WriteCorrupt(t, dir, "Broken.xlsx")
	cfg := config.Default()
	cfg.DataDir = dir
	return &cfg
}

func TestNewBuildsWorkingEngine(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)

	rep, err := a.Engine.Run(context.Background(), pipeline.Request{
		Inputs: []pipeline.Input{{Identifier: "ACM.N"}},
		Fields: []string{"ROE"},
	})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 2)

	loaded, failed := a.Scan.Counts()
	require.EqualValues(t, 1, loaded)
	require.EqualValues(t, 1, failed)
	require.Equal(t, 2, a.Corpus.Cache().Stats().Entries)
	a.LogStats()
}

func TestNewWithProviderFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.ProviderFile = filepath.Join(t.TempDir(), "provider.yaml")
	require.NoError(t, os.WriteFile(cfg.ProviderFile, []byte("ACM.N:\n  TR.Beta: \"1.2\"\nWDG.N:\n  TR.Beta: \"1.2\"\n"), 0o644))

	a, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	rep, err := a.Engine.Run(context.Background(), pipeline.Request{
		Inputs:         []pipeline.Input{{Identifier: "ACM.N"}},
		Fields:         []string{"ROE"},
		ProviderFields: []string{"Beta"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ROE", "Beta"}, rep.Fields)
	beta, ok := rep.Aggregates[0].Average("Beta")
	require.True(t, ok)
	require.InDelta(t, 1.2, beta, 1e-9)
}

func TestNewRejectsDataDirOutsideRoots(t *testing.T) {
	cfg := testConfig(t)
	cfg.AllowedDirs = []string{t.TempDir()}
	_, err := New(cfg, zerolog.Nop())
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.DataDir = filepath.Join(cfg.DataDir, "missing")
	_, err = New(cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, Level("debug"))
	require.Equal(t, zerolog.InfoLevel, Level(""))
	require.Equal(t, zerolog.InfoLevel, Level("loud"))
}
