package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/corpus"
	"github.com/vinodismyname/peerxcel/internal/corpus/corpustest"
)

func newExtractor(t *testing.T, dir string) *Extractor {
	t.Helper()
	cfg := config.Default()
	c, err := corpus.New(dir, nil)
	require.NoError(t, err)
	return NewExtractor(c, cfg.Layout, cfg.Matching)
}

func TestExtract_SubstringMatch(t *testing.T) {
	dir := t.TempDir()
	corpustest.WriteWorkbook(t, dir, "a.xlsx", corpustest.Sheet{Name: "Equity", Rows: [][]string{
		{"Holding", "RIC", "P / E Ratio", "EBIT"},
		{"Acme Inc", "ACM.N", "14.2", "Error Code: 0"},
	}})
	e := newExtractor(t, dir)

	got, err := e.Extract(context.Background(), "acm.n", []string{"P/E"})
	require.NoError(t, err)
	require.Equal(t, Values{"P/E": "14.2"}, got)

	got, err = e.Extract(context.Background(), "ACM.N", []string{"EBIT"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestExtract_RepairsColumnBeyondHeaderWidth(t *testing.T) {
	dir := t.TempDir()
	corpustest.WriteWorkbook(t, dir, "a.xlsx", corpustest.Sheet{Name: "Equity", Rows: [][]string{
		{"", "", "ISIN"},
		{"Holding", "RIC"},
		{"Acme Inc", "ACM.N", "US0000000001"},
	}})
	e := newExtractor(t, dir)

	got, err := e.Extract(context.Background(), "ACM.N", []string{"ISIN"})
	require.NoError(t, err)
	require.Equal(t, Values{"ISIN": "US0000000001"}, got)
}

func TestExtract_FirstFoundWinsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	corpustest.WriteWorkbook(t, dir, "a.xlsx", corpustest.Sheet{Name: "Equity", Rows: [][]string{
		{"RIC", "ROE", "EBIT"},
		{"ACM.N", "0.12", "n/a"},
	}})
	corpustest.WriteWorkbook(t, dir, "b.xlsx", corpustest.Sheet{Name: "Financial", Rows: [][]string{
		{"Report"},
		{"RIC", "ROE", "EBIT", "Dividend"},
		{"ACM.N", "0.99", "420", "ACM"},
	}})
	e := newExtractor(t, dir)

	got, err := e.Extract(context.Background(), "ACM.N", []string{"ROE", "EBIT", " ROE ", "", "Dividend", "Beta"})
	require.NoError(t, err)
	require.Equal(t, Values{"ROE": "0.12", "EBIT": "420"}, got)
}

func TestExtract_EmptyIdentifier(t *testing.T) {
	e := newExtractor(t, t.TempDir())
	_, err := e.Extract(context.Background(), " ", []string{"ROE"})
	require.ErrorIs(t, err, ErrEmptyIdentifier)

	got, err := e.Extract(context.Background(), "ACM.N", nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestValueFloat(t *testing.T) {
	cases := []struct {
		in   Value
		want float64
		ok   bool
	}{
		{"14.2", 14.2, true},
		{" 1,200.5 ", 1200.5, true},
		{"$3", 3, true},
		{"12%", 0.12, true},
		{"-0.5", -0.5, true},
		{"NaN", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := tc.in.Float()
		require.Equal(t, tc.ok, ok, string(tc.in))
		require.InDelta(t, tc.want, got, 1e-9, string(tc.in))
	}
}

func TestNormalizeFields(t *testing.T) {
	require.Equal(t, []string{"ROE", "EBIT", "P/E"}, NormalizeFields([]string{" ROE", "EBIT", "", "ROE", "P/E", "EBIT "}))
	require.Empty(t, NormalizeFields(nil))
}

func TestProviderCodesAndLabel(t *testing.T) {
	require.Equal(t, []string{"TR.EBIT", "TR.ROE"}, ProviderCodes([]string{"EBIT", "tr.ROE", "EBIT"}, "TR."))
	require.Equal(t, []string{"EBIT"}, ProviderCodes([]string{"EBIT"}, ""))
	require.Equal(t, "EBIT", Label("TR.EBIT", "TR."))
	require.Equal(t, "EBIT", Label("EBIT", "TR."))
}

func TestStaticProvider(t *testing.T) {
	p := StaticProvider{"acm.n": {"ROE": "0.1", "EBIT": "5"}}
	got, err := p.Fetch(context.Background(), []string{"ACM.N", "WDG.N"}, []string{"ROE"})
	require.NoError(t, err)
	require.Equal(t, map[string]Values{"ACM.N": {"ROE": "0.1"}}, got)
}

func TestLoadStaticProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provider.yaml")
	require.NoError(t, os.WriteFile(path, []byte("RL.N:\n  TR.PriceClose: \"101.5\"\n"), 0o644))

	p, err := LoadStaticProvider(path)
	require.NoError(t, err)
	got, err := p.Fetch(context.Background(), []string{"rl.n"}, []string{"TR.PriceClose"})
	require.NoError(t, err)
	require.Equal(t, Value("101.5"), got["rl.n"]["TR.PriceClose"])

	_, err = LoadStaticProvider(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

type failingProvider struct{}

func (failingProvider) Fetch(context.Context, []string, []string) (map[string]Values, error) {
	return nil, errors.New("upstream unavailable")
}

func TestSafeFetch(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, SafeFetch(ctx, failingProvider{}, []string{"ACM.N"}, []string{"ROE"}, nil, zerolog.Nop()))

	p := StaticProvider{"ACM.N": {"ROE": " 0.2 ", "EBIT": "#N/A", "Ticker": "ACM"}}
	got := SafeFetch(ctx, p, []string{"ACM.N"}, []string{"ROE", "EBIT", "Ticker"}, nil, zerolog.Nop())
	require.Equal(t, map[string]Values{"ACM.N": {"ROE": "0.2"}}, got)

	require.Empty(t, SafeFetch(ctx, nil, []string{"ACM.N"}, []string{"ROE"}, nil, zerolog.Nop()))
}

func TestCorpusProvider(t *testing.T) {
	dir := t.TempDir()
	corpustest.WriteWorkbook(t, dir, "a.xlsx", corpustest.Sheet{Name: "Equity", Rows: [][]string{
		{"RIC", "ROE"},
		{"ACM.N", "0.12"},
		{"WDG.N", "0.08"},
	}})
	p := CorpusProvider{Extractor: newExtractor(t, dir)}
	got, err := p.Fetch(context.Background(), []string{"ACM.N", "WDG.N", "ZZZ.N", ""}, []string{"ROE"})
	require.NoError(t, err)
	require.Equal(t, map[string]Values{
		"ACM.N": {"ROE": "0.12"},
		"WDG.N": {"ROE": "0.08"},
		"ZZZ.N": {},
	}, got)
}
