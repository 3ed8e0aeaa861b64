package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/peerxcel/internal/corpus/corpustest"
)

func corpusDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	corpustest.WriteWorkbook(t, dir, "Consumer.xlsx", corpustest.Sheet{Name: "Equity", Rows: [][]string{
		{"Holding", "Universe", "Sub-Industry", "Focus", "RIC", "ROE"},
		{"Ralph Lauren Corp", "Ralph Lauren", "Consumer - Apparel", "Luxury", "RL.N", "0.25"},
		{"Tapestry Inc", "Tapestry", "Consumer - Apparel", "Luxury", "TPR.N", "0.25"},
		{"PVH Corp", "PVH", "Consumer - Apparel", "", "PVH.N", "0.25"},
	}})
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PEERXCEL_CONFIG_FILE", "")
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", "", "--log-level", "disabled"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	dir := corpusDir(t)

	out, err := execute(t, "--data-dir", dir, "resolve", "rl.n")
	require.NoError(t, err)
	require.Contains(t, out, "Ralph Lauren Corp")
	require.Contains(t, out, "Luxury")

	out, err = execute(t, "--data-dir", dir, "resolve", "--name", "tapestry")
	require.NoError(t, err)
	require.Contains(t, out, "TPR.N")

	_, err = execute(t, "--data-dir", dir, "resolve", "NOPE.N")
	require.ErrorContains(t, err, "entity: not found")
}

func TestPeersCommand(t *testing.T) {
	dir := corpusDir(t)

	out, err := execute(t, "--data-dir", dir, "peers", "RL.N", "--attribute", "secondary")
	require.NoError(t, err)
	require.Contains(t, out, "TPR.N")
	require.NotContains(t, out, "PVH.N")

	out, err = execute(t, "--data-dir", dir, "peers", "--category", "Consumer", "--attribute", "sector")
	require.NoError(t, err)
	require.Contains(t, out, "PVH.N")

	_, err = execute(t, "--data-dir", dir, "peers")
	require.Error(t, err)
}

func TestMetricsCommand(t *testing.T) {
	out, err := execute(t, "--data-dir", corpusDir(t), "metrics", "RL.N", "--fields", "ROE")
	require.NoError(t, err)
	require.Contains(t, out, "0.25")

	out, err = execute(t, "--data-dir", corpusDir(t), "metrics", "RL.N", "--fields", "Universe, ROE, ROE")
	require.NoError(t, err)
	require.Contains(t, out, "Ralph Lauren")
	require.Contains(t, out, "0.25")
	require.Equal(t, 1, strings.Count(out, "ROE"))
}

func TestRunCommand(t *testing.T) {
	dir := corpusDir(t)

	out, err := execute(t, "--data-dir", dir, "run", "RL.N", "NOPE.N", "--fields", "ROE")
	require.NoError(t, err)
	require.Contains(t, out, "Trimmed averages")
	require.Contains(t, out, "Not processed")

	dest := filepath.Join(t.TempDir(), "peers.xlsx")
	out, err = execute(t, "--data-dir", dir, "run", "RL.N", "--fields", "ROE", "--out", dest)
	require.NoError(t, err)
	require.Contains(t, out, "3 rows")

	f, err := excelize.OpenFile(dest)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.Contains(t, f.GetSheetList(), "Averages")

	_, err = execute(t, "--data-dir", dir, "run", "RL.N")
	require.ErrorContains(t, err, "no fields")
}

func TestRunCommandFromRequestWorkbook(t *testing.T) {
	dir := corpusDir(t)
	corpustest.WriteWorkbook(t, dir, "request.xlsx", corpustest.Sheet{Name: "Input", Rows: [][]string{
		{"RIC", "Focus?", "Fields"},
		{"RL.N", "ja", "ROE"},
	}})

	out, err := execute(t, "--data-dir", dir, "run", "--request", filepath.Join(dir, "request.xlsx"))
	require.NoError(t, err)
	require.Contains(t, out, "Luxury")
	require.NotContains(t, out, "PVH.N")
}
