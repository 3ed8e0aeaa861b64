// Package corpustest builds workbook fixtures for tests.
package corpustest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Sheet describes one worksheet of a fixture workbook. Rows are written
// from A1 downwards; empty strings leave the cell unset, so trailing blanks
// are dropped on read as in hand-edited sheets.
type Sheet struct {
	Name string
	Rows [][]string
}

// WriteWorkbook saves a workbook with the given sheets under dir and returns its path.
func WriteWorkbook(t *testing.T, dir, name string, sheets ...Sheet) string {
	t.Helper()
	require.NotEmpty(t, sheets)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, sh := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sh.Name))
		} else {
			_, err := f.NewSheet(sh.Name)
			require.NoError(t, err)
		}
		for r, row := range sh.Rows {
			for c, v := range row {
				if v == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(sh.Name, cell, v))
			}
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteCorrupt writes a file with a workbook extension that is not a workbook.
func WriteCorrupt(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0o600))
	return path
}

// Header is the column layout used across the package tests.
var Header = []string{"Holding", "Universe", "Sub-Industry", "Focus", "RIC"}
