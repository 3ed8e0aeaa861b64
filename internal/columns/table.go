package columns

import "strings"

// Table is a sheet viewed through its located header row.
type Table struct {
	Header  int
	Columns []string
	Rows    [][]string // data rows below the header
	Key     int        // index of the marker column
}

// Frame locates the header row of rows by marker and builds its columns.
// It fails when the marker is not within the first maxScan rows.
func Frame(rows [][]string, marker string, maxScan int, keywords []string) (Table, bool) {
	h, ok := LocateHeader(rows, marker, maxScan)
	if !ok {
		return Table{}, false
	}
	cols := BuildColumns(rows, h, keywords)
	key, ok := IndexOf(cols, marker)
	if !ok {
		return Table{}, false
	}
	return Table{Header: h, Columns: cols, Rows: rows[h+1:], Key: key}, true
}

// Find returns the first data row whose key cell equals value (trimmed,
// case-insensitive).
func (t Table) Find(value string) ([]string, int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, 0, false
	}
	for i, row := range t.Rows {
		if strings.EqualFold(Cell(row, t.Key), value) {
			return row, t.Header + 1 + i, true
		}
	}
	return nil, 0, false
}

// Column returns the index of the named column, or -1 when absent.
func (t Table) Column(name string) int {
	if idx, ok := IndexOf(t.Columns, name); ok {
		return idx
	}
	return -1
}
