package columns

import (
	"fmt"
	"strings"

	"github.com/vinodismyname/peerxcel/config"
)

// PlaceholderPrefix names header cells that carry no text.
const PlaceholderPrefix = "Unnamed: "

// LocateHeader returns the index of the first row among rows[0:maxScan] that
// holds a cell equal to marker (trimmed, case-insensitive).
func LocateHeader(rows [][]string, marker string, maxScan int) (int, bool) {
	if maxScan <= 0 {
		maxScan = config.DefaultHeaderScanRows
	}
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return 0, false
	}
	limit := min(maxScan, len(rows))
	for r := 0; r < limit; r++ {
		for _, cell := range rows[r] {
			if strings.EqualFold(strings.TrimSpace(cell), marker) {
				return r, true
			}
		}
	}
	return 0, false
}

// BuildColumns returns the column names for the header row, one per column
// of the widest row in rows. Empty or missing header cells become
// "Unnamed: <col>"; such a column is renamed to the nearest non-empty cell
// above it when that text contains one of keywords.
func BuildColumns(rows [][]string, headerRow int, keywords []string) []string {
	if headerRow < 0 || headerRow >= len(rows) {
		return nil
	}
	header := rows[headerRow]
	cols := make([]string, width(rows))
	for c := range cols {
		if name := Cell(header, c); name != "" {
			cols[c] = name
			continue
		}
		cols[c] = fmt.Sprintf("%s%d", PlaceholderPrefix, c)
		if above, ok := nearestAbove(rows, headerRow, c); ok && hasKeyword(above, keywords) {
			cols[c] = above
		}
	}
	return cols
}

// IsPlaceholder reports whether name was synthesized by BuildColumns.
func IsPlaceholder(name string) bool {
	return strings.HasPrefix(name, PlaceholderPrefix)
}

// IndexOf returns the first column whose trimmed name equals name
// case-insensitively.
func IndexOf(cols []string, name string) (int, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false
	}
	for i, c := range cols {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return i, true
		}
	}
	return 0, false
}

// Cell returns the trimmed cell at column c of row, or "" when out of range.
func Cell(row []string, c int) string {
	if c < 0 || c >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[c])
}

// width is the length of the longest row; GetRows trims trailing empty cells
// per row, so the header alone can be shorter than the sheet.
func width(rows [][]string) int {
	n := 0
	for _, r := range rows {
		n = max(n, len(r))
	}
	return n
}

func nearestAbove(rows [][]string, headerRow, c int) (string, bool) {
	for r := headerRow - 1; r >= 0; r-- {
		if v := Cell(rows[r], c); v != "" {
			return v, true
		}
	}
	return "", false
}

func hasKeyword(text string, keywords []string) bool {
	upper := strings.ToUpper(text)
	for _, k := range keywords {
		k = strings.ToUpper(strings.TrimSpace(k))
		if k != "" && strings.Contains(upper, k) {
			return true
		}
	}
	return false
}
