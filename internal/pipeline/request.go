package pipeline

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/columns"
	"github.com/vinodismyname/peerxcel/internal/entity"
)

// Request workbook column headers. Each accepts an English or German label.
var (
	RequestNameColumns     = []string{"Name"}
	RequestFieldColumns    = []string{"Fields", "Kennzahlen aus Excel"}
	RequestProviderColumns = []string{"Provider Fields", "Kennzahlen aus Refinitiv"}
	RequestSectorColumns   = []string{"Sector?", "Sektor?"}
)

var truthy = map[string]bool{"ja": true, "yes": true, "true": true, "x": true, "1": true, "y": true}

// ReadRequest parses a request workbook: the first sheet holds one input
// per row (identifier or name column), a "<secondary category>?" flag
// selecting the secondary grouping, and field lists running down their own
// columns.
func ReadRequest(path string, layout config.LayoutConfig) (Request, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("pipeline: open request %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Request{}, fmt.Errorf("pipeline: request %q has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Request{}, fmt.Errorf("pipeline: read request %q: %w", path, err)
	}
	return ParseRequest(rows, layout)
}

// ParseRequest builds a Request from the raw grid of a request sheet.
func ParseRequest(rows [][]string, layout config.LayoutConfig) (Request, error) {
	idName := layout.IdentifierColumn
	if idName == "" {
		idName = config.DefaultIdentifierColumn
	}
	header, ok := columns.LocateHeader(rows, idName, layout.HeaderScanRows)
	if !ok {
		return Request{}, fmt.Errorf("pipeline: request has no %q column", idName)
	}
	cols := columns.BuildColumns(rows, header, nil)
	find := func(names ...string) int {
		for _, n := range names {
			if idx, ok := columns.IndexOf(cols, n); ok {
				return idx
			}
		}
		return -1
	}

	idCol := find(idName)
	nameCol := find(RequestNameColumns...)
	fieldCol := find(RequestFieldColumns...)
	providerCol := find(RequestProviderColumns...)
	sectorCol := find(RequestSectorColumns...)
	flagCol := -1
	if layout.SecondaryCategory != "" {
		flagCol = find(layout.SecondaryCategory + "?")
	}

	var req Request
	flagSeen := false
	for _, row := range rows[header+1:] {
		in := Input{Identifier: columns.Cell(row, idCol), Name: cellAt(row, nameCol)}
		if strings.EqualFold(in.Identifier, "nan") || strings.EqualFold(in.Identifier, "none") {
			in.Identifier = ""
		}
		if in.String() != "" {
			req.Inputs = append(req.Inputs, in)
			// The flag of the first input row applies to the whole run.
			if !flagSeen {
				flagSeen = true
				if truthy[strings.ToLower(cellAt(row, flagCol))] {
					req.Attribute = entity.Secondary
				}
				req.Sector = truthy[strings.ToLower(cellAt(row, sectorCol))]
			}
		}
		if v := cellAt(row, fieldCol); v != "" {
			req.Fields = append(req.Fields, v)
		}
		if v := cellAt(row, providerCol); v != "" {
			req.ProviderFields = append(req.ProviderFields, v)
		}
	}
	if len(req.Inputs) == 0 {
		return Request{}, fmt.Errorf("pipeline: request has no identifier or name")
	}
	return req, nil
}

func cellAt(row []string, col int) string {
	if col < 0 {
		return ""
	}
	return columns.Cell(row, col)
}
