package pipeline

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/xuri/excelize/v2"
)

// Sink emits a finished report.
type Sink interface {
	Write(r *Report) error
}

// Fixed leading columns of the results sheet.
var resultHeader = []string{"Name", "Identifier", "Primary Category", "Secondary Category"}

// ResultRecords flattens the report rows in output column order.
func ResultRecords(r *Report) [][]string {
	out := make([][]string, 0, len(r.Rows))
	for _, res := range r.Rows {
		rec := []string{res.Company.DisplayName, res.Company.Identifier, res.Company.CategoryPrimary, res.Company.CategorySecondary}
		for _, f := range r.Fields {
			rec = append(rec, string(res.Values[f]))
		}
		out = append(out, rec)
	}
	return out
}

// AverageRecords flattens the aggregate rows; unavailable averages are blank.
func AverageRecords(r *Report) [][]string {
	out := make([][]string, 0, len(r.Aggregates))
	for _, agg := range r.Aggregates {
		rec := []string{agg.Label, agg.Kind.String()}
		for _, f := range r.Fields {
			if v, ok := agg.Average(f); ok {
				rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		out = append(out, rec)
	}
	return out
}

// WorkbookSink writes Results, Averages and (when needed) Missing sheets.
type WorkbookSink struct {
	Path string
}

// Write implements Sink.
func (s WorkbookSink) Write(r *Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", "Results"); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := writeSheet(f, "Results", append(append([]string(nil), resultHeader...), r.Fields...), ResultRecords(r)); err != nil {
		return err
	}
	if _, err := f.NewSheet("Averages"); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := writeSheet(f, "Averages", append([]string{"Group", "Kind"}, r.Fields...), AverageRecords(r)); err != nil {
		return err
	}
	if len(r.Missing) > 0 {
		if _, err := f.NewSheet("Missing"); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		recs := make([][]string, len(r.Missing))
		for i, m := range r.Missing {
			recs[i] = []string{m.Input, m.Reason, m.Detail}
		}
		if err := writeSheet(f, "Missing", []string{"Input", "Reason", "Detail"}, recs); err != nil {
			return err
		}
	}
	if err := f.SaveAs(s.Path); err != nil {
		return fmt.Errorf("pipeline: save %q: %w", s.Path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, records [][]string) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("pipeline: write %s header: %w", sheet, err)
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		vals := make([]any, len(rec))
		for j, v := range rec {
			if n, err := strconv.ParseFloat(v, 64); err == nil && v != "" {
				vals[j] = n
			} else {
				vals[j] = v
			}
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("pipeline: write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// TableSink renders the report as terminal tables.
type TableSink struct {
	Out   io.Writer
	Style table.Style
}

// Write implements Sink.
func (s TableSink) Write(r *Report) error {
	style := s.Style
	if style.Name == "" {
		style = table.StyleLight
	}

	results := table.NewWriter()
	results.SetOutputMirror(s.Out)
	results.SetTitle("Peers")
	results.AppendHeader(toRow(append(append([]string(nil), resultHeader...), r.Fields...)))
	for _, rec := range ResultRecords(r) {
		results.AppendRow(toRow(rec))
	}
	results.SetStyle(style)
	results.Render()

	if len(r.Aggregates) > 0 {
		avg := table.NewWriter()
		avg.SetOutputMirror(s.Out)
		avg.SetTitle("Trimmed averages")
		avg.AppendHeader(toRow(append([]string{"Group", "Kind"}, r.Fields...)))
		for _, rec := range AverageRecords(r) {
			avg.AppendRow(toRow(rec))
		}
		avg.SetStyle(style)
		avg.Render()
	}

	if len(r.Missing) > 0 {
		miss := table.NewWriter()
		miss.SetOutputMirror(s.Out)
		miss.SetTitle("Not processed")
		miss.AppendHeader(table.Row{"Input", "Reason"})
		for _, m := range r.Missing {
			miss.AppendRow(table.Row{m.Input, m.Reason})
		}
		miss.SetStyle(style)
		miss.Render()
	}
	return nil
}

func toRow(vals []string) table.Row {
	row := make(table.Row, len(vals))
	for i, v := range vals {
		row[i] = v
	}
	return row
}
