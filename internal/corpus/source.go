package corpus

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is the raw, header-less grid of one worksheet.
type Sheet struct {
	Name string
	Rows [][]string
}

// Source is a parsed workbook. Its grids are never mutated after load.
type Source struct {
	Path   string
	Sheets []Sheet
}

// SheetNames lists the sheets in workbook order.
func (s *Source) SheetNames() []string {
	names := make([]string, len(s.Sheets))
	for i, sh := range s.Sheets {
		names[i] = sh.Name
	}
	return names
}

// Base returns the file name of the source.
func (s *Source) Base() string {
	return filepath.Base(s.Path)
}

// SourceReadError reports a workbook or sheet that could not be parsed.
type SourceReadError struct {
	Path  string
	Sheet string
	Err   error
}

func (e *SourceReadError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("corpus: read %s [%s]: %v", e.Path, e.Sheet, e.Err)
	}
	return fmt.Sprintf("corpus: read %s: %v", e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// supportedExt lists the workbook formats excelize can read.
var supportedExt = map[string]struct{}{
	".xlsx": {},
	".xlsm": {},
	".xltx": {},
	".xltm": {},
}

// IsWorkbook reports whether name is a readable workbook and not an
// office lock file ("~$" prefix).
func IsWorkbook(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	_, ok := supportedExt[strings.ToLower(filepath.Ext(base))]
	return ok
}

// workbook is the part of *excelize.File that readSource uses.
type workbook interface {
	GetSheetList() []string
	GetRows(sheet string, opts ...excelize.Options) ([][]string, error)
	Close() error
}

func openWorkbook(path string) (workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// readSource parses every sheet of the workbook at path using raw cell
// values. A sheet that fails to parse is left out and reported in skipped;
// only a workbook that cannot be opened fails as a whole.
func readSource(path string, open func(string) (workbook, error)) (src *Source, skipped []error, err error) {
	f, err := open(path)
	if err != nil {
		return nil, nil, &SourceReadError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	src = &Source{Path: path}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			skipped = append(skipped, &SourceReadError{Path: path, Sheet: name, Err: err})
			continue
		}
		src.Sheets = append(src.Sheets, Sheet{Name: name, Rows: rows})
	}
	return src, skipped, nil
}
