package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// ErrNotDirectory indicates the corpus root is not a readable directory.
var ErrNotDirectory = errors.New("corpus: not a directory")

// SkipAll stops a Walk without reporting an error.
var SkipAll = errors.New("corpus: skip all")

// FileFilter selects workbook paths.
type FileFilter func(path string) bool

// Corpus is a directory of workbooks read through a shared Cache.
type Corpus struct {
	dir   string
	cache *Cache
}

// New binds a corpus directory to cache. A nil cache gets a fresh one.
func New(dir string, cache *Cache) (*Corpus, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus: resolve %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("corpus: stat %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Corpus{dir: abs, cache: cache}, nil
}

// Dir returns the absolute corpus directory.
func (c *Corpus) Dir() string { return c.dir }

// Cache exposes the underlying parse cache.
func (c *Corpus) Cache() *Cache { return c.cache }

// Files lists workbook files directly under the corpus directory in name
// order. Lock files and non-workbook files are skipped.
func (c *Corpus) Files() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("corpus: list %q: %w", c.dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsWorkbook(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(c.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Ordered returns Files with the paths selected by priority moved to the
// front. Relative order is kept within both halves.
func (c *Corpus) Ordered(priority FileFilter) ([]string, error) {
	files, err := c.Files()
	if err != nil || priority == nil {
		return files, err
	}
	first := make([]string, 0, len(files))
	rest := make([]string, 0, len(files))
	for _, f := range files {
		if priority(f) {
			first = append(first, f)
		} else {
			rest = append(rest, f)
		}
	}
	return append(first, rest...), nil
}

// Walk loads each workbook in Ordered(priority) order and calls fn.
// Unreadable workbooks are skipped; the cache reports them to its observer.
// The context is checked between files. Returning SkipAll from fn ends the
// walk early with a nil error.
func (c *Corpus) Walk(ctx context.Context, priority FileFilter, fn func(*Source) error) error {
	files, err := c.Ordered(priority)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := c.cache.Load(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if err := fn(src); err != nil {
			if errors.Is(err, SkipAll) {
				return nil
			}
			return err
		}
	}
	return nil
}

// SectorFilter selects files whose name mentions the leading word of the
// sector of category (the part before sep). "Consumer Discretionary - Retail"
// selects "Consumer_EU.xlsx". An empty category selects nothing.
func SectorFilter(category, sep string) FileFilter {
	sector := category
	if sep != "" {
		sector, _, _ = strings.Cut(category, sep)
	}
	fields := strings.FieldsFunc(strings.ToLower(sector), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return func(string) bool { return false }
	}
	token := fields[0]
	return func(path string) bool {
		base := strings.ToLower(filepath.Base(path))
		for _, part := range strings.FieldsFunc(base, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			if part == token {
				return true
			}
		}
		return false
	}
}

// SheetFilter reports whether a sheet name contains any of substrings
// (case-insensitive). No substrings selects every sheet.
func SheetFilter(substrings []string) func(name string) bool {
	want := make([]string, 0, len(substrings))
	for _, s := range substrings {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			want = append(want, s)
		}
	}
	return func(name string) bool {
		if len(want) == 0 {
			return true
		}
		lower := strings.ToLower(name)
		for _, s := range want {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}
