package corpus

import (
	"context"
	"path/filepath"
	"sync"
	"time"
)

// WorkbookGate coordinates capacity for open workbook files (backed by runtime.Controller).
type WorkbookGate interface {
	AcquireWorkbook(ctx context.Context) error
	ReleaseWorkbook()
}

// PathValidator abstracts filesystem path validation. Implementations
// return a canonical absolute path if allowed, or an error when denied.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// Observer receives scan events; see telemetry.ScanHooks.
type Observer interface {
	SourceLoaded(path string, sheets int, elapsed time.Duration)
	// SourceFailed reports a workbook, or a single sheet of an otherwise
	// loaded workbook, that could not be read.
	SourceFailed(err error)
}

type nopObserver struct{}

func (nopObserver) SourceLoaded(string, int, time.Duration) {}
func (nopObserver) SourceFailed(error)                      {}

// Stats counts cache lookups. Failures are loads that ended in an error;
// they are cached too, so a corrupt file fails once per cache.
type Stats struct {
	Hits     int
	Misses   int
	Failures int
	Entries  int
}

type entry struct {
	src *Source
	err error
}

// Cache memoizes parsed workbooks by absolute path for the lifetime of a run.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]entry
	stats     Stats
	gate      WorkbookGate
	validator PathValidator
	observer  Observer
	clock     func() time.Time
	open      func(string) (workbook, error)
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithGate bounds concurrently open workbook files.
func WithGate(g WorkbookGate) CacheOption { return func(c *Cache) { c.gate = g } }

// WithValidator checks every path before it is opened.
func WithValidator(v PathValidator) CacheOption { return func(c *Cache) { c.validator = v } }

// WithObserver installs scan event callbacks.
func WithObserver(o Observer) CacheOption {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewCache constructs an empty cache. Gate and validator are optional.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:  make(map[string]entry),
		observer: nopObserver{},
		clock:    time.Now,
		open:     openWorkbook,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the parsed workbook at path, reading it on first access.
// Errors are *SourceReadError values or context/validation errors.
func (c *Cache) Load(ctx context.Context, path string) (*Source, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, &SourceReadError{Path: path, Err: err}
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.stats.Hits++
		c.mu.Unlock()
		return e.src, e.err
	}
	c.stats.Misses++
	c.mu.Unlock()

	src, err := c.read(ctx, key)
	if err != nil && ctx.Err() != nil {
		// Cancellation says nothing about the file; do not remember it.
		return nil, err
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.src, e.err
	}
	c.entries[key] = entry{src: src, err: err}
	if err != nil {
		c.stats.Failures++
	}
	c.mu.Unlock()

	if err != nil {
		c.observer.SourceFailed(err)
	}
	return src, err
}

func (c *Cache) read(ctx context.Context, path string) (*Source, error) {
	if c.validator != nil {
		canonical, err := c.validator.ValidateOpenPath(path)
		if err != nil {
			return nil, &SourceReadError{Path: path, Err: err}
		}
		path = canonical
	}
	if c.gate != nil {
		if err := c.gate.AcquireWorkbook(ctx); err != nil {
			return nil, err
		}
		defer c.gate.ReleaseWorkbook()
	}

	start := c.clock()
	src, skipped, err := readSource(path, c.open)
	if err != nil {
		return nil, err
	}
	for _, e := range skipped {
		c.observer.SourceFailed(e)
	}
	c.observer.SourceLoaded(path, len(src.Sheets), c.clock().Sub(start))
	return src, nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// Reset drops every cached entry and zeroes the counters.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.stats = Stats{}
}
