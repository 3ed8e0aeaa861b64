package telemetry

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/peerxcel/internal/corpus"
)

// ScanHooks logs corpus loads. It implements corpus.Observer.
type ScanHooks struct {
	logger zerolog.Logger
	loaded atomic.Int64
	failed atomic.Int64
}

// NewScanHooks constructs ScanHooks with the provided logger.
func NewScanHooks(logger zerolog.Logger) *ScanHooks {
	return &ScanHooks{logger: logger}
}

// SourceLoaded records a workbook parsed from disk.
func (h *ScanHooks) SourceLoaded(path string, sheets int, elapsed time.Duration) {
	h.loaded.Add(1)
	h.logger.Debug().Str("path", path).Int("sheets", sheets).Dur("elapsed", elapsed).Msg("source loaded")
}

// SourceFailed records a workbook or sheet that could not be read. The scan
// goes on.
func (h *ScanHooks) SourceFailed(err error) {
	h.failed.Add(1)
	ev := h.logger.Warn().Err(err)
	var readErr *corpus.SourceReadError
	if errors.As(err, &readErr) && readErr.Sheet != "" {
		ev = ev.Str("sheet", readErr.Sheet)
	}
	ev.Msg("source skipped")
}

// Counts returns the number of loaded and failed sources so far.
func (h *ScanHooks) Counts() (loaded, failed int64) {
	return h.loaded.Load(), h.failed.Load()
}

// LogCacheStats writes one summary line for a corpus cache.
func LogCacheStats(logger zerolog.Logger, s corpus.Stats) {
	logger.Info().
		Int("hits", s.Hits).
		Int("misses", s.Misses).
		Int("failures", s.Failures).
		Int("entries", s.Entries).
		Msg("corpus cache stats")
}
