package metrics

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/columns"
	"github.com/vinodismyname/peerxcel/internal/corpus"
)

// ErrEmptyIdentifier indicates an extraction without an identifier.
var ErrEmptyIdentifier = errors.New("metrics: empty identifier")

// Extractor reads metric values for an identifier from a corpus.
type Extractor struct {
	corpus   *corpus.Corpus
	resolver *columns.Resolver
	layout   config.LayoutConfig
	keywords []string
	logger   zerolog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithLogger sets the extractor logger.
func WithLogger(l zerolog.Logger) Option { return func(e *Extractor) { e.logger = l } }

// NewExtractor binds an Extractor to c.
func NewExtractor(c *corpus.Corpus, layout config.LayoutConfig, matching config.MatchingConfig, opts ...Option) *Extractor {
	if layout.HeaderScanRows <= 0 {
		layout.HeaderScanRows = config.DefaultHeaderScanRows
	}
	if layout.IdentifierColumn == "" {
		layout.IdentifierColumn = config.DefaultIdentifierColumn
	}
	e := &Extractor{
		corpus:   c,
		resolver: columns.NewResolver(matching.Sentinels),
		layout:   layout,
		keywords: matching.HeaderKeywords,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolver exposes the value filter used by the extractor.
func (e *Extractor) Resolver() *columns.Resolver { return e.resolver }

// Extract returns the requested fields for id. Each field takes the first
// acceptable value found in corpus order; later rows never overwrite it.
// Fields found nowhere are absent from the result.
func (e *Extractor) Extract(ctx context.Context, id string, fields []string) (Values, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyIdentifier
	}
	fields = NormalizeFields(fields)
	out := make(Values, len(fields))
	if len(fields) == 0 {
		return out, nil
	}

	err := e.corpus.Walk(ctx, nil, func(src *corpus.Source) error {
		for _, sh := range src.Sheets {
			t, ok := columns.Frame(sh.Rows, e.layout.IdentifierColumn, e.layout.HeaderScanRows, e.keywords)
			if !ok {
				continue
			}
			row, _, ok := t.Find(id)
			if !ok {
				continue
			}
			for _, f := range fields {
				if _, done := out[f]; done {
					continue
				}
				if v, ok := e.resolver.Lookup(t.Columns, row, f, id); ok {
					out[f] = Value(v)
					e.logger.Debug().Str("identifier", id).Str("field", f).Str("path", src.Path).Str("sheet", sh.Name).Msg("field resolved")
				}
			}
			if len(out) == len(fields) {
				return corpus.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractAll runs Extract for each identifier. Identifiers are keyed as given.
func (e *Extractor) ExtractAll(ctx context.Context, ids, fields []string) (map[string]Values, error) {
	out := make(map[string]Values, len(ids))
	for _, id := range ids {
		vals, err := e.Extract(ctx, id, fields)
		if errors.Is(err, ErrEmptyIdentifier) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = vals
	}
	return out, nil
}
