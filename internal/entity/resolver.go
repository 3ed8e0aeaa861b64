package entity

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/columns"
	"github.com/vinodismyname/peerxcel/internal/corpus"
)

// Resolver finds companies and peer groups in a corpus.
type Resolver struct {
	corpus   *corpus.Corpus
	layout   config.LayoutConfig
	matching config.MatchingConfig
	sheets   func(string) bool
	logger   zerolog.Logger
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for per-sheet decisions.
func WithLogger(l zerolog.Logger) Option { return func(r *Resolver) { r.logger = l } }

// NewResolver binds a Resolver to c using the layout and matching settings.
func NewResolver(c *corpus.Corpus, layout config.LayoutConfig, matching config.MatchingConfig, opts ...Option) *Resolver {
	if layout.HeaderScanRows <= 0 {
		layout.HeaderScanRows = config.DefaultHeaderScanRows
	}
	if layout.IdentifierColumn == "" {
		layout.IdentifierColumn = config.DefaultIdentifierColumn
	}
	if matching.MinNameQueryLen <= 0 {
		matching.MinNameQueryLen = config.DefaultMinNameQueryLen
	}
	r := &Resolver{
		corpus:   c,
		layout:   layout,
		matching: matching,
		sheets:   corpus.SheetFilter(layout.SheetFilter),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// frame views a sheet through its identifier header.
func (r *Resolver) frame(src *corpus.Source, sh corpus.Sheet) (columns.Table, bool) {
	t, ok := columns.Frame(sh.Rows, r.layout.IdentifierColumn, r.layout.HeaderScanRows, r.matching.HeaderKeywords)
	if !ok {
		r.logger.Debug().Str("path", src.Path).Str("sheet", sh.Name).Msg("no identifier header; sheet skipped")
	}
	return t, ok
}

// ResolveByIdentifier returns the first record whose identifier equals id
// (trimmed, case-insensitive). Files matching the configured priority
// category are scanned first.
func (r *Resolver) ResolveByIdentifier(ctx context.Context, id string) (Company, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Company{}, fmt.Errorf("%w: empty identifier", ErrInvalidQuery)
	}

	var (
		found Company
		ok    bool
	)
	err := r.corpus.Walk(ctx, r.priority(), func(src *corpus.Source) error {
		for _, sh := range src.Sheets {
			t, framed := r.frame(src, sh)
			if !framed {
				continue
			}
			row, idx, hit := t.Find(id)
			if !hit {
				continue
			}
			found, ok = r.company(t, row, src, sh.Name, idx), true
			return corpus.SkipAll
		}
		return nil
	})
	if err != nil {
		return Company{}, err
	}
	if !ok {
		return Company{}, fmt.Errorf("%w: identifier %q", ErrNotFound, id)
	}
	r.logger.Debug().Str("identifier", found.Identifier).Str("path", found.Source).Str("sheet", found.Sheet).Msg("identifier resolved")
	return found, nil
}

// ResolveByName returns the first record whose primary name contains text
// (case-insensitive), falling back to the secondary name column after the
// whole corpus has been searched.
func (r *Resolver) ResolveByName(ctx context.Context, text string) (Company, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < r.matching.MinNameQueryLen {
		return Company{}, fmt.Errorf("%w: name %q shorter than %d characters", ErrInvalidQuery, text, r.matching.MinNameQueryLen)
	}
	needle := foldName(text)

	for _, column := range []string{r.layout.PrimaryName, r.layout.SecondaryName} {
		if strings.TrimSpace(column) == "" {
			continue
		}
		var (
			found Company
			ok    bool
		)
		err := r.corpus.Walk(ctx, nil, func(src *corpus.Source) error {
			for _, sh := range src.Sheets {
				t, framed := r.frame(src, sh)
				if !framed {
					continue
				}
				col := t.Column(column)
				if col < 0 {
					continue
				}
				for i, row := range t.Rows {
					if columns.Cell(row, t.Key) == "" {
						continue
					}
					name := columns.Cell(row, col)
					if name != "" && strings.Contains(foldName(name), needle) {
						found, ok = r.company(t, row, src, sh.Name, t.Header+1+i), true
						return corpus.SkipAll
					}
				}
			}
			return nil
		})
		if err != nil {
			return Company{}, err
		}
		if ok {
			return found, nil
		}
	}
	return Company{}, fmt.Errorf("%w: name %q", ErrNotFound, text)
}

// FindPeers returns every record whose attribute value equals value
// (trimmed, case-insensitive) across the relevant sheets. For Sector the
// sector of both sides is compared. The result may be empty.
func (r *Resolver) FindPeers(ctx context.Context, value string, attr Attribute) (*PeerGroup, error) {
	target := strings.TrimSpace(value)
	if attr == Sector {
		target = SectorOf(target, r.layout.SectorSeparator)
	}
	if target == "" {
		return nil, fmt.Errorf("%w: empty %s category", ErrInvalidQuery, attr)
	}

	group := NewPeerGroup(target, attr)
	err := r.corpus.Walk(ctx, nil, func(src *corpus.Source) error {
		for _, sh := range src.Sheets {
			if !r.sheets(sh.Name) {
				r.logger.Debug().Str("path", src.Path).Str("sheet", sh.Name).Msg("sheet filtered out for peer scan")
				continue
			}
			t, framed := r.frame(src, sh)
			if !framed {
				continue
			}
			col := t.Column(r.attributeColumn(attr))
			if col < 0 {
				continue
			}
			for i, row := range t.Rows {
				if columns.Cell(row, t.Key) == "" {
					continue
				}
				v := columns.Cell(row, col)
				if attr == Sector {
					v = SectorOf(v, r.layout.SectorSeparator)
				}
				if strings.EqualFold(v, target) {
					group.Add(r.company(t, row, src, sh.Name, t.Header+1+i))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("category", target).Str("attribute", attr.String()).Int("peers", group.Len()).Msg("peer scan complete")
	return group, nil
}

// PeersOf finds the peer group of origin by attr and ensures origin is a
// member when ForceIncludeOrigin is set.
func (r *Resolver) PeersOf(ctx context.Context, origin Company, attr Attribute) (*PeerGroup, error) {
	group, err := r.FindPeers(ctx, origin.Category(attr, r.layout.SectorSeparator), attr)
	if err != nil {
		return nil, err
	}
	if r.matching.ForceIncludeOrigin && group.Ensure(origin) {
		r.logger.Debug().Str("identifier", origin.Identifier).Msg("origin added to its peer group")
	}
	return group, nil
}

func (r *Resolver) attributeColumn(attr Attribute) string {
	if attr == Secondary {
		return r.layout.SecondaryCategory
	}
	return r.layout.PrimaryCategory
}

func (r *Resolver) priority() corpus.FileFilter {
	if strings.TrimSpace(r.layout.PriorityCategory) == "" {
		return nil
	}
	return corpus.SectorFilter(r.layout.PriorityCategory, r.layout.SectorSeparator)
}

func (r *Resolver) company(t columns.Table, row []string, src *corpus.Source, sheet string, rowIdx int) Company {
	id := columns.Cell(row, t.Key)
	c := Company{
		Identifier: id,
		Source:     src.Path,
		Sheet:      sheet,
		Row:        rowIdx,
	}
	c.DisplayName = r.displayName(t, row, id)
	if col := t.Column(r.layout.PrimaryCategory); col >= 0 {
		c.CategoryPrimary = columns.Cell(row, col)
	}
	if col := t.Column(r.layout.SecondaryCategory); col >= 0 {
		c.CategorySecondary = columns.Cell(row, col)
	}
	return c
}

func (r *Resolver) displayName(t columns.Table, row []string, id string) string {
	for _, name := range []string{r.layout.PrimaryName, r.layout.SecondaryName} {
		col := t.Column(name)
		if col < 0 {
			continue
		}
		if v := columns.Cell(row, col); utf8.RuneCountInString(v) > r.matching.MaxShortNameLen {
			return v
		}
	}
	return config.DefaultPlaceholderName + id
}

func foldName(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}
