package metrics

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"github.com/vinodismyname/peerxcel/internal/columns"
)

// Provider supplies metric values for many identifiers at once, such as a
// market-data service. Values it returns are aggregated like corpus values.
type Provider interface {
	Fetch(ctx context.Context, ids, fields []string) (map[string]Values, error)
}

// CorpusProvider serves Fetch from an Extractor.
type CorpusProvider struct {
	Extractor *Extractor
}

// Fetch implements Provider.
func (p CorpusProvider) Fetch(ctx context.Context, ids, fields []string) (map[string]Values, error) {
	return p.Extractor.ExtractAll(ctx, ids, fields)
}

// StaticProvider serves values from memory. Identifier lookup is
// case-insensitive.
type StaticProvider map[string]Values

// Fetch implements Provider.
func (p StaticProvider) Fetch(_ context.Context, ids, fields []string) (map[string]Values, error) {
	byKey := make(map[string]Values, len(p))
	for id, vals := range p {
		byKey[strings.ToUpper(strings.TrimSpace(id))] = vals
	}
	out := make(map[string]Values, len(ids))
	for _, id := range ids {
		src, ok := byKey[strings.ToUpper(strings.TrimSpace(id))]
		if !ok {
			continue
		}
		vals := make(Values, len(fields))
		for _, f := range fields {
			if v, ok := src[f]; ok {
				vals[f] = v
			}
		}
		out[id] = vals
	}
	return out, nil
}

// LoadStaticProvider reads a YAML document mapping identifier to field code
// to value, for offline runs without a market-data service:
//
//	RL.N:
//	  TR.PriceClose: "101.5"
func LoadStaticProvider(path string) (StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metrics: read provider file: %w", err)
	}
	p := StaticProvider{}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("metrics: parse provider file %q: %w", path, err)
	}
	return p, nil
}

// SafeFetch calls p and turns a failure into an empty result. Blank and
// sentinel values are dropped using filter (defaults when nil).
func SafeFetch(ctx context.Context, p Provider, ids, fields []string, filter *columns.Resolver, logger zerolog.Logger) map[string]Values {
	if p == nil || len(ids) == 0 || len(fields) == 0 {
		return map[string]Values{}
	}
	if filter == nil {
		filter = columns.NewResolver(nil)
	}
	got, err := p.Fetch(ctx, ids, fields)
	if err != nil {
		logger.Warn().Err(err).Int("identifiers", len(ids)).Strs("fields", fields).Msg("metric provider failed; continuing without provider values")
		return map[string]Values{}
	}
	out := make(map[string]Values, len(got))
	for id, vals := range got {
		clean := make(Values, len(vals))
		for f, v := range vals {
			if filter.Accept(string(v), id) {
				clean[f] = Value(strings.TrimSpace(string(v)))
			}
		}
		out[id] = clean
	}
	return out
}
