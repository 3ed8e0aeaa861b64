package columns

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"github.com/vinodismyname/peerxcel/config"
)

// Strategy returns the first column at or after from that matches field.
type Strategy func(cols []string, from int, field string) (int, bool)

// identifierShape matches ticker-like codes such as "RL" or "RL.N".
var identifierShape = regexp.MustCompile(`^[A-Z0-9]{1,6}(\.[A-Z]{1,4})?$`)

// Normalize lower-cases s, folds diacritics to ASCII and drops whitespace.
func Normalize(s string) string {
	s = unidecode.Unidecode(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Exact matches a column whose name is byte-identical to field.
func Exact(cols []string, from int, field string) (int, bool) {
	return firstMatch(cols, from, func(c string) bool { return c == field })
}

// Folded matches a column equal to field after trimming, ignoring case.
func Folded(cols []string, from int, field string) (int, bool) {
	want := strings.TrimSpace(field)
	if want == "" {
		return 0, false
	}
	return firstMatch(cols, from, func(c string) bool { return strings.EqualFold(strings.TrimSpace(c), want) })
}

// Substring matches a column where either Normalize form contains the
// other. Placeholder columns never match.
func Substring(cols []string, from int, field string) (int, bool) {
	want := Normalize(field)
	if want == "" {
		return 0, false
	}
	return firstMatch(cols, from, func(c string) bool {
		if IsPlaceholder(c) {
			return false
		}
		have := Normalize(c)
		return have != "" && (strings.Contains(have, want) || strings.Contains(want, have))
	})
}

// DefaultStrategies is the match order used by Resolver.Lookup.
var DefaultStrategies = []Strategy{Exact, Folded, Substring}

// Resolver maps requested fields to usable cell values.
type Resolver struct {
	sentinels map[string]struct{}
}

// NewResolver builds a Resolver; nil sentinels fall back to the defaults.
func NewResolver(sentinels []string) *Resolver {
	if sentinels == nil {
		sentinels = config.DefaultSentinels
	}
	set := make(map[string]struct{}, len(sentinels))
	for _, s := range sentinels {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return &Resolver{sentinels: set}
}

// IsSentinel reports whether value is a known "no data" marker.
func (r *Resolver) IsSentinel(value string) bool {
	_, ok := r.sentinels[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// Accept reports whether value is usable as a metric for identifier. Blank
// cells, sentinels and echoes of the identifier (or its root before the
// dot) are rejected.
func (r *Resolver) Accept(value, identifier string) bool {
	v := strings.TrimSpace(value)
	if v == "" || r.IsSentinel(v) {
		return false
	}
	if identifierShape.MatchString(v) && identifier != "" {
		id := strings.ToUpper(strings.TrimSpace(identifier))
		root, _, _ := strings.Cut(id, ".")
		if v == id || v == root {
			return false
		}
	}
	return true
}

// Lookup returns the first acceptable value for field in row. Strategies run
// in order; a matching column with a rejected cell moves the search to the
// next matching column.
func (r *Resolver) Lookup(cols []string, row []string, field, identifier string) (string, bool) {
	if strings.TrimSpace(field) == "" {
		return "", false
	}
	tried := make(map[int]bool)
	for _, match := range DefaultStrategies {
		for from := 0; from < len(cols); {
			idx, ok := match(cols, from, field)
			if !ok {
				break
			}
			from = idx + 1
			if tried[idx] {
				continue
			}
			tried[idx] = true
			if v := Cell(row, idx); r.Accept(v, identifier) {
				return v, true
			}
		}
	}
	return "", false
}

func firstMatch(cols []string, from int, pred func(string) bool) (int, bool) {
	for i := max(from, 0); i < len(cols); i++ {
		if pred(cols[i]) {
			return i, true
		}
	}
	return 0, false
}
