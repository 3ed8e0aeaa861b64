package metrics

import (
	"math"
	"strconv"
	"strings"
)

// Value is a resolved metric cell. Sentinels never reach a Value.
type Value string

// Values maps field names to resolved values. Missing fields are absent.
type Values map[string]Value

func (v Value) String() string { return string(v) }

// Float returns the numeric view of v. Thousands separators, currency
// symbols and surrounding space are ignored; a trailing "%" divides by 100.
func (v Value) Float() (float64, bool) {
	return parseFloatStrict(string(v))
}

func parseFloatStrict(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	// Strip common formatting
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', '€', '£', ' ', '\u00a0':
			return -1
		default:
			return r
		}
	}, s)
	clean = strings.TrimSpace(clean)
	scale := 1.0
	if strings.HasSuffix(clean, "%") {
		clean = strings.TrimSuffix(clean, "%")
		scale = 100
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f / scale, true
}

// NormalizeFields trims names, drops blanks and removes duplicates while
// keeping the first occurrence order.
func NormalizeFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// ProviderCodes prefixes each field with tag unless it already carries it
// (case-insensitive). An empty tag leaves fields unchanged.
func ProviderCodes(fields []string, tag string) []string {
	fields = NormalizeFields(fields)
	if tag == "" {
		return fields
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		if len(f) >= len(tag) && strings.EqualFold(f[:len(tag)], tag) {
			out[i] = f
		} else {
			out[i] = tag + f
		}
	}
	return out
}

// Label strips tag from a provider field code for display.
func Label(code, tag string) string {
	if tag != "" && len(code) >= len(tag) && strings.EqualFold(code[:len(tag)], tag) {
		return code[len(tag):]
	}
	return code
}
