package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates no corpus row matched the query.
	ErrNotFound = errors.New("entity: not found")
	// ErrInvalidQuery indicates a query that cannot be evaluated, such as a
	// name shorter than the minimum length.
	ErrInvalidQuery = errors.New("entity: invalid query")
)

// Attribute selects the categorical value peers are grouped by.
type Attribute int

const (
	Primary Attribute = iota
	Secondary
	Sector
)

func (a Attribute) String() string {
	switch a {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case Sector:
		return "sector"
	default:
		return fmt.Sprintf("attribute(%d)", int(a))
	}
}

// ParseAttribute maps "primary", "secondary" or "sector" to an Attribute.
func ParseAttribute(s string) (Attribute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "primary":
		return Primary, nil
	case "secondary":
		return Secondary, nil
	case "sector":
		return Sector, nil
	}
	return Primary, fmt.Errorf("%w: unknown attribute %q", ErrInvalidQuery, s)
}

// Company is one resolved corpus record.
type Company struct {
	Identifier        string `json:"identifier"`
	DisplayName       string `json:"display_name"`
	CategoryPrimary   string `json:"category_primary"`
	CategorySecondary string `json:"category_secondary"`

	// Provenance of the row the record was built from.
	Source string `json:"source,omitempty"`
	Sheet  string `json:"sheet,omitempty"`
	Row    int    `json:"row,omitempty"`
}

// Key is the case-insensitive identity of the company.
func (c Company) Key() string {
	return strings.ToUpper(strings.TrimSpace(c.Identifier))
}

// Category returns the categorical value of c for attr.
func (c Company) Category(attr Attribute, sep string) string {
	switch attr {
	case Secondary:
		return c.CategorySecondary
	case Sector:
		return SectorOf(c.CategoryPrimary, sep)
	default:
		return c.CategoryPrimary
	}
}

// SectorOf returns the top segment of a hierarchical category such as
// "Consumer Discretionary - Apparel".
func SectorOf(category, sep string) string {
	category = strings.TrimSpace(category)
	if sep == "" {
		return category
	}
	top, _, _ := strings.Cut(category, sep)
	return strings.TrimSpace(top)
}

// PeerGroup is a set of companies sharing one categorical value,
// deduplicated by identifier.
type PeerGroup struct {
	Value     string    `json:"value"`
	Attribute Attribute `json:"-"`
	Companies []Company `json:"companies"`

	seen map[string]struct{}
}

// NewPeerGroup returns an empty group for value.
func NewPeerGroup(value string, attr Attribute) *PeerGroup {
	return &PeerGroup{Value: value, Attribute: attr, seen: map[string]struct{}{}}
}

// Add appends c unless its identifier is blank or already present.
func (g *PeerGroup) Add(c Company) bool {
	key := c.Key()
	if key == "" {
		return false
	}
	if g.seen == nil {
		g.seen = make(map[string]struct{}, len(g.Companies))
		for _, existing := range g.Companies {
			g.seen[existing.Key()] = struct{}{}
		}
	}
	if _, dup := g.seen[key]; dup {
		return false
	}
	g.seen[key] = struct{}{}
	g.Companies = append(g.Companies, c)
	return true
}

// Ensure inserts origin when the scan did not discover it.
func (g *PeerGroup) Ensure(origin Company) bool {
	return g.Add(origin)
}

// Contains reports whether identifier is a member (case-insensitive).
func (g *PeerGroup) Contains(identifier string) bool {
	key := strings.ToUpper(strings.TrimSpace(identifier))
	for _, c := range g.Companies {
		if c.Key() == key {
			return true
		}
	}
	return false
}

// Identifiers lists member identifiers in insertion order.
func (g *PeerGroup) Identifiers() []string {
	ids := make([]string, len(g.Companies))
	for i, c := range g.Companies {
		ids[i] = c.Identifier
	}
	return ids
}

// Len returns the number of members.
func (g *PeerGroup) Len() int { return len(g.Companies) }
