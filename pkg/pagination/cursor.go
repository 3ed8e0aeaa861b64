package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cursor is the opaque token (pre-encoding) for paging a peer group, with
// short field names to keep the payload small. It is serialized to minified
// JSON and encoded with URL-safe base64.
//
// Fields:
//   - v:   version of the cursor schema
//   - q:   categorical value the group was built for
//   - a:   attribute name ("primary", "secondary" or "sector")
//   - o:   origin identifier kept in the group, if any
//   - off: offset of the next member
//   - ps:  page size
//   - n:   group size when the cursor was issued
//   - iat: issued-at timestamp (unix seconds)
type Cursor struct {
	V   int    `json:"v"`
	Q   string `json:"q"`
	A   string `json:"a"`
	O   string `json:"o,omitempty"`
	Off int    `json:"off"`
	Ps  int    `json:"ps"`
	N   int    `json:"n"`
	Iat int64  `json:"iat"`
}

// EncodeCursor serializes and encodes the cursor as URL-safe base64 (without padding).
func EncodeCursor(c Cursor) (string, error) {
	if err := validate(&c); err != nil {
		return "", err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor decodes a URL-safe base64 token and parses the JSON cursor.
func DecodeCursor(token string) (*Cursor, error) {
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, errors.New("cursor: empty token")
	}
	data, err := base64.RawURLEncoding.DecodeString(t)
	if err != nil {
		return nil, fmt.Errorf("cursor: invalid base64: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cursor: invalid json: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// validate performs structural checks and defaulting.
func validate(c *Cursor) error {
	if c.V <= 0 {
		c.V = 1
	}
	if c.Iat == 0 {
		c.Iat = time.Now().Unix()
	}
	if strings.TrimSpace(c.Q) == "" {
		return errors.New("cursor: q (category) required")
	}
	switch c.A {
	case "primary", "secondary", "sector":
	default:
		return fmt.Errorf("cursor: invalid attribute %q", c.A)
	}
	if c.Off < 0 {
		return errors.New("cursor: off must be >= 0")
	}
	if c.Ps <= 0 {
		return errors.New("cursor: ps must be > 0")
	}
	if c.N < 0 {
		c.N = 0
	}
	return nil
}

// Page returns the [start, end) bounds of the page at off within total
// items, and whether more items follow.
func Page(total, off, size int) (start, end int, more bool) {
	start = min(max(off, 0), total)
	end = total
	if size > 0 {
		end = min(start+size, total)
	}
	return start, end, end < total
}

// NextOffset computes the next offset after returning n units.
func NextOffset(curr, n int) int {
	if curr < 0 {
		curr = 0
	}
	if n <= 0 {
		return curr
	}
	return curr + n
}
