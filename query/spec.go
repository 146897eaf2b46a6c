// Package query filters, sorts and paginates a snapshot of books.
//
// A Spec is built once at the transport boundary. Execute never fails for a
// Spec: unknown sort fields are dropped when the Spec is built and
// out-of-range pages produce an empty page.
package query

import "strings"

// Field is a sortable book attribute
type Field string

const (
	FieldTitle  Field = "title"
	FieldAuthor Field = "author"
	FieldRead   Field = "read"
)

// ParseField reports whether name is a sortable field
func ParseField(name string) (Field, bool) {
	switch f := Field(strings.ToLower(strings.TrimSpace(name))); f {
	case FieldTitle, FieldAuthor, FieldRead:
		return f, true
	default:
		return "", false
	}
}

// Direction of a sort key
type Direction int

const (
	Asc Direction = iota
	Desc
)

// ParseDirection maps "desc" (any case) to Desc and everything else to Asc
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// SortKey is one level of a composite ordering
type SortKey struct {
	Field     Field
	Direction Direction
}

// DefaultSort is used when no valid sort key was requested
var DefaultSort = []SortKey{{Field: FieldTitle, Direction: Asc}}

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Spec is the normalized query intent
type Spec struct {
	// Search is matched case-insensitively against title and author; empty matches all
	Search string
	// Read filters on the read flag when not nil
	Read    *bool
	Sort    []SortKey
	Page    int
	PerPage int
}

// ParseSortKeys pairs fields with orders. A single order applies to every
// field; otherwise orders pair by position and missing ones are ascending.
// Unknown fields are dropped, and when none survive DefaultSort is returned.
func ParseSortKeys(fields, orders []string) []SortKey {
	keys := make([]SortKey, 0, len(fields))
	for i, name := range fields {
		f, ok := ParseField(name)
		if !ok {
			continue
		}
		dir := Asc
		switch {
		case len(orders) == 1:
			dir = ParseDirection(orders[0])
		case i < len(orders):
			dir = ParseDirection(orders[i])
		}
		keys = append(keys, SortKey{Field: f, Direction: dir})
	}
	if len(keys) == 0 {
		return defaultSort()
	}
	return keys
}

// Normalize fills in defaults for zero or invalid values
func (s Spec) Normalize() Spec {
	if s.Page < 1 {
		s.Page = DefaultPage
	}
	if s.PerPage < 1 {
		s.PerPage = DefaultPerPage
	}
	if len(s.Sort) == 0 {
		s.Sort = defaultSort()
	}
	return s
}

func defaultSort() []SortKey {
	return append([]SortKey(nil), DefaultSort...)
}
