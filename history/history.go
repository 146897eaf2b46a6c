// Package history keeps the most recent distinct search terms
package history

import (
	"fmt"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
)

// DefaultSize is the number of terms kept when no size is configured
const DefaultSize = 10

// History is a bounded, de-duplicated list of search terms, most recent
// first. Recording a term again moves it to the front. Safe for concurrent use.
type History struct {
	terms *lru.Cache[string, struct{}]
}

// New creates a history holding at most size terms
func New(size int) (*History, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid history size %d", size)
	}
	c, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	return &History{terms: c}, nil
}

// Record stores the trimmed, case-folded term; blank terms are ignored.
// Folding matches the one used for search matching.
func (h *History) Record(term string) {
	term = cases.Fold().String(strings.TrimSpace(term))
	if term == "" {
		return
	}
	h.terms.Add(term, struct{}{})
}

// Recent returns the stored terms, most recent first
func (h *History) Recent() []string {
	keys := h.terms.Keys()
	slices.Reverse(keys)
	return keys
}

// Clear forgets every term
func (h *History) Clear() {
	h.terms.Purge()
}
