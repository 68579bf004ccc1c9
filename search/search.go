// Package search provides a pluggable term index for concept lookup by free
// text. The default implementation is a plain substring scan with no ranking
// contract beyond first-match-wins ordering; search.BleveIndex is an
// optional, richer alternative for callers that want proper relevance
// ranking (see bleve.go).
package search

import (
	"strings"
	"sync"

	"github.com/wardle/snomed-terminology/snomed"
)

// Hit is one matched concept, with every description term of its that matched.
type Hit struct {
	ConceptID snomed.Identifier
	Terms     []string
}

// Index is the term-search surface the terminology facade depends on.
// Implementations are populated during loading (one Put per description) and
// queried during serving; neither method is required to be safe for
// concurrent Put/Search mixing once the owning store has moved to Serving.
type Index interface {
	Put(d *snomed.Description) error
	Search(query string, limit int, activeOnly bool) ([]Hit, error)
	Close() error
}

type entry struct {
	conceptID snomed.Identifier
	term      string
	lower     string
	active    bool
}

// SubstringIndex is the default Index: a case-insensitive substring match
// over each description's term, with no ranking beyond "first limit matches
// in insertion order" — exactly spec's search contract.
type SubstringIndex struct {
	mu      sync.RWMutex
	entries []entry
}

// NewSubstringIndex returns an empty SubstringIndex.
func NewSubstringIndex() *SubstringIndex {
	return &SubstringIndex{}
}

// Put records one description for later substring matching.
func (idx *SubstringIndex) Put(d *snomed.Description) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = append(idx.entries, entry{
		conceptID: d.ConceptID,
		term:      d.Term,
		lower:     strings.ToLower(d.Term),
		active:    d.Active,
	})
	return nil
}

// Search returns at most limit concepts (0 = unlimited) whose term contains
// query case-insensitively, each carrying every matching term for that
// concept, in the order concepts were first encountered.
func (idx *SubstringIndex) Search(query string, limit int, activeOnly bool) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	q := strings.ToLower(query)
	order := make([]snomed.Identifier, 0)
	byConcept := make(map[snomed.Identifier]*Hit)
	for _, e := range idx.entries {
		if activeOnly && !e.active {
			continue
		}
		if !strings.Contains(e.lower, q) {
			continue
		}
		h, seen := byConcept[e.conceptID]
		if !seen {
			if limit > 0 && len(order) >= limit {
				continue
			}
			h = &Hit{ConceptID: e.conceptID}
			byConcept[e.conceptID] = h
			order = append(order, e.conceptID)
		}
		h.Terms = append(h.Terms, e.term)
	}
	hits := make([]Hit, len(order))
	for i, id := range order {
		hits[i] = *byConcept[id]
	}
	return hits, nil
}

// Close is a no-op for SubstringIndex; it owns no external resource.
func (idx *SubstringIndex) Close() error { return nil }
