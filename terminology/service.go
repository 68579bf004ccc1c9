// Package terminology provides Svc, the facade that wires rf2 discovery and
// parsing, the in-memory store, the transitive closure and the ECL evaluator
// into the single query surface spec.md §6 describes, plus free-text search.
package terminology

import (
	"context"

	"golang.org/x/text/language"

	"github.com/wardle/snomed-terminology/ecl"
	"github.com/wardle/snomed-terminology/search"
	"github.com/wardle/snomed-terminology/snomed"
	"github.com/wardle/snomed-terminology/store"
)

// Svc is the terminology engine's public facade. It is safe for concurrent
// use once built: the wrapped Store is immutable in the Serving phase, and
// search.Index implementations are read-only at that point too.
type Svc struct {
	Store   *store.Store
	Eval    *ecl.Evaluator
	Index   search.Index
	Matcher language.Matcher
}

// NewService builds a Svc over an already-loaded, frozen store and a search
// index populated from the same load. Callers typically build s and idx
// together during loading (store.Loader plus one search.Index.Put call per
// description), then hand both here once s.Freeze() has been called.
func NewService(s *store.Store, idx search.Index) *Svc {
	svc := &Svc{Store: s, Eval: ecl.NewEvaluator(s), Index: idx}
	svc.Matcher = newMatcher(svc)
	return svc
}

// GetConcept returns a concept plus its descriptions, or ErrNotFound.
func (svc *Svc) GetConcept(id snomed.Identifier) (*snomed.Concept, []*snomed.Description, error) {
	c, ok := svc.Store.GetConcept(id)
	if !ok {
		return nil, nil, ErrNotFound
	}
	return c, svc.Store.GetDescriptions(id), nil
}

// GetParents returns the direct IS_A parents of id.
func (svc *Svc) GetParents(id snomed.Identifier) []snomed.Identifier {
	return toSlice(svc.Store.GetParents(id))
}

// GetChildren returns the direct IS_A children of id.
func (svc *Svc) GetChildren(id snomed.Identifier) []snomed.Identifier {
	return toSlice(svc.Store.GetChildren(id))
}

// IsDescendantOf reports whether id is a (possibly indirect) descendant of ancestorID.
func (svc *Svc) IsDescendantOf(id, ancestorID snomed.Identifier) bool {
	return svc.Store.IsDescendantOf(id, ancestorID)
}

// GetDescendants returns id's descendants, optionally including id itself,
// truncated to limit (0 = unlimited). Ordering is unspecified.
func (svc *Svc) GetDescendants(id snomed.Identifier, limit int, includeSelf bool) []snomed.Identifier {
	return withSelfAndLimit(svc.Store.GetDescendants(id), id, limit, includeSelf)
}

// GetAncestors returns id's ancestors, symmetric to GetDescendants.
func (svc *Svc) GetAncestors(id snomed.Identifier, limit int, includeSelf bool) []snomed.Identifier {
	return withSelfAndLimit(svc.Store.GetAncestors(id), id, limit, includeSelf)
}

// Search runs a free-text query over indexed description terms.
func (svc *Svc) Search(query string, limit int, activeOnly bool) ([]search.Hit, error) {
	return svc.Index.Search(query, limit, activeOnly)
}

// ExecuteECL evaluates an ECL expression tree, returning the matching concept
// ids up to limit (0 = unlimited) plus the full cardinality. includeDetails
// is accepted for query-surface parity with spec.md §6 but carries no extra
// payload today: a Refinement match is inherently a single relationship
// record, so there is no group/attribute detail beyond set membership to surface.
func (svc *Svc) ExecuteECL(ctx context.Context, root ecl.Node, limit int, includeDetails bool) (ecl.Result, error) {
	return svc.Eval.Eval(ctx, root, limit)
}

// MatchesECL reports whether id is a member of root's evaluated set.
func (svc *Svc) MatchesECL(ctx context.Context, id snomed.Identifier, root ecl.Node) (bool, error) {
	return svc.Eval.Matches(ctx, root, id)
}

// GetPreferredTerm returns the best description for id given a requested
// language: the first active synonym in that language, falling back to
// Store.GetPreferredTerm (the first active synonym in any language, then the
// FSN; Open Question 3) if no synonym matches the requested language's base tag.
func (svc *Svc) GetPreferredTerm(id snomed.Identifier, lang Language) (*snomed.Description, bool) {
	wantBase, _ := lang.Tag().Base()
	for _, d := range svc.Store.GetDescriptions(id) {
		if !d.Active || !d.IsSynonym() {
			continue
		}
		if base, _ := d.LanguageTag().Base(); base == wantBase {
			return d, true
		}
	}
	return svc.Store.GetPreferredTerm(id)
}

// Statistics summarizes the underlying store's record counts and integrity signals.
func (svc *Svc) Statistics() store.Statistics {
	return svc.Store.Statistics()
}

// Close releases the search index's resources (a no-op for SubstringIndex, a
// file handle close for BleveIndex).
func (svc *Svc) Close() error {
	return svc.Index.Close()
}

func toSlice(s store.Set) []snomed.Identifier {
	out := make([]snomed.Identifier, 0, s.Len())
	s.Each(func(id snomed.Identifier) { out = append(out, id) })
	return out
}

func withSelfAndLimit(s store.Set, self snomed.Identifier, limit int, includeSelf bool) []snomed.Identifier {
	out := make([]snomed.Identifier, 0, s.Len()+1)
	if includeSelf {
		out = append(out, self)
	}
	s.Each(func(id snomed.Identifier) { out = append(out, id) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
