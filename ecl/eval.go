package ecl

import (
	"context"
	"fmt"
	"time"

	"github.com/wardle/snomed-terminology/snomed"
	"github.com/wardle/snomed-terminology/store"
)

// maxDepth bounds how deeply eval recurses into nested AST nodes, and
// maxIterations bounds how many base concepts one Refinement probes; going
// past either is reported as an error rather than left to run. Neither caps
// the store's BFS fallback used by GetAncestors/GetDescendants when no
// closure is attached.
const (
	maxDepth      = 1024
	maxIterations = 10_000_000
)

// cancelCheckInterval is how often a long refinement probe loop re-checks
// ctx, per spec's "cancellation checked at every combinator boundary and
// every 10,000 probes" requirement.
const cancelCheckInterval = 10_000

// conceptSet is the evaluator's internal working representation: plain,
// since combinators need ordinary set algebra (intersection/union/diff)
// rather than the compressed bitmap representation closure.Closure uses
// internally for storage.
type conceptSet map[snomed.Identifier]struct{}

func (c conceptSet) add(id snomed.Identifier) { c[id] = struct{}{} }

func fromStoreSet(s store.Set) conceptSet {
	out := make(conceptSet, s.Len())
	s.Each(func(id snomed.Identifier) { out.add(id) })
	return out
}

// Result is the outcome of evaluating an ECL expression.
type Result struct {
	IDs           []snomed.Identifier
	TotalCount    int
	Truncated     bool
	ExecutionTime time.Duration
}

// Evaluator evaluates ECL ASTs against a read-only Store (expected to be in
// the Serving phase, though nothing here enforces that directly).
type Evaluator struct {
	Store *store.Store
}

// NewEvaluator constructs an Evaluator bound to s.
func NewEvaluator(s *store.Store) *Evaluator {
	return &Evaluator{Store: s}
}

// Eval evaluates root and returns at most limit ids (0 means unlimited).
// TotalCount always reflects the full matching set size even when Truncated.
// On cancellation or error, Result is the zero value: no partial result is
// ever returned alongside an error.
func (e *Evaluator) Eval(ctx context.Context, root Node, limit int) (Result, error) {
	start := time.Now()
	set, err := e.eval(ctx, root, 0)
	if err != nil {
		return Result{}, err
	}
	total := len(set)
	ids := make([]snomed.Identifier, 0, total)
	for id := range set {
		ids = append(ids, id)
	}
	truncated := false
	if limit > 0 && total > limit {
		ids = ids[:limit]
		truncated = true
	}
	return Result{IDs: ids, TotalCount: total, Truncated: truncated, ExecutionTime: time.Since(start)}, nil
}

// Matches reports whether id is a member of root's evaluated set. It
// evaluates the full set as Eval does, but builds no id slice.
func (e *Evaluator) Matches(ctx context.Context, root Node, id snomed.Identifier) (bool, error) {
	set, err := e.eval(ctx, root, 0)
	if err != nil {
		return false, err
	}
	_, ok := set[id]
	return ok, nil
}

func (e *Evaluator) eval(ctx context.Context, node Node, depth int) (conceptSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("ecl: expression nesting exceeds depth limit %d", maxDepth)
	}

	switch n := node.(type) {
	case Wildcard:
		// spec §4.5: Wildcard is all *active* concept ids.
		out := make(conceptSet)
		for _, id := range e.Store.AllConceptIDs() {
			if c, ok := e.Store.GetConcept(id); ok && c.Active {
				out.add(id)
			}
		}
		return out, nil

	case ConceptRef:
		// spec §4.5: {id} if active, else empty — an inactive or dangling
		// reference matches nothing.
		out := make(conceptSet)
		if c, ok := e.Store.GetConcept(n.ID); ok && c.Active {
			out.add(n.ID)
		}
		return out, nil

	case DescendantOf:
		return fromStoreSet(e.Store.GetDescendants(n.ID)), nil

	case DescendantOrSelf:
		out := fromStoreSet(e.Store.GetDescendants(n.ID))
		out.add(n.ID)
		return out, nil

	case AncestorOf:
		return fromStoreSet(e.Store.GetAncestors(n.ID)), nil

	case AncestorOrSelf:
		out := fromStoreSet(e.Store.GetAncestors(n.ID))
		out.add(n.ID)
		return out, nil

	case MemberOf:
		// spec §4.5: refsetMembers[refsetId] intersected with active concepts —
		// an inactive or dangling referenced component must not leak through.
		members := fromStoreSet(e.Store.GetRefsetMembers(n.RefsetID))
		out := make(conceptSet, len(members))
		for id := range members {
			if c, ok := e.Store.GetConcept(id); ok && c.Active {
				out.add(id)
			}
		}
		return out, nil

	case And:
		left, err := e.eval(ctx, n.Left, depth+1)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ctx, n.Right, depth+1)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		small, big := left, right
		if len(big) < len(small) {
			small, big = big, small
		}
		out := make(conceptSet, len(small))
		for id := range small {
			if _, ok := big[id]; ok {
				out.add(id)
			}
		}
		return out, nil

	case Or:
		left, err := e.eval(ctx, n.Left, depth+1)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ctx, n.Right, depth+1)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		out := make(conceptSet, len(left)+len(right))
		for id := range left {
			out.add(id)
		}
		for id := range right {
			out.add(id)
		}
		return out, nil

	case Minus:
		left, err := e.eval(ctx, n.Left, depth+1)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ctx, n.Right, depth+1)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		// Short-circuit: an empty right-hand side leaves left unchanged, so it
		// is returned without probing membership at all.
		if len(right) == 0 {
			return left, nil
		}
		out := make(conceptSet, len(left))
		for id := range left {
			if _, excluded := right[id]; !excluded {
				out.add(id)
			}
		}
		return out, nil

	case Refinement:
		if n.Op != "=" && n.Op != "" {
			return nil, ErrUnsupportedComparator
		}
		base, err := e.eval(ctx, n.Base, depth+1)
		if err != nil {
			return nil, err
		}
		value, err := e.eval(ctx, n.Value, depth+1)
		if err != nil {
			return nil, err
		}
		out := make(conceptSet)
		probes := 0
		for id := range base {
			probes++
			if probes%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, ErrCancelled
				}
			}
			if probes > maxIterations {
				return nil, fmt.Errorf("ecl: refinement exceeded iteration limit %d", maxIterations)
			}
			if e.hasMatchingAttribute(id, n.AttributeTypeID, value) {
				out.add(id)
			}
		}
		return out, nil

	case Grouped:
		return e.eval(ctx, n.Inner, depth+1)

	default:
		return nil, ErrUnknownNode
	}
}

// hasMatchingAttribute reports whether concept id carries at least one active
// relationship of type attrType whose destination is in value. Role groups
// (Open Question 4) are not consulted: a single Refinement node only ever
// tests one attribute constraint, so "the matching relationship" IS the
// group. The MRCM Grouped flag on attrType would only matter once two
// Refinement nodes had to land in the same group, which the grammar does
// not express, and it is not read here.
func (e *Evaluator) hasMatchingAttribute(id, attrType snomed.Identifier, value conceptSet) bool {
	for _, r := range e.Store.GetOutgoing(id) {
		if !r.Active || r.TypeID != attrType {
			continue
		}
		if _, ok := value[r.DestinationID]; ok {
			return true
		}
	}
	return false
}
