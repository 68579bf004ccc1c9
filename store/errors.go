package store

import "fmt"

// ErrAlreadyServing is returned by Insert* methods and Load once the store has
// transitioned to the Serving phase. The transition is one-way: a Store that
// has been published for serving never accepts further mutation.
var ErrAlreadyServing = fmt.Errorf("store: already serving, no further mutation permitted")

// ErrNotServing is not returned by any Store method: GetAncestors,
// GetDescendants and IsDescendantOf fall back to a BFS instead of failing
// when no closure is attached. Callers that want the O(1) path can check
// Store.HasClosure first.
var ErrNotServing = fmt.Errorf("store: not yet serving")

// IntegrityError records a non-fatal structural issue discovered during
// loading: a cycle in the IS_A hierarchy, or a dangling reference from a
// description/relationship to a concept id never inserted. Integrity issues
// are logged and counted, never fatal, per the propagation policy for
// Integrity-class errors.
type IntegrityError struct {
	Kind   string // "cycle" or "dangling-reference"
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("store: integrity: %s: %s", e.Kind, e.Detail)
}
