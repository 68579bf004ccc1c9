// Package ecl evaluates a pre-built Expression Constraint Language AST
// against a store.Store, producing a set of concept ids. Grammar parsing
// (text to AST) is out of scope; callers construct a Node directly, whether
// by hand (as the literal builders below do, for tests and embedding) or
// via an external parser.
package ecl

import "github.com/wardle/snomed-terminology/snomed"

// Node is any ECL AST node the evaluator understands.
type Node interface {
	isNode()
}

// Wildcard denotes "*": every active concept.
type Wildcard struct{}

// ConceptRef denotes a single concept reference.
type ConceptRef struct {
	ID snomed.Identifier
}

// DescendantOf denotes "< id": strict descendants.
type DescendantOf struct {
	ID snomed.Identifier
}

// DescendantOrSelf denotes "<< id": descendants plus the concept itself.
type DescendantOrSelf struct {
	ID snomed.Identifier
}

// AncestorOf denotes "> id": strict ancestors.
type AncestorOf struct {
	ID snomed.Identifier
}

// AncestorOrSelf denotes ">> id": ancestors plus the concept itself.
type AncestorOrSelf struct {
	ID snomed.Identifier
}

// MemberOf denotes "^ refsetId": concepts in refsetId's membership.
type MemberOf struct {
	RefsetID snomed.Identifier
}

// And denotes set intersection.
type And struct {
	Left, Right Node
}

// Or denotes set union.
type Or struct {
	Left, Right Node
}

// Minus denotes set difference Left \ Right.
type Minus struct {
	Left, Right Node
}

// Refinement filters Base to concepts with at least one active relationship
// of type AttributeTypeID whose destination is in Value's evaluated set.
// Op is carried for forward-compatibility with comparators beyond "="; the
// evaluator treats an empty Op as "=" and rejects any other value with
// ErrUnsupportedComparator.
type Refinement struct {
	Base            Node
	AttributeTypeID snomed.Identifier
	Op              string
	Value           Node
}

// Grouped wraps an expression for operator-precedence grouping; it is a
// pure syntax-level pass-through with no evaluation semantics of its own.
type Grouped struct {
	Inner Node
}

func (Wildcard) isNode()         {}
func (ConceptRef) isNode()       {}
func (DescendantOf) isNode()     {}
func (DescendantOrSelf) isNode() {}
func (AncestorOf) isNode()       {}
func (AncestorOrSelf) isNode()   {}
func (MemberOf) isNode()         {}
func (And) isNode()              {}
func (Or) isNode()                {}
func (Minus) isNode()            {}
func (Refinement) isNode()       {}
func (Grouped) isNode()          {}
