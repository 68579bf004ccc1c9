package ecl

import "errors"

// ErrCancelled is returned by Eval when the caller's context is done before
// (or during) evaluation. No partial result is ever returned alongside it.
var ErrCancelled = errors.New("ecl: evaluation cancelled")

// ErrUnsupportedComparator is returned for a Refinement whose Op is anything
// other than "=" or empty (which is treated as "="); "=" is the only
// comparator the evaluator supports.
var ErrUnsupportedComparator = errors.New("ecl: unsupported refinement comparator")

// ErrUnknownNode is returned when Eval encounters a Node implementation it
// does not recognise.
var ErrUnknownNode = errors.New("ecl: unknown node type")
