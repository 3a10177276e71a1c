package resolve

import (
	"errors"
	"fmt"
)

// Sentinel errors for precondition violations (spec §7.1). These are bugs in
// the caller, not transient conditions, and are never retried by this
// package.
var (
	ErrHandOutOfRange     = errors.New("resolve: hand index out of range")
	ErrRangeNotNormalized = errors.New("resolve: range does not sum to 1")
	ErrIterationBudget    = errors.New("resolve: cfr_skip_iters must be less than cfr_iters")
	ErrShapeMismatch      = errors.New("resolve: tensor shape mismatch")
	ErrInvalidBoard       = errors.New("resolve: board has duplicate or out-of-range cards")
	ErrNoValidAction      = errors.New("resolve: no legal action available at node")
)

// ErrOracleFailure wraps a transient failure from the value oracle (spec
// §7.3). Unlike the sentinels above, this is expected to be handled by the
// caller (retry, fall back, abort a data-generation run) rather than treated
// as a programmer error.
type ErrOracleFailure struct {
	Depth int
	Board []Card
	Err   error
}

func (e *ErrOracleFailure) Error() string {
	return fmt.Sprintf("resolve: value oracle failed at depth %d (board %v): %v", e.Depth, e.Board, e.Err)
}

func (e *ErrOracleFailure) Unwrap() error { return e.Err }
