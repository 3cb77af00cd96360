package ledger

import (
	"errors"
	"fmt"
)

// The ledger's error taxonomy. Every failure crossing the API boundary
// matches exactly one of these kinds via errors.Is; raw store errors never
// escape. None of them is retried by the engine — retry, if any, belongs to
// the caller.
var (
	// ErrNotFound reports an unknown task or member.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateAssignment reports an assign call for a (family, task,
	// member) key that already has an active assignment.
	ErrDuplicateAssignment = errors.New("task already assigned to this member")

	// ErrNotAssigned reports a completion with no matching active assignment.
	ErrNotAssigned = errors.New("no active assignment")

	// ErrTransientStore wraps connectivity and timeout failures surfaced by
	// the backing store.
	ErrTransientStore = errors.New("store unavailable")

	// ErrDataIntegrity reports a task catalog that is still broken after the
	// single self-healing reseed attempt.
	ErrDataIntegrity = errors.New("task catalog integrity failure")
)

// transient maps a store failure to the transient kind, keeping the cause in
// the chain.
func transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransientStore, err)
}
