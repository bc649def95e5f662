package fusion

import (
	"errors"
	"fmt"

	"github.com/born-ml/fusion/internal/ir"
)

// Lookup errors returned by Context and HandleContainer.
var (
	ErrTensorNotFound = errors.New("tensor not registered in context")
	ErrHandleNotFound = errors.New("no handle registered for tensor")
	ErrHandleNotInit  = errors.New("tensor handle is not initialized")
)

// ResolveError reports a failed context lookup.
//
// Registered inputs are guaranteed to be present in the context, so the input
// planner treats a ResolveError as a broken upstream invariant and panics with
// it. Trace.PlanInputs recovers it into a returned error.
type ResolveError struct {
	ID     ir.TensorID     // Identity that was looked up
	Status ir.TensorStatus // Requested access mode
	Err    error           // One of the Err* sentinels
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve tensor %s as %s: %v", e.ID, e.Status, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *ResolveError) Unwrap() error {
	return e.Err
}
