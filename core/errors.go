package core

import (
	"errors"
	"fmt"
)

// Error causes reported by the scheduler. Every error returned from a public
// operation wraps exactly one of these and can be matched with errors.Is.
var (
	// ErrSchedulerInit means the scheduler could not be initialized.
	ErrSchedulerInit = errors.New("scheduler not initializable")

	// ErrFiberAlloc means no fiber slot could be obtained.
	ErrFiberAlloc = errors.New("fiber object allocation failed")

	// ErrStackAlloc means the stack region could not be allocated.
	ErrStackAlloc = errors.New("stack allocation failed")

	// ErrContextBuild means the execution context could not be allocated or armed.
	ErrContextBuild = errors.New("context build failed")

	// ErrNoFiber means there is no fiber to start.
	ErrNoFiber = errors.New("no fiber available")

	// ErrContextMissing means the fiber has no built execution context.
	ErrContextMissing = errors.New("context missing")

	// ErrInvalidSwitch means a switch or lifecycle call was made from the wrong place.
	ErrInvalidSwitch = errors.New("invalid switch")
)

// FiberError records a failed scheduler operation.
type FiberError struct {
	Op      string
	FiberID int64
	Err     error
}

func (e *FiberError) Error() string {
	if e.FiberID != 0 {
		return fmt.Sprintf("fiber %s (id %d): %v", e.Op, e.FiberID, e.Err)
	}
	return fmt.Sprintf("fiber %s: %v", e.Op, e.Err)
}

func (e *FiberError) Unwrap() error {
	return e.Err
}

func opError(op string, id int64, err error) error {
	return &FiberError{Op: op, FiberID: id, Err: err}
}
