package action

import (
	"errors"
	"fmt"
)

// Sentinel errors for the action catalog.
var (
	// ErrUnknownAction indicates a name or alias that resolves to no action.
	ErrUnknownAction = errors.New("action: unknown command")

	// ErrDuplicateAction indicates a name or alias is already registered.
	ErrDuplicateAction = errors.New("action: name already registered")
)

// InvocationError reports a failed action invocation. It never changes a
// job's state; the scheduler only logs and counts it.
type InvocationError struct {
	Command string
	Err     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("action %s failed: %v", e.Command, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
