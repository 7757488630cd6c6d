package job

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrDuplicateName indicates a job with the same name already exists.
	ErrDuplicateName = errors.New("job: name already in use")

	// ErrNotFound indicates no job is registered under the name.
	ErrNotFound = errors.New("job: not found")

	// ErrInvalidTransition indicates a state change outside the allowed
	// edges Saved→Scheduled, Stopped→Scheduled and Scheduled→Stopped.
	ErrInvalidTransition = errors.New("job: invalid state transition")

	// ErrInvalidName indicates an empty, overlong or whitespace-containing name.
	ErrInvalidName = errors.New("job: invalid name")
)
