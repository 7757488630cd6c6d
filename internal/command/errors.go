package command

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for command validation.
var (
	// ErrUnknownCommand indicates a leading token that is not a cron
	// operation.
	ErrUnknownCommand = errors.New("command: unknown operation")

	// ErrTooShort indicates an operation with fewer tokens than it needs.
	ErrTooShort = errors.New("command: insufficient command length")
)

// LengthError reports an operation with too few tokens.
type LengthError struct {
	Op   Op
	Want int
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("Insufficient command length for %s: want at least %d tokens, got %d. See 'cron help' for instructions.",
		e.Op, e.Want, e.Got)
}

// Is makes errors.Is(err, ErrTooShort) hold.
func (e *LengthError) Is(target error) bool { return target == ErrTooShort }

// ValidationError aggregates every violation found in one command. Its
// message is the newline-joined list of violations.
type ValidationError struct {
	Violations []error
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages(), "\n")
}

// Unwrap exposes the violations to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error { return e.Violations }

// Messages returns each violation's text.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Error()
	}
	return out
}

// Messages splits err into user-facing lines: the violations of a
// ValidationError, or the single error text otherwise.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Messages()
	}
	return []string{err.Error()}
}
