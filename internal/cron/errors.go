package cron

import (
	"errors"
	"fmt"
)

// ErrUnsatisfiable is matched by every UnsatisfiableError.
var ErrUnsatisfiable = errors.New("cron: pattern never matches")

// AllowedChars lists the characters a pattern field may contain.
const AllowedChars = "0-9,*-/"

// FieldCountError reports a pattern that does not have exactly six fields.
type FieldCountError struct {
	Got int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("expected %d pattern fields, got %d", NumFields, e.Got)
}

// SyntaxError reports a field containing a character outside AllowedChars.
// Position is 1-based.
type SyntaxError struct {
	Position int
	Field    Field
	Token    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Position %d (%s): %s not accepted. Use: %s", e.Position, e.Field, e.Token, AllowedChars)
}

// RangeError reports a syntactically valid field whose values are out of
// bounds or otherwise malformed.
type RangeError struct {
	Field  Field
	Token  string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// UnsatisfiableError reports a pattern with no occurrence within the
// search horizon, such as the 30th of February.
type UnsatisfiableError struct {
	Pattern string
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("cron: pattern %q has no occurrence within %d years", e.Pattern, horizonYears)
}

// Is makes errors.Is(err, ErrUnsatisfiable) hold.
func (e *UnsatisfiableError) Is(target error) bool {
	return target == ErrUnsatisfiable
}
