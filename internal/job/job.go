// Package job defines named cron jobs and the registry that owns them.
package job

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/flemzord/cronbot/internal/cron"
)

// MaxNameLen bounds job names.
const MaxNameLen = 64

// State is the lifecycle state of a job.
type State int

const (
	// Saved jobs are registered but have never been armed.
	Saved State = iota
	// Scheduled jobs are armed and fire on their pattern.
	Scheduled
	// Stopped jobs were armed once and have been disarmed.
	Stopped
)

func (s State) String() string {
	switch s {
	case Saved:
		return "saved"
	case Scheduled:
		return "scheduled"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	switch strings.ToLower(s) {
	case "saved":
		return Saved, nil
	case "scheduled":
		return Scheduled, nil
	case "stopped":
		return Stopped, nil
	default:
		return 0, fmt.Errorf("job: unknown state %q", s)
	}
}

// CanTransition reports whether from→to is an allowed edge.
func CanTransition(from, to State) bool {
	switch to {
	case Scheduled:
		return from == Saved || from == Stopped
	case Stopped:
		return from == Scheduled
	default:
		return false
	}
}

// Action is the command a job runs, resolved through the action catalog.
type Action struct {
	Command string
	Args    []string
}

func (a Action) String() string {
	if len(a.Args) == 0 {
		return a.Command
	}
	return a.Command + " " + strings.Join(a.Args, " ")
}

// Target is where a job's output is posted.
type Target struct {
	Channel string
	Chat    string
}

// Job is a named pattern bound to an action.
type Job struct {
	Name      string
	Pattern   cron.Pattern
	Action    Action
	Target    Target
	State     State
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// clone returns a copy that shares no slices with j.
func (j Job) clone() Job {
	j.Action.Args = slices.Clone(j.Action.Args)
	return j
}

// ValidateName checks that name is usable as a job key.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case len(name) > MaxNameLen:
		return fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalidName, name, MaxNameLen)
	case strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidName, name)
	}
	return nil
}
