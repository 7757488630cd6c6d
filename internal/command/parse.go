package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/flemzord/cronbot/internal/action"
	"github.com/flemzord/cronbot/internal/cron"
	"github.com/flemzord/cronbot/internal/job"
)

// Parse validates args, the tokens after "cron", without changing any
// state. Every violation found is collected into a *ValidationError.
// An empty command is treated as help.
func (in *Interpreter) Parse(args []string) (Operation, error) {
	if len(args) == 0 {
		return Operation{Op: OpHelp}, nil
	}

	switch op := Op(strings.ToLower(args[0])); op {
	case OpJob, OpTest, OpSave:
		return in.parsePattern(op, args)
	case OpLoad, OpStop, OpDelete:
		return in.parseName(op, args)
	case OpList, OpHelp:
		return Operation{Op: op}, nil
	default:
		return Operation{}, &ValidationError{Violations: []error{
			fmt.Errorf("%w: %s is not a cron function. See 'cron help' for instructions", ErrUnknownCommand, args[0]),
		}}
	}
}

// parsePattern validates "<op> <name> <6 fields> <command> [args...]".
// Checks run in a fixed order: length, command, name, field syntax,
// field range, satisfiability.
func (in *Interpreter) parsePattern(op Op, args []string) (Operation, error) {
	var violations []error

	if len(args) < minPatternTokens {
		violations = append(violations, &LengthError{Op: op, Want: minPatternTokens, Got: len(args)})
	}

	var command string
	if len(args) >= minPatternTokens {
		command = args[minPatternTokens-1]
		if _, ok := in.commands.Resolve(command); !ok {
			violations = append(violations,
				fmt.Errorf("%w: %s is not a known command or command alias", action.ErrUnknownAction, command))
		}
	}

	var name string
	if len(args) >= 2 {
		name = args[1]
		if err := job.ValidateName(name); err != nil {
			violations = append(violations, err)
		} else if op != OpTest && in.registry.Has(name) {
			violations = append(violations, fmt.Errorf("%w: %s", job.ErrDuplicateName, name))
		}
	}

	var (
		fields  []string
		pattern cron.Pattern
	)
	if len(args) >= 2+cron.NumFields {
		fields = slices.Clone(args[2 : 2+cron.NumFields])
		errs := cron.ValidateFields(fields)
		violations = append(violations, syntaxFirst(errs)...)
		if len(errs) == 0 {
			pattern, _ = cron.ParseFields(fields)
			if err := in.satisfiable(pattern); err != nil {
				violations = append(violations, err)
			}
		}
	}

	if len(violations) > 0 {
		return Operation{}, &ValidationError{Violations: violations}
	}
	return Operation{
		Op:      op,
		Name:    name,
		Fields:  fields,
		Pattern: pattern,
		Action:  job.Action{Command: command, Args: slices.Clone(args[minPatternTokens:])},
	}, nil
}

// parseName validates "<op> <name>". Extra tokens are ignored. Whether a
// load target exists is decided at execution, since it may live only in
// the store.
func (in *Interpreter) parseName(op Op, args []string) (Operation, error) {
	if len(args) < minNameTokens {
		return Operation{}, &ValidationError{Violations: []error{
			&LengthError{Op: op, Want: minNameTokens, Got: len(args)},
		}}
	}

	name := args[1]
	var violations []error
	if err := job.ValidateName(name); err != nil {
		violations = append(violations, err)
	} else if op != OpLoad && !in.registry.Has(name) {
		violations = append(violations, fmt.Errorf("%w: %s", job.ErrNotFound, name))
	}
	if len(violations) > 0 {
		return Operation{}, &ValidationError{Violations: violations}
	}
	return Operation{Op: op, Name: name}, nil
}

// satisfiable rejects patterns with no upcoming occurrence.
func (in *Interpreter) satisfiable(p cron.Pattern) error {
	var err error
	if in.engine != nil {
		_, err = in.engine.Preview(job.Job{Pattern: p}, 1)
	} else {
		_, err = p.Next(time.Now())
	}
	return err
}

// syntaxFirst orders field errors so that all syntax errors precede range
// errors, keeping field order within each group.
func syntaxFirst(errs []error) []error {
	out := slices.Clone(errs)
	slices.SortStableFunc(out, func(a, b error) int {
		return rank(a) - rank(b)
	})
	return out
}

func rank(err error) int {
	var se *cron.SyntaxError
	if errors.As(err, &se) {
		return 0
	}
	return 1
}
