// Package command interprets "cron" chat commands: it validates the whole
// command, reporting every violation at once, and only then applies it to
// the job registry, the scheduler and the store.
package command

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/flemzord/cronbot/internal/action"
	"github.com/flemzord/cronbot/internal/cron"
	"github.com/flemzord/cronbot/internal/job"
	"github.com/flemzord/cronbot/internal/store"
)

// Op is a cron operation.
type Op string

// Operations.
const (
	OpJob    Op = "job"
	OpTest   Op = "test"
	OpSave   Op = "save"
	OpLoad   Op = "load"
	OpStop   Op = "stop"
	OpDelete Op = "delete"
	OpList   Op = "list"
	OpHelp   Op = "help"
)

// Token counts, including the operation word.
const (
	minPatternTokens = 2 + cron.NumFields + 1 // op, name, fields, command
	minNameTokens    = 2                      // op, name
)

// Operation is a validated command, ready to execute.
type Operation struct {
	Op      Op
	Name    string
	Fields  []string
	Pattern cron.Pattern
	Action  job.Action
}

// Origin identifies who issued a command and where replies and job output
// should go.
type Origin struct {
	Channel string
	Chat    string
	User    string
}

// Reply is the outcome of a successful command.
type Reply struct {
	Text string
	// Job is the affected job, when there is one.
	Job *job.Job
}

// Engine is the part of the scheduler the interpreter drives.
type Engine interface {
	Arm(j job.Job) (time.Time, error)
	Disarm(name string) bool
	FireOnce(ctx context.Context, j job.Job) (action.Result, error)
	NextRun(name string) (time.Time, bool)
	Preview(j job.Job, n int) ([]time.Time, error)
}

// Resolver maps a command name or alias to its primary name.
type Resolver interface {
	Resolve(nameOrAlias string) (string, bool)
}

// Observer is notified once per executed command.
type Observer interface {
	CommandHandled(op Op, err error)
}

// Auditor records every command text received by Run, with its sender
// and outcome.
type Auditor interface {
	AuditCommand(text string, op Op, from Origin, err error)
}

// Deps are the interpreter's collaborators. Store, Observer and Auditor
// are optional.
type Deps struct {
	Registry *job.Registry
	Engine   Engine
	Commands Resolver
	Store    store.Store
	Observer Observer
	Auditor  Auditor
	Logger   *slog.Logger
}

// Interpreter validates and executes commands. Executions are serialized.
type Interpreter struct {
	mu sync.Mutex

	registry *job.Registry
	engine   Engine
	commands Resolver
	store    store.Store
	observer Observer
	auditor  Auditor
	logger   *slog.Logger
}

// New creates an interpreter.
func New(deps Deps) *Interpreter {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		registry: deps.Registry,
		engine:   deps.Engine,
		commands: deps.Commands,
		store:    deps.Store,
		observer: deps.Observer,
		auditor:  deps.Auditor,
		logger:   logger.With("component", "command"),
	}
}

// Tokenize splits text on whitespace and drops a leading "cron".
func Tokenize(text string) []string {
	args := strings.Fields(text)
	if len(args) > 0 && strings.EqualFold(args[0], "cron") {
		args = args[1:]
	}
	return args
}

// Run tokenizes, validates and executes text.
func (in *Interpreter) Run(ctx context.Context, text string, from Origin) (Reply, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	args := Tokenize(text)
	op, err := in.Parse(args)
	if err != nil {
		in.notify(opOf(args), err)
		in.audit(text, opOf(args), from, err)
		return Reply{}, err
	}
	reply, err := in.execute(ctx, op, from)
	in.notify(op.Op, err)
	in.audit(text, op.Op, from, err)
	return reply, err
}

// Execute applies an operation returned by Parse.
func (in *Interpreter) Execute(ctx context.Context, op Operation, from Origin) (Reply, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	reply, err := in.execute(ctx, op, from)
	in.notify(op.Op, err)
	return reply, err
}

func (in *Interpreter) notify(op Op, err error) {
	if in.observer != nil {
		in.observer.CommandHandled(op, err)
	}
}

func (in *Interpreter) audit(text string, op Op, from Origin, err error) {
	if in.auditor != nil {
		in.auditor.AuditCommand(text, op, from, err)
	}
}

// opOf returns the operation word of args for reporting, or "unknown".
func opOf(args []string) Op {
	if len(args) == 0 {
		return OpHelp
	}
	switch op := Op(strings.ToLower(args[0])); op {
	case OpJob, OpTest, OpSave, OpLoad, OpStop, OpDelete, OpList, OpHelp:
		return op
	}
	return "unknown"
}
