// Package action maps command names, and their aliases, to the handlers
// jobs run when they fire.
package action

import (
	"context"
	"time"

	"github.com/flemzord/cronbot/internal/job"
)

// Request describes one invocation.
type Request struct {
	Job     string
	Command string
	Args    []string
	Target  job.Target
	FiredAt time.Time
}

// Result is what a handler produced. A non-empty Output is posted to the
// job's target.
type Result struct {
	Output string
}

// Invoker runs a command by name.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Result, error)
}

// Handler implements one command.
type Handler func(ctx context.Context, req Request) (Result, error)

// Definition names a command and its aliases.
type Definition struct {
	Name        string
	Aliases     []string
	Description string
}
