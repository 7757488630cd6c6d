package action

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// registerBuiltins installs the commands every catalog knows.
func (c *Catalog) registerBuiltins() {
	c.mu.Lock()
	defer c.mu.Unlock()

	builtins := []struct {
		def Definition
		h   Handler
	}{
		{Definition{Name: "help", Aliases: []string{"h"}, Description: "post the list of known commands"}, c.help},
		{Definition{Name: "echo", Aliases: []string{"say"}, Description: "post the arguments, or the job name"}, echo},
		{Definition{Name: "ping", Description: "post pong"}, ping},
		{Definition{Name: "time", Aliases: []string{"now"}, Description: "post the current time"}, c.clock},
	}
	for _, b := range builtins {
		_ = c.registerLocked(b.def, b.h, true)
	}
}

func (c *Catalog) help(_ context.Context, _ Request) (Result, error) {
	var b strings.Builder
	b.WriteString("Known commands:")
	for _, d := range c.Definitions() {
		b.WriteString("\n  ")
		b.WriteString(d.Name)
		if len(d.Aliases) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(d.Aliases, ", "))
		}
		if d.Description != "" {
			b.WriteString(" - ")
			b.WriteString(d.Description)
		}
	}
	return Result{Output: b.String()}, nil
}

func echo(_ context.Context, req Request) (Result, error) {
	if len(req.Args) == 0 {
		return Result{Output: req.Job}, nil
	}
	return Result{Output: strings.Join(req.Args, " ")}, nil
}

func ping(_ context.Context, _ Request) (Result, error) {
	return Result{Output: "pong"}, nil
}

func (c *Catalog) clock(_ context.Context, _ Request) (Result, error) {
	return Result{Output: c.now().In(c.loc).Format(time.RFC1123)}, nil
}
