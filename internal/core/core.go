// Package core runs the process's long-lived components: it starts them in
// registration order and stops them in reverse.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultShutdownTimeout bounds Stop when no other timeout is set.
const DefaultShutdownTimeout = 30 * time.Second

// App manages the lifecycle of a set of components.
type App struct {
	components      []instance
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

type instance struct {
	name      string
	component any
	started   bool
}

// NewApp creates an empty App.
func NewApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		logger:          logger.With("component", "core"),
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// SetShutdownTimeout overrides DefaultShutdownTimeout.
func (a *App) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		a.shutdownTimeout = d
	}
}

// Append adds a component. It takes part in Start if it implements
// Starter and in Stop if it implements Stopper.
func (a *App) Append(name string, component any) {
	a.components = append(a.components, instance{name: name, component: component})
}

// Names returns the component names in start order.
func (a *App) Names() []string {
	out := make([]string, len(a.components))
	for i, c := range a.components {
		out[i] = c.name
	}
	return out
}

// Start starts every component in order. If one fails, the components
// already started are stopped in reverse order.
func (a *App) Start() error {
	for i := range a.components {
		ci := &a.components[i]
		s, ok := ci.component.(Starter)
		if !ok {
			ci.started = true
			continue
		}
		a.logger.Info("core: starting", "name", ci.name)
		if err := s.Start(); err != nil {
			a.logger.Error("core: start failed", "name", ci.name, "error", err)
			a.stopFrom(i - 1)
			return fmt.Errorf("core: starting %s: %w", ci.name, err)
		}
		ci.started = true
	}
	a.logger.Info("core: all components started", "count", len(a.components))
	return nil
}

// Stop stops every started component in reverse order, bounded by the
// shutdown timeout. Errors are logged, not returned.
func (a *App) Stop() {
	a.stopFrom(len(a.components) - 1)
}

func (a *App) stopFrom(index int) {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	for i := index; i >= 0; i-- {
		ci := &a.components[i]
		if !ci.started {
			continue
		}
		if s, ok := ci.component.(Stopper); ok {
			a.logger.Info("core: stopping", "name", ci.name)
			if err := s.Stop(ctx); err != nil {
				a.logger.Error("core: stop error", "name", ci.name, "error", err)
			}
		}
		ci.started = false
	}
}
