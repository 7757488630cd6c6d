package core

import "context"

// Starter is implemented by components that need to start background work
// (goroutines, listeners, connections).
type Starter interface {
	Start() error
}

// Stopper is implemented by components that need to clean up resources.
// Called during shutdown in reverse order of Start().
type Stopper interface {
	Stop(ctx context.Context) error
}

// Hooks adapts plain functions to Starter and Stopper. Either may be nil.
type Hooks struct {
	OnStart func() error
	OnStop  func(ctx context.Context) error
}

// Start calls OnStart.
func (h Hooks) Start() error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart()
}

// Stop calls OnStop.
func (h Hooks) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}
	return h.OnStop(ctx)
}
