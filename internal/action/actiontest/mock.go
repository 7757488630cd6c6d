// Package actiontest provides test doubles for the action package.
package actiontest

import (
	"context"
	"slices"
	"sync"

	"github.com/flemzord/cronbot/internal/action"
)

// MockInvoker records invocations. InvokeFunc, if set, decides the result.
type MockInvoker struct {
	InvokeFunc func(ctx context.Context, req action.Request) (action.Result, error)

	mu    sync.Mutex
	calls []action.Request
	seen  chan action.Request
}

// Compile-time interface check.
var _ action.Invoker = (*MockInvoker)(nil)

// NewMockInvoker creates a MockInvoker whose Seen channel buffers up to
// 64 invocations.
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{seen: make(chan action.Request, 64)}
}

// Invoke implements action.Invoker.
func (m *MockInvoker) Invoke(ctx context.Context, req action.Request) (action.Result, error) {
	req.Args = slices.Clone(req.Args)
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	select {
	case m.seen <- req:
	default:
	}

	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, req)
	}
	return action.Result{Output: "ok"}, nil
}

// Calls returns a copy of every recorded request.
func (m *MockInvoker) Calls() []action.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns the number of invocations.
func (m *MockInvoker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Seen delivers invocations as they happen, for tests that wait on them.
func (m *MockInvoker) Seen() <-chan action.Request {
	return m.seen
}
