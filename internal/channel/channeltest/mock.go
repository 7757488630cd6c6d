// Package channeltest provides test doubles for the channel package.
package channeltest

import (
	"context"
	"slices"
	"sync"

	"github.com/flemzord/cronbot/internal/channel"
	"github.com/flemzord/cronbot/pkg/message"
)

// MockChannel records sent messages.
type MockChannel struct {
	NameVal string

	// SendFunc, if set, is called instead of the default recording behavior.
	SendFunc func(ctx context.Context, msg message.OutboundMessage) error

	mu   sync.Mutex
	sent []message.OutboundMessage
}

// Compile-time interface check.
var _ channel.Channel = (*MockChannel)(nil)

// NewMockChannel creates a MockChannel named name.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{NameVal: name}
}

// Name implements channel.Channel.
func (m *MockChannel) Name() string { return m.NameVal }

// Send records msg, or delegates to SendFunc when set.
func (m *MockChannel) Send(ctx context.Context, msg message.OutboundMessage) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of all recorded messages.
func (m *MockChannel) Sent() []message.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

// Reset clears recorded messages.
func (m *MockChannel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
