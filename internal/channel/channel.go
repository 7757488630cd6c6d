// Package channel delivers outbound messages to chat platforms. A
// Dispatcher routes each message to a named Channel, throttling sends per
// channel and splitting text that exceeds the platform's length limit.
package channel

import (
	"context"

	"github.com/flemzord/cronbot/pkg/message"
)

// Channel delivers messages to one platform.
type Channel interface {
	// Name returns the key the channel is registered under.
	Name() string

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg message.OutboundMessage) error
}

// Sender is anything that can deliver an outbound message. Dispatcher
// implements it; jobs' actions depend on it rather than on the dispatcher.
type Sender interface {
	Send(ctx context.Context, msg message.OutboundMessage) error
}

// Chunker is implemented by channels whose platform limits message length.
type Chunker interface {
	ChunkConfig() ChunkConfig
}
