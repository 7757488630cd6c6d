package channel

import (
	"context"
	"log/slog"

	"github.com/flemzord/cronbot/pkg/message"
)

// LogChannel writes outbound messages to a structured logger. It is the
// default channel when no chat platform is configured.
type LogChannel struct {
	name   string
	logger *slog.Logger
}

// NewLogChannel creates a log channel registered under name.
func NewLogChannel(name string, logger *slog.Logger) *LogChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogChannel{name: name, logger: logger}
}

// Compile-time interface check.
var _ Channel = (*LogChannel)(nil)

// Name implements Channel.
func (c *LogChannel) Name() string { return c.name }

// Send implements Channel.
func (c *LogChannel) Send(ctx context.Context, msg message.OutboundMessage) error {
	c.logger.InfoContext(ctx, "channel: message",
		"channel", c.name,
		"chat", msg.Chat.ID,
		"text", msg.Text,
	)
	return nil
}
