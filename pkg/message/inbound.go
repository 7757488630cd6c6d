package message

import (
	"strings"
	"time"
)

// InboundMessage is a command line received from a channel.
type InboundMessage struct {
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel"`
	Sender    Sender    `json:"sender"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text"`
}

// User returns the best human-readable identifier of the sender.
func (m *InboundMessage) User() string {
	if m.Sender.Username != "" {
		return m.Sender.Username
	}
	return m.Sender.ID
}

// IsEmpty reports whether the message carries no text.
func (m *InboundMessage) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == ""
}
