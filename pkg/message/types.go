// Package message defines the platform-agnostic messages exchanged between
// chat channels and the cron command interpreter.
package message

// Sender identifies the author of an inbound message.
type Sender struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}
