package message

// OutboundMessage is a message to be delivered through a channel. An empty
// Channel selects the dispatcher's default channel.
type OutboundMessage struct {
	Channel   string `json:"channel,omitempty"`
	Chat      Chat   `json:"chat"`
	ReplyToID string `json:"reply_to_id,omitempty"`
	Text      string `json:"text"`
}

// NewTextMessage creates an outbound text message for chat on channel.
func NewTextMessage(channel, chatID, text string) OutboundMessage {
	return OutboundMessage{
		Channel: channel,
		Chat:    Chat{ID: chatID},
		Text:    text,
	}
}
