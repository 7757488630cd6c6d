package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flemzord/cronbot/pkg/message"
)

const (
	defaultWebhookTimeout = 10 * time.Second

	// webhookMaxLength keeps posts well under Slack's text limit.
	webhookMaxLength = 3500
)

// WebhookChannel posts messages to a Slack-compatible incoming webhook.
// The chat ID, when set, is sent as the "channel" override.
type WebhookChannel struct {
	name   string
	url    string
	client *http.Client
}

// NewWebhookChannel creates a webhook channel. A nil client gets a default
// client with a 10 s timeout.
func NewWebhookChannel(name, url string, client *http.Client) *WebhookChannel {
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}
	return &WebhookChannel{name: name, url: url, client: client}
}

// Compile-time interface checks.
var (
	_ Channel = (*WebhookChannel)(nil)
	_ Chunker = (*WebhookChannel)(nil)
)

// Name implements Channel.
func (c *WebhookChannel) Name() string { return c.name }

// ChunkConfig implements Chunker.
func (c *WebhookChannel) ChunkConfig() ChunkConfig {
	return ChunkConfig{MaxLength: webhookMaxLength, PreserveBlocks: true}
}

type webhookPayload struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

// Send implements Channel.
func (c *WebhookChannel) Send(ctx context.Context, msg message.OutboundMessage) error {
	body, err := json.Marshal(webhookPayload{Text: msg.Text, Channel: msg.Chat.ID})
	if err != nil {
		return fmt.Errorf("channel: %s: marshal payload: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("channel: %s: build request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("channel: %s: post: %w", c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: status %d: %s", ErrDeliveryFailed, c.name, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
