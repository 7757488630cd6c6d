package security

import (
	"encoding/json"
	"io"
	"maps"
	"sync"
	"time"

	"github.com/flemzord/cronbot/internal/command"
)

// EventType categorizes audit events.
type EventType string

// Audit event types.
const (
	EventCommand       EventType = "command"
	EventAuthFailure   EventType = "auth_failure"
	EventRateLimit     EventType = "rate_limit"
	EventSlackRejected EventType = "slack_rejected"
	EventConfigReload  EventType = "config_reload"
)

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Channel   string            `json:"channel,omitempty"`
	Chat      string            `json:"chat,omitempty"`
	User      string            `json:"user,omitempty"`
	Op        string            `json:"op,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	OK        bool              `json:"ok"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditLoggerConfig configures the audit logger.
type AuditLoggerConfig struct {
	// Writer is the destination for JSONL output. If nil, events are only
	// dispatched to OnEvent (useful for testing).
	Writer io.Writer

	// Redactor, if non-nil, is applied to Detail, Error and Metadata
	// values before writing.
	Redactor *Redactor

	// OnEvent, if non-nil, is called for every event (used in tests).
	OnEvent func(AuditEvent)

	// Now overrides time.Now for testing. Defaults to time.Now.
	Now func() time.Time
}

// AuditLogger writes structured audit events as JSONL with optional redaction.
type AuditLogger struct {
	writer   io.Writer
	redactor *Redactor
	onEvent  func(AuditEvent)
	now      func() time.Time
	mu       sync.Mutex
}

// Compile-time interface check.
var _ command.Auditor = (*AuditLogger)(nil)

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(cfg AuditLoggerConfig) *AuditLogger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AuditLogger{
		writer:   cfg.Writer,
		redactor: cfg.Redactor,
		onEvent:  cfg.OnEvent,
		now:      now,
	}
}

// Log writes an audit event. The timestamp is set automatically.
// The caller's Metadata map is never mutated.
func (l *AuditLogger) Log(event AuditEvent) {
	if l == nil {
		return
	}
	event.Timestamp = l.now()
	event.Metadata = maps.Clone(event.Metadata)

	if l.redactor != nil {
		event.Detail = l.redactor.Redact(event.Detail)
		event.Error = l.redactor.Redact(event.Error)
		for k, v := range event.Metadata {
			event.Metadata[k] = l.redactor.Redact(v)
		}
	}

	// Dispatch and write under the same lock so both see the same order.
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.onEvent != nil {
		l.onEvent(event)
	}

	if l.writer != nil {
		_ = json.NewEncoder(l.writer).Encode(event)
	}
}

// AuditCommand implements command.Auditor.
func (l *AuditLogger) AuditCommand(text string, op command.Op, from command.Origin, err error) {
	ev := AuditEvent{
		Type:    EventCommand,
		Channel: from.Channel,
		Chat:    from.Chat,
		User:    from.User,
		Op:      string(op),
		Detail:  text,
		OK:      err == nil,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	l.Log(ev)
}
