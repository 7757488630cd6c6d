package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/flemzord/cronbot/internal/scheduler"
)

const (
	subscriberBuffer = 32
	writeTimeout     = 5 * time.Second
)

// Event is one message on the /ws/events stream.
type Event struct {
	Type       string    `json:"type"` // "fire" or "armed"
	ID         string    `json:"id,omitempty"`
	Job        string    `json:"job,omitempty"`
	Command    string    `json:"command,omitempty"`
	Started    time.Time `json:"started,omitzero"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Manual     bool      `json:"manual,omitempty"`
	Skipped    bool      `json:"skipped,omitempty"`
	Error      string    `json:"error,omitempty"`
	Armed      *int      `json:"armed,omitempty"`
}

// Hub fans scheduler events out to websocket subscribers. A subscriber
// that falls behind loses events rather than slowing the scheduler.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	closed bool
	logger *slog.Logger
}

// Compile-time interface check.
var _ scheduler.Observer = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[chan []byte]struct{}),
		logger: logger.With("component", "events"),
	}
}

// JobFired implements scheduler.Observer.
func (h *Hub) JobFired(ev scheduler.FireEvent) {
	out := Event{
		Type:       "fire",
		ID:         ev.ID,
		Job:        ev.Job,
		Command:    ev.Command,
		Started:    ev.Started,
		DurationMS: ev.Duration.Milliseconds(),
		Manual:     ev.Manual,
		Skipped:    ev.Skipped,
	}
	if ev.Err != nil {
		out.Error = ev.Err.Error()
	}
	h.Publish(out)
}

// ArmedChanged implements scheduler.Observer.
func (h *Hub) ArmedChanged(n int) {
	h.Publish(Event{Type: "armed", Armed: &n})
}

// Publish sends ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("events: marshal failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- data:
		default:
			h.logger.Debug("events: subscriber behind, event dropped", "type", ev.Type)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe() (chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	ch := make(chan []byte, subscriberBuffer)
	h.subs[ch] = struct{}{}
	return ch, true
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// ServeHTTP upgrades the request and streams events until the client
// goes away or the hub is closed. Client messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("events: websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = conn.CloseNow()
	}()

	ch, ok := h.subscribe()
	if !ok {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.unsubscribe(ch)

	ctx := conn.CloseRead(r.Context())
	h.logger.Debug("events: subscriber connected", "remote_addr", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			return
		case data, open := <-ch:
			if !open {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.logger.Debug("events: write failed", "error", err)
				return
			}
		}
	}
}
