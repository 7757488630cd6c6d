package channel

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/time/rate"

	"github.com/flemzord/cronbot/pkg/message"
)

// Dispatcher routes outbound messages to the correct registered channel.
// Sends to each channel pass through a token bucket so a burst of job
// firings does not trip platform rate limits.
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]Channel
	limiters map[string]*rate.Limiter
	fallback string
	perSec   rate.Limit
}

// NewDispatcher creates an empty Dispatcher that allows ratePerSec
// messages per second on each channel. A value <= 0 disables throttling.
func NewDispatcher(ratePerSec float64) *Dispatcher {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Dispatcher{
		channels: make(map[string]Channel),
		limiters: make(map[string]*rate.Limiter),
		perSec:   limit,
	}
}

// Compile-time interface check.
var _ Sender = (*Dispatcher)(nil)

// Register adds ch under ch.Name(). The first registered channel becomes
// the default until SetDefault is called.
// Returns ErrDuplicateChannel if the name is already taken.
func (d *Dispatcher) Register(ch Channel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := ch.Name()
	if _, exists := d.channels[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateChannel, name)
	}
	d.channels[name] = ch
	d.limiters[name] = rate.NewLimiter(d.perSec, burst(d.perSec))
	if d.fallback == "" {
		d.fallback = name
	}
	return nil
}

func burst(limit rate.Limit) int {
	if limit == rate.Inf || limit < 1 {
		return 1
	}
	return int(limit)
}

// SetDefault selects the channel used for messages with no Channel set.
func (d *Dispatcher) SetDefault(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.channels[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, name)
	}
	d.fallback = name
	return nil
}

// SetRate changes the per-channel rate for all registered channels.
func (d *Dispatcher) SetRate(ratePerSec float64) {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.perSec = limit
	for _, l := range d.limiters {
		l.SetLimit(limit)
		l.SetBurst(burst(limit))
	}
}

// Get returns the channel registered under name, or false if none.
func (d *Dispatcher) Get(name string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ch, ok := d.channels[name]
	return ch, ok
}

// Send dispatches msg to the channel named by msg.Channel, or to the
// default channel when it is empty. It returns ErrNoChannel if no channel
// matches. Long texts are split when the channel implements Chunker.
func (d *Dispatcher) Send(ctx context.Context, msg message.OutboundMessage) error {
	d.mu.RLock()
	name := msg.Channel
	if name == "" {
		name = d.fallback
	}
	ch, ok := d.channels[name]
	limiter := d.limiters[name]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrNoChannel, name)
	}
	msg.Channel = name

	parts := []message.OutboundMessage{msg}
	if c, ok := ch.(Chunker); ok {
		parts = SplitMessage(msg, c.ChunkConfig())
	}
	for _, part := range parts {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("channel: %s: %w", name, err)
		}
		if err := ch.Send(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

// Channels returns the sorted names of all registered channels.
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
