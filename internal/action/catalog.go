package action

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/flemzord/cronbot/internal/channel"
	"github.com/flemzord/cronbot/internal/config"
	"github.com/flemzord/cronbot/pkg/message"
)

type entry struct {
	def     Definition
	handler Handler
	builtin bool
}

// Catalog is the registry of known commands. Built-in commands are
// registered at construction; configured ones are swapped in by Apply.
// It implements Invoker and posts non-empty handler output to the
// request's target through the sender.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*entry // primary name → entry
	lookup  map[string]string // name or alias → primary name

	sender channel.Sender
	client *http.Client
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithHTTPClient sets the client used by webhook actions.
func WithHTTPClient(c *http.Client) Option {
	return func(cat *Catalog) { cat.client = c }
}

// WithLocation sets the zone the "time" command reports in.
func WithLocation(loc *time.Location) Option {
	return func(cat *Catalog) { cat.loc = loc }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(cat *Catalog) { cat.now = now }
}

// NewCatalog creates a catalog holding the built-in commands. A nil sender
// discards output.
func NewCatalog(sender channel.Sender, logger *slog.Logger, opts ...Option) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		entries: make(map[string]*entry),
		lookup:  make(map[string]string),
		sender:  sender,
		client:  &http.Client{},
		logger:  logger,
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registerBuiltins()
	return c
}

// Compile-time interface check.
var _ Invoker = (*Catalog)(nil)

// Register adds a command. The name and every alias must be unused.
func (c *Catalog) Register(def Definition, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerLocked(def, h, false)
}

func (c *Catalog) registerLocked(def Definition, h Handler, builtin bool) error {
	keys := append([]string{def.Name}, def.Aliases...)
	for _, k := range keys {
		if k == "" {
			return fmt.Errorf("action: empty name or alias for %q", def.Name)
		}
		if owner, taken := c.lookup[k]; taken {
			return fmt.Errorf("%w: %q (used by %s)", ErrDuplicateAction, k, owner)
		}
	}
	def.Aliases = slices.Clone(def.Aliases)
	c.entries[def.Name] = &entry{def: def, handler: h, builtin: builtin}
	for _, k := range keys {
		c.lookup[k] = def.Name
	}
	return nil
}

// Apply replaces all configured (non-built-in) commands with defs. On
// error the catalog is left unchanged.
func (c *Catalog) Apply(defs map[string]config.ActionConfig) error {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	slices.Sort(names)

	c.mu.Lock()
	defer c.mu.Unlock()

	prevEntries, prevLookup := c.entries, c.lookup
	c.entries = make(map[string]*entry, len(prevEntries))
	c.lookup = make(map[string]string, len(prevLookup))
	for _, e := range prevEntries {
		if e.builtin {
			// Built-ins never collide with each other.
			_ = c.registerLocked(e.def, e.handler, true)
		}
	}

	for _, name := range names {
		cfg := defs[name]
		h, err := c.configured(name, cfg)
		if err == nil {
			err = c.registerLocked(Definition{Name: name, Aliases: cfg.Aliases, Description: cfg.Description}, h, false)
		}
		if err != nil {
			c.entries, c.lookup = prevEntries, prevLookup
			return fmt.Errorf("action: %s: %w", name, err)
		}
	}

	c.logger.Info("action: catalog updated", "configured", len(names), "total", len(c.entries))
	return nil
}

// Resolve maps a name or alias to its primary command name.
func (c *Catalog) Resolve(nameOrAlias string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.lookup[nameOrAlias]
	return name, ok
}

// Names returns the sorted primary command names.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Definitions returns every command definition, sorted by name.
func (c *Catalog) Definitions() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]Definition, 0, len(c.entries))
	for _, e := range c.entries {
		d := e.def
		d.Aliases = slices.Clone(d.Aliases)
		defs = append(defs, d)
	}
	slices.SortFunc(defs, func(a, b Definition) int { return strings.Compare(a.Name, b.Name) })
	return defs
}

// Invoke runs the command named by req.Command (or one of its aliases)
// and posts any output to req.Target. Every failure is an *InvocationError.
func (c *Catalog) Invoke(ctx context.Context, req Request) (Result, error) {
	c.mu.RLock()
	name, ok := c.lookup[req.Command]
	var e *entry
	if ok {
		e = c.entries[name]
	}
	c.mu.RUnlock()

	if !ok {
		return Result{}, &InvocationError{Command: req.Command, Err: fmt.Errorf("%w: %s", ErrUnknownAction, req.Command)}
	}
	req.Command = name
	if req.FiredAt.IsZero() {
		req.FiredAt = c.now()
	}

	res, err := e.handler(ctx, req)
	if err != nil {
		return res, &InvocationError{Command: name, Err: err}
	}

	if res.Output != "" && c.sender != nil {
		out := message.NewTextMessage(req.Target.Channel, req.Target.Chat, res.Output)
		if err := c.sender.Send(ctx, out); err != nil {
			return res, &InvocationError{Command: name, Err: fmt.Errorf("deliver output: %w", err)}
		}
	}
	return res, nil
}
