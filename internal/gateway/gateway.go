// Package gateway provides the HTTP surface: health and metrics, the Slack
// slash-command endpoint, the job admin API and a websocket stream of fire
// events. It binds to loopback by default.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/flemzord/cronbot/internal/command"
	"github.com/flemzord/cronbot/internal/config"
	"github.com/flemzord/cronbot/internal/job"
	"github.com/flemzord/cronbot/internal/security"
)

// Authentication attempts allowed per second across all clients.
const (
	authRate  = 5
	authBurst = 20
)

// Runner executes cron commands.
type Runner interface {
	Run(ctx context.Context, text string, from command.Origin) (command.Reply, error)
}

// Scheduler reports armed jobs.
type Scheduler interface {
	Armed() int
	NextRun(name string) (time.Time, bool)
	Location() *time.Location
}

// Deps are the gateway's collaborators. Metrics, Events and Audit are
// optional.
type Deps struct {
	Config    config.GatewayConfig
	Jobs      *job.Registry
	Commands  Runner
	Scheduler Scheduler
	Metrics   http.Handler
	Events    *Hub
	Audit     *security.AuditLogger
	Logger    *slog.Logger
}

// Gateway is the HTTP server.
type Gateway struct {
	config    config.GatewayConfig
	jobs      *job.Registry
	commands  Runner
	scheduler Scheduler
	metrics   http.Handler
	events    *Hub
	audit     *security.AuditLogger
	logger    *slog.Logger

	authLimiter *rate.Limiter
	server      *http.Server
	startedAt   time.Time
	now         func() time.Time
}

// New creates a gateway. Call Start to listen.
func New(deps Deps) *Gateway {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:      deps.Config,
		jobs:        deps.Jobs,
		commands:    deps.Commands,
		scheduler:   deps.Scheduler,
		metrics:     deps.Metrics,
		events:      deps.Events,
		audit:       deps.Audit,
		logger:      logger.With("component", "gateway"),
		authLimiter: rate.NewLimiter(authRate, authBurst),
		startedAt:   time.Now(),
		now:         time.Now,
	}
}

// Validate checks the bind address.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return fmt.Errorf("gateway: invalid bind address %q: %w", g.config.Bind, err)
	}
	return nil
}

// Start listens on the configured address and serves in the background.
func (g *Gateway) Start() error {
	if err := g.Validate(); err != nil {
		return err
	}
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:              g.config.Bind,
		Handler:           g.Handler(),
		ReadTimeout:       g.config.ReadTimeout,
		ReadHeaderTimeout: g.config.ReadTimeout,
		WriteTimeout:      g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen: %w", err)
	}

	go func() {
		g.logger.Info("gateway: listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway: serve failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully, bounded by the configured
// shutdown timeout. Websocket subscribers are disconnected first.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	if g.events != nil {
		g.events.Close()
	}

	if g.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.ShutdownTimeout)
		defer cancel()
	}

	g.logger.Info("gateway: shutting down")
	if err := g.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	return nil
}
