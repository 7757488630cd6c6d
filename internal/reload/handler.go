package reload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/cronbot/internal/config"
)

// ActionApplier swaps the set of configured commands.
type ActionApplier interface {
	Apply(defs map[string]config.ActionConfig) error
}

// RateSetter changes the outbound message rate.
type RateSetter interface {
	SetRate(ratePerSec float64)
}

// Targets are the live components a reload updates. Nil fields are
// skipped.
type Targets struct {
	Actions ActionApplier
	Rate    RateSetter
	Level   *slog.LevelVar
}

// Handler applies a fresh configuration to the running process. Only
// actions, log level and channel rate are hot-reloadable; changes to
// anything else are logged and take effect on restart.
type Handler struct {
	targets Targets
	current *config.Config
	logger  *slog.Logger
}

// NewHandler creates a reload handler. current is the configuration the
// process was started with.
func NewHandler(targets Targets, current *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		targets: targets,
		current: current,
		logger:  logger,
	}
}

// HandleReload loads a fresh config from disk, validates it, and applies it.
func (h *Handler) HandleReload(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return h.handleReload(ctx, cfg)
}

// HandleReloadFromConfig applies a pre-loaded, already-validated config.
// The caller is responsible for calling config.Validate first.
func (h *Handler) HandleReloadFromConfig(ctx context.Context, cfg *config.Config) error {
	return h.handleReload(ctx, cfg)
}

func (h *Handler) handleReload(ctx context.Context, cfg *config.Config) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before reload: %w", err)
	}

	if h.targets.Actions != nil {
		if err := h.targets.Actions.Apply(cfg.Actions); err != nil {
			return fmt.Errorf("reloading actions: %w", err)
		}
	}
	if h.targets.Level != nil {
		h.targets.Level.Set(cfg.Log.SlogLevel())
	}
	if h.targets.Rate != nil {
		h.targets.Rate.SetRate(cfg.Channels.RatePerSec)
	}

	h.warnRestartOnly(cfg)
	h.current = cfg

	h.logger.Info("configuration reloaded successfully", "actions", len(cfg.Actions), "log_level", cfg.Log.Level)
	return nil
}

// warnRestartOnly logs every changed setting that a reload cannot apply.
func (h *Handler) warnRestartOnly(cfg *config.Config) {
	if h.current == nil {
		return
	}
	prev := h.current
	changed := func(key string) {
		h.logger.Warn("reload: setting changed, restart required", "key", key)
	}
	if prev.Scheduler != cfg.Scheduler {
		changed("scheduler")
	}
	if prev.Store != cfg.Store {
		changed("store")
	}
	if prev.Log.Format != cfg.Log.Format || prev.Log.AuditPath != cfg.Log.AuditPath {
		changed("log")
	}
	if prev.Tracing != cfg.Tracing {
		changed("tracing")
	}
	if (prev.Gateway == nil) != (cfg.Gateway == nil) ||
		(prev.Gateway != nil && *prev.Gateway != *cfg.Gateway) {
		changed("gateway")
	}
	if prev.Channels.Default != cfg.Channels.Default || len(prev.Channels.Webhooks) != len(cfg.Channels.Webhooks) {
		changed("channels")
		return
	}
	for name, w := range cfg.Channels.Webhooks {
		if prev.Channels.Webhooks[name] != w {
			changed("channels")
			return
		}
	}
}
