// Package app wires cronbot's components together and runs them until
// shutdown. It is shared by the cronbot CLI and the OS service wrapper.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/flemzord/cronbot/internal/config"
	"github.com/flemzord/cronbot/internal/mcpserver"
	"github.com/flemzord/cronbot/internal/reload"
	"github.com/flemzord/cronbot/internal/security"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides the default persistent data directory.
	DataDir string

	// LogLevel overrides log.level from the config when non-empty.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// MCP serves the Model Context Protocol on stdio alongside the
	// scheduler. The process shuts down when the client disconnects.
	MCP bool
}

// LoadConfig resolves, loads and validates the configuration file.
func LoadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = resolved
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Run loads configuration, starts every component, and blocks until ctx
// is cancelled or a shutdown signal is received. SIGHUP and config file
// changes trigger a live reload.
func Run(ctx context.Context, params RunParams) error {
	cfg, cfgPath, err := LoadConfig(params.ConfigPath)
	if err != nil {
		return err
	}

	sys, err := Build(ctx, BuildParams{
		Config:    cfg,
		DataDir:   params.DataDir,
		Version:   params.Version,
		LogOutput: params.LogOutput,
		LogLevel:  params.LogLevel,
	})
	if err != nil {
		return err
	}
	logger := sys.Logger
	logger.Info("cronbot starting", "version", params.Version, "config", cfgPath)

	handler := reload.NewHandler(reload.Targets{
		Actions: sys.Catalog,
		Rate:    sys.Dispatcher,
		Level:   sys.Level,
	}, cfg, logger)

	if err := sys.App.Start(); err != nil {
		return err
	}

	// --- signal handling ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	// --- file watcher ---
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	watcher := reload.NewWatcher(reload.WatcherConfig{ConfigPath: cfgPath, Logger: logger})
	if err := watcher.Start(watchCtx); err != nil {
		logger.Warn("config watcher unavailable, reload with SIGHUP only", "error", err)
	}
	defer watcher.Stop()

	// --- MCP (optional) ---
	var mcpDone chan error
	if params.MCP {
		mcpDone = make(chan error, 1)
		srv := mcpserver.New(mcpserver.Deps{
			Commands:  sys.Commands,
			Jobs:      sys.Registry,
			Scheduler: sys.Engine,
			Version:   params.Version,
			Logger:    logger,
		})
		go func() { mcpDone <- srv.Serve() }()
	}

	shutdown := func(reason string) {
		logger.Info("shutting down", "reason", reason)
		sys.App.Stop()
		logger.Info("shutdown complete")
	}

	// --- main event loop ---
	for {
		select {
		case <-ctx.Done():
			shutdown("context cancelled")
			return nil
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("SIGHUP received, reloading configuration")
				if err := applyReload(watchCtx, sys, handler, cfgPath); err != nil {
					logger.Error("reload failed", "error", err)
				}
				continue
			}
			shutdown(sig.String())
			return nil
		case evt := <-watcher.Events():
			logger.Info("config file changed, reloading", "path", evt.ConfigPath)
			if err := applyReload(watchCtx, sys, handler, cfgPath); err != nil {
				logger.Error("reload failed", "error", err)
			}
		case err := <-mcpDone:
			shutdown("mcp client disconnected")
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp: %w", err)
			}
			return nil
		}
	}
}

// applyReload loads and validates the config file, applies it, and
// re-syncs the redactor with the new secrets. A rejected config leaves
// the running one in place.
func applyReload(ctx context.Context, sys *System, handler *reload.Handler, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		sys.Audit.Log(security.AuditEvent{Type: security.EventConfigReload, Detail: cfgPath, Error: err.Error()})
		return err
	}
	if err := handler.HandleReloadFromConfig(ctx, cfg); err != nil {
		sys.Audit.Log(security.AuditEvent{Type: security.EventConfigReload, Detail: cfgPath, Error: err.Error()})
		return err
	}
	sys.Redactor.SyncConfig(cfg)
	sys.Audit.Log(security.AuditEvent{Type: security.EventConfigReload, Detail: cfgPath, OK: true})
	return nil
}

// NewCLILogger returns the logger used by one-shot CLI commands.
func NewCLILogger(level slog.Level) *slog.Logger {
	return NewLogger(os.Stderr, "text", level, security.NewRedactor())
}
