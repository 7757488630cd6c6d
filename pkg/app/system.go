package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/flemzord/cronbot/internal/action"
	"github.com/flemzord/cronbot/internal/channel"
	"github.com/flemzord/cronbot/internal/command"
	"github.com/flemzord/cronbot/internal/config"
	"github.com/flemzord/cronbot/internal/core"
	"github.com/flemzord/cronbot/internal/gateway"
	"github.com/flemzord/cronbot/internal/job"
	"github.com/flemzord/cronbot/internal/metrics"
	"github.com/flemzord/cronbot/internal/scheduler"
	"github.com/flemzord/cronbot/internal/security"
	"github.com/flemzord/cronbot/internal/store"
	"github.com/flemzord/cronbot/internal/store/sqlite"
	"github.com/flemzord/cronbot/internal/telemetry"
)

const tracerName = "github.com/flemzord/cronbot/internal/scheduler"

// BuildParams configures Build.
type BuildParams struct {
	Config  *config.Config
	DataDir string
	Version string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer
	// LogLevel, when set, overrides log.level from the config.
	LogLevel string
}

// System holds every wired component of a running cronbot. App starts
// and stops them in dependency order.
type System struct {
	Config     *config.Config
	Logger     *slog.Logger
	Level      *slog.LevelVar
	Redactor   *security.Redactor
	Audit      *security.AuditLogger
	Telemetry  *telemetry.Provider
	Metrics    *metrics.Metrics
	Store      store.Store
	Registry   *job.Registry
	Dispatcher *channel.Dispatcher
	Catalog    *action.Catalog
	Engine     *scheduler.Engine
	Commands   *command.Interpreter
	Events     *gateway.Hub
	// Gateway is nil when the config has no gateway section.
	Gateway *gateway.Gateway
	App     *core.App
}

// Build wires every component from a validated config. Nothing runs
// until App.Start; on error, resources opened so far are released.
func Build(ctx context.Context, params BuildParams) (_ *System, err error) {
	cfg := params.Config
	out := params.LogOutput
	if out == nil {
		out = os.Stderr
	}
	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	level := new(slog.LevelVar)
	level.Set(cfg.Log.SlogLevel())
	if params.LogLevel != "" {
		level.Set(config.LogConfig{Level: params.LogLevel}.SlogLevel())
	}

	redactor := security.NewRedactor()
	redactor.SyncConfig(cfg)
	logger := NewLogger(out, cfg.Log.Format, level, redactor)

	// closers run in reverse if Build fails part way.
	var closers []func() error
	defer func() {
		if err != nil {
			for _, c := range slices.Backward(closers) {
				_ = c()
			}
		}
	}()

	var (
		audit     *security.AuditLogger
		auditFile *os.File
	)
	if cfg.Log.AuditPath != "" {
		auditFile, err = openAppend(cfg.Log.AuditPath)
		if err != nil {
			return nil, err
		}
		closers = append(closers, auditFile.Close)
		audit = security.NewAuditLogger(security.AuditLoggerConfig{Writer: auditFile, Redactor: redactor})
	}

	tp, err := telemetry.Setup(ctx, cfg.Tracing, params.Version, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() error { return tp.Shutdown(context.Background()) })

	st, err := openStore(cfg.Store, dataDir)
	if err != nil {
		return nil, err
	}
	closers = append(closers, st.Close)

	dispatcher, err := newDispatcher(cfg.Channels, logger)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, fmt.Errorf("app: scheduler timezone: %w", err)
	}

	catalog := action.NewCatalog(dispatcher, logger, action.WithLocation(loc))
	if err := catalog.Apply(cfg.Actions); err != nil {
		return nil, err
	}

	m := metrics.New()
	hub := gateway.NewHub(logger)
	registry := job.NewRegistry()

	engine := scheduler.New(scheduler.Config{
		Location:      loc,
		ActionTimeout: cfg.Scheduler.ActionTimeout,
		SkipIfRunning: cfg.Scheduler.SkipIfRunning,
	}, registry, catalog,
		scheduler.WithLogger(logger),
		scheduler.WithObserver(m),
		scheduler.WithObserver(hub),
		scheduler.WithTracer(tp.Tracer(tracerName)),
	)

	deps := command.Deps{
		Registry: registry,
		Engine:   engine,
		Commands: catalog,
		Store:    st,
		Observer: m,
		Logger:   logger,
	}
	if audit != nil {
		deps.Auditor = audit
	}
	interpreter := command.New(deps)

	var gw *gateway.Gateway
	if cfg.Gateway != nil {
		gw = gateway.New(gateway.Deps{
			Config:    *cfg.Gateway,
			Jobs:      registry,
			Commands:  interpreter,
			Scheduler: engine,
			Metrics:   m.Handler(),
			Events:    hub,
			Audit:     audit,
			Logger:    logger,
		})
		if err := gw.Validate(); err != nil {
			return nil, err
		}
	}

	sys := &System{
		Config:     cfg,
		Logger:     logger,
		Level:      level,
		Redactor:   redactor,
		Audit:      audit,
		Telemetry:  tp,
		Metrics:    m,
		Store:      st,
		Registry:   registry,
		Dispatcher: dispatcher,
		Catalog:    catalog,
		Engine:     engine,
		Commands:   interpreter,
		Events:     hub,
		Gateway:    gw,
		App:        core.NewApp(logger),
	}
	sys.assemble(auditFile)
	return sys, nil
}

// assemble registers components with App. Stop runs in reverse: the
// gateway stops taking commands, the engine drains in-flight fires, then
// storage, the audit file and the exporter are flushed and closed.
func (s *System) assemble(auditFile *os.File) {
	s.App.Append("telemetry", core.Hooks{OnStop: s.Telemetry.Shutdown})
	if auditFile != nil {
		s.App.Append("audit", core.Hooks{OnStop: func(context.Context) error { return auditFile.Close() }})
	}
	s.App.Append("store", core.Hooks{OnStop: func(context.Context) error { return s.Store.Close() }})
	s.App.Append("restore", core.Hooks{OnStart: func() error {
		n, err := s.Commands.Restore(context.Background())
		if err != nil {
			// Unreadable records are skipped; the rest are restored.
			s.Logger.Warn("app: some jobs could not be restored", "error", err)
		}
		s.Logger.Info("app: jobs restored", "count", n)
		return nil
	}})
	s.App.Append("scheduler", core.Hooks{
		OnStart: func() error { s.Engine.Start(); return nil },
		OnStop:  s.Engine.Stop,
	})
	if s.Gateway != nil {
		s.App.Append("gateway", s.Gateway)
	}
}

// openStore opens the configured job store.
func openStore(cfg config.StoreConfig, dataDir string) (store.Store, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreSQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(dataDir, "cronbot.db")
		}
		return sqlite.Open(path)
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.Driver)
	}
}

// newDispatcher registers the log channel and every configured webhook.
func newDispatcher(cfg config.ChannelsConfig, logger *slog.Logger) (*channel.Dispatcher, error) {
	d := channel.NewDispatcher(cfg.RatePerSec)
	if err := d.Register(channel.NewLogChannel(config.DefaultChannel, logger)); err != nil {
		return nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Webhooks)) {
		if err := d.Register(channel.NewWebhookChannel(name, cfg.Webhooks[name].URL, http.DefaultClient)); err != nil {
			return nil, fmt.Errorf("app: channel %s: %w", name, err)
		}
	}
	if err := d.SetDefault(cfg.Default); err != nil {
		return nil, fmt.Errorf("app: channels.default: %w", err)
	}
	return d, nil
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("app: audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("app: open audit log: %w", err)
	}
	return f, nil
}
