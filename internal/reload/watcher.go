// Package reload provides configuration hot-reload via filesystem
// notifications and signal handling.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// ConfigPath is the path to the configuration file to watch.
	ConfigPath string

	// Debounce coalesces bursts of writes (editors often write, truncate
	// and rename in quick succession). Defaults to 250ms if zero.
	Debounce time.Duration

	Logger *slog.Logger
}

func (c WatcherConfig) debounceOrDefault() time.Duration {
	if c.Debounce > 0 {
		return c.Debounce
	}
	return defaultDebounce
}

// EventType describes the type of file change event.
type EventType string

const (
	// EventModified indicates the config file was modified.
	EventModified EventType = "modified"
)

// Event represents a file change notification.
type Event struct {
	Type       EventType
	ConfigPath string
}

// Watcher watches a configuration file for modifications. The parent
// directory is watched rather than the file so atomic saves (write to a
// temp file, rename over the original) are still seen.
type Watcher struct {
	cfg     WatcherConfig
	logger  *slog.Logger
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a new file watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:     cfg,
		logger:  logger.With("component", "reload"),
		events:  make(chan Event, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins watching the config file. Only the first call has any
// effect. An error means the underlying notifier could not be set up;
// the watcher is then inert and Stop returns immediately.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.startOnce.Do(func() {
		var fw *fsnotify.Watcher
		fw, err = fsnotify.NewWatcher()
		if err != nil {
			err = fmt.Errorf("reload: creating watcher: %w", err)
			return
		}
		dir := filepath.Dir(w.cfg.ConfigPath)
		if err = fw.Add(dir); err != nil {
			_ = fw.Close()
			err = fmt.Errorf("reload: watching %s: %w", dir, err)
			return
		}
		w.started.Store(true)
		go w.run(ctx, fw)
	})
	return err
}

// Events returns the channel of file change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher. Safe to call multiple times and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	defer close(w.stopped)
	defer func() { _ = fw.Close() }()

	base := filepath.Base(w.cfg.ConfigPath)
	debounce := w.cfg.debounceOrDefault()

	// The timer is created stopped and only armed by a matching event.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Base(ev.Name), base) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("reload: change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("reload: watcher error", "error", err)
		case <-timer.C:
			select {
			case w.events <- Event{Type: EventModified, ConfigPath: w.cfg.ConfigPath}:
			default:
				// A reload is already pending.
			}
		}
	}
}
