package reload

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/flemzord/cronbot/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeActions struct {
	applied map[string]config.ActionConfig
	calls   int
	err     error
}

func (f *fakeActions) Apply(defs map[string]config.ActionConfig) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.applied = defs
	return nil
}

type fakeRate struct{ rate float64 }

func (f *fakeRate) SetRate(r float64) { f.rate = r }

func newTestHandler(t *testing.T) (*Handler, *fakeActions, *fakeRate, *slog.LevelVar) {
	t.Helper()
	actions := &fakeActions{}
	rate := &fakeRate{}
	level := new(slog.LevelVar)
	current, err := config.Parse([]byte("version: \"1\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(Targets{Actions: actions, Rate: rate, Level: level}, current, testLogger())
	return h, actions, rate, level
}

func TestHandler_HandleReload_FileNotFound(t *testing.T) {
	t.Parallel()
	h, actions, _, _ := newTestHandler(t)

	if err := h.HandleReload(context.Background(), "/nonexistent/cronbot.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
	if actions.calls != 0 {
		t.Errorf("Apply called %d times, want 0", actions.calls)
	}
}

func TestHandler_HandleReload_InvalidConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	h, actions, _, _ := newTestHandler(t)
	if err := h.HandleReload(context.Background(), path); err == nil {
		t.Error("expected validation error")
	}
	if actions.calls != 0 {
		t.Errorf("Apply called %d times, want 0", actions.calls)
	}
}

func TestHandler_HandleReload_AppliesLiveSettings(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "cronbot.yaml")
	content := `version: "1"
log:
  level: debug
channels:
  rate_per_sec: 2.5
actions:
  standup:
    kind: message
    text: "Standup time"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	h, actions, rate, level := newTestHandler(t)
	if err := h.HandleReload(context.Background(), path); err != nil {
		t.Fatalf("HandleReload() error: %v", err)
	}
	if _, ok := actions.applied["standup"]; !ok {
		t.Errorf("applied actions = %v, want standup", actions.applied)
	}
	if rate.rate != 2.5 {
		t.Errorf("rate = %v, want 2.5", rate.rate)
	}
	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", level.Level())
	}
}

func TestHandler_HandleReload_ApplyFailure(t *testing.T) {
	t.Parallel()
	h, actions, rate, level := newTestHandler(t)
	actions.err = errors.New("boom")

	cfg, err := config.Parse([]byte("version: \"1\"\nlog:\n  level: error\nchannels:\n  rate_per_sec: 9\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.HandleReloadFromConfig(context.Background(), cfg); err == nil {
		t.Fatal("expected error when actions fail to apply")
	}
	if rate.rate != 0 || level.Level() != slog.LevelInfo {
		t.Errorf("settings changed after failed apply: rate=%v level=%v", rate.rate, level.Level())
	}
}

func TestHandler_HandleReloadFromConfig_CancelledContext(t *testing.T) {
	t.Parallel()
	h, actions, _, _ := newTestHandler(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.HandleReloadFromConfig(ctx, &config.Config{Version: "1"}); err == nil {
		t.Error("expected error for cancelled context")
	}
	if actions.calls != 0 {
		t.Errorf("Apply called %d times, want 0", actions.calls)
	}
}

func TestHandler_NilTargets(t *testing.T) {
	t.Parallel()
	h := NewHandler(Targets{}, nil, nil)
	cfg, err := config.Parse([]byte("version: \"1\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.HandleReloadFromConfig(context.Background(), cfg); err != nil {
		t.Errorf("HandleReloadFromConfig() error: %v", err)
	}
}
