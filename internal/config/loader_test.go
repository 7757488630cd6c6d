package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cronbot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "version: \"1\"\ngateway: {}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
	if cfg.Scheduler.ActionTimeout != time.Minute {
		t.Errorf("ActionTimeout = %s", cfg.Scheduler.ActionTimeout)
	}
	if cfg.Store.Driver != StoreSQLite {
		t.Errorf("Store.Driver = %q", cfg.Store.Driver)
	}
	if cfg.Channels.Default != "log" {
		t.Errorf("Channels.Default = %q", cfg.Channels.Default)
	}
	if cfg.Gateway == nil || cfg.Gateway.Bind != DefaultBind {
		t.Errorf("Gateway = %+v", cfg.Gateway)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_NoGateway(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "version: \"1\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway != nil {
		t.Error("gateway should stay disabled when not configured")
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("CRONBOT_TEST_HOOK", "https://hooks.example.com/abc")

	cfg, err := Load(writeConfig(t, `
version: "1"
scheduler:
  timezone: ${CRONBOT_TEST_TZ:-UTC}
  action_timeout: 30s
channels:
  default: slack
  webhooks:
    slack:
      url: ${CRONBOT_TEST_HOOK}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduler.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want default UTC", cfg.Scheduler.Timezone)
	}
	if cfg.Scheduler.ActionTimeout != 30*time.Second {
		t.Errorf("ActionTimeout = %s", cfg.Scheduler.ActionTimeout)
	}
	if got := cfg.Channels.Webhooks["slack"].URL; got != "https://hooks.example.com/abc" {
		t.Errorf("webhook url = %q", got)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "version: \"1\"\nstore:\n  path: ${CRONBOT_SURELY_UNSET_VAR}\n"))
	if err == nil || !strings.Contains(err.Error(), "CRONBOT_SURELY_UNSET_VAR") {
		t.Errorf("error = %v, want unresolved variable", err)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	t.Parallel()

	if _, err := Load(writeConfig(t, "version: \"1\"\nschedular: {}\n")); err == nil {
		t.Error("expected error for unknown top-level key")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Error("defaults not applied to empty document")
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := (LogConfig{Level: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
