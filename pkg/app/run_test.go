package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/cronbot/internal/command"
	"github.com/flemzord/cronbot/internal/config"
	"github.com/flemzord/cronbot/internal/reload"
	"github.com/flemzord/cronbot/internal/security/securitytest"
)

const minimalConfig = `version: "1"
store:
  driver: memory
`

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "cronbot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestResolveConfigPath_XDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "cronbot")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfgPath := writeConfig(t, cfgDir, minimalConfig)

	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := ResolveConfigPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != cfgPath {
		t.Errorf("got %q, want %q", got, cfgPath)
	}
}

func TestResolveConfigPath_NotFound(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/nonexistent/path")
	t.Chdir(t.TempDir())

	_, err := ResolveConfigPath()
	if err == nil {
		t.Error("expected error when no config file found")
	}
}

func TestDefaultDataDir_XDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	got := DefaultDataDir()
	want := "/custom/data/cronbot"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDefaultDataDir_Fallback(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")

	got := DefaultDataDir()
	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".local", "share", "cronbot")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "version: \"2\"\n")
	if _, _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuild_MemoryStore(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}

	var logs bytes.Buffer
	sys, err := Build(context.Background(), BuildParams{
		Config:    cfg,
		DataDir:   t.TempDir(),
		LogOutput: &logs,
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if sys.Gateway != nil {
		t.Error("gateway built without a gateway section")
	}
	if got := strings.Join(sys.App.Names(), ","); got != "telemetry,store,restore,scheduler" {
		t.Errorf("components = %q", got)
	}

	if err := sys.App.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(sys.App.Stop)

	reply, err := sys.Commands.Run(context.Background(), "cron job tick 0 */5 * * * * ping", command.Origin{User: "test"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if reply.Job == nil || reply.Job.Name != "tick" {
		t.Errorf("reply = %+v", reply)
	}
	if _, ok := sys.Engine.NextRun("tick"); !ok {
		t.Error("job not armed")
	}
}

func TestBuild_AuditLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	auditPath := filepath.Join(dir, "logs", "audit.jsonl")
	cfg, err := config.Parse([]byte(minimalConfig + "log:\n  audit_path: " + auditPath + "\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	sys, err := Build(context.Background(), BuildParams{Config: cfg, DataDir: dir, LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if err := sys.App.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	_, _ = sys.Commands.Run(context.Background(), "cron list", command.Origin{User: "ada"})
	sys.App.Stop()

	data, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if !strings.Contains(string(data), `"op":"list"`) {
		t.Errorf("audit log = %s", data)
	}
}

func TestBuild_LogLevelOverride(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sys, err := Build(context.Background(), BuildParams{
		Config:    cfg,
		DataDir:   t.TempDir(),
		LogOutput: &bytes.Buffer{},
		LogLevel:  "debug",
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	t.Cleanup(sys.App.Stop)

	if got := sys.Level.Level().String(); got != "DEBUG" {
		t.Errorf("level = %s, want DEBUG", got)
	}
}

func TestApplyReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, minimalConfig)
	cfg, _, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	sys, err := Build(context.Background(), BuildParams{Config: cfg, DataDir: dir, LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	t.Cleanup(sys.App.Stop)

	audit, events := securitytest.NewTestAuditLogger()
	sys.Audit = audit
	handler := reload.NewHandler(reload.Targets{
		Actions: sys.Catalog,
		Rate:    sys.Dispatcher,
		Level:   sys.Level,
	}, cfg, sys.Logger)

	writeConfig(t, dir, minimalConfig+`log:
  level: warn
actions:
  standup:
    kind: message
    text: "standup time"
`)
	if err := applyReload(context.Background(), sys, handler, path); err != nil {
		t.Fatalf("applyReload() error: %v", err)
	}
	if _, ok := sys.Catalog.Resolve("standup"); !ok {
		t.Error("reloaded action not registered")
	}
	if got := sys.Level.Level().String(); got != "WARN" {
		t.Errorf("level = %s, want WARN", got)
	}

	writeConfig(t, dir, "version: \"9\"\n")
	if err := applyReload(context.Background(), sys, handler, path); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
	if _, ok := sys.Catalog.Resolve("standup"); !ok {
		t.Error("rejected reload dropped the running actions")
	}

	got := events()
	if len(got) != 2 || !got[0].OK || got[1].OK {
		t.Errorf("audit events = %+v", got)
	}
}

func TestRun_InvalidConfigPath(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), RunParams{ConfigPath: "/nonexistent/config.yaml"})
	if err == nil {
		t.Error("expected error for invalid config path")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, minimalConfig)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, RunParams{ConfigPath: path, DataDir: dir, LogOutput: &bytes.Buffer{}})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
