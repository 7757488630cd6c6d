// Package config handles YAML configuration loading, environment variable
// expansion, defaults and structural validation for cronbot.
package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Log       LogConfig               `yaml:"log"`
	Scheduler SchedulerConfig         `yaml:"scheduler"`
	Store     StoreConfig             `yaml:"store"`
	Channels  ChannelsConfig          `yaml:"channels"`
	Actions   map[string]ActionConfig `yaml:"actions,omitempty"`
	Tracing   TracingConfig           `yaml:"tracing"`

	// Gateway enables the HTTP surface when present.
	Gateway *GatewayConfig `yaml:"gateway,omitempty"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`
	// Format is text or json. Defaults to text.
	Format string `yaml:"format"`
	// AuditPath is a JSONL file receiving one line per command and per
	// rejected gateway request. Empty disables the audit log.
	AuditPath string `yaml:"audit_path"`
}

// SlogLevel maps Level to a slog.Level. Unknown values map to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SchedulerConfig controls the scheduler engine.
type SchedulerConfig struct {
	// Timezone is an IANA zone name used to evaluate patterns.
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone"`

	// ActionTimeout bounds a single action invocation. Defaults to 1m.
	ActionTimeout time.Duration `yaml:"action_timeout"`

	// SkipIfRunning skips a firing while the previous run of the same job
	// is still in progress.
	SkipIfRunning bool `yaml:"skip_if_running"`
}

// Location resolves Timezone.
func (c SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// StoreConfig selects where job definitions are persisted.
type StoreConfig struct {
	// Driver is "sqlite" (default) or "memory".
	Driver string `yaml:"driver"`
	// Path is the SQLite database file. Defaults to {DataDir}/cronbot.db.
	Path string `yaml:"path"`
}

// ChannelsConfig configures outbound message delivery.
type ChannelsConfig struct {
	// Default names the channel used when a job has no explicit target.
	// Defaults to "log".
	Default string `yaml:"default"`

	// RatePerSec caps messages per second on each channel. 0 disables it.
	RatePerSec float64 `yaml:"rate_per_sec"`

	// Webhooks maps channel names to Slack-compatible incoming webhooks.
	Webhooks map[string]WebhookChannelConfig `yaml:"webhooks,omitempty"`
}

// WebhookChannelConfig configures one incoming-webhook channel.
type WebhookChannelConfig struct {
	URL string `yaml:"url"`
}

// Action kinds.
const (
	ActionMessage = "message"
	ActionWebhook = "webhook"
)

// ActionConfig defines a command jobs can run, in addition to the
// built-in ones.
type ActionConfig struct {
	// Kind is "message" (post Text to the job's target) or "webhook"
	// (POST a JSON event to URL).
	Kind        string   `yaml:"kind"`
	Aliases     []string `yaml:"aliases,omitempty"`
	Description string   `yaml:"description,omitempty"`

	// Text is a text/template rendered with the firing's job, command,
	// args and time.
	Text string `yaml:"text,omitempty"`

	URL     string        `yaml:"url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// TracingConfig configures OpenTelemetry export. Tracing is disabled
// when Endpoint is empty.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name"`
}

// GatewayConfig holds HTTP gateway configuration.
type GatewayConfig struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	Slack           SlackConfig   `yaml:"slack"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig configures authentication for admin endpoints.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}

// SlackConfig configures the slash-command endpoint.
type SlackConfig struct {
	// Enabled mounts POST /slack/commands. SigningSecret is then required
	// and every request signature is verified against it.
	Enabled       bool   `yaml:"enabled"`
	SigningSecret string `yaml:"signing_secret"`
	// Channel is the dispatcher channel jobs created from Slack post to.
	Channel string `yaml:"channel"`
}
