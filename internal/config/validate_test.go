package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{Version: "1"}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Actions = map[string]ActionConfig{
		"deploy-staging": {Kind: ActionWebhook, URL: "https://ci.example.com/hook", Aliases: []string{"ds"}},
		"standup":        {Kind: ActionMessage, Text: "Standup time ({{.Job}})"},
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing version", func(c *Config) { c.Version = "" }, "version field is required"},
		{"bad version", func(c *Config) { c.Version = "2" }, "unsupported version"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "scheduler.timezone"},
		{"bad driver", func(c *Config) { c.Store.Driver = "redis" }, "store.driver"},
		{"negative rate", func(c *Config) { c.Channels.RatePerSec = -1 }, "rate_per_sec"},
		{"unknown default channel", func(c *Config) { c.Channels.Default = "irc" }, "channels.default"},
		{"webhook without url", func(c *Config) {
			c.Channels.Webhooks = map[string]WebhookChannelConfig{"slack": {}}
		}, "channels.webhooks.slack.url"},
		{"reserved channel name", func(c *Config) {
			c.Channels.Webhooks = map[string]WebhookChannelConfig{"log": {URL: "https://x.example.com"}}
		}, "reserved"},
		{"bad kind", func(c *Config) {
			c.Actions = map[string]ActionConfig{"x": {Kind: "shell"}}
		}, "kind"},
		{"message without text", func(c *Config) {
			c.Actions = map[string]ActionConfig{"x": {Kind: ActionMessage}}
		}, "text is required"},
		{"bad template", func(c *Config) {
			c.Actions = map[string]ActionConfig{"x": {Kind: ActionMessage, Text: "{{.Job"}}
		}, "text:"},
		{"webhook bad scheme", func(c *Config) {
			c.Actions = map[string]ActionConfig{"x": {Kind: ActionWebhook, URL: "ftp://x"}}
		}, "scheme"},
		{"duplicate alias", func(c *Config) {
			c.Actions = map[string]ActionConfig{
				"a": {Kind: ActionMessage, Text: "a", Aliases: []string{"z"}},
				"b": {Kind: ActionMessage, Text: "b", Aliases: []string{"z"}},
			}
		}, "already used"},
		{"sample ratio", func(c *Config) { c.Tracing.SampleRatio = 2 }, "sample_ratio"},
		{"slack without secret", func(c *Config) {
			c.Gateway = &GatewayConfig{Slack: SlackConfig{Enabled: true}}
		}, "signing_secret"},
		{"half basic auth", func(c *Config) {
			c.Gateway = &GatewayConfig{Auth: AuthConfig{BasicUser: "admin"}}
		}, "basic_user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestValidate_AggregatesAll(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Version = ""
	cfg.Store.Driver = "redis"
	cfg.Log.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if n := len(strings.Split(err.Error(), "\n")); n != 3 {
		t.Errorf("got %d errors, want 3:\n%s", n, err)
	}
}
