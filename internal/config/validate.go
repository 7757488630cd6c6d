package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"text/template"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks the structural validity of a Config and reports every
// problem found, joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if !slices.Contains(logLevels, strings.ToLower(cfg.Log.Level)) {
		errs = append(errs, fmt.Errorf("config: log.level %q must be one of %s", cfg.Log.Level, strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(logFormats, cfg.Log.Format) {
		errs = append(errs, fmt.Errorf("config: log.format %q must be one of %s", cfg.Log.Format, strings.Join(logFormats, ", ")))
	}

	if _, err := cfg.Scheduler.Location(); err != nil {
		errs = append(errs, fmt.Errorf("config: scheduler.timezone: %w", err))
	}

	switch cfg.Store.Driver {
	case StoreMemory, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("config: store.driver %q must be %q or %q", cfg.Store.Driver, StoreSQLite, StoreMemory))
	}

	errs = append(errs, validateChannels(cfg.Channels)...)
	errs = append(errs, validateActions(cfg.Actions)...)

	if r := cfg.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("config: tracing.sample_ratio %v must be within [0, 1]", r))
	}

	if g := cfg.Gateway; g != nil {
		if g.Slack.Enabled && g.Slack.SigningSecret == "" {
			errs = append(errs, errors.New("config: gateway.slack.signing_secret is required when slack is enabled"))
		}
		if (g.Auth.BasicUser == "") != (g.Auth.BasicPass == "") {
			errs = append(errs, errors.New("config: gateway.auth.basic_user and basic_pass must be set together"))
		}
	}

	return errors.Join(errs...)
}

func validateChannels(c ChannelsConfig) []error {
	var errs []error
	if c.RatePerSec < 0 {
		errs = append(errs, fmt.Errorf("config: channels.rate_per_sec must be non-negative, got %v", c.RatePerSec))
	}
	for name, w := range c.Webhooks {
		if name == DefaultChannel {
			errs = append(errs, fmt.Errorf("config: channels.webhooks: name %q is reserved", name))
		}
		if err := checkURL(w.URL); err != nil {
			errs = append(errs, fmt.Errorf("config: channels.webhooks.%s.url: %w", name, err))
		}
	}
	if _, ok := c.Webhooks[c.Default]; !ok && c.Default != DefaultChannel {
		errs = append(errs, fmt.Errorf("config: channels.default %q is not a configured channel", c.Default))
	}
	return errs
}

func validateActions(actions map[string]ActionConfig) []error {
	var errs []error
	seen := make(map[string]string) // name or alias → owning action

	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		a := actions[name]
		prefix := "config: actions." + name

		for _, key := range append([]string{name}, a.Aliases...) {
			if key == "" || strings.ContainsAny(key, " \t\n") {
				errs = append(errs, fmt.Errorf("%s: invalid name or alias %q", prefix, key))
				continue
			}
			if owner, dup := seen[key]; dup {
				errs = append(errs, fmt.Errorf("%s: %q already used by action %q", prefix, key, owner))
				continue
			}
			seen[key] = name
		}

		switch a.Kind {
		case ActionMessage:
			if a.Text == "" {
				errs = append(errs, fmt.Errorf("%s: text is required for kind %q", prefix, a.Kind))
			} else if _, err := template.New(name).Parse(a.Text); err != nil {
				errs = append(errs, fmt.Errorf("%s: text: %w", prefix, err))
			}
		case ActionWebhook:
			if err := checkURL(a.URL); err != nil {
				errs = append(errs, fmt.Errorf("%s: url: %w", prefix, err))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: kind %q must be %q or %q", prefix, a.Kind, ActionMessage, ActionWebhook))
		}
	}
	return errs
}

func checkURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q must be http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}
