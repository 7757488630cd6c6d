// Package security keeps credentials out of log output and config dumps.
package security

import (
	"regexp"
	"strings"
	"sync"

	"github.com/flemzord/cronbot/internal/config"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches map keys that likely contain secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|pass$|key|credential|^url$)`)

// Redactor replaces secret values in strings and maps with a redaction placeholder.
// It supports both regex pattern matching (for known token formats) and
// literal value matching (for credentials read from the config file).
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// SyncConfig replaces all literal values with the secrets found in cfg:
// gateway credentials, the Slack signing secret and every webhook URL.
// Call it again after a config reload.
func (r *Redactor) SyncConfig(cfg *config.Config) {
	values := ConfigSecrets(cfg)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = values
}

// ConfigSecrets lists the secret values held by cfg.
func ConfigSecrets(cfg *config.Config) []string {
	if cfg == nil {
		return nil
	}
	var out []string
	add := func(s string) {
		if s != "" {
			out = append(out, s)
		}
	}
	if g := cfg.Gateway; g != nil {
		add(g.Auth.BearerToken)
		add(g.Auth.BasicPass)
		add(g.Slack.SigningSecret)
	}
	for _, w := range cfg.Channels.Webhooks {
		add(w.URL)
	}
	for _, a := range cfg.Actions {
		if a.Kind == config.ActionWebhook {
			add(a.URL)
		}
	}
	return out
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	// Literals first: a webhook URL must be replaced whole, before a
	// pattern rewrites part of it.
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}

	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}

	return s
}

// RedactMap walks a map and replaces values whose keys match common secret
// key names (secret, token, password, key, credential, url).
// It is used when printing the effective configuration.
func (r *Redactor) RedactMap(m map[string]any) {
	for k, v := range m {
		if secretKeyPattern.MatchString(k) {
			if s, ok := v.(string); ok && s != "" {
				m[k] = RedactPlaceholder
				continue
			}
			// Fall through to handle nested maps/slices under secret-named keys.
		}
		switch val := v.(type) {
		case map[string]any:
			r.RedactMap(val)
		case []any:
			for _, item := range val {
				if sub, ok := item.(map[string]any); ok {
					r.RedactMap(sub)
				}
			}
		case string:
			if redacted := r.Redact(val); redacted != val {
				m[k] = redacted
			}
		}
	}
}

// DefaultPatterns returns compiled regex patterns for the credential
// formats cronbot handles.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Slack incoming webhook
		regexp.MustCompile(`https://hooks\.slack\.com/services/[A-Za-z0-9/_\-]+`),
		// Slack bot, user and app tokens
		regexp.MustCompile(`xox[abp]-[0-9]+-[a-zA-Z0-9\-]+`),
		regexp.MustCompile(`xapp-[0-9]+-[a-zA-Z0-9\-]+`),
		// Slack request signature
		regexp.MustCompile(`v0=[0-9a-f]{64}`),
		// Authorization header values
		regexp.MustCompile(`(?i)bearer [A-Za-z0-9\-._~+/]+=*`),
	}
}
