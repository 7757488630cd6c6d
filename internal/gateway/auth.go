package gateway

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/flemzord/cronbot/internal/config"
	"github.com/flemzord/cronbot/internal/security"
)

// authMiddleware returns a chi-compatible middleware that validates Bearer token
// or Basic auth credentials using constant-time comparison. Attempts beyond
// the limiter's rate are refused before any credential check. Refusals are
// recorded on audit when it is non-nil.
func authMiddleware(cfg config.AuthConfig, limiter *rate.Limiter, audit *security.AuditLogger, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				logger.Warn("gateway: auth rate limited", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				audit.Log(security.AuditEvent{Type: security.EventRateLimit, Detail: r.URL.Path, Metadata: map[string]string{"remote_addr": r.RemoteAddr}})
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				logger.Debug("gateway: auth failed", "reason", "missing authorization header", "path", r.URL.Path)
				audit.Log(security.AuditEvent{Type: security.EventAuthFailure, Detail: r.URL.Path, Error: "missing authorization header", Metadata: map[string]string{"remote_addr": r.RemoteAddr}})
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// Try Bearer token first.
			if cfg.BearerToken != "" {
				if after, ok := strings.CutPrefix(auth, "Bearer "); ok && constantTimeEqual(after, cfg.BearerToken) {
					next.ServeHTTP(w, r)
					return
				}
			}

			// Try Basic auth.
			if cfg.BasicUser != "" && cfg.BasicPass != "" {
				user, pass, ok := r.BasicAuth()
				if ok && constantTimeEqual(user, cfg.BasicUser) && constantTimeEqual(pass, cfg.BasicPass) {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("gateway: auth failed", "reason", "invalid credentials", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			audit.Log(security.AuditEvent{Type: security.EventAuthFailure, Detail: r.URL.Path, Error: "invalid credentials", Metadata: map[string]string{"remote_addr": r.RemoteAddr}})
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
