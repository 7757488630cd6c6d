package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/flemzord/cronbot/internal/command"
	"github.com/flemzord/cronbot/internal/security"
)

// slackMaxSkew bounds how old a signed Slack request may be.
const slackMaxSkew = 5 * time.Minute

// Slack signature failures.
var (
	ErrSlackMissingSignature = errors.New("gateway: missing slack signature headers")
	ErrSlackStaleRequest     = errors.New("gateway: slack request timestamp outside allowed skew")
	ErrSlackBadSignature     = errors.New("gateway: slack signature mismatch")
)

// slackResponse is the JSON reply to a slash command.
type slackResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// handleSlackCommand serves POST /slack/commands. The request signature
// is verified before the form is parsed; the reply is always ephemeral.
func (g *Gateway) handleSlackCommand() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		if err := verifySlackSignature(g.config.Slack.SigningSecret, r.Header, body, g.now()); err != nil {
			g.logger.Warn("gateway: slack request rejected", "remote_addr", r.RemoteAddr, "error", err)
			g.audit.Log(security.AuditEvent{Type: security.EventSlackRejected, Channel: "slack", Error: err.Error(), Metadata: map[string]string{"remote_addr": r.RemoteAddr}})
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		form, err := url.ParseQuery(string(body))
		if err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}

		reply, err := g.commands.Run(r.Context(), form.Get("text"), command.Origin{
			Channel: g.config.Slack.Channel,
			Chat:    form.Get("channel_id"),
			User:    form.Get("user_name"),
		})
		text := reply.Text
		if err != nil {
			text = err.Error()
			if !isUserError(err) {
				g.logger.Error("gateway: slack command failed", "user", form.Get("user_name"), "error", err)
			}
		}
		writeJSON(w, http.StatusOK, slackResponse{ResponseType: "ephemeral", Text: text})
	}
}

// verifySlackSignature checks a v0 Slack request signature:
// "v0=" + hex(HMAC-SHA256(secret, "v0:" + timestamp + ":" + body)).
func verifySlackSignature(secret string, h http.Header, body []byte, now time.Time) error {
	sig := h.Get("X-Slack-Signature")
	ts := h.Get("X-Slack-Request-Timestamp")
	if sig == "" || ts == "" {
		return ErrSlackMissingSignature
	}

	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrSlackStaleRequest
	}
	if skew := now.Sub(time.Unix(sec, 0)); skew > slackMaxSkew || skew < -slackMaxSkew {
		return ErrSlackStaleRequest
	}

	if !hmac.Equal([]byte(signSlack(secret, ts, body)), []byte(sig)) {
		return ErrSlackBadSignature
	}
	return nil
}

func signSlack(secret, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}
