package app

import (
	"io"
	"log/slog"

	"github.com/flemzord/cronbot/internal/security"
)

// NewLogger builds the process logger: a text or JSON handler writing to
// w at level, behind a redacting handler.
func NewLogger(w io.Writer, format string, level slog.Leveler, redactor *security.Redactor) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler
	if format == "json" {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor))
}
