package scheduler

import (
	"log/slog"

	robfig "github.com/robfig/cron/v3"
)

// cronLogger adapts slog to robfig's logger. Its chatty run-loop messages
// are demoted to debug.
type cronLogger struct {
	logger *slog.Logger
}

var _ robfig.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("scheduler: runner "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("scheduler: runner "+msg, append(keysAndValues, "error", err)...)
}
