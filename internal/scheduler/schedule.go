package scheduler

import (
	"time"

	"github.com/flemzord/cronbot/internal/cron"
)

// patternSchedule exposes a cron.Pattern to the robfig runner. The runner
// asks for the next occurrence after every run, so each re-arm is computed
// from the current time rather than from the previous target.
type patternSchedule struct {
	pattern cron.Pattern
	loc     *time.Location
}

// Next returns the zero time, which the runner treats as "never", when
// the pattern has no further occurrence.
func (s patternSchedule) Next(t time.Time) time.Time {
	next, err := s.pattern.Next(t.In(s.loc))
	if err != nil {
		return time.Time{}
	}
	return next
}
