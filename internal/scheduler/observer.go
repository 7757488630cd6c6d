package scheduler

import "time"

// FireEvent describes one action invocation made by the engine.
type FireEvent struct {
	ID       string        `json:"id"`
	Job      string        `json:"job"`
	Command  string        `json:"command"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Manual   bool          `json:"manual,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
	Err      error         `json:"-"`
}

// Observer is notified of engine activity. Implementations must be safe
// for concurrent use and must not block.
type Observer interface {
	JobFired(ev FireEvent)
	ArmedChanged(armed int)
}

type observers []Observer

func (o observers) fired(ev FireEvent) {
	for _, obs := range o {
		obs.JobFired(ev)
	}
}

func (o observers) armed(n int) {
	for _, obs := range o {
		obs.ArmedChanged(n)
	}
}
