// Package metrics exposes scheduler and command counters as Prometheus
// collectors on a private registry.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/cronbot/internal/command"
	"github.com/flemzord/cronbot/internal/scheduler"
)

const namespace = "cronbot"

// Fire results.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// Metrics implements scheduler.Observer and command.Observer.
type Metrics struct {
	registry *prometheus.Registry

	fires    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	armed    prometheus.Gauge
	commands *prometheus.CounterVec
}

// Compile-time interface checks.
var (
	_ scheduler.Observer = (*Metrics)(nil)
	_ command.Observer   = (*Metrics)(nil)
)

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_fires_total",
			Help:      "Job firings by job and result (ok, error, skipped).",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_fire_duration_seconds",
			Help:      "Action run time per job.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"job"}),
		armed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_armed",
			Help:      "Jobs currently armed on the scheduler.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Cron commands handled, by operation and result.",
		}, []string{"op", "result"}),
	}
	m.registry.MustRegister(
		m.fires, m.duration, m.armed, m.commands,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// JobFired implements scheduler.Observer. Manual test firings are not
// counted against the job.
func (m *Metrics) JobFired(ev scheduler.FireEvent) {
	if ev.Manual {
		return
	}
	switch {
	case ev.Skipped:
		m.fires.WithLabelValues(ev.Job, ResultSkipped).Inc()
		return
	case ev.Err != nil:
		m.fires.WithLabelValues(ev.Job, ResultError).Inc()
	default:
		m.fires.WithLabelValues(ev.Job, ResultOK).Inc()
	}
	m.duration.WithLabelValues(ev.Job).Observe(ev.Duration.Seconds())
}

// ArmedChanged implements scheduler.Observer.
func (m *Metrics) ArmedChanged(n int) {
	m.armed.Set(float64(n))
}

// CommandHandled implements command.Observer. Validation failures are
// counted as "invalid", other failures as "error".
func (m *Metrics) CommandHandled(op command.Op, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
		var ve *command.ValidationError
		if errors.As(err, &ve) {
			result = "invalid"
		}
	}
	m.commands.WithLabelValues(string(op), result).Inc()
}
