package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/flemzord/cronbot/internal/command"
	"github.com/flemzord/cronbot/internal/scheduler"
)

func TestMetrics_JobFired(t *testing.T) {
	t.Parallel()
	m := New()

	m.JobFired(scheduler.FireEvent{Job: "deploy", Duration: 10 * time.Millisecond})
	m.JobFired(scheduler.FireEvent{Job: "deploy", Err: errors.New("boom")})
	m.JobFired(scheduler.FireEvent{Job: "deploy", Skipped: true})
	m.JobFired(scheduler.FireEvent{Job: "deploy", Manual: true})

	tests := []struct {
		result string
		want   float64
	}{
		{ResultOK, 1},
		{ResultError, 1},
		{ResultSkipped, 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.fires.WithLabelValues("deploy", tt.result)); got != tt.want {
			t.Errorf("fires{result=%s} = %v, want %v", tt.result, got, tt.want)
		}
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestMetrics_ArmedGauge(t *testing.T) {
	t.Parallel()
	m := New()

	m.ArmedChanged(3)
	m.ArmedChanged(2)
	if got := testutil.ToFloat64(m.armed); got != 2 {
		t.Errorf("armed = %v, want 2", got)
	}
}

func TestMetrics_CommandHandled(t *testing.T) {
	t.Parallel()
	m := New()

	m.CommandHandled(command.OpJob, nil)
	m.CommandHandled(command.OpJob, &command.ValidationError{Violations: []error{errors.New("bad")}})
	m.CommandHandled(command.OpStop, errors.New("disk full"))

	tests := []struct {
		op, result string
	}{
		{"job", "ok"},
		{"job", "invalid"},
		{"stop", "error"},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.commands.WithLabelValues(tt.op, tt.result)); got != 1 {
			t.Errorf("commands{op=%s,result=%s} = %v, want 1", tt.op, tt.result, got)
		}
	}
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()
	m := New()
	m.ArmedChanged(1)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "cronbot_jobs_armed 1") {
		t.Errorf("exposition missing gauge:\n%s", body)
	}
}
