package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/cronbot/internal/action"
	"github.com/flemzord/cronbot/internal/action/actiontest"
	"github.com/flemzord/cronbot/internal/cron"
	"github.com/flemzord/cronbot/internal/job"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []FireEvent
	armed  []int
}

func (o *recordingObserver) JobFired(ev FireEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) ArmedChanged(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.armed = append(o.armed, n)
}

func (o *recordingObserver) snapshot() ([]FireEvent, []int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]FireEvent(nil), o.events...), append([]int(nil), o.armed...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newJob(t *testing.T, reg *job.Registry, name, expr string) job.Job {
	t.Helper()
	p, err := cron.Parse(expr)
	if err != nil {
		t.Fatal(err)
	}
	j := job.Job{Name: name, Pattern: p, Action: job.Action{Command: "echo", Args: []string{name}}, State: job.Scheduled}
	if reg != nil {
		if err := reg.Create(j); err != nil {
			t.Fatal(err)
		}
	}
	return j
}

func newEngine(t *testing.T, reg *job.Registry, inv action.Invoker, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	e := New(Config{Location: time.UTC, ActionTimeout: 5 * time.Second}, reg, inv, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Stop(ctx)
	})
	return e
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestEngine_FiresArmedJob(t *testing.T) {
	t.Parallel()

	reg := job.NewRegistry()
	inv := actiontest.NewMockInvoker()
	e := newEngine(t, reg, inv)

	j := newJob(t, reg, "tick", "* * * * * *")
	if _, err := e.Arm(j); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	e.Start()

	select {
	case req := <-inv.Seen():
		if req.Job != "tick" || req.Command != "echo" || len(req.Args) != 1 {
			t.Errorf("request = %+v", req)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}
}

func TestEngine_FailureKeepsJobArmed(t *testing.T) {
	t.Parallel()

	reg := job.NewRegistry()
	inv := actiontest.NewMockInvoker()
	inv.InvokeFunc = func(context.Context, action.Request) (action.Result, error) {
		return action.Result{}, &action.InvocationError{Command: "echo", Err: errors.New("boom")}
	}
	obs := &recordingObserver{}
	e := newEngine(t, reg, inv, WithObserver(obs))

	if _, err := e.Arm(newJob(t, reg, "flaky", "* * * * * *")); err != nil {
		t.Fatal(err)
	}
	e.Start()

	if !waitFor(t, 4*time.Second, func() bool { return inv.CallCount() >= 2 }) {
		t.Fatalf("expected repeated firings despite failures, got %d", inv.CallCount())
	}
	if !e.IsArmed("flaky") {
		t.Error("failing action disarmed the job")
	}
	events, _ := obs.snapshot()
	if len(events) == 0 || events[0].Err == nil || events[0].ID == "" {
		t.Errorf("events = %+v", events)
	}
}

func TestEngine_AbandonsWhenNotScheduled(t *testing.T) {
	t.Parallel()

	reg := job.NewRegistry()
	inv := actiontest.NewMockInvoker()
	e := newEngine(t, reg, inv)

	if _, err := e.Arm(newJob(t, reg, "halted", "* * * * * *")); err != nil {
		t.Fatal(err)
	}
	// The registry moves on but the binding is left in place.
	if _, err := reg.SetState("halted", job.Stopped); err != nil {
		t.Fatal(err)
	}
	e.Start()

	if !waitFor(t, 3*time.Second, func() bool { return !e.IsArmed("halted") }) {
		t.Fatal("stale binding was not dropped")
	}
	if n := inv.CallCount(); n != 0 {
		t.Errorf("action invoked %d times for a stopped job", n)
	}
}

func TestEngine_DisarmPreventsFiring(t *testing.T) {
	t.Parallel()

	reg := job.NewRegistry()
	inv := actiontest.NewMockInvoker()
	e := newEngine(t, reg, inv)

	if _, err := e.Arm(newJob(t, reg, "gone", "* * * * * *")); err != nil {
		t.Fatal(err)
	}
	if !e.Disarm("gone") {
		t.Fatal("Disarm reported not armed")
	}
	if e.Disarm("gone") {
		t.Error("second Disarm should be a no-op")
	}
	e.Start()

	time.Sleep(1500 * time.Millisecond)
	if n := inv.CallCount(); n != 0 {
		t.Errorf("disarmed job fired %d times", n)
	}
}

func TestEngine_ArmReplaces(t *testing.T) {
	t.Parallel()

	reg := job.NewRegistry()
	obs := &recordingObserver{}
	e := newEngine(t, reg, actiontest.NewMockInvoker(), WithObserver(obs))

	j := newJob(t, reg, "twice", "0 0 0 1 0 *")
	if _, err := e.Arm(j); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Arm(j); err != nil {
		t.Fatal(err)
	}
	if got := e.Armed(); got != 1 {
		t.Errorf("Armed = %d, want 1", got)
	}
	if n := e.DisarmAll(); n != 1 {
		t.Errorf("DisarmAll = %d, want 1", n)
	}
	_, armed := obs.snapshot()
	if len(armed) != 3 || armed[2] != 0 {
		t.Errorf("armed notifications = %v, want [1 1 0]", armed)
	}
}

func TestEngine_ArmUnsatisfiable(t *testing.T) {
	t.Parallel()

	e := newEngine(t, job.NewRegistry(), actiontest.NewMockInvoker())
	_, err := e.Arm(newJob(t, nil, "feb30", "0 0 0 30 1 *"))
	if !errors.Is(err, cron.ErrUnsatisfiable) {
		t.Fatalf("error = %v, want ErrUnsatisfiable", err)
	}
	if e.Armed() != 0 {
		t.Error("unsatisfiable job must not be armed")
	}
}

func TestEngine_NextRunBeforeStart(t *testing.T) {
	t.Parallel()

	sat := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	e := newEngine(t, job.NewRegistry(), actiontest.NewMockInvoker(), WithClock(func() time.Time { return sat }))

	j := newJob(t, nil, "standup", "0 30 11 * * 1-5")
	first, err := e.Arm(j)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, time.June, 3, 11, 30, 0, 0, time.UTC)
	if !first.Equal(want) {
		t.Errorf("Arm returned %s, want %s", first, want)
	}
	if next, ok := e.NextRun("standup"); !ok || !next.Equal(want) {
		t.Errorf("NextRun = %s, %v", next, ok)
	}
	if _, ok := e.NextRun("missing"); ok {
		t.Error("NextRun of unarmed job should report false")
	}

	preview, err := e.Preview(j, 2)
	if err != nil || len(preview) != 2 || !preview[1].Equal(want.AddDate(0, 0, 1)) {
		t.Errorf("Preview = %v, %v", preview, err)
	}
}

func TestEngine_FireOnce(t *testing.T) {
	t.Parallel()

	inv := actiontest.NewMockInvoker()
	obs := &recordingObserver{}
	// No registry: FireOnce must not consult it.
	e := newEngine(t, nil, inv, WithObserver(obs))

	res, err := e.FireOnce(context.Background(), newJob(t, nil, "t", "0 0 0 1 0 *"))
	if err != nil {
		t.Fatalf("FireOnce: %v", err)
	}
	if res.Output != "ok" || inv.CallCount() != 1 {
		t.Errorf("result = %+v, calls = %d", res, inv.CallCount())
	}
	if e.Armed() != 0 {
		t.Error("FireOnce must not arm")
	}
	events, _ := obs.snapshot()
	if len(events) != 1 || !events[0].Manual {
		t.Errorf("events = %+v", events)
	}
}

func TestEngine_SkipIfRunning(t *testing.T) {
	t.Parallel()

	reg := job.NewRegistry()
	release := make(chan struct{})
	inv := actiontest.NewMockInvoker()
	inv.InvokeFunc = func(ctx context.Context, _ action.Request) (action.Result, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return action.Result{}, nil
	}
	obs := &recordingObserver{}
	e := New(Config{Location: time.UTC, SkipIfRunning: true}, reg, inv, WithLogger(quietLogger()), WithObserver(obs))
	defer func() {
		close(release)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Stop(ctx)
	}()

	if _, err := e.Arm(newJob(t, reg, "slow", "* * * * * *")); err != nil {
		t.Fatal(err)
	}
	e.Start()

	skipped := func() bool {
		events, _ := obs.snapshot()
		for _, ev := range events {
			if ev.Skipped {
				return true
			}
		}
		return false
	}
	if !waitFor(t, 4*time.Second, skipped) {
		t.Fatal("overlapping firing was not skipped")
	}
	if n := inv.CallCount(); n != 1 {
		t.Errorf("action started %d times, want 1", n)
	}
}

func TestEngine_StopCancelsInFlight(t *testing.T) {
	t.Parallel()

	reg := job.NewRegistry()
	started := make(chan struct{}, 1)
	inv := actiontest.NewMockInvoker()
	inv.InvokeFunc = func(ctx context.Context, _ action.Request) (action.Result, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return action.Result{}, ctx.Err()
	}
	e := New(Config{Location: time.UTC}, reg, inv, WithLogger(quietLogger()))

	if _, err := e.Arm(newJob(t, reg, "long", "* * * * * *")); err != nil {
		t.Fatal(err)
	}
	e.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := e.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestEngine_StopDisarmsAll(t *testing.T) {
	t.Parallel()

	reg := job.NewRegistry()
	obs := &recordingObserver{}
	e := newEngine(t, reg, actiontest.NewMockInvoker(), WithObserver(obs))

	for _, name := range []string{"a", "b"} {
		if _, err := e.Arm(newJob(t, reg, name, "0 0 0 1 0 *")); err != nil {
			t.Fatal(err)
		}
	}
	e.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := e.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if e.Armed() != 0 || e.IsArmed("a") {
		t.Errorf("Armed() = %d after Stop, want 0", e.Armed())
	}
	if _, ok := e.NextRun("b"); ok {
		t.Error("NextRun reports a binding after Stop")
	}
	if _, armed := obs.snapshot(); len(armed) == 0 || armed[len(armed)-1] != 0 {
		t.Errorf("armed notifications = %v, want last 0", armed)
	}
}
