// Package scheduler arms jobs on a cron runner and invokes their actions
// when they fire.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	robfig "github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/cronbot/internal/action"
	"github.com/flemzord/cronbot/internal/job"
)

const tracerName = "github.com/flemzord/cronbot/internal/scheduler"

// StateReader reports a job's current registry state.
type StateReader interface {
	State(name string) (job.State, error)
}

// Config holds engine settings.
type Config struct {
	// Location is the zone patterns are evaluated in. Nil means time.Local.
	Location *time.Location

	// ActionTimeout bounds each invocation. Zero means no bound.
	ActionTimeout time.Duration

	// SkipIfRunning drops a firing while the job's previous run is still
	// in progress.
	SkipIfRunning bool
}

// binding ties an armed job to its runner entry. gen identifies the arm
// call that created it, so a firing from a replaced entry can tell it is
// stale.
type binding struct {
	id   robfig.EntryID
	gen  uint64
	job  job.Job
	busy sync.Mutex
}

// Engine arms and disarms jobs. Every firing runs on its own goroutine and
// re-checks, under the engine lock, that its binding is current and that
// the job is still Scheduled before invoking the action. Action failures
// are logged and observed; they never disarm a job.
type Engine struct {
	mu       sync.Mutex
	runner   *robfig.Cron
	bindings map[string]*binding
	gen      uint64
	running  bool

	cfg       Config
	states    StateReader
	invoker   action.Invoker
	logger    *slog.Logger
	tracer    trace.Tracer
	observers observers
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithTracer sets the tracer used for fire spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithClock overrides time.Now for occurrence previews.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine. Jobs may be armed before Start; they begin firing
// once the engine is started.
func New(cfg Config, states StateReader, invoker action.Invoker, opts ...Option) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	e := &Engine{
		bindings: make(map[string]*binding),
		cfg:      cfg,
		states:   states,
		invoker:  invoker,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "scheduler")
	e.ctx, e.cancel = context.WithCancel(context.Background())

	adapter := cronLogger{logger: e.logger}
	e.runner = robfig.New(
		robfig.WithLocation(cfg.Location),
		robfig.WithLogger(adapter),
		robfig.WithChain(robfig.Recover(adapter)),
	)
	return e
}

// Location returns the zone patterns are evaluated in.
func (e *Engine) Location() *time.Location { return e.cfg.Location }

// Start begins firing armed jobs.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return
	}
	e.running = true
	e.runner.Start()
	e.logger.Info("scheduler: started", "armed", len(e.bindings), "location", e.cfg.Location.String())
}

// Stop disarms every job, halts the runner and waits for in-flight
// actions, or for ctx. In-flight actions see their context cancelled.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	wasRunning := e.running
	e.running = false
	e.mu.Unlock()

	if n := e.DisarmAll(); n > 0 {
		e.logger.Info("scheduler: disarmed all jobs", "count", n)
	}
	e.cancel()
	if !wasRunning {
		return nil
	}

	select {
	case <-e.runner.Stop().Done():
		e.logger.Info("scheduler: stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}

// Arm binds j to a runner entry and returns its first occurrence. Arming
// an already-armed name replaces the previous binding. A pattern that
// never matches is rejected with an error wrapping cron.ErrUnsatisfiable.
func (e *Engine) Arm(j job.Job) (time.Time, error) {
	first, err := j.Pattern.Next(e.now().In(e.cfg.Location))
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduler: arm %s: %w", j.Name, err)
	}

	e.mu.Lock()
	if old, ok := e.bindings[j.Name]; ok {
		e.runner.Remove(old.id)
	}
	e.gen++
	b := &binding{gen: e.gen, job: j}
	name, gen := j.Name, b.gen
	b.id = e.runner.Schedule(
		patternSchedule{pattern: j.Pattern, loc: e.cfg.Location},
		robfig.FuncJob(func() { e.fire(name, gen) }),
	)
	e.bindings[j.Name] = b
	armed := len(e.bindings)
	e.mu.Unlock()

	e.logger.Info("scheduler: job armed", "job", j.Name, "pattern", j.Pattern.Source(), "next", first)
	e.observers.armed(armed)
	return first, nil
}

// Disarm removes name's binding. It reports false when the job was not
// armed, which is not an error.
func (e *Engine) Disarm(name string) bool {
	e.mu.Lock()
	b, ok := e.bindings[name]
	if ok {
		e.runner.Remove(b.id)
		delete(e.bindings, name)
	}
	armed := len(e.bindings)
	e.mu.Unlock()

	if ok {
		e.logger.Info("scheduler: job disarmed", "job", name)
		e.observers.armed(armed)
	}
	return ok
}

// DisarmAll removes every binding and returns how many there were.
func (e *Engine) DisarmAll() int {
	e.mu.Lock()
	n := len(e.bindings)
	for name, b := range e.bindings {
		e.runner.Remove(b.id)
		delete(e.bindings, name)
	}
	e.mu.Unlock()

	if n > 0 {
		e.observers.armed(0)
	}
	return n
}

// Armed returns the number of armed jobs.
func (e *Engine) Armed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bindings)
}

// IsArmed reports whether name has a binding.
func (e *Engine) IsArmed(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.bindings[name]
	return ok
}

// NextRun returns the next firing time of an armed job.
func (e *Engine) NextRun(name string) (time.Time, bool) {
	e.mu.Lock()
	b, ok := e.bindings[name]
	var entry robfig.Entry
	if ok {
		entry = e.runner.Entry(b.id)
	}
	e.mu.Unlock()

	if !ok {
		return time.Time{}, false
	}
	if !entry.Next.IsZero() {
		return entry.Next, true
	}
	// Not started yet: the runner has not computed a next time.
	next, err := b.job.Pattern.Next(e.now().In(e.cfg.Location))
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

// Preview returns the next n occurrences of j's pattern from now, in the
// engine's location.
func (e *Engine) Preview(j job.Job, n int) ([]time.Time, error) {
	return j.Pattern.NextN(e.now().In(e.cfg.Location), n)
}

// FireOnce invokes j's action synchronously, without consulting the
// registry or touching any binding.
func (e *Engine) FireOnce(ctx context.Context, j job.Job) (action.Result, error) {
	return e.invoke(ctx, j, true)
}

// fire runs on the runner's goroutine for one firing of name.
func (e *Engine) fire(name string, gen uint64) {
	e.mu.Lock()
	b, ok := e.bindings[name]
	if !ok || b.gen != gen {
		e.mu.Unlock()
		e.logger.Debug("scheduler: stale firing abandoned", "job", name)
		return
	}
	state, err := e.states.State(name)
	if err != nil || state != job.Scheduled {
		// The registry moved on without disarming; drop the binding.
		e.runner.Remove(b.id)
		delete(e.bindings, name)
		armed := len(e.bindings)
		e.mu.Unlock()
		e.logger.Debug("scheduler: firing abandoned, job not scheduled", "job", name, "state", state, "error", err)
		e.observers.armed(armed)
		return
	}
	j := b.job
	e.mu.Unlock()

	if e.cfg.SkipIfRunning {
		if !b.busy.TryLock() {
			e.logger.Warn("scheduler: job still running, skipping tick", "job", name)
			e.observers.fired(FireEvent{Job: name, Command: j.Action.Command, Started: e.now(), Skipped: true})
			return
		}
		defer b.busy.Unlock()
	}

	_, _ = e.invoke(e.ctx, j, false)
}

func (e *Engine) invoke(ctx context.Context, j job.Job, manual bool) (action.Result, error) {
	if e.cfg.ActionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ActionTimeout)
		defer cancel()
	}

	start := time.Now()
	ev := FireEvent{
		ID:      newEventID(),
		Job:     j.Name,
		Command: j.Action.Command,
		Started: e.now(),
		Manual:  manual,
	}

	ctx, span := e.tracer.Start(ctx, "scheduler.fire", trace.WithAttributes(
		attribute.String("cron.job", j.Name),
		attribute.String("cron.command", j.Action.Command),
		attribute.String("cron.pattern", j.Pattern.Source()),
		attribute.Bool("cron.manual", manual),
		attribute.String("cron.event_id", ev.ID),
	))
	defer span.End()

	res, err := e.invoker.Invoke(ctx, action.Request{
		Job:     j.Name,
		Command: j.Action.Command,
		Args:    j.Action.Args,
		Target:  j.Target,
		FiredAt: ev.Started,
	})
	ev.Duration = time.Since(start)
	ev.Err = err

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("scheduler: action failed",
			"job", j.Name,
			"command", j.Action.Command,
			"event", ev.ID,
			"error", err,
		)
	} else {
		e.logger.Debug("scheduler: job fired", "job", j.Name, "command", j.Action.Command, "event", ev.ID, "duration", ev.Duration)
	}
	e.observers.fired(ev)
	return res, err
}

func newEventID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
