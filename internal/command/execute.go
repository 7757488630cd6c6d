package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flemzord/cronbot/internal/job"
	"github.com/flemzord/cronbot/internal/store"
)

// previewCount is how many upcoming occurrences "test" reports.
const previewCount = 3

// timeLayout formats occurrence times in replies.
const timeLayout = "Mon 2006-01-02 15:04:05 MST"

func (in *Interpreter) execute(ctx context.Context, op Operation, from Origin) (Reply, error) {
	switch op.Op {
	case OpJob:
		return in.execJob(ctx, op, from)
	case OpSave:
		return in.execSave(ctx, op, from)
	case OpTest:
		return in.execTest(ctx, op, from)
	case OpLoad:
		return in.execLoad(ctx, op.Name)
	case OpStop:
		return in.execStop(ctx, op.Name)
	case OpDelete:
		return in.execDelete(ctx, op.Name)
	case OpList:
		return Reply{Text: in.list()}, nil
	case OpHelp:
		return Reply{Text: HelpText}, nil
	default:
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownCommand, op.Op)
	}
}

func newJob(op Operation, from Origin, state job.State) job.Job {
	return job.Job{
		Name:      op.Name,
		Pattern:   op.Pattern,
		Action:    op.Action,
		Target:    job.Target{Channel: from.Channel, Chat: from.Chat},
		State:     state,
		CreatedBy: from.User,
	}
}

// execJob registers a Scheduled job, persists it and arms it. Any failure
// undoes the earlier steps.
func (in *Interpreter) execJob(ctx context.Context, op Operation, from Origin) (Reply, error) {
	if err := in.registry.Create(newJob(op, from, job.Scheduled)); err != nil {
		return Reply{}, err
	}
	j, err := in.registry.Get(op.Name)
	if err != nil {
		return Reply{}, err
	}
	if err := in.persist(ctx, j); err != nil {
		_, _ = in.registry.Delete(op.Name)
		return Reply{}, err
	}
	next, err := in.engine.Arm(j)
	if err != nil {
		_, _ = in.registry.Delete(op.Name)
		in.unpersist(ctx, op.Name)
		return Reply{}, err
	}

	in.logger.Info("command: job scheduled", "job", j.Name, "pattern", j.Pattern.Source(), "command", j.Action.Command, "user", from.User)
	return Reply{
		Text: fmt.Sprintf("Job %s scheduled: %s runs %s. Next run: %s.", j.Name, j.Pattern.Source(), j.Action, next.Format(timeLayout)),
		Job:  &j,
	}, nil
}

// execSave registers and persists a Saved job without arming it.
func (in *Interpreter) execSave(ctx context.Context, op Operation, from Origin) (Reply, error) {
	if err := in.registry.Create(newJob(op, from, job.Saved)); err != nil {
		return Reply{}, err
	}
	j, err := in.registry.Get(op.Name)
	if err != nil {
		return Reply{}, err
	}
	if err := in.persist(ctx, j); err != nil {
		_, _ = in.registry.Delete(op.Name)
		return Reply{}, err
	}

	in.logger.Info("command: job saved", "job", j.Name, "pattern", j.Pattern.Source(), "user", from.User)
	return Reply{
		Text: fmt.Sprintf("Job %s saved: %s runs %s. Use 'cron load %s' to start it.", j.Name, j.Pattern.Source(), j.Action, j.Name),
		Job:  &j,
	}, nil
}

// execTest fires the action once and previews the pattern. Nothing is
// registered.
func (in *Interpreter) execTest(ctx context.Context, op Operation, from Origin) (Reply, error) {
	j := newJob(op, from, job.Saved)

	res, err := in.engine.FireOnce(ctx, j)
	if err != nil {
		return Reply{}, err
	}
	upcoming, err := in.engine.Preview(j, previewCount)
	if err != nil {
		return Reply{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Test %s: %s ran.", j.Name, j.Action)
	if res.Output != "" {
		fmt.Fprintf(&b, "\nOutput: %s", res.Output)
	}
	fmt.Fprintf(&b, "\nPattern %s would next run at:", j.Pattern)
	for _, t := range upcoming {
		fmt.Fprintf(&b, "\n  %s", t.Format(timeLayout))
	}
	return Reply{Text: b.String()}, nil
}

// execLoad arms a Saved or Stopped job. A name unknown to the registry is
// first restored from the store.
func (in *Interpreter) execLoad(ctx context.Context, name string) (Reply, error) {
	restored := false
	if !in.registry.Has(name) {
		j, err := in.fromStore(ctx, name)
		if err != nil {
			return Reply{}, err
		}
		if err := in.registry.Create(j); err != nil {
			return Reply{}, err
		}
		restored = true
	}
	undoRestore := func() {
		if restored {
			_, _ = in.registry.Delete(name)
		}
	}

	prev, err := in.registry.Get(name)
	if err != nil {
		return Reply{}, err
	}
	if !job.CanTransition(prev.State, job.Scheduled) {
		undoRestore()
		return Reply{}, fmt.Errorf("%w: %s is already %s", job.ErrInvalidTransition, name, prev.State)
	}
	if _, err := in.engine.Preview(prev, 1); err != nil {
		undoRestore()
		return Reply{}, err
	}

	// Persist first: the registry cannot step back to Saved afterwards.
	next := prev
	next.State = job.Scheduled
	next.UpdatedAt = time.Now()
	if err := in.persist(ctx, next); err != nil {
		undoRestore()
		return Reply{}, err
	}

	j, err := in.registry.SetState(name, job.Scheduled)
	if err != nil {
		in.restoreRecord(ctx, prev)
		undoRestore()
		return Reply{}, err
	}
	at, err := in.engine.Arm(j)
	if err != nil {
		j, _ = in.registry.SetState(name, job.Stopped)
		_ = in.persist(ctx, j)
		return Reply{}, err
	}

	in.logger.Info("command: job loaded", "job", name, "from", prev.State, "restored", restored)
	return Reply{
		Text: fmt.Sprintf("Job %s loaded. Next run: %s.", name, at.Format(timeLayout)),
		Job:  &j,
	}, nil
}

// execStop disarms a Scheduled job.
func (in *Interpreter) execStop(ctx context.Context, name string) (Reply, error) {
	// Leaving Scheduled first means a pending firing is abandoned even if
	// it wins the race against Disarm.
	j, err := in.registry.SetState(name, job.Stopped)
	if err != nil {
		return Reply{}, err
	}
	in.engine.Disarm(name)

	if err := in.persist(ctx, j); err != nil {
		if j, rerr := in.registry.SetState(name, job.Scheduled); rerr == nil {
			_, _ = in.engine.Arm(j)
		}
		return Reply{}, err
	}

	in.logger.Info("command: job stopped", "job", name)
	return Reply{Text: fmt.Sprintf("Job %s stopped. Use 'cron load %s' to restart it.", name, name), Job: &j}, nil
}

// execDelete removes a job from the store, the scheduler and the registry.
func (in *Interpreter) execDelete(ctx context.Context, name string) (Reply, error) {
	j, err := in.registry.Get(name)
	if err != nil {
		return Reply{}, err
	}
	if in.store != nil {
		if err := in.store.Delete(ctx, name); err != nil && !errors.Is(err, store.ErrNotFound) {
			return Reply{}, fmt.Errorf("command: delete %s: %w", name, err)
		}
	}
	if _, err := in.registry.Delete(name); err != nil {
		return Reply{}, err
	}
	in.engine.Disarm(name)

	in.logger.Info("command: job deleted", "job", name, "state", j.State)
	return Reply{Text: fmt.Sprintf("Job %s deleted.", name), Job: &j}, nil
}

// list renders one line per job in registration order.
func (in *Interpreter) list() string {
	jobs := in.registry.List()
	if len(jobs) == 0 {
		return "No cron jobs."
	}

	lines := make([]string, len(jobs))
	for i, j := range jobs {
		next := "-"
		if j.State == job.Scheduled {
			if t, ok := in.engine.NextRun(j.Name); ok {
				next = t.Format(timeLayout)
			}
		}
		lines[i] = fmt.Sprintf("%s  %s  %s  %s  next: %s", j.Name, j.Pattern.Source(), j.State, j.Action, next)
	}
	return strings.Join(lines, "\n")
}

func (in *Interpreter) persist(ctx context.Context, j job.Job) error {
	if in.store == nil {
		return nil
	}
	if err := in.store.Save(ctx, store.FromJob(j)); err != nil {
		return fmt.Errorf("command: persist %s: %w", j.Name, err)
	}
	return nil
}

func (in *Interpreter) unpersist(ctx context.Context, name string) {
	if in.store == nil {
		return
	}
	if err := in.store.Delete(ctx, name); err != nil && !errors.Is(err, store.ErrNotFound) {
		in.logger.Error("command: failed to remove record", "job", name, "error", err)
	}
}

func (in *Interpreter) restoreRecord(ctx context.Context, j job.Job) {
	if err := in.persist(ctx, j); err != nil {
		in.logger.Error("command: failed to restore record", "job", j.Name, "error", err)
	}
}

// fromStore loads name from the store as a job ready to be registered.
func (in *Interpreter) fromStore(ctx context.Context, name string) (job.Job, error) {
	if in.store == nil {
		return job.Job{}, fmt.Errorf("%w: %s", job.ErrNotFound, name)
	}
	rec, err := in.store.Load(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return job.Job{}, fmt.Errorf("%w: %s", job.ErrNotFound, name)
	}
	if err != nil {
		return job.Job{}, fmt.Errorf("command: load %s: %w", name, err)
	}
	j, err := rec.ToJob()
	if err != nil {
		return job.Job{}, err
	}
	j.State = restoredState(j.State)
	return j, nil
}

// restoredState maps a persisted state to the state a job resumes in
// after a restart: bindings are not persisted, so nothing comes back
// Scheduled.
func restoredState(s job.State) job.State {
	if s == job.Saved {
		return job.Saved
	}
	return job.Stopped
}

// Restore registers every persisted job. Saved jobs stay Saved; Scheduled
// and Stopped jobs come back Stopped and must be loaded again. Records
// that cannot be parsed are skipped and reported in the returned error.
func (in *Interpreter) Restore(ctx context.Context) (int, error) {
	if in.store == nil {
		return 0, nil
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	recs, err := in.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("command: restore: %w", err)
	}

	var (
		n    int
		errs []error
	)
	for _, rec := range recs {
		j, err := rec.ToJob()
		if err != nil {
			in.logger.Warn("command: skipping unreadable record", "job", rec.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		if in.registry.Has(j.Name) {
			continue
		}
		was := j.State
		j.State = restoredState(was)
		if err := in.registry.Create(j); err != nil {
			errs = append(errs, err)
			continue
		}
		if j.State != was {
			if err := in.persist(ctx, j); err != nil {
				errs = append(errs, err)
			}
		}
		n++
	}

	in.logger.Info("command: jobs restored", "count", n, "skipped", len(errs))
	return n, errors.Join(errs...)
}
