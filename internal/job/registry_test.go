package job

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/flemzord/cronbot/internal/cron"
)

func newJob(t *testing.T, name string, state State) Job {
	t.Helper()
	p, err := cron.Parse("0 0 0 1 0 *")
	if err != nil {
		t.Fatal(err)
	}
	return Job{
		Name:    name,
		Pattern: p,
		Action:  Action{Command: "echo", Args: []string{"hi"}},
		State:   state,
	}
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Create(newJob(t, "deploy", Scheduled)); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	err := r.Create(newJob(t, "deploy", Saved))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("error = %v, want ErrDuplicateName", err)
	}

	got, err := r.Get("deploy")
	if err != nil {
		t.Fatal(err)
	}
	if got.State != Scheduled {
		t.Errorf("existing job was modified: state = %s", got.State)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestRegistry_InvalidName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range []string{"", "two words", string(make([]byte, MaxNameLen+1))} {
		if err := r.Create(newJob(t, name, Saved)); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Create(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestRegistry_NotFound(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if _, err := r.Get("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v", err)
	}
	if _, err := r.State("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("State error = %v", err)
	}
	if _, err := r.SetState("ghost", Stopped); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetState error = %v", err)
	}
	if _, err := r.Delete("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete error = %v", err)
	}
}

func TestRegistry_Transitions(t *testing.T) {
	t.Parallel()

	all := []State{Saved, Scheduled, Stopped}
	for _, from := range all {
		for _, to := range all {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				t.Parallel()
				r := NewRegistry()
				if err := r.Create(newJob(t, "j", from)); err != nil {
					t.Fatal(err)
				}
				got, err := r.SetState("j", to)
				legal := (from == Saved && to == Scheduled) ||
					(from == Stopped && to == Scheduled) ||
					(from == Scheduled && to == Stopped)
				if legal {
					if err != nil {
						t.Fatalf("SetState: %v", err)
					}
					if got.State != to {
						t.Errorf("state = %s, want %s", got.State, to)
					}
					return
				}
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("error = %v, want ErrInvalidTransition", err)
				}
				if s, _ := r.State("j"); s != from {
					t.Errorf("state changed to %s after rejected transition", s)
				}
			})
		}
	}
}

func TestRegistry_ListOrderAfterDelete(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range []string{"a", "b", "c", "d"} {
		if err := r.Create(newJob(t, name, Saved)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.Delete("b"); err != nil {
		t.Fatal(err)
	}
	if err := r.Create(newJob(t, "b", Saved)); err != nil {
		t.Fatalf("re-create after delete: %v", err)
	}

	var names []string
	for _, j := range r.List() {
		names = append(names, j.Name)
	}
	want := []string{"a", "c", "d", "b"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("List order = %v, want %v", names, want)
	}
	if got, err := r.Get("d"); err != nil || got.Name != "d" {
		t.Errorf("Get(d) = %+v, %v", got, err)
	}
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Create(newJob(t, "j", Saved)); err != nil {
		t.Fatal(err)
	}
	got, _ := r.Get("j")
	got.Action.Args[0] = "mutated"
	got.State = Stopped

	again, _ := r.Get("j")
	if again.Action.Args[0] != "hi" || again.State != Saved {
		t.Errorf("registry record mutated through returned copy: %+v", again)
	}
}

func TestRegistry_ConcurrentCreate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	j := newJob(t, "same", Saved)
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Create(j)
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 {
		t.Errorf("%d creates succeeded, want exactly 1", ok)
	}
}

func TestParseState(t *testing.T) {
	t.Parallel()

	for _, s := range []State{Saved, Scheduled, Stopped} {
		got, err := ParseState(s.String())
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseState("running"); err == nil {
		t.Error("expected error for unknown state")
	}
}
