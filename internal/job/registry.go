package job

import (
	"fmt"
	"sync"
	"time"
)

// Registry is a thread-safe, insertion-ordered set of jobs keyed by name.
// All methods return copies; callers never hold references into the
// registry.
type Registry struct {
	mu    sync.RWMutex
	jobs  []Job
	index map[string]int // name → index in jobs
	now   func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
		now:   time.Now,
	}
}

// Create adds j. The name must be valid and unused.
func (r *Registry) Create(j Job) error {
	if err := ValidateName(j.Name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[j.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, j.Name)
	}
	now := r.now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = j.CreatedAt
	}
	r.index[j.Name] = len(r.jobs)
	r.jobs = append(r.jobs, j.clone())
	return nil
}

// Get returns the job registered under name.
func (r *Registry) Get(name string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return r.jobs[i].clone(), nil
}

// State returns the current state of name.
func (r *Registry) State(name string) (State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return r.jobs[i].State, nil
}

// SetState moves name to state to, if the edge is allowed, and returns
// the updated job.
func (r *Registry) SetState(name string, to State) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[name]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	from := r.jobs[i].State
	if !CanTransition(from, to) {
		return Job{}, fmt.Errorf("%w: %s is %s, cannot become %s", ErrInvalidTransition, name, from, to)
	}
	r.jobs[i].State = to
	r.jobs[i].UpdatedAt = r.now()
	return r.jobs[i].clone(), nil
}

// Delete removes name and returns the removed job.
func (r *Registry) Delete(name string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[name]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	removed := r.jobs[i]
	r.jobs = append(r.jobs[:i], r.jobs[i+1:]...)
	delete(r.index, name)
	for j := i; j < len(r.jobs); j++ {
		r.index[r.jobs[j].Name] = j
	}
	return removed, nil
}

// List returns a snapshot of all jobs in insertion order.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Job, len(r.jobs))
	for i := range r.jobs {
		out[i] = r.jobs[i].clone()
	}
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[name]
	return ok
}
