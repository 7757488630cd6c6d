// Package store persists job definitions across restarts.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/flemzord/cronbot/internal/cron"
	"github.com/flemzord/cronbot/internal/job"
)

// ErrNotFound indicates no record exists under the requested name.
var ErrNotFound = errors.New("store: record not found")

// Record is the persisted form of a job.
type Record struct {
	Name      string    `json:"name"`
	Pattern   string    `json:"pattern"`
	Command   string    `json:"command"`
	Args      []string  `json:"args,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Chat      string    `json:"chat,omitempty"`
	State     string    `json:"state"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is durable job storage. Save upserts; List returns records in the
// order they were first saved.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, name string) (Record, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// FromJob converts a job to its persisted form.
func FromJob(j job.Job) Record {
	return Record{
		Name:      j.Name,
		Pattern:   j.Pattern.Source(),
		Command:   j.Action.Command,
		Args:      slices.Clone(j.Action.Args),
		Channel:   j.Target.Channel,
		Chat:      j.Target.Chat,
		State:     j.State.String(),
		CreatedBy: j.CreatedBy,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ToJob parses the record back into a job.
func (r Record) ToJob() (job.Job, error) {
	p, err := cron.Parse(r.Pattern)
	if err != nil {
		return job.Job{}, fmt.Errorf("store: record %s: %w", r.Name, err)
	}
	state, err := job.ParseState(r.State)
	if err != nil {
		return job.Job{}, fmt.Errorf("store: record %s: %w", r.Name, err)
	}
	return job.Job{
		Name:      r.Name,
		Pattern:   p,
		Action:    job.Action{Command: r.Command, Args: slices.Clone(r.Args)},
		Target:    job.Target{Channel: r.Channel, Chat: r.Chat},
		State:     state,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
