package store_test

import (
	"testing"
	"time"

	"github.com/flemzord/cronbot/internal/cron"
	"github.com/flemzord/cronbot/internal/job"
	"github.com/flemzord/cronbot/internal/store"
	"github.com/flemzord/cronbot/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(*testing.T) store.Store { return store.NewMemoryStore() })
}

func TestRecord_JobRoundTrip(t *testing.T) {
	t.Parallel()

	p, err := cron.Parse("0 30 11 * * 1-5")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	j := job.Job{
		Name:      "standup",
		Pattern:   p,
		Action:    job.Action{Command: "echo", Args: []string{"standup", "time"}},
		Target:    job.Target{Channel: "slack", Chat: "#team"},
		State:     job.Stopped,
		CreatedBy: "bob",
		CreatedAt: now,
		UpdatedAt: now,
	}

	got, err := store.FromJob(j).ToJob()
	if err != nil {
		t.Fatalf("ToJob: %v", err)
	}
	if got.Name != j.Name || !got.Pattern.Equal(j.Pattern) || got.State != j.State ||
		got.Action.String() != j.Action.String() || got.Target != j.Target {
		t.Errorf("round trip = %+v, want %+v", got, j)
	}
	if got.Pattern.Source() != "0 30 11 * * 1-5" {
		t.Errorf("Source = %q", got.Pattern.Source())
	}
}

func TestRecord_ToJobInvalid(t *testing.T) {
	t.Parallel()

	rec := storetest.Record("bad")
	rec.Pattern = "0 0 0 99 * *"
	if _, err := rec.ToJob(); err == nil {
		t.Error("expected error for invalid pattern")
	}

	rec = storetest.Record("bad")
	rec.State = "running"
	if _, err := rec.ToJob(); err == nil {
		t.Error("expected error for invalid state")
	}
}
