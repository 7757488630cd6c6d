// Package storetest provides a behavioural test suite shared by all
// store.Store implementations.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flemzord/cronbot/internal/store"
)

// Run exercises a fresh Store returned by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("SaveLoad", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		rec := Record("deploy")
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := s.Load(ctx, "deploy")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got.Pattern != rec.Pattern || got.Command != rec.Command || got.State != rec.State {
			t.Errorf("Load = %+v, want %+v", got, rec)
		}
		if len(got.Args) != 1 || got.Args[0] != "staging" {
			t.Errorf("Args = %v", got.Args)
		}
		if !got.CreatedAt.Equal(rec.CreatedAt) {
			t.Errorf("CreatedAt = %s, want %s", got.CreatedAt, rec.CreatedAt)
		}
	})

	t.Run("UpsertKeepsPosition", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		for _, name := range []string{"a", "b", "c"} {
			if err := s.Save(ctx, Record(name)); err != nil {
				t.Fatal(err)
			}
		}
		updated := Record("a")
		updated.State = "stopped"
		if err := s.Save(ctx, updated); err != nil {
			t.Fatal(err)
		}

		recs, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 3 || recs[0].Name != "a" || recs[1].Name != "b" || recs[2].Name != "c" {
			t.Fatalf("List = %v", names(recs))
		}
		if recs[0].State != "stopped" {
			t.Errorf("state = %q, want stopped", recs[0].State)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		if err := s.Save(ctx, Record("a")); err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Load(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Load after delete error = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("second Delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListEmpty", func(t *testing.T) {
		s := open(t)
		recs, err := s.List(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 0 {
			t.Errorf("List = %v, want empty", names(recs))
		}
	})
}

// Record returns a valid record named name.
func Record(name string) store.Record {
	created := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	return store.Record{
		Name:      name,
		Pattern:   "0 0 0 1 0 *",
		Command:   "deploy-staging",
		Args:      []string{"staging"},
		Channel:   "log",
		Chat:      "ops",
		State:     "scheduled",
		CreatedBy: "alice",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func names(recs []store.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}
