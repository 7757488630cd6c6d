package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/cronbot/internal/store"
)

// Store is a store.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Save upserts rec. An existing row keeps its original list position.
func (s *Store) Save(ctx context.Context, rec store.Record) error {
	args, err := json.Marshal(rec.Args)
	if err != nil {
		return fmt.Errorf("sqlite: marshal args: %w", err)
	}
	if rec.Args == nil {
		args = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (name, pattern, command, args, channel, chat, state, created_by, created_at, updated_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE((SELECT MAX(seq) FROM jobs), 0) + 1)
		ON CONFLICT(name) DO UPDATE SET
			pattern    = excluded.pattern,
			command    = excluded.command,
			args       = excluded.args,
			channel    = excluded.channel,
			chat       = excluded.chat,
			state      = excluded.state,
			created_by = excluded.created_by,
			updated_at = excluded.updated_at`,
		rec.Name, rec.Pattern, rec.Command, string(args), rec.Channel, rec.Chat, rec.State,
		rec.CreatedBy, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save job %s: %w", rec.Name, err)
	}
	return nil
}

// Load returns the record stored under name.
func (s *Store) Load(ctx context.Context, name string) (store.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, pattern, command, args, channel, chat, state, created_by, created_at, updated_at
		FROM jobs WHERE name = ?`, name)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("sqlite: load job %s: %w", name, err)
	}
	return rec, nil
}

// Delete removes the record stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("sqlite: delete job %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete job %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	return nil
}

// List returns all records in the order they were first saved.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, pattern, command, args, channel, chat, state, created_by, created_at, updated_at
		FROM jobs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan job: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list jobs rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (store.Record, error) {
	var (
		rec                  store.Record
		args                 string
		createdAt, updatedAt string
	)
	if err := sc.Scan(&rec.Name, &rec.Pattern, &rec.Command, &args, &rec.Channel, &rec.Chat,
		&rec.State, &rec.CreatedBy, &createdAt, &updatedAt); err != nil {
		return store.Record{}, err
	}
	if err := json.Unmarshal([]byte(args), &rec.Args); err != nil {
		return store.Record{}, fmt.Errorf("unmarshal args: %w", err)
	}
	var err error
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return store.Record{}, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return store.Record{}, err
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
