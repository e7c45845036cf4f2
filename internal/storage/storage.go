// Package storage provides SQL persistence for tasks, categories, and
// collected context entries.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// PostgreSQL driver
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store bundles the repositories over one database handle.
type Store struct {
	db             *sql.DB
	Tasks          *TaskRepository
	Categories     *CategoryRepository
	ContextEntries *ContextEntryRepository
}

// Open connects to PostgreSQL and builds the repositories.
func Open(url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return NewStore(db), nil
}

// NewStore builds a Store over an existing handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:             db,
		Tasks:          NewTaskRepository(db),
		Categories:     NewCategoryRepository(db),
		ContextEntries: NewContextEntryRepository(db),
	}
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			complexity INTEGER NOT NULL DEFAULT 0,
			due_date DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			auto_created BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS context_entries (
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL,
			items JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)`,
		`CREATE INDEX IF NOT EXISTS idx_context_entries_kind ON context_entries (kind)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}
