package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskmind/pkg/types"
)

// CategoryRepository implements category data access over SQL.
type CategoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a category repository.
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]*types.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, auto_created, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Category
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.AutoCreated, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Names returns just the category names, for prompt context.
func (r *CategoryRepository) Names(ctx context.Context) ([]string, error) {
	categories, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names, nil
}

// EnsureExists inserts a category by name unless it already exists.
// Auto-created categories record that provenance.
func (r *CategoryRepository) EnsureExists(ctx context.Context, name string, autoCreated bool) error {
	query := `
		INSERT INTO categories (id, name, auto_created, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), name, autoCreated, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ensuring category %q: %w", name, err)
	}
	return nil
}
