package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskmind/pkg/types"
)

// ContextEntryRepository stores collected context sources so batch runs can
// reuse them without the caller resending everything.
type ContextEntryRepository struct {
	db *sql.DB
}

// NewContextEntryRepository creates a context entry repository.
func NewContextEntryRepository(db *sql.DB) *ContextEntryRepository {
	return &ContextEntryRepository{db: db}
}

// Save persists one context source snapshot. Items are stored as JSON.
func (r *ContextEntryRepository) Save(ctx context.Context, source types.ContextSource) error {
	items, err := json.Marshal(source.Items)
	if err != nil {
		return fmt.Errorf("encoding context items: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO context_entries (id, kind, items, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), string(source.Kind), items, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving context entry: %w", err)
	}
	return nil
}

// Recent loads the newest snapshot per source kind from the last window.
func (r *ContextEntryRepository) Recent(ctx context.Context, window time.Duration) ([]types.ContextSource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (kind) kind, items
		FROM context_entries
		WHERE created_at > $1
		ORDER BY kind, created_at DESC`,
		time.Now().UTC().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("loading recent context: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.ContextSource
	for rows.Next() {
		var kind string
		var itemsJSON []byte
		if err := rows.Scan(&kind, &itemsJSON); err != nil {
			return nil, fmt.Errorf("scanning context entry: %w", err)
		}
		var items []string
		if err := json.Unmarshal(itemsJSON, &items); err != nil {
			return nil, fmt.Errorf("decoding context items: %w", err)
		}
		out = append(out, types.ContextSource{Kind: types.ContextSourceKind(kind), Items: items})
	}
	return out, rows.Err()
}
