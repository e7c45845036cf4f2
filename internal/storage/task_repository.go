package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskmind/pkg/types"
)

// TaskRepository implements task data access over SQL.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a task repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, description, category, priority, status, complexity, due_date, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*types.Task, error) {
	var task types.Task
	var dueDate sql.NullTime
	err := scanner.Scan(
		&task.ID, &task.Title, &task.Description, &task.Category,
		&task.Priority, &task.Status, &task.Complexity,
		&dueDate, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	return &task, nil
}

// Create inserts a task, assigning an ID and timestamps when missing.
func (r *TaskRepository) Create(ctx context.Context, task *types.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = types.TaskStatusPending
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `
		INSERT INTO tasks (id, title, description, category, priority, status, complexity, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Category,
		task.Priority, task.Status, task.Complexity,
		task.DueDate, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// GetByID fetches one task.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*types.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching task %s: %w", id, err)
	}
	return task, nil
}

// List returns tasks, optionally filtered by status, newest first.
func (r *TaskRepository) List(ctx context.Context, status string, limit int) ([]*types.Task, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a task.
func (r *TaskRepository) Update(ctx context.Context, task *types.Task) error {
	task.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE tasks
		SET title = $2, description = $3, category = $4, priority = $5,
		    status = $6, complexity = $7, due_date = $8, updated_at = $9
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Category,
		task.Priority, task.Status, task.Complexity, task.DueDate, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActive counts tasks still in flight, used as the workload signal.
func (r *TaskRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE status IN ($1, $2)`,
		types.TaskStatusPending, types.TaskStatusInProgress,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting active tasks: %w", err)
	}
	return count, nil
}
