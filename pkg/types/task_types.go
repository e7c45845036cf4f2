// Package types provides the core data structures shared across the
// task-enrichment pipeline: tasks, user context, and analysis results.
package types

import (
	"strings"
	"time"
)

// Task represents a user task submitted for analysis or stored in the backend.
type Task struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Status      string     `json:"status,omitempty"`
	Complexity  int        `json:"complexity,omitempty"` // 1-10, 0 when unknown
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at,omitempty"`
}

// Text returns the task's title and description joined for keyword scanning.
func (t *Task) Text() string {
	if t.Description == "" {
		return t.Title
	}
	return t.Title + " " + t.Description
}

// TaskStatus values persisted by the task repository.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// Category represents a task category, either user-defined or auto-created
// from an accepted suggestion.
type Category struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	AutoCreated bool      `json:"auto_created,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// ContextSourceKind identifies where a context item was collected from.
type ContextSourceKind string

const (
	ContextSourceCalendar ContextSourceKind = "calendar"
	ContextSourceNotes    ContextSourceKind = "notes"
	ContextSourceTasks    ContextSourceKind = "tasks"
	ContextSourceMessages ContextSourceKind = "messages"
)

// ContextSource is a single source of user context with its raw text items.
type ContextSource struct {
	Kind  ContextSourceKind `json:"kind"`
	Items []string          `json:"items"`
}

// ContextPayload aggregates everything known about the user's current
// situation. All fields are optional; an empty payload is valid input.
type ContextPayload struct {
	Sources            []ContextSource `json:"sources,omitempty"`
	ActiveTaskCount    int             `json:"active_task_count,omitempty"`
	ExistingCategories []string        `json:"existing_categories,omitempty"`
}

// ItemCount returns the total number of context items across all sources.
func (p *ContextPayload) ItemCount() int {
	n := 0
	for _, s := range p.Sources {
		n += len(s.Items)
	}
	return n
}

// JoinedText concatenates all context items for keyword scanning.
func (p *ContextPayload) JoinedText() string {
	var sb strings.Builder
	for _, s := range p.Sources {
		for _, item := range s.Items {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(item)
		}
	}
	return sb.String()
}
