package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"taskmind/internal/api/response"
	"taskmind/internal/logging"
	"taskmind/internal/normalize"
	"taskmind/internal/storage"
	"taskmind/pkg/types"
)

// TaskHandler serves task and category persistence endpoints.
type TaskHandler struct {
	store    *storage.Store
	logger   logging.Logger
	validate *validator.Validate
}

// NewTaskHandler creates the persistence handler.
func NewTaskHandler(store *storage.Store, logger logging.Logger) *TaskHandler {
	return &TaskHandler{
		store:    store,
		logger:   logger.WithComponent("api.tasks"),
		validate: validator.New(),
	}
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"required,max=500"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"max=50"`
	Priority    string `json:"priority" validate:"omitempty,oneof=high medium-high medium low-medium low"`
	Complexity  int    `json:"complexity" validate:"gte=0,lte=10"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// Create handles POST /api/v1/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid JSON body", err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.ErrorCodeValidationFailed, "validation failed", err.Error())
		return
	}

	task := types.Task{
		Title:       normalize.Title(req.Title),
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Complexity:  req.Complexity,
	}
	if req.DueDate != "" {
		if due, ok := normalize.ParseDate(req.DueDate); ok {
			task.DueDate = &due
		}
	}

	if err := h.store.Tasks.Create(r.Context(), &task); err != nil {
		h.logger.ErrorContext(r.Context(), "task create failed", "error", err.Error())
		response.WriteInternalError(w, "could not create task")
		return
	}
	if task.Category != "" {
		_ = h.store.Categories.EnsureExists(r.Context(), task.Category, false)
	}

	response.WriteJSON(w, http.StatusCreated, task)
}

// List handles GET /api/v1/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	tasks, err := h.store.Tasks.List(r.Context(), status, 0)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "task list failed", "error", err.Error())
		response.WriteInternalError(w, "could not list tasks")
		return
	}
	response.WriteSuccess(w, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// Get handles GET /api/v1/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, err := h.store.Tasks.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteNotFound(w, "task not found")
		return
	}
	if err != nil {
		response.WriteInternalError(w, "could not fetch task")
		return
	}
	response.WriteSuccess(w, task)
}

type updateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=500"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=high medium-high medium low-medium low"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Complexity  *int    `json:"complexity" validate:"omitempty,gte=0,lte=10"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// Update handles PATCH /api/v1/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.store.Tasks.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteNotFound(w, "task not found")
		return
	}
	if err != nil {
		response.WriteInternalError(w, "could not fetch task")
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid JSON body", err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.ErrorCodeValidationFailed, "validation failed", err.Error())
		return
	}

	if req.Title != nil {
		task.Title = normalize.Title(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Category != nil {
		task.Category = *req.Category
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Complexity != nil {
		task.Complexity = *req.Complexity
	}
	if req.DueDate != nil {
		if due, ok := normalize.ParseDate(*req.DueDate); ok {
			task.DueDate = &due
		} else {
			task.DueDate = nil
		}
	}

	if err := h.store.Tasks.Update(r.Context(), task); err != nil {
		response.WriteInternalError(w, "could not update task")
		return
	}
	response.WriteSuccess(w, task)
}

// Delete handles DELETE /api/v1/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.store.Tasks.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteNotFound(w, "task not found")
		return
	}
	if err != nil {
		response.WriteInternalError(w, "could not delete task")
		return
	}
	response.WriteSuccess(w, map[string]any{"deleted": id, "at": time.Now().UTC().Format(time.RFC3339)})
}

// ListCategories handles GET /api/v1/categories.
func (h *TaskHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.Categories.List(r.Context())
	if err != nil {
		response.WriteInternalError(w, "could not list categories")
		return
	}
	response.WriteSuccess(w, map[string]any{
		"categories": categories,
		"count":      len(categories),
	})
}
