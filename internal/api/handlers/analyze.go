// Package handlers implements the HTTP handlers for the analysis pipeline
// and the task/category persistence endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"taskmind/internal/api/response"
	"taskmind/internal/engine"
	"taskmind/internal/logging"
	"taskmind/internal/pipeline"
	"taskmind/internal/storage"
	"taskmind/pkg/types"
)

// contextWindow bounds how old a stored context snapshot may be before it
// stops backfilling requests that carry no sources of their own.
const contextWindow = 24 * time.Hour

// AnalyzeHandler serves the pipeline endpoints.
type AnalyzeHandler struct {
	controller *pipeline.Controller
	store      *storage.Store // nil when persistence is disabled
	logger     logging.Logger
	validate   *validator.Validate
	maxBatch   int
}

// NewAnalyzeHandler creates the pipeline handler. store may be nil.
func NewAnalyzeHandler(controller *pipeline.Controller, store *storage.Store, logger logging.Logger, maxBatch int) *AnalyzeHandler {
	if maxBatch <= 0 {
		maxBatch = 20
	}
	return &AnalyzeHandler{
		controller: controller,
		store:      store,
		logger:     logger.WithComponent("api.analyze"),
		validate:   validator.New(),
		maxBatch:   maxBatch,
	}
}

type taskInput struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required,max=500"`
	Description string `json:"description" validate:"max=5000"`
	Complexity  int    `json:"complexity" validate:"gte=0,lte=10"`
}

func (in taskInput) toTask() types.Task {
	return types.Task{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Complexity:  in.Complexity,
	}
}

type analyzeTaskRequest struct {
	Task       taskInput            `json:"task" validate:"required"`
	Context    types.ContextPayload `json:"context"`
	AutoCreate bool                 `json:"auto_create"`
}

// AnalyzeTask handles POST /api/v1/analyze/task.
func (h *AnalyzeHandler) AnalyzeTask(w http.ResponseWriter, r *http.Request) {
	var req analyzeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid JSON body", err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.ErrorCodeValidationFailed, "validation failed", err.Error())
		return
	}

	h.enrichContextFromStore(r, &req.Context)

	bundle, err := h.controller.Process(r.Context(), req.Task.toTask(), req.Context)
	if err != nil {
		response.WriteBadRequest(w, "task cannot be analyzed", err.Error())
		return
	}

	if req.AutoCreate && h.store != nil {
		h.persistEnhancedTask(r, bundle)
	}

	response.WriteSuccess(w, bundle)
}

type analyzeBatchRequest struct {
	Tasks   []taskInput          `json:"tasks" validate:"required,min=1,dive"`
	Context types.ContextPayload `json:"context"`
}

// AnalyzeBatch handles POST /api/v1/analyze/batch.
func (h *AnalyzeHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req analyzeBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid JSON body", err.Error())
		return
	}
	if len(req.Tasks) == 0 {
		response.WriteError(w, http.StatusBadRequest, response.ErrorCodeValidationFailed, "tasks must not be empty")
		return
	}
	if len(req.Tasks) > h.maxBatch {
		response.WriteError(w, http.StatusBadRequest, response.ErrorCodeValidationFailed, "batch too large")
		return
	}

	h.enrichContextFromStore(r, &req.Context)

	tasks := make([]types.Task, len(req.Tasks))
	for i, in := range req.Tasks {
		tasks[i] = in.toTask()
	}

	bundles := h.controller.ProcessBatch(r.Context(), tasks, req.Context)
	response.WriteSuccess(w, map[string]any{
		"results": bundles,
		"count":   len(bundles),
	})
}

type analyzeContextRequest struct {
	Context types.ContextPayload `json:"context"`
}

// AnalyzeContext handles POST /api/v1/analyze/context.
func (h *AnalyzeHandler) AnalyzeContext(w http.ResponseWriter, r *http.Request) {
	var req analyzeContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid JSON body", err.Error())
		return
	}

	supplied := req.Context.Sources
	h.enrichContextFromStore(r, &req.Context)

	result := h.controller.AnalyzeContext(r.Context(), req.Context)
	response.WriteSuccess(w, result)

	// persist only what the caller sent, not snapshots read back above
	if h.store != nil {
		for _, source := range supplied {
			if err := h.store.ContextEntries.Save(r.Context(), source); err != nil {
				h.logger.WarnContext(r.Context(), "saving context snapshot failed", "error", err.Error())
			}
		}
	}
}

type extractTasksRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

// ExtractTasks handles POST /api/v1/extract/tasks.
func (h *AnalyzeHandler) ExtractTasks(w http.ResponseWriter, r *http.Request) {
	var req extractTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid JSON body", err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.ErrorCodeValidationFailed, "validation failed", err.Error())
		return
	}

	tasks, err := h.controller.ExtractTasks(r.Context(), req.Text)
	if err != nil {
		var engineErr *engine.EngineError
		if errors.As(err, &engineErr) {
			response.WriteError(w, http.StatusServiceUnavailable, response.ErrorCodeServiceUnavailable, "completion engine unavailable")
			return
		}
		response.WriteInternalError(w, "task extraction failed")
		return
	}

	response.WriteSuccess(w, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// EngineInfo handles GET /api/v1/engine/info.
func (h *AnalyzeHandler) EngineInfo(w http.ResponseWriter, r *http.Request) {
	status := h.controller.HealthCheck(r.Context())
	response.WriteSuccess(w, map[string]any{
		"model":    status.Model,
		"strategy": status.Strategy,
	})
}

// enrichContextFromStore fills workload, category, and source context the
// caller did not supply from the database.
func (h *AnalyzeHandler) enrichContextFromStore(r *http.Request, payload *types.ContextPayload) {
	if h.store == nil {
		return
	}
	ctx := r.Context()

	if len(payload.Sources) == 0 {
		if sources, err := h.store.ContextEntries.Recent(ctx, contextWindow); err == nil {
			payload.Sources = sources
		}
	}
	if len(payload.ExistingCategories) == 0 {
		if names, err := h.store.Categories.Names(ctx); err == nil {
			payload.ExistingCategories = names
		}
	}
	if payload.ActiveTaskCount == 0 {
		if count, err := h.store.Tasks.CountActive(ctx); err == nil {
			payload.ActiveTaskCount = count
		}
	}
}

// persistEnhancedTask stores the enhanced task and auto-creates suggested
// categories. Persistence failures are logged, never surfaced; the caller
// already has their analysis.
func (h *AnalyzeHandler) persistEnhancedTask(r *http.Request, bundle *types.RecommendationBundle) {
	ctx := r.Context()

	task := types.Task{
		ID:          bundle.TaskID,
		Title:       bundle.Enhancement.Title,
		Description: bundle.Enhancement.Description,
		Priority:    string(bundle.Priority.Level),
		Status:      types.TaskStatusPending,
	}
	if len(bundle.Categories.Candidates) > 0 {
		task.Category = bundle.Categories.Candidates[0].Name
	}

	if err := h.store.Tasks.Create(ctx, &task); err != nil {
		h.logger.WarnContext(ctx, "auto-create task failed", "error", err.Error())
		return
	}
	bundle.TaskID = task.ID

	for _, candidate := range bundle.Categories.Candidates {
		if err := h.store.Categories.EnsureExists(ctx, candidate.Name, true); err != nil {
			h.logger.WarnContext(ctx, "auto-create category failed",
				"category", candidate.Name, "error", err.Error())
		}
	}
}
