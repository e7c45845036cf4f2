// Package pipeline orchestrates the analysis modules into full task
// recommendations. It owns the strategy choice (one consolidated engine
// call versus per-concern calls), batch processing, and the overall
// confidence and status accounting.
package pipeline

import (
	"context"
	"errors"
	"time"

	"taskmind/internal/analysis"
	"taskmind/internal/engine"
	"taskmind/internal/fallback"
	"taskmind/internal/logging"
	"taskmind/pkg/types"
)

// Strategy selects how the pipeline talks to the engine.
type Strategy string

const (
	// StrategyConsolidated analyzes a task with a single engine call.
	StrategyConsolidated Strategy = "consolidated"
	// StrategyPerConcern runs one engine call per analysis module.
	StrategyPerConcern Strategy = "per_concern"
)

// ParseStrategy validates a strategy string, defaulting to consolidated.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyConsolidated, "":
		return StrategyConsolidated, nil
	case StrategyPerConcern:
		return StrategyPerConcern, nil
	default:
		return "", errors.New("unknown pipeline strategy: " + s)
	}
}

// ErrInvalidTask is returned for tasks that cannot be analyzed at all.
var ErrInvalidTask = errors.New("task has no title")

// Controller runs the analysis pipeline.
type Controller struct {
	client   engine.Client
	analyzer *analysis.Analyzer
	strategy Strategy
	logger   logging.Logger
	now      func() time.Time
}

// New creates a Controller with the given strategy.
func New(client engine.Client, strategy Strategy, logger logging.Logger) *Controller {
	return &Controller{
		client:   client,
		analyzer: analysis.New(client, logger),
		strategy: strategy,
		logger:   logger.WithComponent("pipeline"),
		now:      time.Now,
	}
}

// WithClock overrides the time source for the controller and its
// analyzer. Intended for tests.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	c.analyzer.WithClock(now)
	return c
}

// Strategy reports the configured strategy.
func (c *Controller) Strategy() Strategy {
	return c.strategy
}

// Process analyzes one task against the user's context and returns a
// complete recommendation bundle. Engine failures degrade individual
// modules to fallbacks; only invalid input produces an error.
func (c *Controller) Process(ctx context.Context, task types.Task, payload types.ContextPayload) (*types.RecommendationBundle, error) {
	if task.Title == "" {
		return nil, ErrInvalidTask
	}

	contextInfo := c.analyzer.AnalyzeContext(ctx, payload)
	bundle := c.process(ctx, task, payload.ExistingCategories, contextInfo)
	return bundle, nil
}

func (c *Controller) process(ctx context.Context, task types.Task, existing []string, contextInfo *types.ContextAnalysis) *types.RecommendationBundle {
	start := c.now()

	var bundle *types.RecommendationBundle
	if c.strategy == StrategyPerConcern {
		bundle = c.runPerConcern(ctx, task, existing, contextInfo)
	} else {
		bundle = c.runConsolidated(ctx, task, existing, contextInfo)
	}

	bundle.OverallConfidence = overallConfidence(bundle)
	if len(bundle.DegradedModules) > 0 {
		bundle.Status = types.StatusCompletedWithErrors
	} else {
		bundle.Status = types.StatusCompleted
	}

	c.logger.InfoContext(ctx, "task analyzed",
		"task_id", task.ID,
		"status", string(bundle.Status),
		"degraded", len(bundle.DegradedModules),
		"duration_ms", time.Since(start).Milliseconds())
	return bundle
}

func (c *Controller) runPerConcern(ctx context.Context, task types.Task, existing []string, contextInfo *types.ContextAnalysis) *types.RecommendationBundle {
	bundle := &types.RecommendationBundle{TaskID: task.ID, Context: contextInfo}

	var degraded bool
	if bundle.Enhancement, degraded = c.analyzer.Enhance(ctx, task, contextInfo); degraded {
		bundle.DegradedModules = append(bundle.DegradedModules, "enhancement")
	}
	if bundle.Categories, degraded = c.analyzer.SuggestCategories(ctx, task, existing, contextInfo); degraded {
		bundle.DegradedModules = append(bundle.DegradedModules, "categories")
	}
	if bundle.Priority, degraded = c.analyzer.ScorePriority(ctx, task, contextInfo); degraded {
		bundle.DegradedModules = append(bundle.DegradedModules, "priority")
	}
	if bundle.Deadlines, degraded = c.analyzer.SuggestDeadlines(ctx, task, contextInfo); degraded {
		bundle.DegradedModules = append(bundle.DegradedModules, "deadlines")
	}
	return bundle
}

// ProcessBatch analyzes several tasks sharing one context analysis. A
// failure on one task never aborts the batch; the failed slot carries a
// fallback bundle with status failed. The result always has one entry per
// input task, in input order.
func (c *Controller) ProcessBatch(ctx context.Context, tasks []types.Task, payload types.ContextPayload) []*types.RecommendationBundle {
	contextInfo := c.analyzer.AnalyzeContext(ctx, payload)

	out := make([]*types.RecommendationBundle, len(tasks))
	for i, task := range tasks {
		if task.Title == "" {
			out[i] = c.failedBundle(task, contextInfo)
			continue
		}
		out[i] = c.process(ctx, task, payload.ExistingCategories, contextInfo)
	}
	return out
}

// failedBundle builds an all-fallback bundle for a task that could not be
// analyzed.
func (c *Controller) failedBundle(task types.Task, contextInfo *types.ContextAnalysis) *types.RecommendationBundle {
	today := c.now()
	bundle := &types.RecommendationBundle{
		TaskID:      task.ID,
		Context:     contextInfo,
		Enhancement: c.fallbackEnhancement(task),
		Priority:    c.fallbackPriority(task, contextInfo),
		Deadlines:   c.fallbackDeadlines(task, contextInfo, today),
		Status:      types.StatusFailed,
		DegradedModules: []string{
			"enhancement", "categories", "priority", "deadlines",
		},
	}
	candidates := c.fallbackCategories(task)
	bundle.Categories = types.CategorySuggestion{
		Candidates: candidates,
		Confidence: analysis.CategoryConfidence(candidates, nil),
	}
	bundle.OverallConfidence = overallConfidence(bundle)
	return bundle
}

// HealthStatus describes the pipeline's view of its dependencies.
type HealthStatus struct {
	EngineHealthy bool             `json:"engine_healthy"`
	EngineError   string           `json:"engine_error,omitempty"`
	Strategy      Strategy         `json:"strategy"`
	Model         engine.ModelInfo `json:"model"`
}

// HealthCheck probes the engine.
func (c *Controller) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		EngineHealthy: true,
		Strategy:      c.strategy,
		Model:         c.client.ModelInfo(),
	}
	if err := c.client.HealthCheck(ctx); err != nil {
		status.EngineHealthy = false
		status.EngineError = err.Error()
	}
	return status
}

// ExtractTasks exposes free-text task extraction to the HTTP layer.
func (c *Controller) ExtractTasks(ctx context.Context, text string) ([]types.ExtractedTask, error) {
	return c.analyzer.ExtractTasks(ctx, text)
}

// AnalyzeContext exposes context-only analysis to the HTTP layer.
func (c *Controller) AnalyzeContext(ctx context.Context, payload types.ContextPayload) *types.ContextAnalysis {
	return c.analyzer.AnalyzeContext(ctx, payload)
}

// fallbackCeiling bounds what a degraded module may contribute to the
// overall confidence. Fallback candidates carry their own confidences for
// ranking, but a bundle built from fallbacks must read as low-trust.
const fallbackCeiling = 0.3

// overallConfidence is the arithmetic mean of the module confidences:
// enhancement, categories, priority score scaled to [0,1], and the top
// deadline confidence (0 when no deadlines survived). Degraded modules
// contribute at most fallbackCeiling.
func overallConfidence(b *types.RecommendationBundle) float64 {
	deadlineConfidence := 0.0
	if len(b.Deadlines) > 0 {
		deadlineConfidence = b.Deadlines[0].Confidence
	}

	contributions := map[string]float64{
		"enhancement": b.Enhancement.Confidence,
		"categories":  b.Categories.Confidence,
		"priority":    float64(b.Priority.Score) / 100,
		"deadlines":   deadlineConfidence,
	}
	for _, name := range b.DegradedModules {
		if v, ok := contributions[name]; ok && v > fallbackCeiling {
			contributions[name] = fallbackCeiling
		}
	}

	sum := 0.0
	for _, v := range contributions {
		sum += v
	}
	return sum / float64(len(contributions))
}

func (c *Controller) fallbackEnhancement(task types.Task) types.TaskEnhancement {
	return fallback.Enhancement(task)
}

func (c *Controller) fallbackCategories(task types.Task) []types.CategoryCandidate {
	return fallback.Categories(task.Text())
}

func (c *Controller) fallbackPriority(task types.Task, contextInfo *types.ContextAnalysis) types.PriorityAnalysis {
	return fallback.Priority(task, contextInfo)
}

func (c *Controller) fallbackDeadlines(task types.Task, contextInfo *types.ContextAnalysis, today time.Time) []types.DeadlineCandidate {
	if out := analysis.EstimateDeadlines(task, contextInfo, today); len(out) > 0 {
		return out
	}
	return fallback.Deadlines(task.Text(), today)
}
