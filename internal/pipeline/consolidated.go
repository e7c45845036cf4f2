package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"taskmind/internal/analysis"
	"taskmind/internal/normalize"
	"taskmind/internal/prompts"
	"taskmind/pkg/types"
)

// consolidatedDTO mirrors the single-call analysis schema.
type consolidatedDTO struct {
	Enhancement *struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Steps       []string `json:"steps"`
	} `json:"enhancement"`
	Categories []types.CategoryCandidate `json:"categories"`
	Priority   map[string]any            `json:"priority"`
	Deadlines  []types.DeadlineCandidate `json:"deadlines"`
}

// runConsolidated analyzes a task with one engine call. Concerns the
// engine skipped or that failed normalization are filled from fallbacks
// and recorded as degraded.
func (c *Controller) runConsolidated(ctx context.Context, task types.Task, existing []string, contextInfo *types.ContextAnalysis) *types.RecommendationBundle {
	today := c.now()
	bundle := &types.RecommendationBundle{TaskID: task.ID, Context: contextInfo}

	in := prompts.Input{
		Today:              today,
		TaskTitle:          task.Title,
		TaskDescription:    task.Description,
		ExistingCategories: existing,
	}
	if contextInfo != nil {
		in.ContextSummary = contextInfo.Summary
		in.WorkloadLevel = string(contextInfo.Workload)
		in.ActiveTaskCount = contextInfo.ActiveItemCount
	}

	var dto consolidatedDTO
	prompt, err := prompts.Build(prompts.KindConsolidatedTask, in)
	if err == nil {
		if raw, genErr := c.client.GenerateStructured(ctx, prompt); genErr == nil {
			data, _ := json.Marshal(raw)
			_ = json.Unmarshal(data, &dto)
		} else {
			c.logger.WarnContext(ctx, "consolidated analysis call failed", "error", genErr.Error())
		}
	}

	c.fillEnhancement(bundle, &dto, task)
	c.fillCategories(bundle, &dto, task, existing)
	c.fillPriority(bundle, &dto, task, contextInfo)
	c.fillDeadlines(bundle, &dto, task, contextInfo, today)

	return bundle
}

func (c *Controller) fillEnhancement(bundle *types.RecommendationBundle, dto *consolidatedDTO, task types.Task) {
	if dto.Enhancement != nil {
		if title := normalize.Title(dto.Enhancement.Title); title != "" {
			bundle.Enhancement = types.TaskEnhancement{
				Title:       title,
				Description: dto.Enhancement.Description,
				Steps:       dto.Enhancement.Steps,
				Confidence:  analysis.EnhancementConfidence(dto.Enhancement.Description, dto.Enhancement.Steps),
			}
			return
		}
	}
	bundle.Enhancement = c.fallbackEnhancement(task)
	bundle.DegradedModules = append(bundle.DegradedModules, "enhancement")
}

func (c *Controller) fillCategories(bundle *types.RecommendationBundle, dto *consolidatedDTO, task types.Task, existing []string) {
	candidates := normalize.Categories(dto.Categories)
	if len(candidates) == 0 {
		candidates = c.fallbackCategories(task)
		bundle.DegradedModules = append(bundle.DegradedModules, "categories")
	}
	bundle.Categories = types.CategorySuggestion{
		Candidates: candidates,
		Confidence: analysis.CategoryConfidence(candidates, existing),
	}
}

func (c *Controller) fillPriority(bundle *types.RecommendationBundle, dto *consolidatedDTO, task types.Task, contextInfo *types.ContextAnalysis) {
	if dto.Priority != nil {
		if p, ok := analysis.PriorityFromPayload(dto.Priority, contextInfo); ok {
			bundle.Priority = p
			return
		}
	}
	bundle.Priority = c.fallbackPriority(task, contextInfo)
	bundle.DegradedModules = append(bundle.DegradedModules, "priority")
}

func (c *Controller) fillDeadlines(bundle *types.RecommendationBundle, dto *consolidatedDTO, task types.Task, contextInfo *types.ContextAnalysis, today time.Time) {
	deadlines := normalize.Deadlines(dto.Deadlines, today)
	if len(deadlines) == 0 {
		deadlines = c.fallbackDeadlines(task, contextInfo, today)
		bundle.DegradedModules = append(bundle.DegradedModules, "deadlines")
	}
	bundle.Deadlines = deadlines
}
