package analysis

import (
	"context"

	"taskmind/internal/fallback"
	"taskmind/internal/normalize"
	"taskmind/internal/prompts"
	"taskmind/pkg/types"
)

type enhancementDTO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

// Enhance rewrites a task into a more actionable form. The returned bool
// reports whether the result came from the fallback.
func (a *Analyzer) Enhance(ctx context.Context, task types.Task, contextInfo *types.ContextAnalysis) (types.TaskEnhancement, bool) {
	prompt, err := prompts.Build(prompts.KindEnhanceTask, a.promptInput(task, contextInfo))
	if err != nil {
		return fallback.Enhancement(task), true
	}

	raw, err := a.client.GenerateStructured(ctx, prompt)
	if err != nil {
		a.logger.WarnContext(ctx, "enhancement degraded to fallback", "error", err.Error())
		return fallback.Enhancement(task), true
	}

	var dto enhancementDTO
	if err := decodeInto(raw, &dto); err != nil {
		a.logger.WarnContext(ctx, "enhancement payload unusable")
		return fallback.Enhancement(task), true
	}
	title := normalize.Title(dto.Title)
	if title == "" {
		a.logger.WarnContext(ctx, "enhancement payload unusable")
		return fallback.Enhancement(task), true
	}

	return types.TaskEnhancement{
		Title:       title,
		Description: dto.Description,
		Steps:       dto.Steps,
		Confidence:  EnhancementConfidence(dto.Description, dto.Steps),
	}, false
}

// EnhancementConfidence scores how much substance the enhancement added.
func EnhancementConfidence(description string, steps []string) float64 {
	confidence := 0.5
	if len(description) > 50 {
		confidence += 0.2
	}
	if len(steps) > 0 {
		confidence += 0.2
	}
	for _, step := range steps {
		if len(step) > 30 {
			confidence += 0.1
			break
		}
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func (a *Analyzer) promptInput(task types.Task, contextInfo *types.ContextAnalysis) prompts.Input {
	in := prompts.Input{
		Today:           a.now(),
		TaskTitle:       task.Title,
		TaskDescription: task.Description,
	}
	if contextInfo != nil {
		in.ContextSummary = contextInfo.Summary
		in.WorkloadLevel = string(contextInfo.Workload)
		in.ActiveTaskCount = contextInfo.ActiveItemCount
	}
	return in
}
