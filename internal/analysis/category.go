package analysis

import (
	"context"
	"strings"

	"taskmind/internal/fallback"
	"taskmind/internal/normalize"
	"taskmind/internal/prompts"
	"taskmind/pkg/types"
)

type categoriesDTO struct {
	Categories []types.CategoryCandidate `json:"categories"`
}

// SuggestCategories proposes categories for a task. The returned bool
// reports whether the result came from the fallback.
func (a *Analyzer) SuggestCategories(ctx context.Context, task types.Task, existing []string, contextInfo *types.ContextAnalysis) (types.CategorySuggestion, bool) {
	in := a.promptInput(task, contextInfo)
	in.ExistingCategories = existing

	candidates, degraded := a.categoryCandidates(ctx, in, task)
	return types.CategorySuggestion{
		Candidates: candidates,
		Confidence: CategoryConfidence(candidates, existing),
	}, degraded
}

func (a *Analyzer) categoryCandidates(ctx context.Context, in prompts.Input, task types.Task) ([]types.CategoryCandidate, bool) {
	prompt, err := prompts.Build(prompts.KindSuggestCategories, in)
	if err != nil {
		return fallback.Categories(task.Text()), true
	}

	raw, err := a.client.GenerateStructured(ctx, prompt)
	if err != nil {
		a.logger.WarnContext(ctx, "category suggestion degraded to fallback", "error", err.Error())
		return fallback.Categories(task.Text()), true
	}

	var dto categoriesDTO
	if err := decodeInto(raw, &dto); err != nil {
		return fallback.Categories(task.Text()), true
	}

	candidates := normalize.Categories(dto.Categories)
	if len(candidates) == 0 {
		// everything the engine produced was discarded
		return fallback.Categories(task.Text()), true
	}
	return candidates, false
}

// CategoryConfidence scores a candidate set: the best candidate's
// confidence, boosted for breadth and for matching an existing category.
func CategoryConfidence(candidates []types.CategoryCandidate, existing []string) float64 {
	if len(candidates) == 0 {
		return 0
	}

	confidence := 0.0
	for _, c := range candidates {
		if c.Confidence > confidence {
			confidence = c.Confidence
		}
	}
	if len(candidates) >= 3 {
		confidence += 0.1
	}
	if matchesExisting(candidates, existing) {
		confidence += 0.1
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func matchesExisting(candidates []types.CategoryCandidate, existing []string) bool {
	for _, c := range candidates {
		for _, e := range existing {
			if strings.EqualFold(c.Name, e) {
				return true
			}
		}
	}
	return false
}
