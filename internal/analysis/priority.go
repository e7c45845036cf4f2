package analysis

import (
	"context"

	"taskmind/internal/fallback"
	"taskmind/internal/normalize"
	"taskmind/internal/prompts"
	"taskmind/pkg/types"
)

// ScorePriority scores a task's priority from engine factor scores plus a
// rule-based workload factor. The returned bool reports fallback use.
func (a *Analyzer) ScorePriority(ctx context.Context, task types.Task, contextInfo *types.ContextAnalysis) (types.PriorityAnalysis, bool) {
	prompt, err := prompts.Build(prompts.KindScorePriority, a.promptInput(task, contextInfo))
	if err != nil {
		return fallback.Priority(task, contextInfo), true
	}

	raw, err := a.client.GenerateStructured(ctx, prompt)
	if err != nil {
		a.logger.WarnContext(ctx, "priority scoring degraded to fallback", "error", err.Error())
		return fallback.Priority(task, contextInfo), true
	}

	analysis, ok := PriorityFromPayload(raw, contextInfo)
	if !ok {
		return fallback.Priority(task, contextInfo), true
	}
	return analysis, false
}

// PriorityFromPayload converts engine factor scores into a full analysis.
// The workload factor is always computed locally from context; engines are
// bad at reasoning about load they cannot see.
func PriorityFromPayload(payload map[string]any, contextInfo *types.ContextAnalysis) (types.PriorityAnalysis, bool) {
	urgency, okU := asInt(payload["urgency"])
	importance, okI := asInt(payload["importance"])
	if !okU || !okI {
		return types.PriorityAnalysis{}, false
	}

	contextRelevance, ok := asInt(payload["context_relevance"])
	if !ok {
		contextRelevance = 50
	}
	dependencies, ok := asInt(payload["dependencies"])
	if !ok {
		dependencies = 50
	}

	factors := types.PriorityFactors{
		Urgency:          normalize.ClampScore(urgency),
		Importance:       normalize.ClampScore(importance),
		ContextRelevance: normalize.ClampScore(contextRelevance),
		WorkloadImpact:   fallback.WorkloadImpact(contextInfo),
		Dependencies:     normalize.ClampScore(dependencies),
	}

	reasoning, _ := payload["reasoning"].(string)
	score := fallback.WeightedScore(factors)
	return types.PriorityAnalysis{
		Score:     score,
		Level:     types.LevelFromScore(score),
		Factors:   factors,
		Reasoning: reasoning,
	}, true
}
