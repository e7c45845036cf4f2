package analysis

import (
	"context"
	"math"
	"strings"
	"time"

	"taskmind/internal/fallback"
	"taskmind/internal/normalize"
	"taskmind/internal/prompts"
	"taskmind/pkg/types"
)

type deadlinesDTO struct {
	Deadlines []types.DeadlineCandidate `json:"deadlines"`
}

// SuggestDeadlines proposes deadline candidates for a task. Engine output
// is preferred; when it fails or nothing survives normalization, candidates
// are computed from an effort-and-capacity estimate, and as a last resort
// from urgency keywords. The returned bool reports fallback use.
func (a *Analyzer) SuggestDeadlines(ctx context.Context, task types.Task, contextInfo *types.ContextAnalysis) ([]types.DeadlineCandidate, bool) {
	today := a.now()

	prompt, err := prompts.Build(prompts.KindSuggestDeadlines, a.promptInput(task, contextInfo))
	if err == nil {
		if raw, genErr := a.client.GenerateStructured(ctx, prompt); genErr == nil {
			var dto deadlinesDTO
			if decodeErr := decodeInto(raw, &dto); decodeErr == nil {
				if out := normalize.Deadlines(dto.Deadlines, today); len(out) > 0 {
					return out, false
				}
			}
		} else {
			a.logger.WarnContext(ctx, "deadline suggestion degraded to estimate", "error", genErr.Error())
		}
	}

	if out := EstimateDeadlines(task, contextInfo, today); len(out) > 0 {
		return out, true
	}
	return fallback.Deadlines(task.Text(), today), true
}

// EstimateDeadlines derives deadline candidates from an hours estimate and
// the user's remaining daily capacity.
func EstimateDeadlines(task types.Task, contextInfo *types.ContextAnalysis, today time.Time) []types.DeadlineCandidate {
	hours := EstimateHours(task)
	capacity := dailyCapacity(contextInfo)

	days := int(math.Ceil(hours / capacity))
	if days < 1 {
		days = 1
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	candidate := func(d int, confidence float64, reason string) types.DeadlineCandidate {
		if d < 1 {
			d = 1
		}
		return types.DeadlineCandidate{
			Date:       day.AddDate(0, 0, d).Format(normalize.DateLayout),
			Confidence: confidence,
			Reason:     reason,
		}
	}

	out := []types.DeadlineCandidate{
		candidate(int(math.Ceil(float64(days)*1.5)), 0.7, "Conservative estimate with buffer"),
		candidate(days, 0.8, "Realistic estimate at current capacity"),
	}
	if days > 1 {
		aggressive := int(math.Floor(float64(days) * 0.7))
		if aggressive < 1 {
			aggressive = 1
		}
		out = append(out, candidate(aggressive, 0.6, "Aggressive estimate if prioritized"))
	}
	return normalize.Deadlines(out, today)
}

// EstimateHours guesses the effort for a task from its wording.
func EstimateHours(task types.Task) float64 {
	lower := strings.ToLower(task.Text())

	var hours float64
	switch {
	case containsAny(lower, "quick", "simple"):
		hours = 1
	case containsAny(lower, "review", "check"):
		hours = 2
	case containsAny(lower, "create", "build"):
		hours = 4
	case containsAny(lower, "complex", "detailed"):
		hours = 6
	default:
		hours = 3
	}

	if containsAny(lower, "meeting", "discuss", "coordinate", "schedule") {
		hours *= 1.5
	}
	if containsAny(lower, "research", "investigate", "analyze") {
		hours *= 1.3
	}
	if task.Complexity >= 1 && task.Complexity <= 10 {
		hours *= 1 + float64(task.Complexity-5)*0.1
	}
	return hours
}

// dailyCapacity returns the hours per day left for new work.
func dailyCapacity(contextInfo *types.ContextAnalysis) float64 {
	capacity := 6.0
	active := 0
	if contextInfo != nil {
		active = contextInfo.ActiveItemCount
		switch contextInfo.Workload {
		case types.WorkloadHigh:
			capacity = 2
		case types.WorkloadMedium:
			capacity = 4
		}
	}

	load := math.Min(float64(active)*0.5, capacity*0.7)
	capacity -= load
	if capacity < 0.5 {
		capacity = 0.5
	}
	return capacity
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
