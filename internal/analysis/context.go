package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"taskmind/internal/prompts"
	"taskmind/pkg/types"
)

type contextDTO struct {
	Summary         string   `json:"summary"`
	Workload        string   `json:"workload"`
	Themes          []string `json:"themes"`
	Recommendations []string `json:"recommendations"`
}

// AnalyzeContext summarizes the user's situation. Workload level and item
// counts are always computed locally; the engine contributes the summary,
// themes and recommendations, with a deterministic fallback.
func (a *Analyzer) AnalyzeContext(ctx context.Context, payload types.ContextPayload) *types.ContextAnalysis {
	active := payload.ActiveTaskCount
	if active == 0 {
		active = payload.ItemCount()
	}

	out := &types.ContextAnalysis{
		Workload:        workloadFromCount(active),
		ActiveItemCount: active,
	}

	text := payload.JoinedText()
	if text == "" {
		out.Summary = "No context available."
		out.Degraded = true
		return out
	}

	prompt, err := prompts.Build(prompts.KindAnalyzeContext, prompts.Input{Today: a.now(), FreeText: text})
	if err == nil {
		if raw, genErr := a.client.GenerateStructured(ctx, prompt); genErr == nil {
			var dto contextDTO
			if decodeErr := decodeInto(raw, &dto); decodeErr == nil && dto.Summary != "" {
				out.Summary = dto.Summary
				out.Themes = dto.Themes
				out.Recommendations = dto.Recommendations
				if level := types.WorkloadLevel(dto.Workload); validWorkload(level) {
					// engine may know about load the counter cannot see
					out.Workload = maxWorkload(out.Workload, level)
				}
				return out
			}
		} else {
			a.logger.WarnContext(ctx, "context analysis degraded to heuristic", "error", genErr.Error())
		}
	}

	out.Summary = fmt.Sprintf("%d active items across %d sources.", active, len(payload.Sources))
	out.Themes = keywordThemes(text)
	out.Degraded = true
	return out
}

func workloadFromCount(active int) types.WorkloadLevel {
	switch {
	case active > 10:
		return types.WorkloadHigh
	case active > 5:
		return types.WorkloadMedium
	default:
		return types.WorkloadLow
	}
}

func validWorkload(l types.WorkloadLevel) bool {
	return l == types.WorkloadLow || l == types.WorkloadMedium || l == types.WorkloadHigh
}

func workloadRank(l types.WorkloadLevel) int {
	switch l {
	case types.WorkloadHigh:
		return 2
	case types.WorkloadMedium:
		return 1
	default:
		return 0
	}
}

func maxWorkload(a, b types.WorkloadLevel) types.WorkloadLevel {
	if workloadRank(b) > workloadRank(a) {
		return b
	}
	return a
}

var themeKeywords = map[string][]string{
	"meetings":      {"meeting", "standup", "call", "sync"},
	"deadlines":     {"deadline", "due", "urgent", "asap"},
	"planning":      {"plan", "roadmap", "schedule", "organize"},
	"development":   {"code", "bug", "deploy", "release", "build"},
	"communication": {"email", "reply", "message", "respond"},
}

func keywordThemes(text string) []string {
	lower := strings.ToLower(text)
	var themes []string
	for theme, keywords := range themeKeywords {
		if containsAny(lower, keywords...) {
			themes = append(themes, theme)
		}
	}
	sort.Strings(themes)
	return themes
}
