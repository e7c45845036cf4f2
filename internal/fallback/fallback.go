// Package fallback produces deterministic suggestions when the completion
// engine fails or returns nothing usable. Everything here is pure keyword
// and calendar arithmetic; no network calls.
package fallback

import (
	"strings"
	"time"

	"taskmind/internal/normalize"
	"taskmind/pkg/types"
)

const defaultReason = "Default suggestion"

// Deadlines derives deadline candidates from urgency phrases in the task
// text. At least three candidates are always returned, all strictly after
// today.
func Deadlines(text string, today time.Time) []types.DeadlineCandidate {
	lower := strings.ToLower(text)
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var out []types.DeadlineCandidate
	add := func(date time.Time, confidence float64, reason string) {
		formatted := date.Format(normalize.DateLayout)
		for _, existing := range out {
			if existing.Date == formatted {
				return
			}
		}
		out = append(out, types.DeadlineCandidate{Date: formatted, Confidence: confidence, Reason: reason})
	}

	if containsAny(lower, "today", "asap", "urgent", "immediately") {
		add(day.AddDate(0, 0, 1), 0.8, "Urgency keyword detected")
	}
	if containsAny(lower, "this week", "end of week", "by friday") {
		add(nextFriday(day), 0.7, "End of week requested")
	}
	if containsAny(lower, "next week") {
		add(day.AddDate(0, 0, 7), 0.7, "Next week requested")
	}
	if containsAny(lower, "2 weeks", "two weeks", "fortnight") {
		add(day.AddDate(0, 0, 14), 0.7, "Two week horizon requested")
	}
	if containsAny(lower, "end of month", "this month") {
		add(endOfMonth(day), 0.6, "End of month requested")
	}

	// backfill so callers always get something to pick from
	for _, days := range []int{1, 3, 7} {
		if len(out) >= 3 {
			break
		}
		add(day.AddDate(0, 0, days), 0.5, defaultReason)
	}

	return normalize.Deadlines(out, today)
}

var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"Work", []string{"meeting", "project", "report", "client", "presentation", "deadline"}},
	{"Communication", []string{"email", "call", "message", "reply", "respond"}},
	{"Planning", []string{"plan", "schedule", "organize", "prepare", "review"}},
	{"Personal", []string{"home", "family", "buy", "shop", "errand"}},
	{"Health", []string{"doctor", "gym", "exercise", "health", "dentist"}},
}

var paddingCategories = []string{"General", "Tasks", "Important"}

// Categories derives category candidates from keyword buckets, padded to
// exactly five entries.
func Categories(text string) []types.CategoryCandidate {
	lower := strings.ToLower(text)

	var out []types.CategoryCandidate
	for _, bucket := range categoryKeywords {
		if containsAny(lower, bucket.keywords...) {
			out = append(out, types.CategoryCandidate{
				Name:       bucket.name,
				Confidence: 0.6,
				Reason:     "Keyword match",
			})
		}
	}
	for _, name := range paddingCategories {
		if len(out) >= normalize.MaxSuggestions {
			break
		}
		out = append(out, types.CategoryCandidate{Name: name, Confidence: 0.4, Reason: defaultReason})
	}
	if len(out) > normalize.MaxSuggestions {
		out = out[:normalize.MaxSuggestions]
	}
	return out
}

// Enhancement returns the task essentially unchanged with low confidence.
func Enhancement(task types.Task) types.TaskEnhancement {
	return types.TaskEnhancement{
		Title:       normalize.Title(task.Title),
		Description: task.Description,
		Steps:       nil,
		Confidence:  0.3,
	}
}

// Priority scores a task from urgency keywords alone.
func Priority(task types.Task, contextInfo *types.ContextAnalysis) types.PriorityAnalysis {
	lower := strings.ToLower(task.Text())

	urgency := 50
	importance := 50
	if containsAny(lower, "urgent", "asap", "critical", "immediately") {
		urgency = 80
	}
	if containsAny(lower, "important", "deadline", "must") {
		importance = 65
	}

	factors := types.PriorityFactors{
		Urgency:          urgency,
		Importance:       importance,
		ContextRelevance: 50,
		WorkloadImpact:   WorkloadImpact(contextInfo),
		Dependencies:     50,
	}
	score := WeightedScore(factors)
	return types.PriorityAnalysis{
		Score:     score,
		Level:     types.LevelFromScore(score),
		Factors:   factors,
		Reasoning: "Keyword based estimate",
	}
}

// WeightedScore combines factor scores with the pipeline's fixed weights.
func WeightedScore(f types.PriorityFactors) int {
	weighted := 0.30*float64(normalize.ClampScore(f.Urgency)) +
		0.25*float64(normalize.ClampScore(f.Importance)) +
		0.20*float64(normalize.ClampScore(f.ContextRelevance)) +
		0.15*float64(normalize.ClampScore(f.WorkloadImpact)) +
		0.10*float64(normalize.ClampScore(f.Dependencies))
	return normalize.ClampScore(int(weighted + 0.5))
}

// WorkloadImpact derives the workload factor from context. A loaded user
// has less room, so new work scores lower.
func WorkloadImpact(contextInfo *types.ContextAnalysis) int {
	if contextInfo == nil {
		return 70
	}
	var impact int
	switch contextInfo.Workload {
	case types.WorkloadHigh:
		impact = 30
	case types.WorkloadMedium:
		impact = 50
	default:
		impact = 70
	}
	if contextInfo.ActiveItemCount > 10 {
		impact -= 20
	} else if contextInfo.ActiveItemCount > 5 {
		impact -= 10
	}
	if impact < 0 {
		impact = 0
	}
	return impact
}

// nextFriday returns the first Friday strictly after day when day is
// itself a Friday, otherwise the upcoming Friday.
func nextFriday(day time.Time) time.Time {
	days := (int(time.Friday) - int(day.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return day.AddDate(0, 0, days)
}

// endOfMonth returns the last day of day's month, or of the next month
// when the last day is not strictly after day.
func endOfMonth(day time.Time) time.Time {
	last := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	if !last.After(day) {
		last = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 2, -1)
	}
	return last
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
