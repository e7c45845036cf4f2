// Package prompts holds the closed catalog of prompt templates used by the
// analysis pipeline. Every template that can elicit dates embeds the
// current date and demands strict JSON output.
package prompts

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies one prompt template. The set is closed; Build rejects
// anything else.
type Kind string

const (
	KindEnhanceTask       Kind = "enhance_task"
	KindSuggestCategories Kind = "suggest_categories"
	KindScorePriority     Kind = "score_priority"
	KindSuggestDeadlines  Kind = "suggest_deadlines"
	KindAnalyzeContext    Kind = "analyze_context"
	KindConsolidatedTask  Kind = "consolidated_task"
	KindExtractTasks      Kind = "extract_tasks"
)

// Input carries everything a template may interpolate.
type Input struct {
	Today              time.Time
	TaskTitle          string
	TaskDescription    string
	ContextSummary     string
	WorkloadLevel      string
	ActiveTaskCount    int
	ExistingCategories []string
	FreeText           string
}

const titleRules = `Title rules: start with an action verb, include the key technology or domain keyword when one is present, keep it under 60 characters, never use vague fillers like "task", "thing", "stuff" or "item", and never open with "We need to", "Complete" or "Work on".`

const jsonOnly = `Respond with a single JSON object and nothing else. No prose, no markdown fences.`

// Build renders the template for the given kind.
func Build(kind Kind, in Input) (string, error) {
	switch kind {
	case KindEnhanceTask:
		return buildEnhanceTask(in), nil
	case KindSuggestCategories:
		return buildSuggestCategories(in), nil
	case KindScorePriority:
		return buildScorePriority(in), nil
	case KindSuggestDeadlines:
		return buildSuggestDeadlines(in), nil
	case KindAnalyzeContext:
		return buildAnalyzeContext(in), nil
	case KindConsolidatedTask:
		return buildConsolidatedTask(in), nil
	case KindExtractTasks:
		return buildExtractTasks(in), nil
	default:
		return "", fmt.Errorf("unknown prompt kind: %q", kind)
	}
}

func dateDiscipline(today time.Time) string {
	return fmt.Sprintf(
		"Today's date is %s. All suggested dates must use the YYYY-MM-DD format and be strictly after today.",
		today.Format("2006-01-02"))
}

func taskBlock(in Input) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task title: %s\n", in.TaskTitle)
	if in.TaskDescription != "" {
		fmt.Fprintf(&sb, "Task description: %s\n", in.TaskDescription)
	}
	return sb.String()
}

func contextBlock(in Input) string {
	var sb strings.Builder
	if in.ContextSummary != "" {
		fmt.Fprintf(&sb, "User context: %s\n", in.ContextSummary)
	}
	if in.WorkloadLevel != "" {
		fmt.Fprintf(&sb, "Current workload: %s (%d active items)\n", in.WorkloadLevel, in.ActiveTaskCount)
	}
	if len(in.ExistingCategories) > 0 {
		fmt.Fprintf(&sb, "Existing categories: %s\n", strings.Join(in.ExistingCategories, ", "))
	}
	return sb.String()
}

func buildEnhanceTask(in Input) string {
	return fmt.Sprintf(`You improve task definitions so they are specific and actionable.

%s%s
Rewrite the task with a better title and description, and break it into concrete steps.
%s

%s
Schema:
{"title": "...", "description": "...", "steps": ["...", "..."]}`,
		taskBlock(in), contextBlock(in), titleRules, jsonOnly)
}

func buildSuggestCategories(in Input) string {
	return fmt.Sprintf(`You assign categories to tasks.

%s%s
Suggest up to 5 categories for this task, most fitting first. Prefer existing categories when they fit. Category names must be short, at most 50 characters, never empty.

%s
Schema:
{"categories": [{"name": "...", "confidence": 0.0, "reason": "..."}]}
Confidence is a number between 0 and 1.`,
		taskBlock(in), contextBlock(in), jsonOnly)
}

func buildScorePriority(in Input) string {
	return fmt.Sprintf(`You score task priority.

%s%s
Score each factor from 0 to 100: urgency (time pressure), importance (impact if done or not done), context_relevance (fit with what the user is doing now), dependencies (whether other work waits on this).

%s
Schema:
{"urgency": 0, "importance": 0, "context_relevance": 0, "dependencies": 0, "reasoning": "..."}`,
		taskBlock(in), contextBlock(in), jsonOnly)
}

func buildSuggestDeadlines(in Input) string {
	return fmt.Sprintf(`You suggest realistic deadlines for tasks.

%s
%s%s
Suggest up to 5 deadline candidates considering the user's workload. For each, give the date, a confidence between 0 and 1, and a short reason.

%s
Schema:
{"deadlines": [{"date": "YYYY-MM-DD", "confidence": 0.0, "reason": "..."}]}`,
		dateDiscipline(in.Today), taskBlock(in), contextBlock(in), jsonOnly)
}

func buildAnalyzeContext(in Input) string {
	return fmt.Sprintf(`You analyze a user's current situation from their collected context.

Context items:
%s

Summarize what the user is working on, classify their workload as low, medium or high, name the main themes, and give up to 3 short recommendations for managing the load.

%s
Schema:
{"summary": "...", "workload": "low|medium|high", "themes": ["..."], "recommendations": ["..."]}`,
		in.FreeText, jsonOnly)
}

func buildConsolidatedTask(in Input) string {
	return fmt.Sprintf(`You are a task analysis engine. Analyze one task completely in a single pass.

%s
%s%s
Produce all of the following:
1. enhancement: a better title and description plus concrete steps. %s
2. categories: up to 5 candidates with confidence between 0 and 1; prefer existing categories when they fit; names at most 50 characters.
3. priority: factor scores 0-100 for urgency, importance, context_relevance and dependencies, with a one-sentence reasoning.
4. deadlines: up to 5 dated candidates with confidence and reason.

%s
Schema:
{
  "enhancement": {"title": "...", "description": "...", "steps": ["..."]},
  "categories": [{"name": "...", "confidence": 0.0, "reason": "..."}],
  "priority": {"urgency": 0, "importance": 0, "context_relevance": 0, "dependencies": 0, "reasoning": "..."},
  "deadlines": [{"date": "YYYY-MM-DD", "confidence": 0.0, "reason": "..."}]
}`,
		dateDiscipline(in.Today), taskBlock(in), contextBlock(in), titleRules, jsonOnly)
}

func buildExtractTasks(in Input) string {
	return fmt.Sprintf(`You extract actionable tasks from free-form text.

Text:
%s

Find every concrete task the text implies. %s

%s
Schema:
{"tasks": [{"title": "...", "description": "...", "confidence": 0.0}]}`,
		in.FreeText, titleRules, jsonOnly)
}
