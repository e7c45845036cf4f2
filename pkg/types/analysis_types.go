package types

// TaskEnhancement is the improved version of a task produced by analysis.
type TaskEnhancement struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Confidence  float64  `json:"confidence"`
}

// CategoryCandidate is a single suggested category with its confidence.
type CategoryCandidate struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// CategorySuggestion groups the surviving candidates for one task.
type CategorySuggestion struct {
	Candidates []CategoryCandidate `json:"candidates"`
	Confidence float64             `json:"confidence"`
}

// PriorityLevel buckets a 0-100 priority score into a named level.
type PriorityLevel string

const (
	PriorityHigh       PriorityLevel = "high"
	PriorityMediumHigh PriorityLevel = "medium-high"
	PriorityMedium     PriorityLevel = "medium"
	PriorityLowMedium  PriorityLevel = "low-medium"
	PriorityLow        PriorityLevel = "low"
)

// LevelFromScore maps a clamped 0-100 score onto its priority level.
func LevelFromScore(score int) PriorityLevel {
	switch {
	case score >= 80:
		return PriorityHigh
	case score >= 60:
		return PriorityMediumHigh
	case score >= 40:
		return PriorityMedium
	case score >= 20:
		return PriorityLowMedium
	default:
		return PriorityLow
	}
}

// PriorityFactors holds the per-factor scores (0-100) behind a priority.
type PriorityFactors struct {
	Urgency          int `json:"urgency"`
	Importance       int `json:"importance"`
	ContextRelevance int `json:"context_relevance"`
	WorkloadImpact   int `json:"workload_impact"`
	Dependencies     int `json:"dependencies"`
}

// PriorityAnalysis is the weighted priority result for one task.
type PriorityAnalysis struct {
	Score     int             `json:"score"` // 0-100
	Level     PriorityLevel   `json:"level"`
	Factors   PriorityFactors `json:"factors"`
	Reasoning string          `json:"reasoning,omitempty"`
}

// DeadlineCandidate is a suggested deadline. Date is always YYYY-MM-DD and
// never earlier than the day the suggestion was produced.
type DeadlineCandidate struct {
	Date       string  `json:"date"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// WorkloadLevel classifies how loaded the user currently is.
type WorkloadLevel string

const (
	WorkloadLow    WorkloadLevel = "low"
	WorkloadMedium WorkloadLevel = "medium"
	WorkloadHigh   WorkloadLevel = "high"
)

// ContextAnalysis summarizes the user's situation derived from context.
type ContextAnalysis struct {
	Workload        WorkloadLevel `json:"workload"`
	ActiveItemCount int           `json:"active_item_count"`
	Themes          []string      `json:"themes,omitempty"`
	Summary         string        `json:"summary,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
	Degraded        bool          `json:"degraded,omitempty"`
}

// ExtractedTask is a task pulled out of free-form text.
type ExtractedTask struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// PipelineStatus reports how a pipeline run concluded.
type PipelineStatus string

const (
	StatusCompleted           PipelineStatus = "completed"
	StatusCompletedWithErrors PipelineStatus = "completed_with_errors"
	StatusFailed              PipelineStatus = "failed"
)

// RecommendationBundle is the full enrichment result for a single task.
// Every field is always populated; modules that failed fall back to
// deterministic suggestions and mark the bundle degraded.
type RecommendationBundle struct {
	TaskID            string              `json:"task_id,omitempty"`
	Enhancement       TaskEnhancement     `json:"enhancement"`
	Categories        CategorySuggestion  `json:"categories"`
	Priority          PriorityAnalysis    `json:"priority"`
	Deadlines         []DeadlineCandidate `json:"deadlines"`
	Context           *ContextAnalysis    `json:"context,omitempty"`
	OverallConfidence float64             `json:"overall_confidence"`
	Status            PipelineStatus      `json:"status"`
	DegradedModules   []string            `json:"degraded_modules,omitempty"`
}
