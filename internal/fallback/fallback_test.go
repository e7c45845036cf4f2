package fallback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmind/pkg/types"
)

// Wednesday
var today = time.Date(2024, 12, 18, 9, 0, 0, 0, time.UTC)

func dates(candidates []types.DeadlineCandidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Date
	}
	return out
}

func TestDeadlinesEndOfWeek(t *testing.T) {
	out := Deadlines("finish the report by end of week", today)
	require.NotEmpty(t, out)
	assert.Contains(t, dates(out), "2024-12-20")
}

func TestDeadlinesTwoWeeks(t *testing.T) {
	out := Deadlines("migrate the database in 2 weeks", today)
	assert.Contains(t, dates(out), "2025-01-01")
}

func TestDeadlinesUrgent(t *testing.T) {
	out := Deadlines("urgent: fix prod outage", today)
	require.NotEmpty(t, out)
	assert.Equal(t, "2024-12-19", out[0].Date)
	assert.Equal(t, "Urgency keyword detected", out[0].Reason)
}

func TestDeadlinesNextFridayRollsOverOnFriday(t *testing.T) {
	friday := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)
	out := Deadlines("wrap this up by friday", friday)
	assert.Contains(t, dates(out), "2024-12-27")
	assert.NotContains(t, dates(out), "2024-12-20")
}

func TestDeadlinesEndOfMonth(t *testing.T) {
	out := Deadlines("close the books by end of month", today)
	assert.Contains(t, dates(out), "2024-12-31")

	// already on the last day: roll to next month
	lastDay := time.Date(2024, 12, 31, 9, 0, 0, 0, time.UTC)
	out = Deadlines("close the books by end of month", lastDay)
	assert.Contains(t, dates(out), "2025-01-31")
}

func TestDeadlinesAlwaysAtLeastThreeAndFuture(t *testing.T) {
	out := Deadlines("mow the lawn", today)
	require.GreaterOrEqual(t, len(out), 3)
	require.LessOrEqual(t, len(out), 5)
	for _, c := range out {
		assert.Greater(t, c.Date, "2024-12-18")
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
	}
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Confidence, out[i].Confidence)
	}
}

func TestCategoriesKeywordBuckets(t *testing.T) {
	out := Categories("schedule a meeting with the client about the project")
	require.Len(t, out, 5)
	names := make([]string, len(out))
	for i, c := range out {
		names[i] = c.Name
	}
	assert.Contains(t, names, "Work")
	assert.Contains(t, names, "Planning")
}

func TestCategoriesPadsWithGenericNames(t *testing.T) {
	out := Categories("xyzzy")
	require.Len(t, out, 3)
	assert.Equal(t, "General", out[0].Name)
	for _, c := range out {
		assert.LessOrEqual(t, len(c.Name), 50)
	}
}

func TestEnhancementKeepsOriginal(t *testing.T) {
	e := Enhancement(types.Task{Title: "  fix   the bug ", Description: "it crashes"})
	assert.Equal(t, "fix the bug", e.Title)
	assert.Equal(t, "it crashes", e.Description)
	assert.Equal(t, 0.3, e.Confidence)
}

func TestWeightedScore(t *testing.T) {
	all85 := types.PriorityFactors{Urgency: 85, Importance: 85, ContextRelevance: 85, WorkloadImpact: 85, Dependencies: 85}
	assert.Equal(t, 85, WeightedScore(all85))
	assert.Equal(t, types.PriorityHigh, types.LevelFromScore(WeightedScore(all85)))

	zero := types.PriorityFactors{}
	assert.Equal(t, 0, WeightedScore(zero))
}

func TestPriorityKeywords(t *testing.T) {
	urgent := Priority(types.Task{Title: "urgent deploy fix"}, nil)
	calm := Priority(types.Task{Title: "water the plants"}, nil)
	assert.Greater(t, urgent.Score, calm.Score)
	assert.Equal(t, types.LevelFromScore(urgent.Score), urgent.Level)
}

func TestWorkloadImpact(t *testing.T) {
	assert.Equal(t, 70, WorkloadImpact(nil))
	assert.Equal(t, 30, WorkloadImpact(&types.ContextAnalysis{Workload: types.WorkloadHigh}))
	assert.Equal(t, 10, WorkloadImpact(&types.ContextAnalysis{Workload: types.WorkloadHigh, ActiveItemCount: 11}))
	assert.Equal(t, 40, WorkloadImpact(&types.ContextAnalysis{Workload: types.WorkloadMedium, ActiveItemCount: 6}))
	assert.Equal(t, 70, WorkloadImpact(&types.ContextAnalysis{Workload: types.WorkloadLow, ActiveItemCount: 2}))
}
