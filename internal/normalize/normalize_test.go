package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmind/pkg/types"
)

var today = time.Date(2024, 12, 18, 14, 30, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2024-12-20")
	require.True(t, ok)
	assert.Equal(t, 20, d.Day())

	_, ok = ParseDate("20/12/2024")
	assert.False(t, ok)
	_, ok = ParseDate("soon")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestDeadlineDiscardsPastDates(t *testing.T) {
	_, ok := Deadline(types.DeadlineCandidate{Date: "2024-12-17", Confidence: 0.9}, today)
	assert.False(t, ok)

	// today itself survives
	d, ok := Deadline(types.DeadlineCandidate{Date: "2024-12-18", Confidence: 0.9}, today)
	require.True(t, ok)
	assert.Equal(t, "2024-12-18", d.Date)
}

func TestDeadlineAppliesDefaults(t *testing.T) {
	d, ok := Deadline(types.DeadlineCandidate{Date: "2024-12-20"}, today)
	require.True(t, ok)
	assert.Equal(t, DefaultConfidence, d.Confidence)
	assert.Equal(t, DefaultDeadlineReason, d.Reason)

	d, ok = Deadline(types.DeadlineCandidate{Date: "2024-12-20", Confidence: 1.7, Reason: "sprint end"}, today)
	require.True(t, ok)
	assert.Equal(t, DefaultConfidence, d.Confidence)
	assert.Equal(t, "sprint end", d.Reason)
}

func TestDeadlinesSortAndCap(t *testing.T) {
	raw := []types.DeadlineCandidate{
		{Date: "2024-12-19", Confidence: 0.5},
		{Date: "2024-12-20", Confidence: 0.9},
		{Date: "not-a-date", Confidence: 0.99},
		{Date: "2024-12-21", Confidence: 0.7},
		{Date: "2024-12-22", Confidence: 0.6},
		{Date: "2024-12-23", Confidence: 0.65},
		{Date: "2024-12-24", Confidence: 0.55},
	}
	out := Deadlines(raw, today)
	require.Len(t, out, MaxSuggestions)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Confidence, out[i].Confidence)
	}
	assert.Equal(t, "2024-12-20", out[0].Date)
}

func TestCategoryDiscards(t *testing.T) {
	_, ok := Category(types.CategoryCandidate{Name: "   ", Confidence: 0.8})
	assert.False(t, ok)

	// length limit counts runes, not bytes
	c0, ok := Category(types.CategoryCandidate{Name: strings.Repeat("д", 50), Confidence: 0.8})
	assert.True(t, ok)
	assert.Equal(t, strings.Repeat("д", 50), c0.Name)

	_, ok = Category(types.CategoryCandidate{Name: strings.Repeat("x", 51), Confidence: 0.8})
	assert.False(t, ok)

	c, ok := Category(types.CategoryCandidate{Name: "  Work  ", Confidence: 0.5})
	require.True(t, ok)
	assert.Equal(t, "Work", c.Name)
	assert.Equal(t, 0.5, c.Confidence)
}

func TestCategoriesKeepValidDropInvalid(t *testing.T) {
	out := Categories([]types.CategoryCandidate{
		{Name: "", Confidence: 0.9},
		{Name: "Work", Confidence: 0.5},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "Work", out[0].Name)
	assert.Equal(t, 0.5, out[0].Confidence)
}

func TestClamps(t *testing.T) {
	assert.Equal(t, 0.3, ClampConfidence(0.3))
	assert.Equal(t, DefaultConfidence, ClampConfidence(-0.1))
	assert.Equal(t, DefaultConfidence, ClampConfidence(1.5))

	assert.Equal(t, 0, ClampScore(-5))
	assert.Equal(t, 100, ClampScore(120))
	assert.Equal(t, 85, ClampScore(85))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Fix login bug", Title("  Fix   login\tbug "))
	assert.Equal(t, "", Title("   "))

	long := strings.Repeat("a", 80)
	assert.Len(t, Title(long), MaxTitleLen)
}

func TestTitleStripsFillerOpeners(t *testing.T) {
	assert.Equal(t, "Fix the login flow", Title("We need to fix the login flow"))
	assert.Equal(t, "The database migration", Title("Complete the database migration"))
	assert.Equal(t, "Migrate the billing cron", Title("work on migrate the billing cron"))

	// stacked fillers are stripped in one pass
	assert.Equal(t, "Fix auth", Title("We need to work on fix auth"))

	// a title that is nothing but filler is rejected outright
	assert.Equal(t, "", Title("We need to"))
	assert.Equal(t, "", Title("complete"))

	// word boundaries are respected
	assert.Equal(t, "Completed the rollout", Title("Completed the rollout"))
	assert.Equal(t, "Workout plan for March", Title("Workout plan for March"))
}
