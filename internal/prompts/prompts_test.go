package prompts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInput() Input {
	return Input{
		Today:              time.Date(2024, 12, 18, 10, 0, 0, 0, time.UTC),
		TaskTitle:          "Fix login bug",
		TaskDescription:    "users locked out after password reset",
		WorkloadLevel:      "medium",
		ActiveTaskCount:    6,
		ExistingCategories: []string{"Work", "Bugs"},
		FreeText:           "need to call the dentist and finish the quarterly report",
	}
}

func TestBuildCoversEveryKind(t *testing.T) {
	kinds := []Kind{
		KindEnhanceTask,
		KindSuggestCategories,
		KindScorePriority,
		KindSuggestDeadlines,
		KindAnalyzeContext,
		KindConsolidatedTask,
		KindExtractTasks,
	}
	for _, k := range kinds {
		prompt, err := Build(k, testInput())
		require.NoError(t, err, "kind %s", k)
		assert.NotEmpty(t, prompt)
		assert.Contains(t, prompt, "JSON")
	}
}

func TestBuildRejectsUnknownKind(t *testing.T) {
	_, err := Build(Kind("summarize_email"), testInput())
	assert.Error(t, err)
}

func TestDateBearingTemplatesEmbedToday(t *testing.T) {
	for _, k := range []Kind{KindSuggestDeadlines, KindConsolidatedTask} {
		prompt, err := Build(k, testInput())
		require.NoError(t, err)
		assert.Contains(t, prompt, "2024-12-18", "kind %s", k)
		assert.Contains(t, prompt, "strictly after today", "kind %s", k)
	}
}

func TestTitleRulesAppearInEnhancementTemplates(t *testing.T) {
	for _, k := range []Kind{KindEnhanceTask, KindConsolidatedTask, KindExtractTasks} {
		prompt, err := Build(k, testInput())
		require.NoError(t, err)
		assert.Contains(t, prompt, "action verb", "kind %s", k)
		assert.Contains(t, prompt, "60 characters", "kind %s", k)
	}
}

func TestTaskAndContextInterpolation(t *testing.T) {
	prompt, err := Build(KindConsolidatedTask, testInput())
	require.NoError(t, err)
	assert.Contains(t, prompt, "Fix login bug")
	assert.Contains(t, prompt, "locked out")
	assert.Contains(t, prompt, "Work, Bugs")
	assert.Contains(t, prompt, "medium")
}
