package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromScore(t *testing.T) {
	tests := []struct {
		score int
		want  PriorityLevel
	}{
		{100, PriorityHigh},
		{85, PriorityHigh},
		{80, PriorityHigh},
		{79, PriorityMediumHigh},
		{60, PriorityMediumHigh},
		{59, PriorityMedium},
		{40, PriorityMedium},
		{39, PriorityLowMedium},
		{20, PriorityLowMedium},
		{19, PriorityLow},
		{0, PriorityLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromScore(tt.score), "score %d", tt.score)
	}
}

func TestContextPayloadItemCount(t *testing.T) {
	p := ContextPayload{
		Sources: []ContextSource{
			{Kind: ContextSourceCalendar, Items: []string{"standup 9am", "review 2pm"}},
			{Kind: ContextSourceNotes, Items: []string{"ship the report"}},
		},
	}
	assert.Equal(t, 3, p.ItemCount())
	assert.Equal(t, "standup 9am review 2pm ship the report", p.JoinedText())
}

func TestTaskText(t *testing.T) {
	task := Task{Title: "Fix login bug"}
	assert.Equal(t, "Fix login bug", task.Text())

	task.Description = "users locked out after reset"
	assert.Equal(t, "Fix login bug users locked out after reset", task.Text())
}
