package analysis

import (
	"context"
	"fmt"

	"taskmind/internal/normalize"
	"taskmind/internal/prompts"
	"taskmind/pkg/types"
)

type extractDTO struct {
	Tasks []types.ExtractedTask `json:"tasks"`
}

// ExtractTasks pulls actionable tasks out of free-form text. There is no
// deterministic fallback for extraction; engine failures surface as errors.
func (a *Analyzer) ExtractTasks(ctx context.Context, text string) ([]types.ExtractedTask, error) {
	prompt, err := prompts.Build(prompts.KindExtractTasks, prompts.Input{Today: a.now(), FreeText: text})
	if err != nil {
		return nil, err
	}

	raw, err := a.client.GenerateStructured(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extracting tasks: %w", err)
	}

	var dto extractDTO
	if err := decodeInto(raw, &dto); err != nil {
		return nil, fmt.Errorf("decoding extracted tasks: %w", err)
	}

	out := make([]types.ExtractedTask, 0, len(dto.Tasks))
	for _, task := range dto.Tasks {
		title := normalize.Title(task.Title)
		if title == "" {
			continue
		}
		out = append(out, types.ExtractedTask{
			Title:       title,
			Description: task.Description,
			Confidence:  normalize.ClampConfidence(task.Confidence),
		})
	}
	return out, nil
}
