// Package analysis implements the per-concern analysis modules: task
// enhancement, category suggestion, priority scoring, deadline suggestion,
// and context analysis. Every module degrades to a deterministic fallback
// when the engine fails, so callers always get a usable result.
package analysis

import (
	"encoding/json"
	"time"

	"taskmind/internal/engine"
	"taskmind/internal/logging"
)

// Analyzer runs the analysis modules against a completion engine.
type Analyzer struct {
	client engine.Client
	logger logging.Logger
	now    func() time.Time
}

// New creates an Analyzer.
func New(client engine.Client, logger logging.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		logger: logger.WithComponent("analysis"),
		now:    time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// decodeInto re-marshals a generic engine payload into a typed DTO.
func decodeInto(m map[string]any, dst any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// asInt reads a JSON number that may arrive as float64.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
