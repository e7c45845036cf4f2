// Package engine adapts a text completion engine behind a small client
// interface. It owns prompt dispatch, structured-output parsing, and the
// resilience wrapping around the upstream API.
package engine

import (
	"context"
	"fmt"
)

// Client is the completion engine used by the analysis pipeline.
type Client interface {
	// Generate returns the raw text completion for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStructured returns the first JSON object found in the
	// completion, decoded into a generic map. A completion with no
	// decodable object yields a *ParseError carrying the raw text.
	GenerateStructured(ctx context.Context, prompt string) (map[string]any, error)

	// HealthCheck verifies the engine is reachable.
	HealthCheck(ctx context.Context) error

	// ModelInfo describes the configured model.
	ModelInfo() ModelInfo
}

// ModelInfo describes the engine backing a client.
type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// EngineError reports a failed upstream call.
type EngineError struct {
	Op      string // generate, health
	Status  int    // HTTP status, 0 for transport errors
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("engine %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("engine %s: %s", e.Op, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Err }

// ParseError reports a completion that could not be decoded as JSON.
// Raw keeps the full completion text for logging and debugging.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("structured output parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
