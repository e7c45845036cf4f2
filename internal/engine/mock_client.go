package engine

import (
	"context"
	"sync"
	"time"
)

// MockResponse scripts one call against a MockClient.
type MockResponse struct {
	Text string
	Err  error
}

// MockClient is a scripted engine for tests and offline development.
// Responses are consumed in order; the last one repeats once the script
// runs out. An empty script yields "{}" forever.
type MockClient struct {
	mu        sync.Mutex
	calls     int
	Responses []MockResponse
	Delay     time.Duration
	HealthErr error
}

// NewMockClient creates a mock that always returns the given text.
func NewMockClient(text string) *MockClient {
	return &MockClient{Responses: []MockResponse{{Text: text}}}
}

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, _ string) (string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(m.Responses) == 0 {
		return "{}", nil
	}
	idx := m.calls - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	r := m.Responses[idx]
	if r.Err != nil {
		return "", r.Err
	}
	return r.Text, nil
}

// GenerateStructured implements Client.
func (m *MockClient) GenerateStructured(ctx context.Context, prompt string) (map[string]any, error) {
	raw, err := m.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return decodeStructured(raw)
}

// HealthCheck implements Client.
func (m *MockClient) HealthCheck(context.Context) error {
	return m.HealthErr
}

// ModelInfo implements Client.
func (m *MockClient) ModelInfo() ModelInfo {
	return ModelInfo{Provider: "mock", Model: "mock-v1"}
}

// Calls reports how many generate calls were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
