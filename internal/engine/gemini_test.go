package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmind/internal/config"
	"taskmind/internal/logging"
)

func geminiTestConfig(baseURL string) config.EngineConfig {
	return config.EngineConfig{
		Provider:       "gemini",
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "gemini-2.0-flash",
		Temperature:    0.7,
		MaxTokens:      1024,
		RequestTimeout: 5,
		MaxRetries:     2,
	}
}

func geminiBody(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestGeminiClientGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "improve this task", req.Contents[0].Parts[0].Text)

		_, _ = w.Write([]byte(geminiBody(`{"title":"Refactor auth module"}`)))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), logging.NewNop())

	text, err := client.Generate(context.Background(), "improve this task")
	require.NoError(t, err)
	assert.Contains(t, text, "Refactor auth module")

	out, err := client.GenerateStructured(context.Background(), "improve this task")
	require.NoError(t, err)
	assert.Equal(t, "Refactor auth module", out["title"])
}

func TestGeminiClientEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), logging.NewNop())

	text, err := client.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = client.GenerateStructured(context.Background(), "anything")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestGeminiClientRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(geminiBody("recovered")))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), logging.NewNop())

	text, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGeminiClientDoesNotRetryBadRequests(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid"}}`))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), logging.NewNop())

	_, err := client.Generate(context.Background(), "hello")
	require.Error(t, err)

	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, http.StatusBadRequest, engineErr.Status)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGeminiClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"name":"models/gemini-2.0-flash"}`))
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), logging.NewNop())
	assert.NoError(t, client.HealthCheck(context.Background()))

	info := client.ModelInfo()
	assert.Equal(t, "gemini", info.Provider)
	assert.Equal(t, "gemini-2.0-flash", info.Model)
}
