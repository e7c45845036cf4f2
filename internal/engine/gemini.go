package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskmind/internal/circuitbreaker"
	"taskmind/internal/config"
	"taskmind/internal/logging"
	"taskmind/internal/retry"
)

// GeminiClient calls the Gemini generateContent API.
type GeminiClient struct {
	cfg        config.EngineConfig
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.Breaker
	logger     logging.Logger
}

// NewGeminiClient creates a client for the configured Gemini model.
func NewGeminiClient(cfg config.EngineConfig, logger logging.Logger) *GeminiClient {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.MaxRetries
	}
	return &GeminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retrier:    retry.New(retryCfg),
		breaker:    circuitbreaker.New(circuitbreaker.DefaultConfig()),
		logger:     logger.WithComponent("engine.gemini"),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Client.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			out, err := c.call(ctx, prompt)
			if err != nil {
				return err
			}
			text = out
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateStructured implements Client.
func (c *GeminiClient) GenerateStructured(ctx context.Context, prompt string) (map[string]any, error) {
	raw, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	out, err := decodeStructured(raw)
	if err != nil {
		c.logger.WarnContext(ctx, "completion was not valid JSON", "raw_length", len(raw))
		return nil, err
	}
	return out, nil
}

// HealthCheck implements Client. It lists models rather than spending a
// completion.
func (c *GeminiClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return &EngineError{Op: "health", Message: "building request", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &EngineError{Op: "health", Message: "engine unreachable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return &EngineError{Op: "health", Status: resp.StatusCode, Message: "unexpected status"}
	}
	return nil
}

// ModelInfo implements Client.
func (c *GeminiClient) ModelInfo() ModelInfo {
	return ModelInfo{Provider: "gemini", Model: c.cfg.Model}
}

func (c *GeminiClient) call(ctx context.Context, prompt string) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.cfg.Temperature,
			TopP:            c.cfg.TopP,
			TopK:            c.cfg.TopK,
			MaxOutputTokens: c.cfg.MaxTokens,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &retry.PermanentError{Err: &EngineError{Op: "generate", Message: "encoding request", Err: err}}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &retry.PermanentError{Err: &EngineError{Op: "generate", Message: "building request", Err: err}}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &retry.TemporaryError{Err: &EngineError{Op: "generate", Message: "request failed", Err: err}}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &retry.TemporaryError{Err: &EngineError{Op: "generate", Message: "reading response", Err: err}}
	}

	if resp.StatusCode != http.StatusOK {
		engineErr := &EngineError{Op: "generate", Status: resp.StatusCode, Message: truncate(string(data), 512)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", &retry.TemporaryError{Err: engineErr}
		}
		return "", &retry.PermanentError{Err: engineErr}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &retry.PermanentError{Err: &EngineError{Op: "generate", Message: "decoding response", Err: err}}
	}
	if parsed.Error != nil {
		return "", &retry.PermanentError{Err: &EngineError{Op: "generate", Status: parsed.Error.Code, Message: parsed.Error.Message}}
	}
	// an empty candidate list is an empty completion, not a failure;
	// structured callers surface it as a parse error downstream
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	c.logger.DebugContext(ctx, "completion received",
		"duration_ms", time.Since(start).Milliseconds(),
		"finish_reason", parsed.Candidates[0].FinishReason)

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
