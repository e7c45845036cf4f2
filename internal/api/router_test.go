package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmind/internal/engine"
	"taskmind/internal/logging"
	"taskmind/internal/pipeline"
	"taskmind/internal/storage"
)

const consolidatedResponse = `{
	"enhancement": {
		"title": "Deploy the payment service to staging",
		"description": "Roll the payment service out to staging and verify the webhook flow end to end.",
		"steps": ["Tag the release candidate build", "Run the staging smoke tests"]
	},
	"categories": [{"name": "Work", "confidence": 0.8}],
	"priority": {"urgency": 85, "importance": 85, "context_relevance": 85, "dependencies": 85, "reasoning": "release week"},
	"deadlines": [{"date": "2099-01-15", "confidence": 0.8, "reason": "release window"}]
}`

func newTestRouter(client engine.Client) http.Handler {
	controller := pipeline.New(client, pipeline.StrategyConsolidated, logging.NewNop())
	return NewRouter(RouterConfig{
		Controller: controller,
		Logger:     logging.NewNop(),
		MaxBatch:   3,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestAnalyzeTaskEndpoint(t *testing.T) {
	router := newTestRouter(engine.NewMockClient(consolidatedResponse))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze/task", map[string]any{
		"task": map[string]any{"title": "deploy payments"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "completed", data["status"])

	enhancement, ok := data["enhancement"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Deploy the payment service to staging", enhancement["title"])

	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
	assert.Equal(t, Version, rec.Header().Get("X-API-Version"))
}

func TestAnalyzeTaskValidation(t *testing.T) {
	router := newTestRouter(engine.NewMockClient(consolidatedResponse))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze/task", map[string]any{
		"task": map[string]any{"title": ""},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/task", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeBatchEndpoint(t *testing.T) {
	router := newTestRouter(engine.NewMockClient(consolidatedResponse))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze/batch", map[string]any{
		"tasks": []map[string]any{
			{"title": "first"},
			{"title": "second"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.EqualValues(t, 2, data["count"])
	results, ok := data["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 2)
}

func TestAnalyzeBatchLimits(t *testing.T) {
	router := newTestRouter(engine.NewMockClient(consolidatedResponse))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze/batch", map[string]any{
		"tasks": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := make([]map[string]any, 4)
	for i := range big {
		big[i] = map[string]any{"title": "t"}
	}
	rec = doJSON(t, router, http.MethodPost, "/api/v1/analyze/batch", map[string]any{"tasks": big})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeContextEndpoint(t *testing.T) {
	client := engine.NewMockClient(`{"summary": "Light week.", "workload": "low", "themes": [], "recommendations": []}`)
	router := newTestRouter(client)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze/context", map[string]any{
		"context": map[string]any{
			"sources": []map[string]any{
				{"kind": "notes", "items": []string{"nothing urgent"}},
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "Light week.", data["summary"])
}

func TestAnalyzeContextBackfillsStoredSnapshots(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT ON (kind) kind, items`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "items"}).
			AddRow("calendar", []byte(`["standup at 9", "release review at 14"]`)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, auto_created, created_at FROM categories ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "auto_created", "created_at"}).
			AddRow("c1", "Work", false, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tasks WHERE status IN ($1, $2)`)).
		WithArgs("pending", "in_progress").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	client := engine.NewMockClient(`{"summary": "Busy release week.", "workload": "medium", "themes": ["release"], "recommendations": []}`)
	controller := pipeline.New(client, pipeline.StrategyConsolidated, logging.NewNop())
	router := NewRouter(RouterConfig{
		Controller: controller,
		Store:      storage.NewStore(db),
		Logger:     logging.NewNop(),
		MaxBatch:   3,
	})

	// no sources in the request: the stored snapshots must feed the engine
	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze/context", map[string]any{
		"context": map[string]any{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "Busy release week.", data["summary"])
	assert.Equal(t, 1, client.Calls())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractTasksEndpoint(t *testing.T) {
	client := engine.NewMockClient(`{"tasks": [{"title": "Book the dentist appointment", "confidence": 0.8}]}`)
	router := newTestRouter(client)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/extract/tasks", map[string]any{
		"text": "remember to book the dentist",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.EqualValues(t, 1, data["count"])

	rec = doJSON(t, router, http.MethodPost, "/api/v1/extract/tasks", map[string]any{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractTasksEngineDown(t *testing.T) {
	client := &engine.MockClient{Responses: []engine.MockResponse{
		{Err: &engine.EngineError{Op: "generate", Status: 503, Message: "down"}},
	}}
	router := newTestRouter(client)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/extract/tasks", map[string]any{
		"text": "anything",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEngineInfoEndpoint(t *testing.T) {
	router := newTestRouter(engine.NewMockClient(`{}`))

	rec := doJSON(t, router, http.MethodGet, "/api/v1/engine/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "consolidated", data["strategy"])
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(engine.NewMockClient(`{}`))
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := &engine.MockClient{HealthErr: errors.New("engine unreachable")}
	router = newTestRouter(down)
	rec = doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPipelineDegradesInsteadOf503(t *testing.T) {
	// the analyze endpoints never 503 on engine failure, only /health does
	down := &engine.MockClient{
		Responses: []engine.MockResponse{{Err: errors.New("engine down")}},
		HealthErr: errors.New("engine unreachable"),
	}
	router := newTestRouter(down)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze/task", map[string]any{
		"task": map[string]any{"title": "still works"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "completed_with_errors", data["status"])
}

func TestUnknownEndpoint(t *testing.T) {
	router := newTestRouter(engine.NewMockClient(`{}`))
	rec := doJSON(t, router, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflights(t *testing.T) {
	router := newTestRouter(engine.NewMockClient(`{}`))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze/task", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
