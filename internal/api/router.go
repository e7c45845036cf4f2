// Package api wires the HTTP surface: router, middleware, and handlers.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskmind/internal/api/handlers"
	"taskmind/internal/api/response"
	"taskmind/internal/logging"
	"taskmind/internal/pipeline"
	"taskmind/internal/storage"
)

// Version is reported by the health endpoint and response headers.
const Version = "1.0.0"

// RouterConfig carries the router's dependencies. Store may be nil; the
// persistence endpoints are mounted only when it is present.
type RouterConfig struct {
	Controller *pipeline.Controller
	Store      *storage.Store
	Logger     logging.Logger
	MaxBatch   int
}

// NewRouter builds the chi router with the full endpoint surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(traceMiddleware)
	r.Use(requestLogger(cfg.Logger))
	r.Use(corsMiddleware)
	r.Use(versionHeader)

	analyze := handlers.NewAnalyzeHandler(cfg.Controller, cfg.Store, cfg.Logger, cfg.MaxBatch)
	health := handlers.NewHealthHandler(cfg.Controller, cfg.Store, Version)

	r.Get("/health", health.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze/task", analyze.AnalyzeTask)
		r.Post("/analyze/batch", analyze.AnalyzeBatch)
		r.Post("/analyze/context", analyze.AnalyzeContext)
		r.Post("/extract/tasks", analyze.ExtractTasks)
		r.Get("/engine/info", analyze.EngineInfo)

		if cfg.Store != nil {
			tasks := handlers.NewTaskHandler(cfg.Store, cfg.Logger)
			r.Post("/tasks", tasks.Create)
			r.Get("/tasks", tasks.List)
			r.Get("/tasks/{id}", tasks.Get)
			r.Patch("/tasks/{id}", tasks.Update)
			r.Delete("/tasks/{id}", tasks.Delete)
			r.Get("/categories", tasks.ListCategories)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.WriteNotFound(w, "endpoint not found")
	})

	return r
}

// traceMiddleware attaches a trace ID to every request, honoring one the
// caller supplied.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-ID", logging.TraceID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent("api")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds())
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Trace-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func versionHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", Version)
		next.ServeHTTP(w, r)
	})
}
