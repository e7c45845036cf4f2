// server is the taskmind HTTP binary: it exposes the enrichment pipeline
// over REST, optionally backed by PostgreSQL for task persistence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmind/internal/api"
	"taskmind/internal/config"
	"taskmind/internal/engine"
	"taskmind/internal/logging"
	"taskmind/internal/pipeline"
	"taskmind/internal/storage"
)

func main() {
	addr := flag.String("addr", "", "listen address, overrides SERVER_HOST/SERVER_PORT")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level)).WithComponent("server")

	client, err := buildClient(cfg, logger)
	if err != nil {
		logger.Error("building engine client failed", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *storage.Store
	if cfg.Database.Enabled {
		store, err = storage.Open(cfg.Database.URL)
		if err != nil {
			logger.Error("opening database failed", "error", err.Error())
			os.Exit(1)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("applying schema failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("database connected")
	}

	strategy, err := pipeline.ParseStrategy(cfg.Pipeline.Strategy)
	if err != nil {
		logger.Error("invalid pipeline strategy", "error", err.Error())
		os.Exit(1)
	}
	controller := pipeline.New(client, strategy, logger)

	router := api.NewRouter(api.RouterConfig{
		Controller: controller,
		Store:      store,
		Logger:     logger,
		MaxBatch:   cfg.Pipeline.MaxBatchSize,
	})

	listen := *addr
	if listen == "" {
		listen = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	srv := &http.Server{
		Addr:         listen,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", listen,
			"provider", cfg.Engine.Provider,
			"model", cfg.Engine.Model,
			"strategy", string(strategy))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err.Error())
		}
	}

	logger.Info("server stopped")
}

// buildClient picks the engine provider and layers the response cache on
// top when caching is configured.
func buildClient(cfg *config.Config, logger logging.Logger) (engine.Client, error) {
	var client engine.Client
	switch cfg.Engine.Provider {
	case "gemini":
		client = engine.NewGeminiClient(cfg.Engine, logger)
	case "mock":
		client = engine.NewMockClient("{}")
	default:
		return nil, fmt.Errorf("unknown engine provider %q", cfg.Engine.Provider)
	}

	if cfg.Pipeline.CacheTTLSeconds > 0 && cfg.Pipeline.CacheMaxEntries > 0 {
		client = engine.NewCachedClient(client,
			time.Duration(cfg.Pipeline.CacheTTLSeconds)*time.Second,
			cfg.Pipeline.CacheMaxEntries)
	}
	return client, nil
}
