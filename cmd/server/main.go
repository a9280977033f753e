// Package main is the entrypoint for the Remixer API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/remixer/internal/ai"
	"github.com/kiranshivaraju/remixer/internal/api"
	"github.com/kiranshivaraju/remixer/internal/api/handler"
	mw "github.com/kiranshivaraju/remixer/internal/api/middleware"
	"github.com/kiranshivaraju/remixer/internal/api/response"
	"github.com/kiranshivaraju/remixer/internal/batch"
	"github.com/kiranshivaraju/remixer/internal/cache"
	"github.com/kiranshivaraju/remixer/internal/config"
	"github.com/kiranshivaraju/remixer/internal/events"
	"github.com/kiranshivaraju/remixer/internal/preset"
	"github.com/kiranshivaraju/remixer/internal/results"
	"github.com/kiranshivaraju/remixer/internal/session"
	"github.com/kiranshivaraju/remixer/internal/store"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

const (
	shutdownTimeout = 30 * time.Second
	reapInterval    = time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"result_store", cfg.Server.ResultStore,
		"env", cfg.Server.Env,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database and run migrations (postgres result store only)
	var resultStore store.Store
	if cfg.Server.ResultStore == config.ResultStorePostgres {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")

		resultStore = store.NewPostgresStore(pool)
	}

	// 3. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 4. Create image transformer
	transformer, err := ai.NewTransformer(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("create image transformer: %w", err)
	}
	slog.Info("image transformer initialized", "provider", transformer.Name())

	// 5. Load presets
	catalog, err := preset.Load(cfg.Presets.File)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	slog.Info("presets loaded", "count", catalog.Len())

	// 6. Session manager; every session gets its own controller
	sessions := session.NewManager(
		controllerFactory(ctx, transformer, redisCache, resultStore, cfg.AI.InferenceTimeout),
		session.Options{IdleTTL: cfg.Server.SessionIdleTTL},
	)
	go sessions.Run(ctx, reapInterval)

	// 7. Build router with dependencies
	exportOpts := handler.ExportOptions{Format: cfg.Export.Format, ArchiveName: cfg.Export.ArchiveName}
	deps := api.Dependencies{
		Auth:      mw.NewAuth(cfg.Server.AccessTokenHash),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Redis.RateLimitPerMinute),

		HealthHandler: healthHandler(resultStore, redisCache),

		ListPresets: handler.NewListPresetsHandler(catalog),
		PresetTags:  handler.NewPresetTagsHandler(catalog),

		CreateSession: handler.NewCreateSessionHandler(sessions),
		GetSession:    handler.NewGetSessionHandler(sessions),
		DeleteSession: handler.NewDeleteSessionHandler(sessions),
		UploadImage: handler.NewUploadImageHandler(sessions, handler.UploadLimits{
			MaxBytes:     cfg.Upload.MaxBytes,
			MaxDimension: cfg.Upload.MaxDimension,
		}),

		Generate:   handler.NewGenerateHandler(sessions, catalog),
		Cancel:     handler.NewCancelHandler(sessions),
		Regenerate: handler.NewRegenerateHandler(sessions),

		ListResults:    handler.NewListResultsHandler(sessions),
		ClearResults:   handler.NewClearResultsHandler(sessions),
		DownloadResult: handler.NewDownloadResultHandler(sessions, exportOpts),
		DownloadAll:    handler.NewDownloadAllHandler(sessions, exportOpts),

		Events: handler.NewEventsHandler(sessions, redisCache, cfg.Server.AllowedOrigins),
	}
	if !deps.Auth.Enabled() {
		slog.Warn("ACCESS_TOKEN_HASH not set, API is unauthenticated")
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout. Running batches stop at their next job
	// boundary because ctx is already cancelled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// controllerFactory builds per-session controllers. Results live in memory
// unless a store is given; progress is always published through the cache.
func controllerFactory(ctx context.Context, t models.ImageTransformer, c cache.Cache, s store.Store, timeout time.Duration) session.ControllerFactory {
	return func(sessionID string) *batch.Controller {
		var rc results.Collection = results.NewMemory()
		if s != nil {
			rc = store.NewSessionResults(s, sessionID)
		}
		logger := slog.Default().With("session_id", sessionID)
		return batch.New(ctx, t, rc, batch.Options{
			Observer: events.NewPublisher(c, sessionID, logger),
			Timeout:  timeout,
			Logger:   logger,
		})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks database and cache connectivity. A nil database means
// results are kept in memory and is reported as disabled.
func healthHandler(db store.Store, c pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "disabled",
			"cache":    "ok",
		}

		degraded := false
		if db != nil {
			checks["database"] = "ok"
			if err := db.Ping(r.Context()); err != nil {
				checks["database"] = "degraded"
				degraded = true
			}
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
			degraded = true
		}

		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
