package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/DukeRupert/kaia/internal"
	"github.com/DukeRupert/kaia/internal/ai"
	"github.com/DukeRupert/kaia/internal/ai/anthropic"
	"github.com/DukeRupert/kaia/internal/ai/mock"
	"github.com/DukeRupert/kaia/internal/ai/openai"
	"github.com/DukeRupert/kaia/internal/auth"
	"github.com/DukeRupert/kaia/internal/handler"
	"github.com/DukeRupert/kaia/internal/metrics"
	"github.com/DukeRupert/kaia/internal/middleware"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/DukeRupert/kaia/internal/service"
	"github.com/DukeRupert/kaia/internal/storage"
	"github.com/DukeRupert/kaia/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	store := repository.NewStore(db)

	files, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	analyzer, err := newAnalyzer(cfg, logger)
	if err != nil {
		return fmt.Errorf("ai provider initialization failed: %w", err)
	}
	logger.Info("AI provider ready", "provider", cfg.AIProvider)

	// Initialize services
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	accountService := service.NewAccountService(store, tokens, logger)
	adminService := service.NewAdminService(store, files, time.Now, logger)
	ledgerService := service.NewLedgerService(store, logger)
	chartService := service.NewChartService(store, files, service.NewImagingProcessor(), service.ChartConfig{
		MaxBytes:     cfg.UploadMaxBytes,
		MaxDimension: cfg.ChartMaxDimension,
	}, logger)
	analysisService := service.NewAnalysisService(store, files, analyzer, service.AnalysisConfig{
		Engine:        cfg.AIProvider,
		Timeout:       cfg.AIRequestTimeout,
		MaxImageBytes: cfg.UploadMaxBytes,
	}, time.Now, logger)
	contentService := service.NewContentService(store, files, cfg.UploadMaxBytes, logger)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(accountService, logger)
	authLimiter := middleware.NewAuthRateLimiter(middleware.DefaultAuthRateLimits, logger)
	defer authLimiter.Stop()
	logMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(!cfg.IsDevelopment())
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, logger)
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("METRICS_USERNAME and METRICS_PASSWORD are empty, /metrics is unprotected")
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	requireAccount := middleware.Stack(authMw.WithAccount, authMw.RequireAccount)
	requireAdmin := middleware.Stack(authMw.WithAccount, authMw.RequireAdmin)

	handler.NewHealthHandler(db, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	handler.NewAccountHandler(accountService, ledgerService, authLimiter, logger).
		RegisterRoutes(mux, requireAccount, authLimiter.LimitRegister, authLimiter.LimitLogin)
	handler.NewAnalysisHandler(chartService, analysisService, cfg.UploadMaxBytes, logger).
		RegisterRoutes(mux, requireAccount)
	handler.NewAdminHandler(adminService, contentService, cfg.UploadMaxBytes, logger).
		RegisterRoutes(mux, requireAdmin)
	handler.NewContentHandler(contentService, logger).RegisterRoutes(mux)

	// Article images are public; charts never are.
	if local, ok := files.(*storage.LocalStorage); ok {
		articles := http.FileServer(http.Dir(filepath.Join(local.BasePath(), "articles")))
		mux.Handle("GET /files/articles/", http.StripPrefix("/files/articles/", articles))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         600,
	})

	root := middleware.Stack(
		metrics.Middleware,
		logMw.Handler,
		securityMw.Handler,
		c.Handler,
	)(mux)

	// ==========================================================================
	// Background tasks
	// ==========================================================================

	bg, err := worker.New(worker.DefaultConfig(), logger)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}
	bg.Register(worker.NewStaleUploadSweeper(chartService, cfg.UploadTTL, cfg.SweepInterval, logger))
	bg.Start(ctx)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		// Engine calls run up to AI_REQUEST_TIMEOUT inside a request.
		WriteTimeout: cfg.AIRequestTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			bg.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	bg.Stop()

	logger.Info("Graceful shutdown complete")
	return nil
}

func newStorage(cfg *internal.Config) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		})
	default:
		return storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		})
	}
}

func newAnalyzer(cfg *internal.Config, logger *slog.Logger) (ai.ChartAnalyzer, error) {
	providerCfg := ai.ProviderConfig{
		MaxRetries:     cfg.AIMaxRetries,
		RetryBaseDelay: cfg.AIRetryBaseDelay,
		RequestTimeout: cfg.AIRequestTimeout,
	}

	switch cfg.AIProvider {
	case "openai":
		return openai.New(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			ProviderConfig: providerCfg,
		}, logger)
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.AnthropicModel,
			ProviderConfig: providerCfg,
		}, logger)
	default:
		return mock.New(logger), nil
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
