package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/adapters/datasource"
	"github.com/datalens-ai/datalens-engine/pkg/adapters/datasource/postgres"
	"github.com/datalens-ai/datalens-engine/pkg/config"
	"github.com/datalens-ai/datalens-engine/pkg/database"
	"github.com/datalens-ai/datalens-engine/pkg/handlers"
	"github.com/datalens-ai/datalens-engine/pkg/llm"
	"github.com/datalens-ai/datalens-engine/pkg/logging"
	"github.com/datalens-ai/datalens-engine/pkg/middleware"
	"github.com/datalens-ai/datalens-engine/pkg/models"
	"github.com/datalens-ai/datalens-engine/pkg/repositories"
	"github.com/datalens-ai/datalens-engine/pkg/retry"
	"github.com/datalens-ai/datalens-engine/pkg/services"
	"github.com/datalens-ai/datalens-engine/pkg/sqlgate"
	"github.com/datalens-ai/datalens-engine/pkg/tenant"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting datalens-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	// Engine database. Tenant schemas (user_<id>) live in the same cluster.
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), "migrations", logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	client, err := llm.NewFromConfig(&cfg.LLM, logger)
	if err != nil {
		logger.Fatal("llm client setup failed", zap.Error(err))
	}

	styles, err := models.LoadStyles(cfg.Analysis.StylesPath)
	if err != nil {
		logger.Fatal("report styles load failed", zap.Error(err))
	}

	provider := postgres.NewWithPool(db.Pool, logger)
	executor := datasource.NewRetryingExecutor(provider, retry.DefaultConfig(), logger)
	resolver := tenant.NewResolver(provider, cfg.Analysis.SampleRowLimit, logger)
	gate := sqlgate.NewGate(logger)
	history := repositories.NewQueryHistoryRepository(db)
	pool := llm.NewWorkerPool(cfg.Analysis.MaxBatchConcurrency, logger)

	queryService := services.NewQueryService(client, resolver, gate, executor,
		history, &cfg.LLM, cfg.Analysis.ChartRowLimit, logger)
	analysisService := services.NewAnalysisService(client, resolver, gate, executor,
		styles, pool, &cfg.LLM, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(queryService, history, logger).RegisterRoutes(mux)
	handlers.NewAnalysisHandler(analysisService, styles, logger).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger.Named("http"))(mux),
		// Deep-analysis runs block the request for tens of seconds.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		logger.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
