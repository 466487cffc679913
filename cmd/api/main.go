package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ossih/casemirror/internal/api"
	"github.com/ossih/casemirror/internal/api/handler"
	"github.com/ossih/casemirror/internal/artifact"
	"github.com/ossih/casemirror/internal/config"
	"github.com/ossih/casemirror/internal/fetcher"
	"github.com/ossih/casemirror/internal/logger"
	"github.com/ossih/casemirror/internal/repository"
	"github.com/ossih/casemirror/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "casemirror-api",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	recordRepo := repository.NewRecordRepository(db)
	cacheRepo := repository.NewCacheRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// Initialize job output storage (supports local dir, MinIO, R2, S3)
	artifactStore, err := artifact.NewStore(&cfg.Artifacts)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize artifact store")
	}
	ctx := context.Background()
	if s3Store, ok := artifactStore.(*artifact.S3Store); ok {
		if err := s3Store.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure artifact bucket")
		}
	}

	// Initialize fetcher
	urls := fetcher.NewURLBuilder(cfg.Upstream.BaseURL, cfg.Upstream.MirrorBaseURL, cfg.Upstream.Language)
	tokens := fetcher.NewStaticTokenProvider(cfg.Upstream.BearerToken, cfg.Upstream.Cookie)
	client := fetcher.NewClient(fetcher.Config{
		UpstreamBaseURL: cfg.Upstream.BaseURL,
		MirrorBaseURL:   cfg.Upstream.MirrorBaseURL,
		MirrorAPIKey:    cfg.Upstream.MirrorAPIKey,
		Timeout:         time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		CacheTTL:        cfg.Cache.TTL(),
	}, cacheRepo, tokens, appLogger)

	// Initialize services
	reconciler := service.NewReconcileService(client, urls, recordRepo, queueRepo, appLogger)
	registry := service.NewRegistry(recordRepo, reconciler)
	syncService := service.NewSyncService(registry, client, urls, appLogger)
	bulkService := service.NewBulkJobService(
		registry,
		client,
		urls,
		jobRepo,
		queueRepo,
		artifactStore,
		cfg.Upstream.Blacklist,
		cfg.Jobs.OutputPrefix,
		appLogger,
	)

	// Setup router
	router := api.SetupRouter(db, api.Handlers{
		Callback: handler.NewCallbackHandler(syncService, cacheRepo, queueRepo, urls, appLogger),
		Sync:     handler.NewSyncHandler(bulkService, appLogger),
		Probe:    handler.NewProbeHandler(client, urls),
	}, appLogger, cfg.Server.Mode)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
