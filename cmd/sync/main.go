package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ossih/casemirror/internal/artifact"
	"github.com/ossih/casemirror/internal/config"
	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/fetcher"
	"github.com/ossih/casemirror/internal/logger"
	"github.com/ossih/casemirror/internal/repository"
	"github.com/ossih/casemirror/internal/service"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "casemirror-sync",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	cmd := flag.String("cmd", "bulk", "Command to run: bulk, single, drain, retry, resume, missing, orphans, status")
	endpoint := flag.String("endpoint", "", "Upstream endpoint (cases, decisions, meetings, ...)")
	id := flag.String("id", "", "Entity native ID (single, missing) or job ID (resume)")
	dataset := flag.String("dataset", "", "Dataset label appended to output file names")
	start := flag.String("start", "", "Filter: earliest handling date (YYYY-MM-DD)")
	end := flag.String("end", "", "Filter: latest handling date (YYYY-MM-DD)")
	appendFile := flag.String("append", "", "Resume item list from a persisted output file")
	limit := flag.Int("limit", 0, "Maximum number of items to process (0 = all)")
	bypassCache := flag.Bool("bypass-cache", false, "Skip the response cache on every fetch")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger.WithFields(logger.Fields{
		"cmd":                *cmd,
		logger.FieldEndpoint: *endpoint,
		"limit":              *limit,
	}).Info("Starting sync run")

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

	// Initialize job output storage
	artifactStore, err := artifact.NewStore(&cfg.Artifacts)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize artifact store")
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	if s3Store, ok := artifactStore.(*artifact.S3Store); ok {
		if err := s3Store.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure artifact bucket")
		}
	}

	// Initialize fetcher and services
	urls := fetcher.NewURLBuilder(cfg.Upstream.BaseURL, cfg.Upstream.MirrorBaseURL, cfg.Upstream.Language)
	tokens := fetcher.NewStaticTokenProvider(cfg.Upstream.BearerToken, cfg.Upstream.Cookie)
	client := fetcher.NewClient(fetcher.Config{
		UpstreamBaseURL: cfg.Upstream.BaseURL,
		MirrorBaseURL:   cfg.Upstream.MirrorBaseURL,
		MirrorAPIKey:    cfg.Upstream.MirrorAPIKey,
		Timeout:         time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		CacheTTL:        cfg.Cache.TTL(),
	}, cacheRepo, tokens, appLogger)

	reconciler := service.NewReconcileService(client, urls, recordRepo, queueRepo, appLogger)
	registry := service.NewRegistry(recordRepo, reconciler)
	syncService := service.NewSyncService(registry, client, urls, appLogger)
	drainService := service.NewDrainService(syncService, queueRepo, appLogger)
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

	switch *cmd {
	case "bulk":
		if *endpoint == "" {
			appLogger.Fatal("bulk requires -endpoint")
		}
		job, err := bulkService.Run(ctx, service.BulkJobOptions{
			Endpoint:    *endpoint,
			Dataset:     *dataset,
			Start:       *start,
			End:         *end,
			AppendFile:  *appendFile,
			Limit:       *limit,
			BypassCache: *bypassCache,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Bulk sync failed")
		}
		logJobCounts(appLogger, job)

	case "retry":
		// Re-drive a previous run's failure set by name.
		if *endpoint == "" {
			appLogger.Fatal("retry requires -endpoint")
		}
		name := cfg.Jobs.OutputPrefix + *endpoint
		if *dataset != "" {
			name += "_" + *dataset
		}
		job, err := bulkService.Run(ctx, service.BulkJobOptions{
			Endpoint:    *endpoint,
			Dataset:     *dataset,
			AppendFile:  "failed_" + name + ".json",
			Limit:       *limit,
			BypassCache: true,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Retry sync failed")
		}
		logJobCounts(appLogger, job)

	case "resume":
		if *id == "" {
			appLogger.Fatal("resume requires -id (job checkpoint ID)")
		}
		job, err := bulkService.Resume(ctx, *id, *bypassCache)
		if err != nil {
			appLogger.WithError(err).Fatal("Resume failed")
		}
		logJobCounts(appLogger, job)

	case "single":
		if *endpoint == "" || *id == "" {
			appLogger.Fatal("single requires -endpoint and -id")
		}
		status := syncService.SyncOne(ctx, *endpoint, *id)
		appLogger.WithFields(logger.Fields{
			logger.FieldEndpoint: *endpoint,
			logger.FieldEntityID: *id,
			logger.FieldStatus:   status.String(),
		}).Info("Single sync completed")

	case "drain":
		result, err := drainService.Drain(ctx, *limit)
		if err != nil {
			appLogger.WithError(err).Fatal("Queue drain failed")
		}
		appLogger.WithFields(logger.Fields{
			"processed": result.Processed,
			"succeeded": result.Succeeded,
			"dropped":   result.Dropped,
			"remaining": result.Remaining,
		}).Info("Queue drain completed")

	case "missing":
		if *id == "" {
			appLogger.Fatal("missing requires -id (meeting native ID)")
		}
		motions, err := reconciler.CheckMissingMotions(ctx, *id)
		if err != nil {
			appLogger.WithError(err).Fatal("Missing motions check failed")
		}
		decisions, err := reconciler.CheckMissingDecisions(ctx, *id)
		if err != nil {
			appLogger.WithError(err).Fatal("Missing decisions check failed")
		}
		appLogger.WithFields(logger.Fields{
			logger.FieldEntityID: *id,
			"missing_motions":    motions,
			"missing_decisions":  decisions,
		}).Info("Consistency check completed")

	case "orphans":
		orphaned, err := reconciler.FindOrphanedMotions(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Orphan scan failed")
		}
		for _, motion := range orphaned {
			appLogger.WithFields(logger.Fields{
				logger.FieldEntityID: motion.NativeID,
				"meeting_id":         motion.MeetingID,
			}).Warn("Orphaned motion")
		}
		appLogger.WithField(logger.FieldCount, len(orphaned)).Info("Orphan scan completed")

	case "status":
		jobs, err := jobRepo.Recent(ctx, *limit)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to list jobs")
		}
		for _, job := range jobs {
			succeeded, failed, skipped := job.Counts()
			appLogger.WithFields(logger.Fields{
				logger.FieldJobID:    job.ID,
				logger.FieldEndpoint: job.Endpoint,
				logger.FieldStatus:   string(job.Status),
				"succeeded":          succeeded,
				"failed":             failed,
				"skipped":            skipped,
				"remaining":          len(job.Remaining),
			}).Info("Job")
		}
		pending, err := queueRepo.CountPending(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to count queue")
		}
		appLogger.WithField("pending_tasks", pending).Info("Queue status")

	default:
		appLogger.WithField("cmd", *cmd).Fatal("Unknown command")
	}
}

func logJobCounts(log *logger.Logger, job *domain.SyncJob) {
	succeeded, failed, skipped := job.Counts()
	log.WithFields(logger.Fields{
		logger.FieldJobID: job.ID,
		"succeeded":       succeeded,
		"failed":          failed,
		"skipped":         skipped,
	}).Info("Sync completed")
}
