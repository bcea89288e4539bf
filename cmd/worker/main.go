package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/therealutkarshpriyadarshi/curator/internal/apicache"
	"github.com/therealutkarshpriyadarshi/curator/internal/config"
	"github.com/therealutkarshpriyadarshi/curator/internal/database"
	"github.com/therealutkarshpriyadarshi/curator/internal/importer"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/internal/queue"
	"github.com/therealutkarshpriyadarshi/curator/internal/quota"
	"github.com/therealutkarshpriyadarshi/curator/internal/storage"
	"github.com/therealutkarshpriyadarshi/curator/internal/tracing"
	"github.com/therealutkarshpriyadarshi/curator/internal/youtube"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer("curator-worker", cfg.Tracing.JaegerEndpoint)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize tracer")
		}
		defer closer.Close()
	}

	// Database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repo := database.NewRepository(db)

	// Queue
	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to queue")
	}
	defer q.Close()

	// Upstream fetch stack: quota ledger, response cache, metadata client
	ledger := quota.NewLedger(repo, cfg.YouTube.DailyQuota, logger)
	respCache := apicache.New(repo, ledger, logger)
	yt := youtube.NewClient(cfg.YouTube, respCache, logger)

	// Thumbnail mirroring is optional
	var mirror importer.Mirror
	if cfg.Storage.MirrorEnabled {
		stor, err := storage.New(cfg.Storage)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize storage")
		}
		mirror = stor
	}

	pipeline := importer.NewPipeline(repo, yt, mirror, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	// The pipeline finalizes the job row before returning, so a failed
	// import is acked rather than requeued; requeueing would re-run a job
	// already marked failed
	handler := func(req *models.ImportRequest) error {
		if err := pipeline.Run(ctx, req); err != nil {
			logger.WithError(err).WithJobID(req.JobID).Error("Import job failed")
		}
		return nil
	}

	logger.Info("Worker started, waiting for import jobs...")
	if err := q.ConsumeImports(ctx, handler); err != nil {
		logger.WithError(err).Fatal("Failed to consume import queue")
	}

	<-ctx.Done()
	logger.Info("Worker stopped")
}
