package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tippool/internal/amqp"
	"tippool/internal/config"
	"tippool/internal/log"
	"tippool/internal/services"
	"tippool/internal/storage"
	"tippool/internal/vision"
	gvision "tippool/internal/vision/google"
	"tippool/internal/vision/stub"
	"tippool/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting tippool-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	extractor, err := buildExtractor(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize vision extractor", "error", err, "provider", cfg.VisionProvider)
		os.Exit(1)
	}

	extraction := services.NewExtractionService(store, extractor, cfg.WorkerMaxRetries)
	w := worker.NewExtractWorker(store, extraction, logger, cfg.WorkerBatchSize, cfg.JobRetention)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Drain jobs that accumulated while the worker was down.
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Startup backlog check failed", "error", err)
		// Keep running; the poll loop retries.
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			if err := amqpClient.ConsumeExtractionJobs(ctx, w.HandleJobMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("AMQP consumer stopped", "error", err)
			}
		}()
		logger.Info("Consuming extraction jobs", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on the poll loop only")
	}

	ticker := time.NewTicker(cfg.WorkerPollInterval)
	defer ticker.Stop()

	logger.Info("Worker running", "poll_interval", cfg.WorkerPollInterval, "batch_size", cfg.WorkerBatchSize)
	for {
		select {
		case <-ticker.C:
			if err := w.ProcessPendingJobs(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Pending job sweep failed", "error", err)
			}
			if err := w.PruneFinishedJobs(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Job retention prune failed", "error", err)
			}
		case <-ctx.Done():
			logger.Info("Shutdown signal received, stopping worker")
			return
		}
	}
}

func openStore(cfg *config.Config, logger *log.Logger) (storage.Store, error) {
	switch cfg.DataBackend {
	case "sqlite":
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
		return storage.NewSQLiteStore(cfg.SQLiteDBPath)
	case "postgres":
		logger.Info("Initialized Postgres backend")
		return storage.NewPostgresStore(cfg.PostgresURL)
	default:
		// Memory storage is per-process: the worker would never see the
		// server's jobs. Allowed for local smoke tests only.
		logger.Warn("Memory backend selected - jobs created by another process are invisible")
		return storage.NewMemoryStore(), nil
	}
}

func buildExtractor(cfg *config.Config, logger *log.Logger) (vision.TextExtractor, error) {
	switch cfg.VisionProvider {
	case "google":
		client, err := gvision.NewFromEnv(context.Background())
		if err != nil {
			return nil, err
		}
		logger.Info("Google Vision extractor initialized")
		return client, nil
	case "stub":
		logger.Warn("Using stub vision extractor - extraction returns canned text")
		return stub.New("Stub Partner: 1"), nil
	default:
		return nil, errors.New("worker requires VISION_PROVIDER=google or stub")
	}
}
