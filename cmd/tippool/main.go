package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"tippool/internal/amqp"
	"tippool/internal/config"
	"tippool/internal/events"
	apphttp "tippool/internal/http"
	"tippool/internal/log"
	"tippool/internal/metrics"
	"tippool/internal/profiles"
	"tippool/internal/services"
	"tippool/internal/storage"
	"tippool/internal/vision/stub"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

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

	registry, err := loadProfiles(cfg)
	if err != nil {
		logger.Error("Failed to load denomination profiles", "error", err, "path", cfg.DenominationsFile)
		os.Exit(1)
	}
	if _, ok := registry.Get(cfg.DefaultProfile); !ok {
		logger.Error("Default profile not present in registry", "profile", cfg.DefaultProfile)
		os.Exit(1)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPub.Close()
		publisher = kafkaPub
		logger.Info("Kafka event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("Kafka disabled - no KAFKA_BROKERS provided")
	}

	var queue apphttp.JobQueue
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		queue = amqpClient
		logger.Info("AMQP job publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - extraction jobs rely on the worker poll loop")
	}

	distSvc := services.NewDistributionService(store, publisher, registry, cfg.DefaultProfile)
	// The API only records jobs; extraction itself runs in the worker,
	// so the server never needs a real vision client.
	extrSvc := services.NewExtractionService(store, stub.New(""), cfg.WorkerMaxRetries)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               cfg.HTTPAddr,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		CacheMaxEntries:    cfg.CacheMaxEntries,
		MaxUploadBytes:     cfg.MaxUploadBytes,
	}, logger, distSvc, extrSvc, store, registry, queue, m, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting tippool server", "addr", cfg.HTTPAddr, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
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
		logger.Info("Initialized memory backend")
		return storage.NewMemoryStore(), nil
	}
}

func loadProfiles(cfg *config.Config) (*profiles.Registry, error) {
	if cfg.DenominationsFile == "" {
		return profiles.Default(), nil
	}
	return profiles.LoadFile(cfg.DenominationsFile)
}
