package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/inventory-sale/internal/config"
	"github.com/tuanvumaihuynh/inventory-sale/internal/event"
	"github.com/tuanvumaihuynh/inventory-sale/internal/http"
	"github.com/tuanvumaihuynh/inventory-sale/internal/log"
	"github.com/tuanvumaihuynh/inventory-sale/internal/relay"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository/memory"
	"github.com/tuanvumaihuynh/inventory-sale/internal/service"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/cache"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/db"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/mq"
	"github.com/tuanvumaihuynh/inventory-sale/internal/telemetry"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/cmdutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running standalone application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log   config.Log
		Store config.Store
		Sale  config.Sale
		HTTP  config.HTTP
		Relay config.Relay
		Kafka config.Kafka
		Redis config.Redis
		Otel  config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	var (
		store         repository.Store
		healthChecker db.HealthChecker
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store = memory.NewStore()
		logger.WarnContext(ctx, "using in-memory store, data is lost on exit")
	default:
		pgCfg, err := config.New[config.Postgres]()
		if err != nil {
			return fmt.Errorf("error loading postgres config: %w", err)
		}

		pgxPool, err := db.NewPgxPool(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("error creating pgx pool: %w", err)
		}
		defer pgxPool.Close()

		dbClient := db.NewClient(pgxPool)
		store = repository.NewStore(dbClient)
		healthChecker = dbClient
	}

	var idempotencyGuard cache.IdempotencyGuard
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("error creating redis client: %w", err)
		}
		defer redisClient.Close()

		idempotencyGuard = cache.NewRedisIdempotencyGuard(redisClient, cfg.Redis.IdempotencyTTL)
	}

	productService := service.NewProductService(store)
	saleService := service.NewSaleService(cfg.Sale, logger, store)
	reportService := service.NewReportService(logger, store)

	httpService, err := http.New(cfg.HTTP, logger, productService, saleService, reportService, healthChecker, idempotencyGuard)
	if err != nil {
		return fmt.Errorf("error creating http service: %w", err)
	}

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		cleanup, err := httpService.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	if !cfg.Kafka.Enabled() {
		logger.InfoContext(ctx, "kafka is not configured, outbox messages stay unpublished")
		wg.Wait()
		return nil
	}

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}

	wg.Go(func() {
		svc := event.New(logger, kafkaConsumer)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, store, kafkaProducer)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Wait()

	return nil
}
