package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/printer"
	"github.com/noah-isme/backend-kasir/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := "json"
	if !cfg.IsProduction() {
		logFormat = "console"
	}
	logger := obs.NewLogger(logFormat, cfg.LogLevel).With().Str("component", "print-worker").Logger()

	obs.MustRegisterDomainMetrics("kasir", nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "kasir-print-worker"

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(connectCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	if cfg.PrinterBridgeURL == "" {
		logger.Fatal().Msg("PRINTER_BRIDGE_URL is required for the print worker")
	}
	client := printer.NewClient(cfg.PrinterBridgeURL, cfg.PrinterTimeout)
	dlqStore := queue.NewStore(pool)

	var wg sync.WaitGroup
	for _, kind := range []string{printer.KindReceipt, printer.KindKitchen} {
		w := &queue.Worker{
			R:                 redisClient,
			Prefix:            cfg.PrintQueueName,
			Kind:              kind,
			Concurrency:       cfg.PrintWorkerBatchSize,
			VisibilityTimeout: cfg.PrintVisibility,
			SoftDeadline:      cfg.PrinterTimeout + 5*time.Second,
			Handler:           printer.Handler(client, logger),
			Store:             dlqStore,
			Logger:            &logger,
		}
		wg.Add(1)
		go func(kind string) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				logger.Error().Err(err).Str("kind", kind).Msg("worker stopped")
			}
		}(kind)
	}

	logger.Info().Str("queue", cfg.PrintQueueName).Msg("print worker started")
	<-ctx.Done()
	logger.Info().Msg("print worker stopping")
	wg.Wait()
}
