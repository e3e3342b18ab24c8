package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/vantage-ops/vantage/internal/app"
	"github.com/vantage-ops/vantage/internal/costs"
	"github.com/vantage-ops/vantage/internal/finance"
	"github.com/vantage-ops/vantage/internal/invoices"
	jobmetrics "github.com/vantage-ops/vantage/internal/jobs"
	"github.com/vantage-ops/vantage/internal/platform/cache"
	"github.com/vantage-ops/vantage/internal/platform/db"
	"github.com/vantage-ops/vantage/internal/quotes"
	"github.com/vantage-ops/vantage/internal/settings"
	"github.com/vantage-ops/vantage/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	snapshotCache := cache.New(redisClient, cfg.CacheTTL)
	go func() {
		if err := snapshotCache.ListenForInvalidation(ctx, "finance.bump"); err != nil && ctx.Err() == nil {
			logger.Warn("cache invalidation listener stopped", slog.Any("error", err))
		}
	}()

	settingsProvider := settings.NewPGProvider(pool)
	quoteRepo := quotes.NewRepository(pool)
	invoiceRepo := invoices.NewRepository(pool)
	costRepo := costs.NewRepository(pool)
	projectReader := finance.NewProjectReader(pool)
	financeService := finance.NewService(projectReader, quoteRepo, costRepo, invoiceRepo, settingsProvider, snapshotCache)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("build job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	warmupJob := jobs.NewSnapshotWarmupJob(financeService, logger, metrics)
	sweepJob := jobs.NewSnapshotSweepJob(projectReader, jobClient, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSnapshotWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskSnapshotSweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: jobs.NewSnapshotSweepTask()},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
