package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tickchart/tickchart/internal/app"
	"github.com/tickchart/tickchart/internal/dashboard"
	"github.com/tickchart/tickchart/internal/dashboard/export"
	"github.com/tickchart/tickchart/internal/market/store"
	"github.com/tickchart/tickchart/internal/observability"
	"github.com/tickchart/tickchart/internal/platform/cache"
	"github.com/tickchart/tickchart/internal/platform/db"
	"github.com/tickchart/tickchart/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	chartCache := dashboard.NewCache(redisClient, cfg.ChartCacheTTL)
	service := dashboard.NewService(store.New(pool), chartCache, logger, metrics)

	defaults, err := jobs.ParseSeries(cfg.WarmupSymbols)
	if err != nil {
		logger.Error("parse warmup symbols", slog.Any("error", err))
		os.Exit(1)
	}

	var publisher jobs.SnapshotPublisher
	if cfg.PublishesSnapshots() {
		s3Publisher, err := export.NewS3Publisher(cfg.ChartS3Region, cfg.ChartS3Bucket, "charts")
		if err != nil {
			logger.Error("init snapshot publisher", slog.Any("error", err))
			os.Exit(1)
		}
		publisher = s3Publisher
	}

	warmupJob := jobs.NewChartWarmupJob(service, publisher, defaults, logger, metrics.Jobs())
	warmupTask, err := jobs.NewChartWarmupTask(jobs.ChartWarmupPayload{Publish: publisher != nil})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskChartWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting worker", slog.String("cron", cfg.WarmupCron), slog.Int("series", len(defaults)))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
