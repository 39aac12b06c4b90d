package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/supplylink/supplylink/internal/app"
	"github.com/supplylink/supplylink/internal/catalog"
	"github.com/supplylink/supplylink/internal/inventory"
	"github.com/supplylink/supplylink/internal/observability"
	"github.com/supplylink/supplylink/internal/platform/db"
	"github.com/supplylink/supplylink/internal/shared"
	"github.com/supplylink/supplylink/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	catalogService := catalog.NewService(catalog.NewRepository(dbpool))
	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), catalogService, cfg.RestockQuantity, logger)

	metrics := observability.NewMetrics()
	scanner := &jobs.RestockScanner{
		Inventory: inventoryService,
		Client:    jobClient,
		Recipient: cfg.SMTPFrom,
		Logger:    logger,
	}
	scanner.RegisterMetrics(metrics.Registerer())

	mailer := &jobs.Mailer{Host: cfg.SMTPHost, Port: cfg.SMTPPort, From: cfg.SMTPFrom, Logger: logger}
	maintenance := &jobs.Maintenance{Keys: shared.NewIdempotencyStore(dbpool), Logger: logger}

	restockTask, err := jobs.NewRestockScanTask(time.Now().UTC())
	if err != nil {
		logger.Error("build restock task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(72)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailer.HandleSendEmail},
			{Type: jobs.TaskTypeRestockScan, Handler: scanner.HandleRestockScan},
			{Type: jobs.TaskTypeIdempotencyCleanup, Handler: maintenance.HandleIdempotencyCleanup},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 6 * * *", Task: restockTask},
			{Spec: "30 3 * * *", Task: cleanupTask},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
