package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/supplylink/supplylink/internal/actions"
	"github.com/supplylink/supplylink/internal/app"
	"github.com/supplylink/supplylink/internal/auth"
	"github.com/supplylink/supplylink/internal/catalog"
	"github.com/supplylink/supplylink/internal/dashboard"
	"github.com/supplylink/supplylink/internal/inventory"
	"github.com/supplylink/supplylink/internal/observability"
	"github.com/supplylink/supplylink/internal/orders"
	"github.com/supplylink/supplylink/internal/platform/cache"
	"github.com/supplylink/supplylink/internal/platform/db"
	"github.com/supplylink/supplylink/internal/shared"
	"github.com/supplylink/supplylink/internal/vendors"
	"github.com/supplylink/supplylink/internal/workflow"
	"github.com/supplylink/supplylink/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	clock := shared.SystemClock{}
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	tokenStore := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, tokenStore)
	guard := auth.Middleware{Tokens: tokenStore, Logger: logger}

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, guard)

	vendorRepo := vendors.NewRepository(dbpool)
	vendorNotifier := &jobs.VendorNotifier{Client: jobClient}
	vendorService := vendors.NewService(vendorRepo, auditLogger, vendorNotifier, clock, logger)
	vendorHandler := vendors.NewHandler(logger, vendorService, authService, guard)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, catalogService, cfg.RestockQuantity, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, guard)

	orderRepo := orders.NewRepository(dbpool)
	orderService := orders.NewService(orderRepo, catalogService, vendorService, auditLogger, clock, logger)
	orderHandler := orders.NewHandler(logger, orderService, guard)

	actionRepo := actions.NewRepository(dbpool)
	actionNotifier := &jobs.ActionNotifier{Client: jobClient, Vendors: vendorService}
	actionService := actions.NewService(actionRepo, orderService, auditLogger, actionNotifier, clock, logger)
	coordinator := workflow.NewCoordinator(actionService, orderService, idempotencyStore, cfg.ZeroQuantityPolicy, logger)
	actionHandler := actions.NewHandler(logger, actionService, coordinator, guard)
	workflowHandler := workflow.NewHandler(logger, workflow.NewRestockPlanner(inventoryService), guard)

	dashboardService := dashboard.NewService(orderService, actionService, vendorService, inventoryService, redisClient, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, guard)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthMiddleware:   guard,
		AuthHandler:      authHandler,
		CatalogHandler:   catalogHandler,
		VendorHandler:    vendorHandler,
		InventoryHandler: inventoryHandler,
		OrderHandler:     orderHandler,
		ActionHandler:    actionHandler,
		WorkflowHandler:  workflowHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
