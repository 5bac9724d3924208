package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/compass-crm/compass-crm/internal/app"
	"github.com/compass-crm/compass-crm/internal/auth"
	"github.com/compass-crm/compass-crm/internal/commissions"
	"github.com/compass-crm/compass-crm/internal/leads"
	"github.com/compass-crm/compass-crm/internal/observability"
	"github.com/compass-crm/compass-crm/internal/partners"
	"github.com/compass-crm/compass-crm/internal/platform/cache"
	"github.com/compass-crm/compass-crm/internal/platform/db"
	"github.com/compass-crm/compass-crm/internal/shared"
	"github.com/compass-crm/compass-crm/jobs"
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
		logger.Error("connect postgres", slog.Any("error", err))
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
	idempotencyStore := shared.NewIdempotencyStore(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)

	leadsRepo := leads.NewRepository(pool)

	partnersRepo := partners.NewRepository(pool)
	partnersService := partners.NewService(partnersRepo, nil)

	commissionsRepo := commissions.NewRepository(pool)
	// The worker executes recalculations directly, so it needs no enqueuer.
	commissionsService := commissions.NewService(commissionsRepo, partnersService, nil, idempotencyStore, redisClient, logger)

	handlers := jobs.Handlers{
		Commissions: commissionsService,
		Leads:       leadsRepo,
		Sessions:    authService,
		Keys:        idempotencyStore,
		Metrics:     metrics,
		Logger:      logger,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers.All(),
		Cron:      jobs.DefaultCron(),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
