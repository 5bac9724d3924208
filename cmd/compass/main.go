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

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/app"
	"github.com/compass-crm/compass-crm/internal/auth"
	"github.com/compass-crm/compass-crm/internal/commissions"
	"github.com/compass-crm/compass-crm/internal/integration"
	"github.com/compass-crm/compass-crm/internal/leads"
	"github.com/compass-crm/compass-crm/internal/notifications"
	"github.com/compass-crm/compass-crm/internal/observability"
	"github.com/compass-crm/compass-crm/internal/partners"
	"github.com/compass-crm/compass-crm/internal/platform/cache"
	"github.com/compass-crm/compass-crm/internal/platform/db"
	"github.com/compass-crm/compass-crm/internal/profile"
	"github.com/compass-crm/compass-crm/internal/quotations"
	"github.com/compass-crm/compass-crm/internal/shared"
	"github.com/compass-crm/compass-crm/internal/users"
	"github.com/compass-crm/compass-crm/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "compass_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()
	securityLogger := observability.NewSecurityLogger(logger, metrics)
	validator := access.NewValidator(securityLogger)
	accessMW := access.Middleware{Validator: validator, Logger: logger}

	auditLogger := shared.NewAuditLogger(pool)
	approvalRecorder := shared.NewApprovalRecorder(pool, logger)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	leadsRepo := leads.NewRepository(pool)
	leadsService := leads.NewService(leadsRepo, auditLogger)
	leadsHandler := leads.NewHandler(logger, leadsService, accessMW)

	quotationsRepo := quotations.NewRepository(pool)
	quotationsService := quotations.NewService(quotationsRepo, leadsRepo, approvalRecorder)
	quotationsHandler := quotations.NewHandler(logger, quotationsService, accessMW)

	partnersRepo := partners.NewRepository(pool)
	partnersService := partners.NewService(partnersRepo, auditLogger)
	partnersHandler := partners.NewHandler(logger, partnersService, accessMW)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	commissionsRepo := commissions.NewRepository(pool)
	commissionsService := commissions.NewService(commissionsRepo, partnersService, jobClient, idempotencyStore, redisClient, logger)
	commissionsHandler := commissions.NewHandler(logger, commissionsService, accessMW)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, accessMW)

	profileHandler := profile.NewHandler(logger, usersService, accessMW)

	notificationsRepo := notifications.NewRepository(pool)
	notificationsHandler := notifications.NewHandler(logger, notificationsRepo, accessMW)

	reportingClient := integration.NewReportingClient(cfg.ReportingAPIURL, cfg.ReportingAPISecret, cfg.ReportingTimeout, logger)
	reportsHandler := integration.NewHandler(logger, reportingClient, accessMW)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,

		AuthService: authService,

		AuthHandler:          authHandler,
		LeadsHandler:         leadsHandler,
		QuotationsHandler:    quotationsHandler,
		PartnersHandler:      partnersHandler,
		CommissionsHandler:   commissionsHandler,
		UsersHandler:         usersHandler,
		ProfileHandler:       profileHandler,
		NotificationsHandler: notificationsHandler,
		ReportsHandler:       reportsHandler,
		JobHandler:           jobHandler,
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
