package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movie-api/internal/api"
	"movie-api/internal/api/handlers"
	"movie-api/internal/config"
	"movie-api/internal/db"
	"movie-api/internal/logger"
	"movie-api/internal/middleware"
	"movie-api/internal/repository"
	"movie-api/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.LogEvent(logrus.WarnLevel, "No .env file loaded", logrus.Fields{"error": err.Error()})
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatalf("Invalid configuration: %v", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		logger.Logger.Fatalf("Failed to configure logger: %v", err)
	}

	upstream, err := url.Parse(cfg.CatalogUpstreamURL)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		logger.Logger.Fatalf("CATALOG_UPSTREAM_URL must be an absolute URL, got %q", cfg.CatalogUpstreamURL)
	}

	// Initialize database connection
	database, err := db.Connect(cfg.DatabaseURL, cfg.MaxOpenConns)
	if err != nil {
		logger.Logger.Fatalf("Failed to connect to database: %v", err)
	}

	var (
		rdb   *redis.Client
		stats services.DecisionStats = services.NoopDecisionStats{}
	)
	if cfg.Cache.Enabled {
		rdb, err = services.NewRedisClient(cfg.Cache)
		if err != nil {
			logger.Logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		stats = services.NewRedisDecisionStats(rdb, services.WithStatsTTL(cfg.Cache.StatsTTL))
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(database)
	credentialRepo := repository.NewCredentialRepository(database)
	planRepo := repository.NewPlanRepository(database)
	quotaRepo := repository.NewQuotaRepository(database)
	codeRepo := repository.NewVerificationCodeRepository(database)
	auditRepo := repository.NewAuditLogRepository(database)

	var attemptRepo repository.ActionAttemptRepository
	if cfg.Actions.Backend == config.BackendRedis {
		attemptRepo = repository.NewRedisActionAttemptRepository(rdb)
	} else {
		attemptRepo = repository.NewActionAttemptRepository(database)
	}

	// Initialize services
	credentialService := services.NewCredentialService(credentialRepo, cfg.Auth.CredentialPrefix, cfg.Quota.StoreTimeout)
	auditService := services.NewAuditLogService(auditRepo)
	planService := services.NewPlanService(planRepo, cfg.Quota, services.WithAuditLog(auditService))
	quotaService := services.NewQuotaService(quotaRepo, planService, cfg.Quota.StoreTimeout)
	gateService := services.NewGateService(credentialService, quotaService, stats)
	accountService := services.NewAccountService(
		accountRepo,
		codeRepo,
		credentialService,
		services.NewActionLimiter(attemptRepo, cfg.Quota.StoreTimeout),
		services.NewMailer(cfg.Mail),
		cfg.Actions,
		cfg.Mail,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ipThrottle := middleware.NewIPThrottle(cfg.Auth.IPRate, cfg.Auth.IPBurst, middleware.WithTrustedProxies(cfg.Auth.TrustedProxies...))
	go ipThrottle.Run(ctx)

	deps := api.Dependencies{
		DB:                  database,
		Accounts:            accountService,
		Credentials:         credentialService,
		Quota:               quotaService,
		Plans:               planService,
		Audit:               auditService,
		Gate:                gateService,
		Stats:               stats,
		AdminTokens:         services.NewAdminTokenService(cfg.Auth.AdminJWTSecret),
		IPThrottle:          ipThrottle,
		Catalog:             handlers.NewCatalogProxy(upstream),
		StripeWebhookSecret: cfg.Billing.StripeWebhookSecret,
	}
	// a nil *redis.Client must not become a non-nil interface
	if rdb != nil {
		deps.Redis = rdb
	}
	router := api.SetupRoutes(deps)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-API-Key",
		},
		ExposedHeaders: []string{
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	// Create server with timeouts
	srv := &http.Server{
		Handler:      corsMiddleware.Handler(router),
		Addr:         ":" + cfg.Port,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.LogEvent(logrus.InfoLevel, "Server starting", logrus.Fields{
			"port":           cfg.Port,
			"action_backend": cfg.Actions.Backend,
			"redis":          cfg.Cache.Enabled,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.LogEvent(logrus.InfoLevel, "Shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogEvent(logrus.ErrorLevel, "Graceful shutdown failed", logrus.Fields{"error": err.Error()})
	}
	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}
}
