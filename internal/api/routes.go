package api

import (
	"net/http"

	"movie-api/internal/api/controllers"
	"movie-api/internal/api/handlers"
	"movie-api/internal/middleware"
	"movie-api/internal/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the services the router is assembled from. Redis is nil
// when caching is disabled; an empty StripeWebhookSecret disables billing.
type Dependencies struct {
	DB                  *gorm.DB
	Redis               redis.Cmdable
	Accounts            services.AccountService
	Credentials         services.CredentialService
	Quota               services.QuotaService
	Plans               services.PlanService
	Audit               services.AuditLogService
	Gate                services.GateService
	Stats               services.DecisionStats
	AdminTokens         *services.AdminTokenService
	IPThrottle          *middleware.IPThrottle
	Catalog             http.Handler
	StripeWebhookSecret string
}

func SetupRoutes(deps Dependencies) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	accountHandler := handlers.NewAccountHandler(deps.Accounts)
	keyHandler := handlers.NewKeyHandler(deps.Credentials)
	usageHandler := handlers.NewUsageHandler(deps.Quota)
	adminHandler := handlers.NewAdminHandler(deps.Plans, deps.Stats, deps.Audit)

	// Public routes
	router.HandleFunc("/health", controllers.HealthCheckHandler(deps.DB, deps.Redis)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	authRouter := router.PathPrefix("/auth").Subrouter()
	if deps.IPThrottle != nil {
		authRouter.Use(deps.IPThrottle.Middleware)
	}
	authRouter.HandleFunc("/signup", accountHandler.Signup).Methods(http.MethodPost)
	authRouter.HandleFunc("/verify", accountHandler.Verify).Methods(http.MethodPost)
	authRouter.HandleFunc("/resend-verification", accountHandler.ResendVerification).Methods(http.MethodPost)

	if deps.StripeWebhookSecret != "" {
		stripeHandler := handlers.NewStripeHandler(deps.Plans, deps.StripeWebhookSecret)
		router.HandleFunc("/webhooks/stripe", stripeHandler.HandleStripeWebhook).Methods(http.MethodPost)
	}

	// Account self-service, authenticated but not counted
	userRouter := router.PathPrefix("/api/v1/user").Subrouter()
	userRouter.Use(middleware.Unmetered(deps.Gate))
	userRouter.HandleFunc("/validate", accountHandler.ValidateKey).Methods(http.MethodGet)
	userRouter.HandleFunc("/quota", usageHandler.GetQuota).Methods(http.MethodGet)
	userRouter.HandleFunc("/usage", usageHandler.GetUsageHistory).Methods(http.MethodGet)
	userRouter.HandleFunc("/keys", keyHandler.ListKeys).Methods(http.MethodGet)
	userRouter.HandleFunc("/keys", keyHandler.IssueKey).Methods(http.MethodPost)
	userRouter.HandleFunc("/keys/{id}", keyHandler.RevokeKey).Methods(http.MethodDelete)
	userRouter.HandleFunc("", accountHandler.DeleteAccount).Methods(http.MethodDelete)

	// Catalog routes (metered)
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.Metered(deps.Gate))
	apiRouter.Handle("/movies", deps.Catalog).Methods(http.MethodGet, http.MethodPost)
	apiRouter.Handle("/movies/search", deps.Catalog).Methods(http.MethodGet)
	apiRouter.Handle("/movies/{id}", deps.Catalog).Methods(http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	apiRouter.PathPrefix("/").Handler(deps.Catalog)

	adminRouter := router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminMiddleware(deps.AdminTokens))
	adminRouter.HandleFunc("/accounts/{id}/plan", adminHandler.GetPlan).Methods(http.MethodGet)
	adminRouter.HandleFunc("/accounts/{id}/plan", adminHandler.SetPlan).Methods(http.MethodPut)
	adminRouter.HandleFunc("/stats/{date}", adminHandler.GetStats).Methods(http.MethodGet)
	adminRouter.HandleFunc("/audit-logs", adminHandler.ListAuditLogs).Methods(http.MethodGet)

	return router
}
