package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/stack-service/backoffice/internal/api/handlers"
	"github.com/stack-service/backoffice/internal/api/middleware"
	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/infrastructure/di"
	"github.com/stack-service/backoffice/pkg/ratelimit"
	"github.com/stack-service/backoffice/pkg/tracing"
)

// authAttemptsPerMinute caps sign-in and sign-up calls per client IP
const authAttemptsPerMinute = 10

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	router := gin.New()
	log := container.Logger
	cfg := container.Config

	// Global middleware - order matters
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(newLimiter(container, int64(cfg.Server.RateLimitPerMin), "api"), ratelimit.IPKeyFunc, log))

	healthHandler := handlers.NewHealthHandler(container.Health, log)
	authHandlers := handlers.NewAuthHandlers(container.IdentityService, log)
	investorHandlers := handlers.NewInvestorHandlers(container.InvestorService, log)
	withdrawalHandlers := handlers.NewWithdrawalHandlers(container.WithdrawalService, container.InvestorService, log)
	commissionHandlers := handlers.NewCommissionHandlers(container.CommissionService, log)
	analyticsHandlers := handlers.NewAnalyticsHandlers(container.AnalyticsService, container.InvestorService, log)
	widgetHandlers := handlers.NewWidgetHandlers(cfg.Widgets, log)

	// Health checks (no auth required)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/live", healthHandler.Live)
	router.GET("/version", healthHandler.Version)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation (development only)
	if cfg.Environment != "production" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := router.Group("/api/v1")

	authLimit := middleware.RateLimit(newLimiter(container, authAttemptsPerMinute, "auth"), ratelimit.IPKeyFunc, log)
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", authLimit, authHandlers.SignUp)
		authGroup.POST("/signin", authLimit, authHandlers.SignIn)
	}

	v1.GET("/widgets/:name", widgetHandlers.Get)

	authenticated := v1.Group("")
	authenticated.Use(middleware.Authentication(container.IdentityService, log))
	if perUser := cfg.Server.UserRateLimitPerMin; perUser > 0 {
		// Runs after Authentication so the key is the user id.
		authenticated.Use(middleware.RateLimit(newLimiter(container, int64(perUser), "user"), ratelimit.UserKeyFunc, log))
	}
	authenticated.GET("/auth/session", authHandlers.Session)

	me := authenticated.Group("/me")
	{
		me.GET("", investorHandlers.Me)
		me.GET("/transactions", investorHandlers.MyTransactions)
		me.GET("/withdrawals", withdrawalHandlers.MyWithdrawals)
		me.POST("/withdrawals", withdrawalHandlers.SubmitOwn)
	}

	admin := authenticated.Group("/admin")
	admin.Use(middleware.RequireRole(log, entities.RoleAdmin))
	{
		investors := admin.Group("/investors")
		investors.GET("", investorHandlers.List)
		investors.POST("", investorHandlers.Create)
		investors.GET("/stream", investorHandlers.Stream)
		investors.GET("/:id", investorHandlers.Get)
		investors.PUT("/:id", investorHandlers.Update)
		investors.PATCH("/:id/status", investorHandlers.SetStatus)
		investors.POST("/:id/balance-adjustments", investorHandlers.AdjustBalance)
		investors.POST("/:id/deletion-request", investorHandlers.RequestDeletion)
		investors.POST("/:id/withdrawals", withdrawalHandlers.SubmitForInvestor)
		investors.GET("/:id/transactions", investorHandlers.Transactions)

		withdrawals := admin.Group("/withdrawals")
		withdrawals.GET("", withdrawalHandlers.List)
		withdrawals.GET("/:id", withdrawalHandlers.Get)
		withdrawals.POST("/:id/approve", withdrawalHandlers.Approve)
		withdrawals.POST("/:id/reject", withdrawalHandlers.Reject)

		admin.GET("/transactions", investorHandlers.AllTransactions)

		commissions := admin.Group("/commissions")
		commissions.GET("", commissionHandlers.List)
		commissions.GET("/summary", commissionHandlers.Summary)
		commissions.GET("/withdrawals", commissionHandlers.Withdrawals)
		commissions.POST("/withdrawals", commissionHandlers.Withdraw)

		admin.GET("/analytics/dashboard", analyticsHandlers.Dashboard)

		exports := admin.Group("/exports")
		exports.GET("/performance-report", analyticsHandlers.PerformanceReport)
		exports.GET("/transactions.csv", analyticsHandlers.TransactionsCSV)

		users := admin.Group("/users")
		users.GET("", authHandlers.ListUsers)
		users.PATCH("/:id/role", authHandlers.SetRole)
		users.PATCH("/:id/investor", authHandlers.LinkInvestor)
	}

	return router
}

// newLimiter shares quotas through redis when it is configured
func newLimiter(container *di.Container, perMinute int64, prefix string) ratelimit.Limiter {
	cfg := ratelimit.Config{
		Limit:     perMinute,
		Window:    time.Minute,
		KeyPrefix: "backoffice:ratelimit:" + prefix,
	}
	if container.RedisClient != nil {
		return ratelimit.NewRedisLimiter(container.RedisClient, cfg, container.ZapLog)
	}
	return ratelimit.NewLocalLimiter(cfg)
}
