package routes

import (
	"net/http"
	"time"

	"ottbot/internal/config"
	"ottbot/internal/handlers"
	"ottbot/internal/middleware"
	"ottbot/internal/services"
	"ottbot/pkg/database"
	"ottbot/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Payment    *handlers.PaymentHandler
	User       *handlers.UserHandler
	Referral   *handlers.ReferralHandler
	Extraction *handlers.ExtractionHandler
	Admin      *handlers.AdminHandler
	Plan       *handlers.PlanHandler
	Config     *handlers.ConfigHandler
}

// SetupRouter builds the gin engine with middleware and all route groups.
func SetupRouter(cfg *config.Config, log *logger.Logger, db *database.MongoDB, cache services.CacheService, h *Handlers) *gin.Engine {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RateLimitMiddleware(cache, cfg.Security.RateLimitPerMinute))

	router.GET("/health", func(c *gin.Context) {
		redisOK := cache.Ping(c.Request.Context()) == nil
		mongoOK := db.Ping() == nil

		status := http.StatusOK
		if !redisOK || !mongoOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":  "ok",
			"version": cfg.App.Version,
			"mongodb": mongoOK,
			"redis":   redisOK,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	v1 := router.Group("/api/v1")

	SetupAuthRoutes(v1, h.Auth)
	SetupExtractionRoutes(v1, h, cfg.Security.JWTSecret)
	SetupAdminRoutes(v1, h, cfg.Security.JWTSecret)

	// Signed by Razorpay, so no JWT on this one.
	v1.POST("/webhooks/razorpay", h.Payment.RazorpayWebhook)

	return router
}

// SetupAuthRoutes sets up the public authentication routes
func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}
}

// SetupExtractionRoutes sets up the key extraction API
func SetupExtractionRoutes(r *gin.RouterGroup, h *Handlers, jwtSecret string) {
	extract := r.Group("/extract")
	extract.Use(middleware.AdminAuthRequired(jwtSecret))
	{
		extract.POST("", h.Extraction.ExtractKeys)
		extract.POST("/download", h.Extraction.StartDownload)
		extract.GET("/:extraction_id", h.Extraction.GetExtraction)
	}

	extractions := r.Group("/extractions")
	extractions.Use(middleware.AdminAuthRequired(jwtSecret))
	{
		extractions.GET("/:telegram_id", h.Extraction.GetUserExtractions)
	}

	user := r.Group("/user")
	user.Use(middleware.AdminAuthRequired(jwtSecret))
	{
		user.GET("/quota/:telegram_id", h.User.GetQuotaStatus)
	}

	cfg := r.Group("/config")
	cfg.Use(middleware.AdminAuthRequired(jwtSecret))
	{
		cfg.POST("", h.Config.SaveConfig)
		cfg.GET("/:user_id", h.Config.GetConfig)
	}
}

// SetupAdminRoutes sets up the JWT-protected admin API
func SetupAdminRoutes(r *gin.RouterGroup, h *Handlers, jwtSecret string) {
	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuthRequired(jwtSecret))
	{
		// Payment verification
		payments := admin.Group("/payments")
		{
			payments.GET("", h.Payment.ListPayments)
			payments.GET("/pending", h.Payment.GetPendingPayments)
			payments.GET("/stats", h.Payment.GetPaymentStats)
			payments.GET("/:id", h.Payment.GetPayment)
			payments.PUT("/:id/approve", h.Payment.ApprovePayment)
			payments.PUT("/:id/reject", h.Payment.RejectPayment)
		}

		// User management
		users := admin.Group("/users")
		{
			users.GET("", h.User.ListUsers)
			users.GET("/:telegram_id", h.User.GetUser)
			users.GET("/:telegram_id/quota", h.User.GetQuotaStatus)
			users.GET("/:telegram_id/subscription", h.User.GetSubscriptionStatus)
			users.GET("/:telegram_id/payments", h.Payment.GetUserPayments)
			users.GET("/:telegram_id/extractions", h.Extraction.GetUserExtractions)
			users.POST("/:telegram_id/grant", h.User.GrantDays)
			users.PUT("/:telegram_id/subscription", h.User.GrantDays)
			users.PUT("/:telegram_id/preferences", h.User.UpdatePreferences)
			users.DELETE("/:telegram_id", h.User.DeleteUser)
		}

		// Referral ledger
		referrals := admin.Group("/referrals")
		{
			referrals.GET("/leaderboard", h.Referral.GetLeaderboard)
			referrals.GET("/:telegram_id", h.Referral.GetReferralStats)
			referrals.GET("/:telegram_id/list", h.Referral.GetReferrals)
		}

		// Plans and platforms
		plans := admin.Group("/plans")
		{
			plans.GET("", h.Plan.GetPlans)
			plans.POST("", h.Plan.CreatePlan)
		}
		admin.GET("/platforms", h.Plan.GetPlatforms)
		admin.PUT("/platforms", h.Plan.SavePlatform)

		// Dashboard and broadcast
		admin.GET("/stats", h.Admin.GetOverview)
		broadcasts := admin.Group("/broadcasts")
		{
			broadcasts.GET("", h.Admin.GetRecentBroadcasts)
			broadcasts.POST("", h.Admin.SendBroadcast)
		}
	}
}
