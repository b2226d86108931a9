package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ottbot/internal/bot"
	"ottbot/internal/config"
	"ottbot/internal/handlers"
	"ottbot/internal/repositories/mongodb"
	"ottbot/internal/services"
	"ottbot/pkg/cache"
	"ottbot/pkg/database"
	"ottbot/pkg/logger"
	"ottbot/pkg/payment"
	"ottbot/pkg/storage"
	"ottbot/pkg/video"
	"ottbot/pkg/widevine"
	"ottbot/routes"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatalf("Fatal: %v", err)
	}
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	// MongoDB
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisCache.Close()

	cacheService := services.NewCacheService(redisCache, appLogger, "ottbot", 30*time.Minute)

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database, cacheService)
	paymentRepo := mongodb.NewPaymentRepository(db.Database, cacheService)
	referralRepo := mongodb.NewReferralRepository(db.Database, cacheService)
	extractionRepo := mongodb.NewExtractionRepository(db.Database, cacheService)
	usageRepo := mongodb.NewUsageRepository(db.Database, cacheService)
	broadcastRepo := mongodb.NewBroadcastRepository(db.Database, cacheService)
	planRepo := mongodb.NewPlanRepository(db.Database, cacheService)
	configRepo := mongodb.NewConfigRepository(db.Database)

	// Proof screenshot storage
	proofStore, err := newStorageProvider(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	var razorpayProvider *payment.RazorpayProvider
	if cfg.Payment.RazorpayKeyID != "" && cfg.Payment.RazorpayKeySecret != "" {
		razorpayProvider = payment.NewRazorpayProvider(cfg.Payment.RazorpayKeyID, cfg.Payment.RazorpayKeySecret, cfg.Payment.RazorpayWebhookSecret)
	}

	extractor := widevine.NewExtractor(cfg.Widevine.APIKey, cfg.Widevine.APIURL, cfg.Widevine.Timeout)
	detector := video.NewDetector(cfg.Widevine.Timeout)

	// Services
	userService := services.NewUserService(userRepo, cfg.Telegram.AdminIDs, appLogger)
	subscriptionService := services.NewSubscriptionService(userRepo, planRepo, appLogger)
	referralService := services.NewReferralService(referralRepo, subscriptionService, cfg.Referral, appLogger)
	paymentService := services.NewPaymentService(paymentRepo, subscriptionService, referralService, proofStore, razorpayProvider, cfg.Payment, appLogger)
	quotaService := services.NewQuotaService(usageRepo, userRepo, cfg.Quota, appLogger)
	extractionService := services.NewExtractionService(extractionRepo, userRepo, quotaService, extractor, detector, appLogger)
	broadcastService := services.NewBroadcastService(broadcastRepo, userRepo, appLogger)
	statsService := services.NewStatsService(userRepo, paymentRepo, referralRepo, extractionRepo, appLogger)
	authService := services.NewAuthService(cfg.Security, appLogger)
	configService := services.NewConfigService(configRepo, appLogger)

	// Telegram bot
	sessions := bot.NewSessionStore(cacheService, cfg.Telegram.SessionTTL)
	tgBot, err := bot.New(cfg, &bot.Services{
		Users:         userService,
		Subscriptions: subscriptionService,
		Payments:      paymentService,
		Referrals:     referralService,
		Quota:         quotaService,
		Extractions:   extractionService,
		Broadcasts:    broadcastService,
		Stats:         statsService,
	}, sessions, appLogger)
	if err != nil {
		return err
	}

	// Admin API
	router := routes.SetupRouter(cfg, appLogger, db, cacheService, &routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Payment:    handlers.NewPaymentHandler(paymentService),
		User:       handlers.NewUserHandler(userService, quotaService, subscriptionService),
		Referral:   handlers.NewReferralHandler(referralService),
		Extraction: handlers.NewExtractionHandler(extractionService),
		Admin:      handlers.NewAdminHandler(statsService, broadcastService, tgBot),
		Plan:       handlers.NewPlanHandler(subscriptionService),
		Config:     handlers.NewConfigHandler(configService),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	go func() {
		appLogger.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := tgBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("bot: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info("shutting down")
	case err := <-errCh:
		stop()
		appLogger.WithError(err).Error("component failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("http shutdown was not clean")
	}

	return nil
}

func newStorageProvider(cfg *config.StorageConfig) (storage.Provider, error) {
	switch cfg.Provider {
	case "s3":
		return storage.NewAWSS3Storage(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return storage.NewGCPStorage(cfg.GCSBucket, cfg.GCSCredentialsFile)
	default:
		return storage.NewLocalStorage(cfg.LocalBasePath, cfg.LocalBaseURL)
	}
}
