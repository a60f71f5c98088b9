package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/store-rating-backend/config"
	"github.com/ikkim/store-rating-backend/internal/app/controller"
	"github.com/ikkim/store-rating-backend/internal/app/repository"
	"github.com/ikkim/store-rating-backend/internal/app/service"
	"github.com/ikkim/store-rating-backend/internal/db"
	"github.com/ikkim/store-rating-backend/internal/middleware"
	"github.com/ikkim/store-rating-backend/internal/router"
	"github.com/ikkim/store-rating-backend/internal/scheduler"
	"github.com/ikkim/store-rating-backend/internal/storage"
	"github.com/ikkim/store-rating-backend/internal/websocket"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"github.com/ikkim/store-rating-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Store Rating Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if cfg.Seed.DemoData {
		if err := db.Seed(); err != nil {
			logger.Warn("Failed to seed database", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Token revocation is optional
	var revoker *redis.TokenBlacklist
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		revoker = redis.NewTokenBlacklist(redis.GetClient())
	} else {
		logger.Warn("Redis disabled, logout will not revoke tokens")
	}

	var presigner service.ImagePresigner
	if cfg.S3.Enabled() {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("Failed to initialize S3 storage", err)
		}
		presigner = s3Storage
		logger.Info("S3 image uploads enabled", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
			"region": cfg.S3.Region,
		})
	}

	hub := websocket.NewHub(cfg.CORS.AllowedOrigins)
	go hub.Run(ctx)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	storeRepo := repository.NewStoreRepository(db.GetDB())
	ratingRepo := repository.NewRatingRepository(db.GetDB())
	statsRepo := repository.NewStatsRepository(db.GetDB())

	// Initialize services. Typed nils must not leak into the interfaces.
	var tokenRevoker service.TokenRevoker
	var revocationChecker middleware.RevocationChecker
	if revoker != nil {
		tokenRevoker = revoker
		revocationChecker = revoker
	}

	authService := service.NewAuthService(userRepo, tokenRevoker, cfg.JWT.Secret, cfg.JWT.Expiry)
	userService := service.NewUserService(userRepo, storeRepo)
	storeService := service.NewStoreService(storeRepo, userRepo, ratingRepo, presigner)
	ratingService := service.NewRatingService(ratingRepo, storeRepo, hub)
	statsService := service.NewStatsService(userRepo, storeRepo, ratingRepo, statsRepo)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	userController := controller.NewUserController(userService, statsService)
	storeController := controller.NewStoreController(storeService, statsService)
	ratingController := controller.NewRatingController(ratingService, statsService, hub)
	dashboardController := controller.NewDashboardController(statsService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, userRepo, revocationChecker)

	r := router.NewRouter(
		authController,
		userController,
		storeController,
		ratingController,
		dashboardController,
		authMiddleware,
		cfg,
	)

	if cfg.Scheduler.Enabled {
		statsScheduler := scheduler.NewStatsScheduler(cfg.Scheduler.StatsSpec, statsService, ratingRepo)
		if err := statsScheduler.Start(); err != nil {
			logger.Fatal("Failed to start stats scheduler", err)
		}
		defer statsScheduler.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
