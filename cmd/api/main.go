package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/price-service/internal/adapter/httpfetch"
	"github.com/user/price-service/internal/adapter/memory"
	"github.com/user/price-service/internal/adapter/postgres"
	redis_adapter "github.com/user/price-service/internal/adapter/redis"
	"github.com/user/price-service/internal/delivery/http/handler"
	"github.com/user/price-service/internal/delivery/http/router"
	"github.com/user/price-service/internal/extractor"
	"github.com/user/price-service/internal/repository"
	"github.com/user/price-service/internal/usecase"
	"github.com/user/price-service/pkg/config"
	"github.com/user/price-service/pkg/logger"
	"github.com/user/price-service/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("could not load config", zap.Error(err))
	}

	// --- Logger ---
	log, err := logger.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("could not build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()
	log.Info("Logger initialized", zap.String("level", cfg.LogLevel))

	// --- Metrics ---
	metrics.Init()

	ctx := context.Background()

	// --- Extraction engine ---
	catalog := extractor.DefaultCatalog()
	validator := extractor.NewValidator(cfg.Bounds())
	fetcher := httpfetch.New(cfg.FetchTimeout(), cfg.UserAgentList(), log)

	var prices usecase.PriceExtractor = usecase.NewPriceExtractor(fetcher, catalog, validator, log)

	// --- Failure log (optional) ---
	var failures usecase.FailureTracker
	if cfg.PostgresURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal("Unable to connect to database", zap.Error(err))
		}
		defer dbpool.Close()

		failedRepo := postgres.NewFailedExtractionRepo(dbpool)
		if err := failedRepo.EnsureSchema(ctx); err != nil {
			log.Fatal("Unable to prepare database schema", zap.Error(err))
		}
		log.Info("PostgreSQL failure log enabled")

		failures = usecase.NewFailureTracker(failedRepo, catalog, cfg.FailureInitialBackoff, cfg.FailureMaxBackoff, log)
		prices = usecase.WithFailureTracking(prices, failures, log)
	}

	// --- Rate limiting ---
	var limiter repository.RateLimiter
	switch {
	case cfg.RateLimitPerMinute == 0:
		log.Info("Rate limiting disabled")
	case cfg.RedisAddr != "":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal("Unable to connect to Redis", zap.Error(err))
		}
		limiter = redis_adapter.NewRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute)
		log.Info("Redis rate limiter enabled", zap.Int("per_minute", cfg.RateLimitPerMinute))
	default:
		limiter = memory.NewRateLimiter(cfg.RateLimitPerMinute)
		log.Info("In-process rate limiter enabled", zap.Int("per_minute", cfg.RateLimitPerMinute))
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(prices, failures, log)
	httpRouter := router.New(apiHandler, limiter, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.FetchTimeout() + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		}
	}()
	log.Info("Server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}
