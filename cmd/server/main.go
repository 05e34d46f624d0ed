package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Shutdown grace period

	"finance_tracker/internal/api"     // Custom package for API handlers
	"finance_tracker/internal/config"  // Custom package for configuration
	"finance_tracker/internal/db"      // Custom package for database setup
	"finance_tracker/internal/queue"   // Mutation queue
	"finance_tracker/internal/service" // Ledger services
	"finance_tracker/internal/store"   // Persistence
	"finance_tracker/internal/utils"   // Cache and retry helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Connect to the database and bring the schema up to date
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup Redis client when configured
	var cache utils.Cache = utils.NopCache{}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		cache = utils.NewRedisCache(redisClient)
	} else {
		logrus.Info("REDIS_ADDR not set, caching disabled")
	}

	st := store.NewGormStore(gdb)
	q := queue.New(cfg.QueueSize, logrus.StandardLogger())
	svcs := service.New(st, q, cache, service.Config{
		CacheTTL:             cfg.CacheTTL,
		ReconcileInterval:    cfg.ReconcileInterval,
		ReconcileEpsilon:     cfg.ReconcileEpsilon,
		ReconcileAfterDelete: true,
		Retry: utils.RetryPolicy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
	}, logrus.StandardLogger())

	// Converts need the sentinel category even on a database seeded by hand
	if err := svcs.Settings.EnsureConvertCategory(context.Background()); err != nil {
		logrus.Fatalf("failed to ensure convert category: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(svcs, st, api.AuthConfig{
		Username:     cfg.AuthUsername,
		PasswordHash: cfg.AuthPasswordHash,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.JWTTTL,
	}, []string{"127.0.0.1"})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests, then drain queued mutations, then release storage
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Error("HTTP server shutdown failed")
	}
	if err := q.Close(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Error("Queue did not drain")
	}
	if err := db.Close(gdb); err != nil {
		logrus.WithField("error", err.Error()).Error("Failed to close DB")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to close Redis")
		}
	}
	logrus.Info("Server stopped")
}
