// Package main provides the entry point for the lock admin server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/kneutral-org/redislock/internal/adminapi"
	"github.com/kneutral-org/redislock/internal/audit"
	"github.com/kneutral-org/redislock/internal/config"
	"github.com/kneutral-org/redislock/internal/lock"
	"github.com/kneutral-org/redislock/internal/logging"
	"github.com/kneutral-org/redislock/internal/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger("redislock-admin", cfg.LogLevel)

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer func() { _ = client.Close() }()

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if err := lock.Register(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("failed to preload lock scripts, falling back to per-call EVAL")
	}

	auditStore := audit.NewMemoryStore()
	sink := metrics.NewEventSink()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	metrics.RegisterMetricsEndpoint(router)

	locks := router.Group("/locks")
	locks.Use(adminapi.PayloadLimitErrorHandler(logger))
	locks.Use(adminapi.PayloadLimit(cfg.AdminMaxPayloadSize, logger))

	handler := adminapi.New(client, logger, sink, auditStore, time.Duration(cfg.SignalExpireMillis)*time.Millisecond)
	handler.RegisterRoutes(locks)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting admin HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited properly")
}
