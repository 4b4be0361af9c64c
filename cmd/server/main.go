package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pulsegram/feed-service/internal/api"
	"github.com/pulsegram/feed-service/internal/cache"
	"github.com/pulsegram/feed-service/internal/db"
	"github.com/pulsegram/feed-service/internal/feed"
	"github.com/pulsegram/feed-service/pkg/config"
	"github.com/pulsegram/feed-service/pkg/logging"
	"github.com/pulsegram/feed-service/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting feed service")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to the database (system of record)
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Connect to Redis (feed accelerator; the service survives without it)
	redisClient, err := cache.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable at startup, serving feeds from database", zap.Error(err))
	}
	defer redisClient.Close()

	// Composition
	repo := db.NewRepository(database.DB)
	posts := db.NewPostRepository(repo)
	follows := db.NewFollowRepository(repo)
	likes := db.NewLikeRepository(repo)

	store := cache.NewFeedStore(redisClient, &cfg.Feed)
	tasks := feed.NewRunner(30 * time.Second)
	feedCache := feed.NewFeedCache(store, posts, follows, tasks, cfg.Feed)
	svc := feed.NewService(feedCache, store, posts, follows, likes)

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	router := api.NewRouter(svc, feedCache, tasks, posts, follows, likes, database, redisClient)
	router.SetupRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight fanout and cache maintenance finish
	if err := tasks.Drain(ctx); err != nil {
		logger.Warn("Background tasks did not drain before deadline", zap.Error(err))
	}

	logger.Info("Server exited")
}
