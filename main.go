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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/cache"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/config"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/events"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/handlers"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories/memory"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories/postgres"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/security"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
	"github.com/SAP-F-2025/tutoring-marketplace/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewJSONLogger(os.Stdout, cfg.LogLevel)
	slogLogger := logger.Slog()

	hasher, err := security.NewArgon2idHasher(security.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to initialize password hasher: %v", err)
	}
	tokens, err := security.NewSessionTokenSigner(cfg.SessionSecret)
	if err != nil {
		log.Fatalf("Failed to initialize session signer: %v", err)
	}

	// Storage: PostgreSQL when DATABASE_URL is set, process memory otherwise
	var repoManager repositories.RepositoryManager
	relational := cfg.DatabaseURL != ""
	if relational {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		repoManager = postgres.NewRepositoryManager(postgres.RepositoryConfig{DB: db})
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage; data is lost on restart")
		repoManager = memory.NewManager(nil)
	}
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	if !relational && cfg.SeedDemoData {
		if err := memory.Seed(context.Background(), repo, hasher); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		logger.Info("Seeded demo data")
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Sessions live with the data in the relational backend; without a
	// database, Redis keeps them across restarts.
	var sessions repositories.SessionRepository
	if !relational && redisClient != nil {
		sessions = cache.NewSessionStore(redisClient)
	}

	// Domain events: Kafka when brokers are configured, in-process otherwise
	pubSub, err := events.NewPubSub(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event transport: %v", err)
	}
	eventRouter, err := events.NewRouter(pubSub.Subscriber, events.NewNotificationConsumer(repo, slogLogger), slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event router: %v", err)
	}
	routerCtx, stopEvents := context.WithCancel(context.Background())
	go func() {
		if err := eventRouter.Run(routerCtx); err != nil {
			logger.Error("Event router stopped", "error", err)
		}
	}()

	// Initialize services
	deps := &services.Dependencies{
		Repo:       repo,
		Sessions:   sessions,
		Cache:      cache.NewCacheManager(redisClient),
		Events:     events.NewEventPublisher(pubSub.Publisher, slogLogger),
		Hasher:     hasher,
		Tokens:     tokens,
		Logger:     slogLogger,
		SessionTTL: cfg.SessionTTL,
		Casdoor:    cfg.Casdoor,
	}
	serviceManager := services.NewServiceManager(deps, services.ServiceManagerConfig{Admin: cfg.Admin})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.AllowOrigins)

	handlerManager := handlers.NewHandlerManager(serviceManager, logger, handlers.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.IsProduction(),
	})
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment,
			"relational", relational, "cache", redisClient != nil, "events", pubSub.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	stopEvents()
	if err := eventRouter.Close(); err != nil {
		logger.Error("Failed to close event router", "error", err)
	}
	if err := pubSub.Close(); err != nil {
		logger.Error("Failed to close event transport", "error", err)
	}

	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close storage", "error", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
