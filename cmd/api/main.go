// @title Quiz Engine API
// @version 1.0
// @description Timed multiple-choice quiz sessions over a curated question bank.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to call the admin routes.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quiz-engine/internal/adapter"
	"quiz-engine/internal/bank"
	"quiz-engine/internal/cache"
	"quiz-engine/internal/config"
	"quiz-engine/internal/database"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/handler"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/middleware"
	"quiz-engine/internal/repository"
	"quiz-engine/internal/selection"
	"quiz-engine/internal/service"
	"quiz-engine/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	questionBank, err := bank.New(ctx, cfg.Bank)
	if err != nil {
		appLogger.Fatal("Failed to load question bank", zap.Error(err))
	}
	stats := questionBank.Current().Stats()
	appLogger.Info("Question bank loaded",
		zap.Int("corpus_questions", stats.CorpusQuestions),
		zap.Int("recovery_topics", stats.RecoveryTopics),
		zap.Int("skipped_records", stats.SkippedRecords))

	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize session store", zap.Error(err))
	}
	defer closeStore()

	// Initialize services
	sessionService := service.NewSessionService(questionBank, selection.NewSelector(), store)
	bankService := service.NewBankService(questionBank)
	authService := service.NewAuthService(cfg.Auth)
	if cfg.Auth.JWTSecret == "" {
		appLogger.Warn("ADMIN_JWT_SECRET is not set, admin routes are disabled")
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		UnescapePath: true,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	handler.RegisterRoutes(app, handler.Services{
		Sessions:  sessionService,
		Bank:      bankService,
		Auth:      authService,
		Validator: validation.NewValidator(cfg.Session.DefaultCount),
	})

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}

// newSessionStore builds the configured durable store and, when Redis is configured,
// puts the session cache in front of it.
func newSessionStore(cfg *config.Config) (domain.SessionStore, func(), error) {
	appLogger := logger.Get()
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store domain.SessionStore
	switch cfg.Session.Store {
	case "file", "":
		fileStore, err := repository.NewFileSessionStore(cfg.Session.Dir)
		if err != nil {
			return nil, closeAll, err
		}
		appLogger.Info("Using file session store", zap.String("dir", cfg.Session.Dir))
		store = fileStore
	case "sql":
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { db.Close() })
		if cfg.DB.AutoMigrate {
			if _, err := database.RunMigrations(db, cfg.DB.Driver, cfg.MigrationsPath()); err != nil {
				closeAll()
				return nil, func() {}, err
			}
		}
		sqlStore, err := repository.NewSQLSessionStore(db, cfg.DB.Driver)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		appLogger.Info("Using SQL session store", zap.String("driver", cfg.DB.Driver))
		store = sqlStore
	default:
		return nil, closeAll, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}

	if cfg.Redis.Address == "" {
		return store, closeAll, nil
	}
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		// the cache is optional; run uncached rather than refuse to start
		appLogger.Warn("Redis unavailable, session cache disabled", zap.Error(err))
		return store, closeAll, nil
	}
	closers = append(closers, func() { redisClient.Close() })
	appLogger.Info("Session cache enabled", zap.String("redis", cfg.Redis.Address), zap.Duration("ttl", cfg.Session.CacheTTL))
	return repository.NewCachedSessionStore(store, adapter.NewRedisCacheAdapter(redisClient), cfg.Session.CacheTTL), closeAll, nil
}
