package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"study-buddy/internal/adapter"
	"study-buddy/internal/adapter/questiongen"
	"study-buddy/internal/adapter/resultsink"
	"study-buddy/internal/cache"
	"study-buddy/internal/config"
	"study-buddy/internal/database"
	"study-buddy/internal/domain"
	"study-buddy/internal/handler"
	"study-buddy/internal/logger"
	"study-buddy/internal/middleware"
	"study-buddy/internal/repository"
	"study-buddy/internal/service"
	"study-buddy/internal/validation"

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

	// Question source
	appLogger.Info("Initializing LLM client",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("server_url", cfg.LLM.ServerURL),
		zap.String("model", cfg.LLM.Model),
	)
	llm, err := questiongen.NewLLM(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	source, err := questiongen.NewLLMQuestionSource(llm, cfg.LLM.Temperature, cfg.LLM.Timeout, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create question source", zap.Error(err))
	}

	// Session store: Redis when configured, in-process memory otherwise
	var sessionCache domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Warn("Failed to connect to Redis, sessions will be kept in memory", zap.Error(err))
		} else {
			defer redisClient.Close()
			appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
			sessionCache = adapter.NewRedisCacheAdapter(redisClient)
		}
	}
	store := service.NewSessionStore(sessionCache, cfg.Quiz.SessionTTL)

	// Result sinks
	sink := resultsink.NewCSVSink(cfg.Results.Dir, resultsink.WithLogger(appLogger))

	var archive domain.ResultSink
	if cfg.DatabaseEnabled() {
		db, err := database.NewSQLXOracleDB(cfg.GetDSN())
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		archive = repository.NewResultArchive(db)
		appLogger.Info("Result archive enabled")
	}

	// Services and handlers
	validator := validation.NewValidator(cfg.Quiz.MaxQuestions)
	sessionService := service.NewSessionService(store, source, sink, archive, validator, cfg.Results.DefaultPrefix, appLogger)
	sessionHandler := handler.NewSessionHandler(sessionService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
		MaxAge:       300,
	}))
	app.Use(recover.New())

	app.Get("/health", sessionHandler.Health)

	apiGroup := app.Group("/api")
	sessionHandler.RegisterRoutes(apiGroup, middleware.NewValidationMiddleware(validator))

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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
