package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/adaptation"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/api/handlers"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/cache/redis"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/llm"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/metrics"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/middleware/security"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/performance"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/structuring"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/config"
	appLogger "github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting RAO Engine API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Redis is optional. Without it every read goes to SQLite.
	redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	structuringService := structuring.NewService(sqliteClient, redisClient)
	tracker := performance.NewTracker(sqliteClient, redisClient, llmClient)
	engine := adaptation.NewEngine(sqliteClient, llmClient, redisClient, "")
	auditor := performance.NewAuditor(sqliteClient, engine, performance.AuditConfig{
		WindowDays:         cfg.Audit.WindowDays,
		MaxUnderperformers: cfg.Audit.MaxUnderperformers,
		MaxRecommendations: cfg.Audit.MaxRecommendations,
		LLMCallsPerMinute:  cfg.Audit.LLMCallsPerMinute,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	hub := handlers.NewEventHub()
	structuringHandler := handlers.NewStructuringHandler(structuringService, sqliteClient, hub)
	trackingHandler := handlers.NewTrackingHandler(tracker, hub)
	adaptationHandler := handlers.NewAdaptationHandler(engine, auditor, hub)

	api := app.Group("/api/v1")

	api.Post("/articles", structuringHandler.UpsertArticle)
	api.Post("/articles/:id/process", structuringHandler.ProcessArticle)
	api.Get("/articles/:id/structure", structuringHandler.GetStructure)
	api.Get("/articles/:id/chunks", structuringHandler.GetChunks)
	api.Get("/articles/:id/answers", structuringHandler.GetCanonicalAnswers)
	api.Get("/articles/:id/faqs", structuringHandler.GetFAQs)
	api.Get("/articles/:id/glossary", structuringHandler.GetGlossary)
	api.Get("/articles/:id/schema", structuringHandler.GetSchemaMarkup)
	api.Get("/articles/:id/metrics", structuringHandler.GetMetrics)

	api.Get("/dashboard/stats", structuringHandler.GetDashboardStats)

	api.Post("/track/metric", structuringHandler.TrackMetric)
	api.Post("/track/citation", trackingHandler.TrackCitation)
	api.Post("/track/overview", trackingHandler.TrackOverview)

	api.Get("/performance/statistics", trackingHandler.GetStatistics)
	api.Get("/performance/patterns", trackingHandler.GetRetrievalPatterns)
	api.Get("/performance/:id", trackingHandler.GetContentPerformance)
	api.Post("/performance/:id/analyze", trackingHandler.AnalyzeContent)

	api.Post("/adaptations/recommend/:id", adaptationHandler.Recommend)
	api.Post("/adaptations/apply", adaptationHandler.Apply)
	api.Post("/audit/run", adaptationHandler.RunAudit)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(hub.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
