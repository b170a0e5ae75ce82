package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/studybuddy/backend/internal/api/handlers"
	"github.com/studybuddy/backend/internal/cache/redis"
	"github.com/studybuddy/backend/internal/chat"
	"github.com/studybuddy/backend/internal/ingest"
	"github.com/studybuddy/backend/internal/llm"
	"github.com/studybuddy/backend/internal/metrics"
	"github.com/studybuddy/backend/internal/storage/sqlite"
	"github.com/studybuddy/backend/internal/vector"
	"github.com/studybuddy/backend/internal/vector/memory"
	"github.com/studybuddy/backend/internal/vector/milvus"
	"github.com/studybuddy/backend/pkg/config"
	appLogger "github.com/studybuddy/backend/pkg/logger"
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

	appLogger.Info("Starting StudyBuddy API server")

	if cfg.LLM.APIKey == "" {
		appLogger.Fatal("LLM API key is not configured")
	}

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

	var index vector.Store
	switch cfg.Vector.Driver {
	case "milvus":
		index, err = milvus.NewStore(
			context.Background(),
			cfg.Vector.Endpoint,
			cfg.Vector.APIKey,
			cfg.Vector.CollectionName,
			cfg.LLM.EmbeddingDim,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Milvus store", zap.Error(err))
		}
	case "memory":
		index = memory.NewStore(cfg.LLM.EmbeddingDim)
		appLogger.Warn("Using in-process vector store; index is lost on restart")
	default:
		appLogger.Fatal("Unknown vector driver", zap.String("driver", cfg.Vector.Driver))
	}
	defer index.Close()

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		EmbeddingDim:   cfg.LLM.EmbeddingDim,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		Timeout:        time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	var embedder llm.Embedder = llmClient
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()

		embedder = llm.NewCachedEmbedder(
			llmClient,
			redisClient,
			cfg.LLM.EmbeddingModel,
			time.Duration(cfg.Redis.TTLHours)*time.Hour,
		)
	}

	chunker := ingest.NewChunker(cfg.Pipeline.ChunkSize, cfg.Pipeline.MinChunkSize)
	processor := ingest.NewProcessor(
		sqliteClient,
		index,
		embedder,
		chunker,
		cfg.Storage.DocumentsDir,
		cfg.Pipeline.EmbedWorkers,
	)
	engine := chat.NewEngine(
		sqliteClient,
		index,
		embedder,
		llmClient,
		cfg.Pipeline.TopK,
		cfg.Pipeline.SimilarityThreshold,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	documentHandler := handlers.NewDocumentHandler(processor)
	chatHandler := handlers.NewChatHandler(engine)

	api := app.Group("/api/v1")

	api.Post("/documents", documentHandler.IngestDocument)
	api.Post("/chat", chatHandler.HandleMessage)
	api.Get("/chat/history", chatHandler.GetHistory)

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

	app.Get("/metrics", metrics.Handler())

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
