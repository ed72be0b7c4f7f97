package main

// @title           Ingest Core API
// @version         1.0
// @description     Document ingestion pipeline for retrieval systems. Category-aware chunking, batched embedding and vector upsert with per-session progress events.

// @contact.name   Custodia Labs
// @contact.url    https://github.com/custodia-labs/ingest-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/ingest-core/internal/adapters/driven/ai"
	memoryindex "github.com/custodia-labs/ingest-core/internal/adapters/driven/memory"
	"github.com/custodia-labs/ingest-core/internal/adapters/driven/progress"
	"github.com/custodia-labs/ingest-core/internal/adapters/driven/qdrant"
	memoryqueue "github.com/custodia-labs/ingest-core/internal/adapters/driven/queue/memory"
	postgresqueue "github.com/custodia-labs/ingest-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/custodia-labs/ingest-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/custodia-labs/ingest-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/ingest-core/internal/adapters/driving/http"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
	"github.com/custodia-labs/ingest-core/internal/core/services"
	"github.com/custodia-labs/ingest-core/internal/loaders"
	"github.com/custodia-labs/ingest-core/internal/runtime"
	"github.com/custodia-labs/ingest-core/internal/worker"
)

var version = "dev"

func main() {
	// Load .env if present; real environment wins
	_ = godotenv.Load()

	mode := getEnv("RUN_MODE", "all")
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(getEnv("LOG_LEVEL", "info")),
	}))
	slog.SetDefault(logger)

	logger.Info("ingest-core starting", "version", version, "mode", mode)

	port := getEnvInt("PORT", 8080)
	redisURL := getEnv("REDIS_URL", "")
	databaseURL := getEnv("DATABASE_URL", "")
	qdrantURL := getEnv("QDRANT_URL", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// ===== Embedding backend =====
	embedding, err := ai.NewEmbeddingService(ai.EmbeddingSettings{
		Provider: getEnv("EMBEDDING_PROVIDER", ai.ProviderOpenAI),
		APIKey:   getEnv("OPENAI_API_KEY", ""),
		Model:    getEnv("EMBEDDING_MODEL", ""),
		BaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
	})
	if err != nil {
		logger.Error("failed to create embedding service", "error", err)
		os.Exit(1)
	}
	defer embedding.Close()
	logger.Info("embedding backend ready",
		"model", embedding.Model(),
		"dimensions", embedding.Dimensions(),
	)

	// ===== Vector index (Qdrant, or in-memory for development) =====
	var index driven.VectorIndex
	if qdrantURL != "" {
		cfg := qdrant.DefaultConfig(qdrantURL,
			getEnv("QDRANT_COLLECTION", "documents"),
			embedding.Dimensions(),
		)
		cfg.APIKey = getEnv("QDRANT_API_KEY", "")
		index, err = qdrant.NewIndex(cfg)
		if err != nil {
			logger.Error("failed to connect to qdrant", "error", err)
			os.Exit(1)
		}
		logger.Info("using qdrant vector index", "collection", cfg.Collection)
	} else {
		index = memoryindex.NewIndex()
		logger.Warn("QDRANT_URL not set, using in-memory vector index (vectors are not persisted)")
	}
	defer index.Close()

	// ===== Redis (optional) =====
	var redisClient *redis.Client
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Error("failed to parse redis URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		logger.Info("redis connected")
	}

	// ===== Task queue (Redis, then Postgres, then in-process) =====
	var taskQueue driven.TaskQueue
	switch {
	case redisClient != nil:
		taskQueue, err = redisqueue.NewQueue(redisClient, fmt.Sprintf("worker-%d", os.Getpid()))
		if err != nil {
			logger.Error("failed to create redis task queue", "error", err)
			os.Exit(1)
		}
		logger.Info("using redis task queue")
	case databaseURL != "":
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		if _, err := db.ExecContext(ctx, postgresqueue.CreateTasksTableSQL); err != nil {
			logger.Error("failed to initialize task table", "error", err)
			os.Exit(1)
		}
		taskQueue = postgresqueue.NewQueue(db)
		logger.Info("using postgres task queue")
	default:
		if mode != "all" {
			logger.Error("in-process queue requires RUN_MODE=all; set REDIS_URL or DATABASE_URL for split deployments")
			os.Exit(1)
		}
		taskQueue = memoryqueue.NewQueue(getEnvInt("QUEUE_CAPACITY", 1024))
		logger.Info("using in-process task queue")
	}
	defer taskQueue.Close()

	// ===== Progress publisher =====
	var progressPub driven.ProgressPublisher
	if redisClient != nil {
		progressPub = redisadapter.NewProgressPublisher(redisClient)
		logger.Info("publishing progress events to redis")
	} else {
		progressPub = progress.NewMemoryPublisher()
		logger.Warn("REDIS_URL not set, progress events stay in-process")
	}
	defer progressPub.Close()

	// ===== Registry and loaders =====
	staleAfter := time.Duration(getEnvInt("SESSION_STALE_MINUTES", 30)) * time.Minute
	registry := runtime.NewRegistry(staleAfter, logger)
	registry.StartCleanup(ctx, 5*time.Minute)

	loaderRegistry := loaders.NewRegistry()

	// ===== Orchestrator =====
	orchestrator := services.NewIngestionOrchestrator(services.IngestionOrchestratorConfig{
		Registry:  registry,
		Loaders:   loaderRegistry,
		Embedding: embedding,
		Index:     index,
		Progress:  progressPub,
		Queue:     taskQueue,
		Logger:    logger,
	})

	switch mode {
	case "api":
		runAPI(port, orchestrator, taskQueue, index, embedding, logger)

	case "worker":
		runWorkerMode(ctx, taskQueue, orchestrator, logger)

	case "all":
		go runWorkerMode(ctx, taskQueue, orchestrator, logger)
		runAPI(port, orchestrator, taskQueue, index, embedding, logger)

	default:
		logger.Error("unknown mode", "mode", mode)
		os.Exit(1)
	}
}

func runAPI(
	port int,
	orchestrator *services.IngestionOrchestrator,
	taskQueue driven.TaskQueue,
	index driven.VectorIndex,
	embedding driven.EmbeddingService,
	logger *slog.Logger,
) {
	cfg := http.Config{
		Host:    "0.0.0.0",
		Port:    port,
		Version: version,
	}

	server := http.NewServer(cfg, orchestrator, taskQueue, index, embedding, logger)

	logger.Info("API server starting", "port", port)
	if err := server.Start(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// runWorkerMode consumes run tasks until the context is cancelled.
func runWorkerMode(
	ctx context.Context,
	taskQueue driven.TaskQueue,
	orchestrator *services.IngestionOrchestrator,
	logger *slog.Logger,
) {
	w := worker.NewWorker(worker.Config{
		TaskQueue:      taskQueue,
		Orchestrator:   orchestrator,
		Logger:         logger,
		Concurrency:    getEnvInt("WORKER_CONCURRENCY", 4),
		DequeueTimeout: getEnvInt("WORKER_DEQUEUE_TIMEOUT", 5),
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()

	w.Stop()
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
