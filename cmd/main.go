package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerdworks/dealerai-backend/internal/db"
	"github.com/nerdworks/dealerai-backend/internal/fnhandlers"
	"github.com/nerdworks/dealerai-backend/internal/handlers"
	"github.com/nerdworks/dealerai-backend/internal/observability"
	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/repos"
	"github.com/nerdworks/dealerai-backend/internal/server"
	"github.com/nerdworks/dealerai-backend/internal/services"
	"github.com/nerdworks/dealerai-backend/internal/settings"
	"github.com/nerdworks/dealerai-backend/internal/tasks"
	"github.com/nerdworks/dealerai-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	serviceName := utils.GetEnv("SERVICE_NAME", "dealerai-backend", log)

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(ctx); err != nil {
			log.Warn("OTel shutdown failed", "error", err)
		}
	}()

	// Settings
	cfg := settings.EnvProvider{}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis (optional: in-memory fallbacks keep single-node deploys working)
	var rdb *redis.Client
	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unreachable, falling back to in-memory stores", "error", err)
			rdb = nil
		}
		cancel()
	}

	// Repos
	log.Info("Setting up Repos from main...")
	assistantRepo := repos.NewAssistantRepo(thePG, log)
	threadRepo := repos.NewThreadRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)
	aiLogRepo := repos.NewAILogRepo(thePG, log)
	vehicleRepo := repos.NewVehicleRepo(thePG, log)
	dealerRepo := repos.NewDealerRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	openaiClient, err := openai.NewClient(log, cfg)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}

	var (
		pins       services.ThreadPinStore
		batchStore services.BatchStatusStore
		notifier   services.Notifier = services.NopNotifier{}
	)
	if rdb != nil {
		pins = services.NewRedisThreadPinStore(rdb, log)
		batchStore = services.NewRedisBatchStatusStore(rdb, log)
		notifier = services.NewChatNotifier(rdb, log)
	} else {
		pins = services.NewMemoryThreadPinStore()
		batchStore = services.NewMemoryBatchStatusStore(time.Hour)
	}

	taskRegistry := tasks.NewRegistry(cfg, vehicleRepo)
	handlerRegistry := fnhandlers.NewRegistry(log)
	scorer := services.NewQualityScorer(log, openaiClient, cfg)
	batchService := services.NewBatchService(log, batchStore)
	assistantService := services.NewAssistantService(log, openaiClient, assistantRepo, threadRepo, messageRepo, pins, handlerRegistry, notifier)
	queryService := services.NewAIQueryService(log, openaiClient, cfg, taskRegistry, scorer, batchService, assistantService, aiLogRepo, dealerRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	aiHandler := handlers.NewAIHandler(queryService)
	assistantHandler := handlers.NewAssistantHandler(assistantService)

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		ServiceName:      serviceName,
		AllowOrigins:     origins,
		AIHandler:        aiHandler,
		AssistantHandler: assistantHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
