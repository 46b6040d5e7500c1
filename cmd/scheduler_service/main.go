package main

import (
	"context"
	"log"
	"time"

	"wa_scheduler/internal/calendar"
	"wa_scheduler/internal/config"
	"wa_scheduler/internal/database/milvus"
	"wa_scheduler/internal/database/mysql"
	"wa_scheduler/internal/database/redis"
	"wa_scheduler/internal/embedding"
	"wa_scheduler/internal/llm"
	memstore "wa_scheduler/internal/memory/store"
	"wa_scheduler/internal/models"
	"wa_scheduler/internal/scheduler_service/api"
	"wa_scheduler/internal/scheduler_service/service"
	"wa_scheduler/internal/scheduler_service/store"
	"wa_scheduler/internal/todoist"
	pkghttp "wa_scheduler/pkg/http"
	"wa_scheduler/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("scheduler_service", "", "")

	appLogger.Info("Logger initialized")

	ctx := context.Background()

	// Initialize database connection
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database connection established")

	// Auto-migrate database schema
	err = db.AutoMigrate(&models.User{}, &models.Meeting{}, &models.ConversationState{})
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database migration completed")

	// Initialize Redis (webhook deduplication)
	rdb, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Redis connection established")

	// Initialize Milvus (semantic conversation memory)
	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Milvus collection ready")

	// Initialize LLM and embedding clients
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	embedder, err := embedding.NewEmdModel(&cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	classifier := llm.NewIntentClassifier(
		llmClient,
		cfg.Scheduler.DefaultTimezone,
		cfg.Scheduler.DefaultDurationMinutes,
		appLogger,
	)
	appLogger.Info("LLM clients initialized")

	// Initialize external service ports
	gcal := calendar.NewGoogleCalendar(&cfg.Auth.Google)

	externalTimeout := time.Duration(cfg.Scheduler.ExternalTimeoutSeconds) * time.Second
	httpClient, err := pkghttp.NewClient(cfg.Middleware.CircuitBreaker, externalTimeout)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	todoistClient := todoist.NewClient(httpClient)
	todoistOAuth := &todoist.OAuthConfig{
		ClientID:     cfg.Auth.Todoist.ClientID,
		ClientSecret: cfg.Auth.Todoist.ClientSecret,
		RedirectURI:  cfg.Auth.Todoist.RedirectURI,
	}

	// Initialize dependencies (Store -> Service -> Handler)
	schedStore := store.NewStore(db)
	semanticStore := memstore.NewMilvusStore(milvusClient, embedder)

	aggregator := service.NewAggregator(semanticStore, schedStore, schedStore, &cfg.Scheduler, appLogger)
	orchestrator := service.NewOrchestrator(gcal, todoistClient, schedStore, &cfg.Scheduler, appLogger)
	composer := service.NewComposer(llmClient, appLogger)
	schedService := service.NewService(
		classifier,
		aggregator,
		orchestrator,
		composer,
		schedStore,
		schedStore,
		semanticStore,
		&cfg.Scheduler,
		appLogger,
	)
	apiHandler := api.NewHandler(schedService, schedStore, gcal, todoistOAuth, rdb, appLogger)
	appLogger.Info("Dependencies injected")

	// Setup and start Gin router
	router := api.SetupRouter(apiHandler, &cfg.Middleware)
	appLogger.Info("Router setup completed")

	appLogger.Info("Starting server on " + cfg.App.Address)

	if err := router.Run(cfg.App.Address); err != nil {
		appLogger.Fatal(err.Error())
	}
}
