package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/exam-grading-service/internal/cache"
	"github.com/SAP-F-2025/exam-grading-service/internal/config"
	"github.com/SAP-F-2025/exam-grading-service/internal/grading"
	"github.com/SAP-F-2025/exam-grading-service/internal/grading/provider"
	"github.com/SAP-F-2025/exam-grading-service/internal/handlers"
	"github.com/SAP-F-2025/exam-grading-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-grading-service/internal/services"
	"github.com/SAP-F-2025/exam-grading-service/internal/utils"
	"github.com/SAP-F-2025/exam-grading-service/internal/validator"
	"github.com/SAP-F-2025/exam-grading-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	logger.Info("Starting exam grading service",
		"environment", cfg.Environment,
		"grading_mode", cfg.Grading.Mode,
		"port", cfg.Port)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	cacheService := cache.NewRedisCache(redisClient, logger)

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	ctx := context.Background()
	client, err := provider.FromConfig(ctx, cfg.Grading.Mode,
		cfg.Grading.OpenAIAPIKey, cfg.Grading.OpenAIBaseURL, cfg.Grading.OpenAIModel,
		cfg.Grading.GeminiAPIKey, cfg.Grading.GeminiModel)
	if err != nil {
		logger.Error("failed to create grading provider", "error", err)
		os.Exit(1)
	}

	selector, err := grading.NewSelector(cfg.Grading.EngineConfig(), client, logger)
	if err != nil {
		logger.Error("failed to build grading engine", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewRepository(db)
	v := validator.New()

	gradingService := services.NewGradingService(repo, selector, publisher, cacheService, logger)
	examService := services.NewExamService(repo, publisher, cacheService, logger, v)
	submissionService := services.NewSubmissionService(repo, gradingService, publisher, logger, v)
	exportService := services.NewExportService(repo, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestLogger(logger))
	router.Use(utils.UserContext())

	handlerManager := handlers.NewHandlerManager(examService, submissionService, gradingService, exportService, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
