package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/auth"
	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/generation"
	"github.com/SAP-F-2025/quiz-service/internal/handlers"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/memory"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/internal/workers"
	"github.com/SAP-F-2025/quiz-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	if err := run(cfg, logger); err != nil {
		logger.Slog().Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger) error {
	slogger := logger.Slog()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(cfg, slogger)
	if err != nil {
		return err
	}
	defer repo.Close()

	viewCache, err := openViewCache(ctx, cfg, slogger)
	if err != nil {
		return err
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		slogger.Error("Failed to create event publisher", "error", err)
		publisher = events.NewMockEventPublisher(slogger)
	}
	defer publisher.Close()

	bus := events.NewQuizDeletedBus()
	services.NewCleanupService(slogger).Register(bus)

	v := validator.New()
	tasks := strategies.DefaultTaskRegistry()
	answers := strategies.DefaultAnswerRegistry()

	var generator services.Generator = generation.UnavailableGenerator{}
	gemini, err := generation.NewGeminiGenerator(ctx, generation.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	}, v, slogger)
	switch {
	case err == nil:
		generator = gemini
	case errors.Is(err, generation.ErrGeneratorUnavailable):
		slogger.Warn("GEMINI_API_KEY not set, quiz generation will fail")
	default:
		return err
	}

	worker := workers.NewGenerationWorker(slogger, workers.GenerationWorkerConfig{})
	defer worker.Close()

	quizService := services.NewQuizService(services.QuizServiceDeps{
		Repo:      repo,
		Tasks:     tasks,
		Validator: v,
		Generator: generator,
		Queue:     worker,
		Bus:       bus,
		Publisher: publisher,
		Cache:     viewCache,
		Logger:    slogger,
	})
	if err := worker.Start(ctx, quizService); err != nil {
		return err
	}

	verifier, err := auth.NewVerifier(cfg)
	if err != nil {
		return err
	}

	manager := handlers.NewHandlerManager(handlers.ServiceSet{
		Quiz:        quizService,
		EditSession: services.NewEditSessionService(repo, tasks, publisher, viewCache, slogger),
		Task:        services.NewTaskService(repo, tasks, v, slogger),
		ShareLink:   services.NewShareLinkService(repo, v, cfg.FrontendURL, slogger),
		Attempt:     services.NewAttemptService(repo, tasks, answers, v, slogger),
		Evaluation:  services.NewEvaluationService(repo, tasks, answers, publisher, slogger),
		Transfer:    services.NewTransferService(repo, tasks, v, slogger),
	}, verifier, v, logger)

	engine := handlers.NewEngine(logger, cfg.AllowedOrigins)
	manager.SetupRoutes(engine)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slogger.Info("Server listening", "port", cfg.Port, "storage", cfg.StorageDriver, "auth", cfg.AuthProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openRepository(cfg *config.Config, logger *slog.Logger) (repositories.Repository, error) {
	if cfg.StorageDriver == "memory" {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewRepository(), nil
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := pkg.Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("Connected to database")
	return postgres.NewRepository(db), nil
}

func openViewCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cache.QuizViewCache, error) {
	client, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		logger.Info("REDIS_URL not set, view cache disabled")
		return cache.NewQuizViewCache(cache.NewNoopCache(), cfg.CacheTTL, logger), nil
	}
	return cache.NewQuizViewCache(cache.NewRedisCache(client, logger), cfg.CacheTTL, logger), nil
}
