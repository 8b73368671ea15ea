package handlers

import (
	"slices"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/auth"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ServiceSet is everything the HTTP layer calls into.
type ServiceSet struct {
	Quiz        services.QuizService
	EditSession services.EditSessionService
	Task        services.TaskService
	ShareLink   services.ShareLinkService
	Attempt     services.AttemptService
	Evaluation  services.EvaluationService
	Transfer    services.TransferService
}

type HandlerManager struct {
	quizHandler        *QuizHandler
	editSessionHandler *EditSessionHandler
	taskHandler        *TaskHandler
	shareLinkHandler   *ShareLinkHandler
	attemptHandler     *AttemptHandler

	verifier auth.TokenVerifier
	logger   utils.Logger
}

func NewHandlerManager(
	svc ServiceSet,
	verifier auth.TokenVerifier,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:        NewQuizHandler(svc.Quiz, svc.Transfer, logger),
		editSessionHandler: NewEditSessionHandler(svc.EditSession, validator, logger),
		taskHandler:        NewTaskHandler(svc.Task, svc.Quiz, logger),
		shareLinkHandler:   NewShareLinkHandler(svc.ShareLink, logger),
		attemptHandler:     NewAttemptHandler(svc.Attempt, svc.Evaluation, validator, logger),
		verifier:           verifier,
		logger:             logger,
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(logger utils.Logger, allowedOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(corsConfig(allowedOrigins)))
	engine.Use(utils.RequestID(), utils.LoggerMiddleware(logger), utils.ContextLogger(logger))
	return engine
}

func corsConfig(allowedOrigins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", EditSessionHeader, utils.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", utils.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	return config
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(hm.verifier, hm.logger.Slog()))
	{
		quizzes := v1.Group("/quizzes")
		{
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PATCH("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
			quizzes.GET("/:id/tasks", hm.quizHandler.GetQuizTasks)
			quizzes.GET("/:id/export", hm.quizHandler.ExportQuiz)
			quizzes.POST("/:id/import", hm.quizHandler.ImportTasks)

			// Versioning
			quizzes.POST("/:id/edit/start", hm.editSessionHandler.StartEdit)
			quizzes.POST("/:id/edit/commit", hm.editSessionHandler.CommitEdit)
			quizzes.POST("/:id/edit/abort", hm.editSessionHandler.AbortEdit)

			// Sharing
			quizzes.POST("/:id/share-links", hm.shareLinkHandler.CreateShareLink)
			quizzes.GET("/:id/share-links", hm.shareLinkHandler.ListShareLinks)
			quizzes.DELETE("/:id/share-links/:link_id", hm.shareLinkHandler.RevokeShareLink)
		}

		shareLinks := v1.Group("/share-links")
		{
			shareLinks.GET("/:token", hm.shareLinkHandler.ValidateShareLink)
			shareLinks.POST("/:token/redeem", hm.shareLinkHandler.RedeemShareLink)
		}

		tasks := v1.Group("/tasks")
		{
			tasks.GET("", hm.taskHandler.GetTasks)
			tasks.GET("/:id", hm.taskHandler.GetTask)
			tasks.PUT("/:id", hm.taskHandler.UpdateTask)
			tasks.DELETE("/:id", hm.taskHandler.DeleteTask)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/tasks", hm.attemptHandler.GetAttemptTasks)
			attempts.PUT("/:id/answers/:task_id", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/answers/:task_id/correctness", hm.attemptHandler.SetFreeTextCorrectness)
			attempts.POST("/:id/evaluate", hm.attemptHandler.EvaluateAttempt)
		}
	}
}
