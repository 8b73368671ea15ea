package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/google/uuid"
)

// Helpers shared by the services. They take the repository explicitly so the
// same checks run inside and outside a transaction.

func loadQuiz(ctx context.Context, repo repositories.Repository, quizID uuid.UUID) (*models.Quiz, error) {
	quiz, err := repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// ensureReadAccess allows public quizzes and any ownership.
func ensureReadAccess(ctx context.Context, repo repositories.Repository, quiz *models.Quiz, userID uuid.UUID) error {
	if quiz.State == models.QuizStatePublic {
		return nil
	}
	ownership, err := repo.Ownership().Get(ctx, quiz.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to get ownership: %w", err)
	}
	if ownership == nil {
		return NewPermissionError(userID, quiz.ID, "quiz", "read", "no access to this quiz")
	}
	return nil
}

// ensureRole requires an ownership of at least the given role. Public
// visibility never grants it.
func ensureRole(ctx context.Context, repo repositories.Repository, quizID, userID uuid.UUID, required models.OwnershipRole, action string) error {
	ownership, err := repo.Ownership().Get(ctx, quizID, userID)
	if err != nil {
		return fmt.Errorf("failed to get ownership: %w", err)
	}
	if ownership == nil || !ownership.Role.HasPermissionFor(required) {
		return NewPermissionError(userID, quizID, "quiz", action, fmt.Sprintf("requires %s role", required))
	}
	return nil
}

func currentVersion(ctx context.Context, repo repositories.Repository, quizID uuid.UUID) (*models.QuizVersion, error) {
	version, err := repo.QuizVersion().GetCurrent(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}
	if version == nil {
		return nil, ErrNoCurrentVersion
	}
	return version, nil
}

func taskView(registry *strategies.TaskRegistry, task *models.Task) (models.TaskView, error) {
	strategy, err := registry.Get(strategies.NormalizeType(string(task.Type)))
	if err != nil {
		return models.TaskView{}, err
	}
	return strategy.ToView(task)
}

func taskViews(registry *strategies.TaskRegistry, tasks []*models.Task) ([]models.TaskView, error) {
	views := make([]models.TaskView, 0, len(tasks))
	for _, task := range tasks {
		view, err := taskView(registry, task)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func versionTaskViews(ctx context.Context, repo repositories.Repository, registry *strategies.TaskRegistry, versionID uuid.UUID) ([]models.TaskView, error) {
	tasks, err := repo.Task().ListByVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return taskViews(registry, tasks)
}

func quizDetail(quiz *models.Quiz, tasks []models.TaskView) *QuizDetail {
	return &QuizDetail{
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		Topic:     quiz.Topic,
		State:     quiz.State,
		Status:    quiz.Status,
		CreatedBy: quiz.CreatedBy,
		CreatedAt: quiz.CreatedAt,
		Tasks:     tasks,
	}
}
