package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/google/uuid"
)

type taskService struct {
	repo      repositories.Repository
	tasks     *strategies.TaskRegistry
	validator *validator.Validator
	logger    *slog.Logger
}

func NewTaskService(repo repositories.Repository, tasks *strategies.TaskRegistry, validator *validator.Validator, logger *slog.Logger) TaskService {
	return &taskService{
		repo:      repo,
		tasks:     tasks,
		validator: validator,
		logger:    logger,
	}
}

// GetTasksBatch checks read access once per distinct quiz. Unknown ids are
// skipped.
func (s *taskService) GetTasksBatch(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) ([]models.TaskView, error) {
	tasks, err := s.repo.Task().GetByIDs(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}

	checked := make(map[uuid.UUID]bool)
	for _, task := range tasks {
		if checked[task.QuizID] {
			continue
		}
		quiz, err := loadQuiz(ctx, s.repo, task.QuizID)
		if err != nil {
			return nil, err
		}
		if err := ensureReadAccess(ctx, s.repo, quiz, userID); err != nil {
			return nil, err
		}
		checked[task.QuizID] = true
	}
	return taskViews(s.tasks, tasks)
}

func (s *taskService) UpdateTask(ctx context.Context, taskID, userID uuid.UUID, sessionID *uuid.UUID, update *models.TaskUpdate) (*models.TaskView, error) {
	s.logger.Info("Updating task", "task_id", taskID, "user_id", userID)

	if err := s.validator.Validate(update); err != nil {
		return nil, err
	}

	var view models.TaskView
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		task, err := requireEditableTask(ctx, tx, taskID, userID, sessionID, "update task")
		if err != nil {
			return err
		}

		taskType := strategies.NormalizeType(string(task.Type))
		if declared := strategies.NormalizeType(string(update.Type)); declared != taskType {
			return &TypeMismatchError{Expected: taskType, Actual: declared}
		}
		strategy, err := s.tasks.Get(taskType)
		if err != nil {
			return err
		}
		if err := strategy.ApplyUpdate(task, *update); err != nil {
			return err
		}
		if err := tx.Task().Save(ctx, task); err != nil {
			return fmt.Errorf("failed to save task: %w", err)
		}
		view, err = strategy.ToView(task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *taskService) DeleteTask(ctx context.Context, taskID, userID uuid.UUID, sessionID *uuid.UUID) error {
	s.logger.Info("Deleting task", "task_id", taskID, "user_id", userID)

	return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := requireEditableTask(ctx, tx, taskID, userID, sessionID, "delete task"); err != nil {
			return err
		}
		if err := tx.Task().Delete(ctx, taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
}

// requireEditableTask checks, in order: a session id was given, the session
// is the caller's and active, the task exists in its draft, and the caller
// is at least an editor.
func requireEditableTask(ctx context.Context, tx repositories.Repository, taskID, userID uuid.UUID, sessionID *uuid.UUID, action string) (*models.Task, error) {
	if sessionID == nil || *sessionID == uuid.Nil {
		return nil, ErrEditSessionRequired
	}
	session, err := requireActiveSession(ctx, tx, *sessionID, userID, nil)
	if err != nil {
		return nil, err
	}
	task, err := tx.Task().GetByID(ctx, taskID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if err := ensureTaskInSession(task, session); err != nil {
		return nil, err
	}
	if err := ensureRole(ctx, tx, task.QuizID, userID, models.RoleEditor, action); err != nil {
		return nil, err
	}
	return task, nil
}
