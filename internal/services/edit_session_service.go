package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/google/uuid"
)

type editSessionService struct {
	repo      repositories.Repository
	tasks     *strategies.TaskRegistry
	publisher events.EventPublisher
	cache     *cache.QuizViewCache
	logger    *slog.Logger
	opLogger  *ServiceLogger
}

func NewEditSessionService(repo repositories.Repository, tasks *strategies.TaskRegistry, publisher events.EventPublisher, viewCache *cache.QuizViewCache, logger *slog.Logger) EditSessionService {
	return &editSessionService{
		repo:      repo,
		tasks:     tasks,
		publisher: publisher,
		cache:     viewCache,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "edit_session"}),
	}
}

// StartEdit opens a draft cloned from the current version. An active
// session of another editor is superseded: its draft is discarded.
func (s *editSessionService) StartEdit(ctx context.Context, quizID, userID uuid.UUID) (*EditSessionStartResponse, error) {
	s.logger.Info("Starting edit session", "quiz_id", quizID, "user_id", userID)

	var response *EditSessionStartResponse
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		quiz, err := loadQuiz(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if err := ensureRole(ctx, tx, quizID, userID, models.RoleEditor, "edit"); err != nil {
			return err
		}

		active, err := tx.EditSession().GetActive(ctx, quizID)
		if err != nil {
			return fmt.Errorf("failed to get active edit session: %w", err)
		}
		if active != nil {
			s.logger.Info("Superseding active edit session",
				"quiz_id", quizID,
				"edit_session_id", active.ID,
				"started_by", active.StartedBy)
			if err := discardSession(ctx, tx, active); err != nil {
				return err
			}
		}

		current, err := currentVersion(ctx, tx, quizID)
		if err != nil {
			return err
		}
		draft := &models.QuizVersion{
			QuizID:        quizID,
			BaseVersionID: &current.ID,
			Status:        models.VersionStatusDraft,
			CreatedBy:     userID,
		}
		if err := tx.QuizVersion().Create(ctx, draft); err != nil {
			return fmt.Errorf("failed to create draft version: %w", err)
		}

		clones, err := s.cloneTasks(ctx, tx, current.ID, draft.ID)
		if err != nil {
			return err
		}

		session := &models.EditSession{
			QuizID:         quizID,
			DraftVersionID: draft.ID,
			StartedBy:      userID,
			Status:         models.EditSessionActive,
		}
		if err := tx.EditSession().Create(ctx, session); err != nil {
			return fmt.Errorf("failed to create edit session: %w", err)
		}

		views, err := taskViews(s.tasks, clones)
		if err != nil {
			return err
		}
		response = &EditSessionStartResponse{
			EditSessionID: session.ID,
			Quiz:          *quizDetail(quiz, views),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Edit session started",
		"quiz_id", quizID,
		"edit_session_id", response.EditSessionID,
		"task_count", len(response.Quiz.Tasks))
	return response, nil
}

func (s *editSessionService) cloneTasks(ctx context.Context, tx repositories.Repository, sourceVersionID, targetVersionID uuid.UUID) ([]*models.Task, error) {
	tasks, err := tx.Task().ListByVersion(ctx, sourceVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return []*models.Task{}, nil
	}

	clones := make([]*models.Task, 0, len(tasks))
	for _, task := range tasks {
		strategy, err := s.tasks.Get(strategies.NormalizeType(string(task.Type)))
		if err != nil {
			return nil, err
		}
		clone, err := strategy.Clone(task, targetVersionID)
		if err != nil {
			return nil, fmt.Errorf("failed to clone task %s: %w", task.ID, err)
		}
		clones = append(clones, clone)
	}
	if err := tx.Task().CreateBatch(ctx, clones); err != nil {
		return nil, fmt.Errorf("failed to save cloned tasks: %w", err)
	}
	return clones, nil
}

// CommitEdit publishes the draft as the next numbered current version.
func (s *editSessionService) CommitEdit(ctx context.Context, quizID, userID, sessionID uuid.UUID) (*EditSessionCommitResponse, error) {
	start := time.Now()
	var response *EditSessionCommitResponse
	var committedAt time.Time

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		session, err := requireActiveSession(ctx, tx, sessionID, userID, &quizID)
		if err != nil {
			return err
		}
		if err := ensureRole(ctx, tx, quizID, userID, models.RoleEditor, "commit"); err != nil {
			return err
		}

		latest, err := tx.QuizVersion().MaxVersionNumber(ctx, quizID)
		if err != nil {
			return fmt.Errorf("failed to get latest version number: %w", err)
		}
		next := latest + 1

		draft, err := tx.QuizVersion().GetByID(ctx, session.DraftVersionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrVersionNotFound
			}
			return fmt.Errorf("failed to get draft version: %w", err)
		}

		if err := tx.QuizVersion().ClearCurrent(ctx, quizID); err != nil {
			return fmt.Errorf("failed to clear current version: %w", err)
		}
		committedAt = time.Now().UTC()
		draft.Status = models.VersionStatusPublished
		draft.VersionNumber = &next
		draft.CommittedAt = &committedAt
		draft.IsCurrent = true
		if err := tx.QuizVersion().Update(ctx, draft); err != nil {
			return fmt.Errorf("failed to publish draft version: %w", err)
		}

		session.Status = models.EditSessionCommitted
		if err := tx.EditSession().Update(ctx, session); err != nil {
			return fmt.Errorf("failed to close edit session: %w", err)
		}

		response = &EditSessionCommitResponse{
			QuizID:           quizID,
			CurrentVersionID: draft.ID,
			VersionNumber:    next,
		}
		return nil
	})
	s.opLogger.LogOperation(ctx, "commit_edit", userID, sessionID, "edit_session", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, quizID)
	publishEvent(ctx, s.publisher, s.logger, events.EventQuizVersionCommitted, events.QuizVersionCommittedEvent{
		QuizID:        quizID,
		VersionID:     response.CurrentVersionID,
		VersionNumber: response.VersionNumber,
		CommittedBy:   userID,
		CommittedAt:   committedAt,
	})
	return response, nil
}

// AbortEdit discards the draft; the current version is untouched.
func (s *editSessionService) AbortEdit(ctx context.Context, quizID, userID, sessionID uuid.UUID) error {
	start := time.Now()
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		session, err := requireActiveSession(ctx, tx, sessionID, userID, &quizID)
		if err != nil {
			return err
		}
		if err := ensureRole(ctx, tx, quizID, userID, models.RoleEditor, "abort"); err != nil {
			return err
		}
		return discardSession(ctx, tx, session)
	})
	s.opLogger.LogOperation(ctx, "abort_edit", userID, sessionID, "edit_session", time.Since(start), err)
	return err
}

// requireActiveSession loads a session the caller started and that is still
// active. A non-nil quizID must match the session's quiz.
func requireActiveSession(ctx context.Context, repo repositories.Repository, sessionID, userID uuid.UUID, quizID *uuid.UUID) (*models.EditSession, error) {
	session, err := repo.EditSession().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEditSessionNotFound
		}
		return nil, fmt.Errorf("failed to get edit session: %w", err)
	}
	if quizID != nil && session.QuizID != *quizID {
		return nil, ErrEditSessionNotFound
	}
	if session.StartedBy != userID {
		return nil, ErrEditSessionNotOwned
	}
	if session.Status != models.EditSessionActive {
		return nil, ErrEditSessionNotActive
	}
	return session, nil
}

// ensureTaskInSession requires the task to live in the session's draft.
func ensureTaskInSession(task *models.Task, session *models.EditSession) error {
	if task.QuizVersionID != session.DraftVersionID {
		return ErrTaskNotInSession
	}
	return nil
}

func discardSession(ctx context.Context, tx repositories.Repository, session *models.EditSession) error {
	if err := tx.EditSession().Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to delete edit session: %w", err)
	}
	if err := tx.QuizVersion().Delete(ctx, session.DraftVersionID); err != nil && !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to delete draft version: %w", err)
	}
	return nil
}
