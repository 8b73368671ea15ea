package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/google/uuid"
)

type attemptService struct {
	repo      repositories.Repository
	tasks     *strategies.TaskRegistry
	answers   *strategies.AnswerRegistry
	validator *validator.Validator
	logger    *slog.Logger
	now       func() time.Time
}

func NewAttemptService(repo repositories.Repository, tasks *strategies.TaskRegistry, answers *strategies.AnswerRegistry, validator *validator.Validator, logger *slog.Logger) AttemptService {
	return &attemptService{
		repo:      repo,
		tasks:     tasks,
		answers:   answers,
		validator: validator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

// StartOrResume returns the caller's open attempt for the quiz, or starts a
// new one pinned to the current version.
func (s *attemptService) StartOrResume(ctx context.Context, userID uuid.UUID, req *StartAttemptRequest) (*StartAttemptResult, error) {
	s.logger.Info("Starting quiz attempt", "quiz_id", req.QuizID, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var result *StartAttemptResult
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		quiz, err := loadQuiz(ctx, tx, req.QuizID)
		if err != nil {
			return err
		}
		if err := ensureReadAccess(ctx, tx, quiz, userID); err != nil {
			return err
		}
		if quiz.Status != models.QuizStatusCompleted {
			return ErrQuizNotCompleted
		}

		open, err := tx.Attempt().GetOpen(ctx, userID, quiz.ID)
		if err != nil {
			return fmt.Errorf("failed to get open attempt: %w", err)
		}
		if open != nil {
			s.logger.Info("Resuming existing attempt", "attempt_id", open.ID)
			response, err := s.attemptResponse(ctx, tx, open)
			if err != nil {
				return err
			}
			result = &StartAttemptResult{Attempt: *response, Created: false}
			return nil
		}

		version, err := currentVersion(ctx, tx, quiz.ID)
		if err != nil {
			return err
		}
		attempt := &models.Attempt{
			QuizID:        quiz.ID,
			QuizVersionID: &version.ID,
			UserID:        userID,
			Status:        models.AttemptInProgress,
			StartedAt:     s.now(),
		}
		if err := tx.Attempt().Create(ctx, attempt); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}
		result = &StartAttemptResult{
			Attempt: AttemptResponse{
				AttemptID:     attempt.ID,
				QuizID:        attempt.QuizID,
				QuizVersionID: attempt.QuizVersionID,
				UserID:        attempt.UserID,
				Status:        attempt.Status,
				StartedAt:     attempt.StartedAt,
				Answers:       []models.AnswerView{},
			},
			Created: true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *attemptService) ListAttempts(ctx context.Context, userID uuid.UUID, req *ListAttemptsRequest) ([]AttemptResponse, error) {
	filters := repositories.AttemptFilters{UserID: userID}
	if req != nil {
		filters.QuizID = req.QuizID
		filters.Status = req.Status
		filters.Limit = req.Limit
		filters.Offset = req.Offset
	}
	attempts, err := s.repo.Attempt().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	result := make([]AttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		response := baseAttemptResponse(attempt)
		result = append(result, *response)
	}
	return result, nil
}

func (s *attemptService) GetAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*AttemptResponse, error) {
	attempt, err := loadOwnedAttempt(ctx, s.repo, userID, attemptID)
	if err != nil {
		return nil, err
	}
	return s.attemptResponse(ctx, s.repo, attempt)
}

// GetAttemptTasks returns the tasks of the version the attempt is pinned to.
func (s *attemptService) GetAttemptTasks(ctx context.Context, userID, attemptID uuid.UUID) ([]models.TaskView, error) {
	attempt, err := loadOwnedAttempt(ctx, s.repo, userID, attemptID)
	if err != nil {
		return nil, err
	}
	quiz, err := loadQuiz(ctx, s.repo, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if err := ensureReadAccess(ctx, s.repo, quiz, userID); err != nil {
		return nil, err
	}
	versionID, err := attemptVersionID(ctx, s.repo, attempt)
	if err != nil {
		return nil, err
	}
	return versionTaskViews(ctx, s.repo, s.tasks, versionID)
}

// ===== ANSWERS =====

func (s *attemptService) SaveAnswer(ctx context.Context, userID, attemptID, taskID uuid.UUID, payload *models.AnswerPayload) (*models.AnswerSaved, error) {
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}

	var saved *models.AnswerSaved
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		attempt, err := s.writableAttempt(ctx, tx, userID, attemptID)
		if err != nil {
			return err
		}
		task, err := s.attemptTask(ctx, tx, attempt, taskID)
		if err != nil {
			return err
		}

		taskType := strategies.NormalizeType(string(task.Type))
		if declared := strategies.NormalizeType(string(payload.Type)); declared != taskType {
			return &TypeMismatchError{Expected: taskType, Actual: declared}
		}
		strategy, err := s.answers.Get(taskType)
		if err != nil {
			return err
		}

		existing, err := tx.Answer().Get(ctx, attempt.ID, task.ID)
		if err != nil {
			return fmt.Errorf("failed to get answer: %w", err)
		}
		answer, err := strategy.BuildOrGet(existing, attempt.ID, task.ID)
		if err != nil {
			return err
		}
		if err := strategy.Apply(answer, payload.Data); err != nil {
			return err
		}
		if err := tx.Answer().Save(ctx, answer); err != nil {
			return fmt.Errorf("failed to save answer: %w", err)
		}

		saved = &models.AnswerSaved{AnswerID: answer.ID, TaskID: task.ID, SavedAt: s.now()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// SetFreeTextCorrectness records the learner's self-assessment of a free
// text answer as 100 or 0 percent.
func (s *attemptService) SetFreeTextCorrectness(ctx context.Context, userID, attemptID, taskID uuid.UUID, isCorrect bool) (*models.AnswerView, error) {
	var view models.AnswerView
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		attempt, err := s.writableAttempt(ctx, tx, userID, attemptID)
		if err != nil {
			return err
		}
		answer, err := tx.Answer().Get(ctx, attempt.ID, taskID)
		if err != nil {
			return fmt.Errorf("failed to get answer: %w", err)
		}
		if answer == nil {
			return ErrAnswerNotFound
		}
		if strategies.NormalizeType(string(answer.Type)) != models.TaskTypeFreeText {
			return ErrInvalidAnswerType
		}

		percentage := 0.0
		if isCorrect {
			percentage = 100
		}
		if err := tx.Answer().SetPercentage(ctx, answer.ID, &percentage); err != nil {
			return fmt.Errorf("failed to set answer percentage: %w", err)
		}
		answer.PercentageCorrect = &percentage

		strategy, err := s.answers.Get(models.TaskTypeFreeText)
		if err != nil {
			return err
		}
		view, err = strategy.ToView(answer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ===== HELPERS =====

func (s *attemptService) writableAttempt(ctx context.Context, repo repositories.Repository, userID, attemptID uuid.UUID) (*models.Attempt, error) {
	attempt, err := loadOwnedAttempt(ctx, repo, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsLocked() {
		return nil, ErrAttemptLocked
	}
	return attempt, nil
}

// attemptTask loads a task that belongs to the attempt's quiz and pinned
// version, checking read access on the quiz.
func (s *attemptService) attemptTask(ctx context.Context, repo repositories.Repository, attempt *models.Attempt, taskID uuid.UUID) (*models.Task, error) {
	task, err := repo.Task().GetByID(ctx, taskID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task.QuizID != attempt.QuizID {
		return nil, ErrTaskNotFound
	}
	versionID, err := attemptVersionID(ctx, repo, attempt)
	if err != nil {
		return nil, err
	}
	if task.QuizVersionID != versionID {
		return nil, ErrTaskNotFound
	}
	quiz, err := loadQuiz(ctx, repo, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if err := ensureReadAccess(ctx, repo, quiz, attempt.UserID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *attemptService) attemptResponse(ctx context.Context, repo repositories.Repository, attempt *models.Attempt) (*AttemptResponse, error) {
	answers, err := repo.Answer().ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	response := baseAttemptResponse(attempt)
	for _, answer := range answers {
		strategy, err := s.answers.Get(strategies.NormalizeType(string(answer.Type)))
		if err != nil {
			return nil, err
		}
		view, err := strategy.ToView(answer)
		if err != nil {
			return nil, err
		}
		response.Answers = append(response.Answers, view)
	}
	return response, nil
}

func loadOwnedAttempt(ctx context.Context, repo repositories.Repository, userID, attemptID uuid.UUID) (*models.Attempt, error) {
	attempt, err := repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, attemptID, "attempt", "access", "attempt belongs to another user")
	}
	return attempt, nil
}

// attemptVersionID resolves the version an attempt is scored against. Rows
// without a pinned version use the quiz's current version.
func attemptVersionID(ctx context.Context, repo repositories.Repository, attempt *models.Attempt) (uuid.UUID, error) {
	if attempt.QuizVersionID != nil {
		return *attempt.QuizVersionID, nil
	}
	version, err := currentVersion(ctx, repo, attempt.QuizID)
	if err != nil {
		return uuid.Nil, err
	}
	return version.ID, nil
}

func baseAttemptResponse(attempt *models.Attempt) *AttemptResponse {
	return &AttemptResponse{
		AttemptID:       attempt.ID,
		QuizID:          attempt.QuizID,
		QuizVersionID:   attempt.QuizVersionID,
		UserID:          attempt.UserID,
		Status:          attempt.Status,
		StartedAt:       attempt.StartedAt,
		EvaluatedAt:     attempt.EvaluatedAt,
		TotalPercentage: attempt.TotalPercentage,
		Answers:         []models.AnswerView{},
	}
}
