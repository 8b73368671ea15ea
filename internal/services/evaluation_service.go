package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/google/uuid"
)

type evaluationService struct {
	repo      repositories.Repository
	tasks     *strategies.TaskRegistry
	answers   *strategies.AnswerRegistry
	publisher events.EventPublisher
	logger    *slog.Logger
	opLogger  *ServiceLogger
	now       func() time.Time
}

func NewEvaluationService(repo repositories.Repository, tasks *strategies.TaskRegistry, answers *strategies.AnswerRegistry, publisher events.EventPublisher, logger *slog.Logger) EvaluationService {
	return &evaluationService{
		repo:      repo,
		tasks:     tasks,
		answers:   answers,
		publisher: publisher,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "evaluation"}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate scores every task of the attempt's version and locks the attempt.
// Unanswered tasks score zero and count towards the average.
func (s *evaluationService) Evaluate(ctx context.Context, userID, attemptID uuid.UUID) (*EvaluationResult, error) {
	start := time.Now()
	var result *EvaluationResult

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		attempt, err := loadOwnedAttempt(ctx, tx, userID, attemptID)
		if err != nil {
			return err
		}
		if attempt.IsLocked() {
			return ErrAttemptLocked
		}

		quiz, err := loadQuiz(ctx, tx, attempt.QuizID)
		if err != nil {
			return err
		}
		if err := ensureReadAccess(ctx, tx, quiz, userID); err != nil {
			return err
		}
		versionID, err := attemptVersionID(ctx, tx, attempt)
		if err != nil {
			return err
		}
		tasks, err := versionTaskViews(ctx, tx, s.tasks, versionID)
		if err != nil {
			return err
		}

		answers, err := tx.Answer().ListByAttempt(ctx, attempt.ID)
		if err != nil {
			return fmt.Errorf("failed to list answers: %w", err)
		}
		byTask := make(map[uuid.UUID]*models.Answer, len(answers))
		for _, answer := range answers {
			byTask[answer.TaskID] = answer
		}

		scores := make([]*big.Rat, 0, len(tasks))
		details := make([]TaskEvaluation, 0, len(tasks))
		for _, task := range tasks {
			answer := byTask[task.TaskID]
			score, err := s.scoreTask(ctx, tx, task, answer)
			if err != nil {
				return err
			}
			scores = append(scores, score)
			details = append(details, TaskEvaluation{
				TaskID:     task.TaskID,
				Type:       task.Type,
				Percentage: utils.QuantizePercent(score),
				Answered:   answer != nil,
			})
		}

		total := utils.QuantizePercent(utils.MeanPercent(scores, len(tasks)))
		evaluatedAt := s.now()
		attempt.Status = models.AttemptEvaluated
		attempt.TotalPercentage = &total
		attempt.EvaluatedAt = &evaluatedAt
		if err := tx.Attempt().Update(ctx, attempt); err != nil {
			return fmt.Errorf("failed to lock attempt: %w", err)
		}

		result = &EvaluationResult{
			AttemptID:       attempt.ID,
			QuizID:          attempt.QuizID,
			TotalPercentage: total,
			EvaluatedAt:     evaluatedAt,
			Tasks:           details,
		}
		return nil
	})
	s.opLogger.LogOperation(ctx, "evaluate_attempt", userID, attemptID, "attempt", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.EventAttemptEvaluated, events.AttemptEvaluatedEvent{
		AttemptID:       result.AttemptID,
		QuizID:          result.QuizID,
		UserID:          userID,
		TotalPercentage: result.TotalPercentage,
		EvaluatedAt:     result.EvaluatedAt,
	})
	return result, nil
}

// scoreTask evaluates one answer and persists its percentage and, for cloze
// answers, the per-blank results.
func (s *evaluationService) scoreTask(ctx context.Context, tx repositories.Repository, task models.TaskView, answer *models.Answer) (*big.Rat, error) {
	if answer == nil {
		return new(big.Rat), nil
	}

	strategy, err := s.answers.Get(strategies.NormalizeType(string(task.Type)))
	if err != nil {
		return nil, err
	}
	evaluation, err := strategy.Evaluate(answer, task)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate answer %s: %w", answer.ID, err)
	}

	percentage := utils.QuantizePercent(evaluation.Percentage)
	if err := tx.Answer().SetPercentage(ctx, answer.ID, &percentage); err != nil {
		return nil, fmt.Errorf("failed to store answer percentage: %w", err)
	}
	for blankID, correct := range evaluation.BlankResults {
		if err := tx.Answer().SetClozeItemCorrect(ctx, answer.ID, blankID, correct); err != nil {
			return nil, fmt.Errorf("failed to store blank result: %w", err)
		}
	}
	return evaluation.Percentage, nil
}
