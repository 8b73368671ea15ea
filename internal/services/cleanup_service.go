package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

// CleanupService removes learning data that outlives a deleted quiz.
type CleanupService struct {
	logger *slog.Logger
}

func NewCleanupService(logger *slog.Logger) *CleanupService {
	return &CleanupService{logger: logger}
}

// Register subscribes the service to quiz deletions.
func (s *CleanupService) Register(bus *events.QuizDeletedBus) {
	bus.Subscribe("attempt_cleanup", s.HandleQuizDeleted)
}

func (s *CleanupService) HandleQuizDeleted(ctx context.Context, repo repositories.Repository, event events.QuizDeleted) error {
	_, err := s.DeleteAttemptsForQuiz(ctx, repo, event.QuizID)
	return err
}

// DeleteAttemptsForQuiz deletes every attempt of the quiz with its answers.
// It writes through repo, so it joins the caller's unit of work.
func (s *CleanupService) DeleteAttemptsForQuiz(ctx context.Context, repo repositories.Repository, quizID uuid.UUID) (int64, error) {
	removed, err := repo.Attempt().DeleteByQuiz(ctx, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attempts: %w", err)
	}
	s.logger.Info("Deleted attempts of removed quiz", "quiz_id", quizID, "attempts", removed)
	return removed, nil
}
