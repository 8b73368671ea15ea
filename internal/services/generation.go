package services

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
)

// Generator produces quiz content from a generation spec.
type Generator interface {
	Generate(ctx context.Context, spec models.GenerationSpec) (*models.GeneratedQuiz, error)
}

// GenerationJob is one queued request to fill a pending quiz.
type GenerationJob struct {
	QuizID uuid.UUID             `json:"quiz_id"`
	Spec   models.GenerationSpec `json:"spec"`
}

// GenerationQueue hands jobs to the out-of-band generation worker.
type GenerationQueue interface {
	Enqueue(ctx context.Context, job GenerationJob) error
}
