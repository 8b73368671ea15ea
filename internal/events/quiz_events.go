package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the integration events emitted after commit.
type EventType string

const (
	// Quiz events
	EventQuizCreated             EventType = "quiz.created"
	EventQuizGenerationCompleted EventType = "quiz.generation.completed"
	EventQuizGenerationFailed    EventType = "quiz.generation.failed"
	EventQuizVersionCommitted    EventType = "quiz.version.committed"
	EventQuizDeleted             EventType = "quiz.deleted"

	// Attempt events
	EventAttemptEvaluated EventType = "attempt.evaluated"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// IntegrationEvent is the envelope of every published event.
type IntegrationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func NewEvent(eventType EventType, data interface{}) *IntegrationEvent {
	return &IntegrationEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Quiz event payloads

type QuizCreatedEvent struct {
	QuizID    uuid.UUID `json:"quiz_id"`
	CreatedBy uuid.UUID `json:"created_by"`
	TaskTypes []string  `json:"task_types"`
}

type QuizGenerationCompletedEvent struct {
	QuizID    uuid.UUID `json:"quiz_id"`
	Title     string    `json:"title"`
	TaskCount int       `json:"task_count"`
}

type QuizGenerationFailedEvent struct {
	QuizID uuid.UUID `json:"quiz_id"`
	Reason string    `json:"reason"`
}

type QuizVersionCommittedEvent struct {
	QuizID        uuid.UUID `json:"quiz_id"`
	VersionID     uuid.UUID `json:"version_id"`
	VersionNumber int       `json:"version_number"`
	CommittedBy   uuid.UUID `json:"committed_by"`
	CommittedAt   time.Time `json:"committed_at"`
}

type QuizDeletedEvent struct {
	QuizID    uuid.UUID `json:"quiz_id"`
	DeletedBy uuid.UUID `json:"deleted_by"`
}

// Attempt event payloads

type AttemptEvaluatedEvent struct {
	AttemptID       uuid.UUID `json:"attempt_id"`
	QuizID          uuid.UUID `json:"quiz_id"`
	UserID          uuid.UUID `json:"user_id"`
	TotalPercentage float64   `json:"total_percentage"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}
