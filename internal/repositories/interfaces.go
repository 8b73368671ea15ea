package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a row addressed by id does not exist.
// Optional lookups return nil, nil instead.
var ErrNotFound = errors.New("record not found")

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	Roles  []models.OwnershipRole `json:"roles"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

type AttemptFilters struct {
	UserID uuid.UUID             `json:"user_id"`
	QuizID *uuid.UUID            `json:"quiz_id"`
	Status *models.AttemptStatus `json:"status"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// ===== SHARED RESULT STRUCTS =====

// UserQuiz is a quiz as seen by one of its owners.
type UserQuiz struct {
	Quiz *models.Quiz
	Role models.OwnershipRole
}

// VersionSummary counts the tasks of one version per type.
type VersionSummary struct {
	TaskCount int                     `json:"task_count"`
	ByType    map[models.TaskType]int `json:"by_type"`
}

// ===== REPOSITORIES =====

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.QuizStatus) error
	// Delete removes the quiz with its versions, tasks, sessions, ownerships
	// and share links. Attempts are not touched.
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByUser returns quizzes the user has any ownership of, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, filters QuizFilters) ([]UserQuiz, error)
}

type QuizVersionRepository interface {
	Create(ctx context.Context, version *models.QuizVersion) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QuizVersion, error)
	GetCurrent(ctx context.Context, quizID uuid.UUID) (*models.QuizVersion, error)
	CurrentIDs(ctx context.Context, quizIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	// MaxVersionNumber returns 0 when no version of the quiz is numbered.
	MaxVersionNumber(ctx context.Context, quizID uuid.UUID) (int, error)
	ClearCurrent(ctx context.Context, quizID uuid.UUID) error
	Update(ctx context.Context, version *models.QuizVersion) error
	// Delete removes the version and its tasks.
	Delete(ctx context.Context, id uuid.UUID) error
}

type EditSessionRepository interface {
	Create(ctx context.Context, session *models.EditSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EditSession, error)
	GetActive(ctx context.Context, quizID uuid.UUID) (*models.EditSession, error)
	Update(ctx context.Context, session *models.EditSession) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OwnershipRepository interface {
	Create(ctx context.Context, ownership *models.QuizOwnership) error
	Get(ctx context.Context, quizID, userID uuid.UUID) (*models.QuizOwnership, error)
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.QuizOwnership, error)
}

type ShareLinkRepository interface {
	Create(ctx context.Context, link *models.ShareLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ShareLink, error)
	GetByToken(ctx context.Context, token string) (*models.ShareLink, error)
	// GetByTokenForUpdate locks the row until the surrounding transaction ends.
	GetByTokenForUpdate(ctx context.Context, token string) (*models.ShareLink, error)
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.ShareLink, error)
	Update(ctx context.Context, link *models.ShareLink) error
}

// TaskRepository loads and stores tasks together with their type extension
// and nested options or blanks.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	CreateBatch(ctx context.Context, tasks []*models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	// GetByIDs skips unknown ids.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Task, error)
	ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.Task, error)
	// Save writes the task and makes its nested rows match the given ones.
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	// MaxOrderIndex returns -1 for a version without tasks.
	MaxOrderIndex(ctx context.Context, versionID uuid.UUID) (int, error)
	VersionSummaries(ctx context.Context, versionIDs []uuid.UUID) (map[uuid.UUID]VersionSummary, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.Attempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attempt, error)
	GetOpen(ctx context.Context, userID, quizID uuid.UUID) (*models.Attempt, error)
	// List returns the user's attempts, newest first.
	List(ctx context.Context, filters AttemptFilters) ([]*models.Attempt, error)
	Update(ctx context.Context, attempt *models.Attempt) error
	DeleteByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error)
}

type AnswerRepository interface {
	ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*models.Answer, error)
	Get(ctx context.Context, attemptID, taskID uuid.UUID) (*models.Answer, error)
	// Save upserts the answer and replaces its nested rows.
	Save(ctx context.Context, answer *models.Answer) error
	SetPercentage(ctx context.Context, answerID uuid.UUID, percentage *float64) error
	SetClozeItemCorrect(ctx context.Context, answerID, blankID uuid.UUID, correct bool) error
}

// Repository aggregates all repositories behind one unit of work.
type Repository interface {
	Quiz() QuizRepository
	QuizVersion() QuizVersionRepository
	EditSession() EditSessionRepository
	Ownership() OwnershipRepository
	ShareLink() ShareLinkRepository
	Task() TaskRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository

	// WithTransaction runs fn against a transaction-scoped Repository. A
	// returned error rolls back every write made through it.
	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}
