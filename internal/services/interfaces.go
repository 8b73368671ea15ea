package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
)

// ===== QUIZ =====

// QuizReader is the access-checked read side other modules consume.
type QuizReader interface {
	GetQuizAccess(ctx context.Context, quizID, userID uuid.UUID) (*QuizAccess, error)
	GetTasks(ctx context.Context, quizID, userID uuid.UUID) ([]models.TaskView, error)
	GetVersionTasks(ctx context.Context, versionID, userID uuid.UUID) ([]models.TaskView, error)
	GetTask(ctx context.Context, taskID, userID uuid.UUID) (*models.TaskView, error)
}

type QuizService interface {
	QuizReader

	ListUserQuizzes(ctx context.Context, userID uuid.UUID, roles []models.OwnershipRole) ([]QuizSummary, error)
	CreateQuiz(ctx context.Context, userID uuid.UUID, req *CreateQuizRequest) (*CreateQuizResponse, error)
	GetQuizDetail(ctx context.Context, quizID, userID uuid.UUID) (*QuizDetail, error)
	UpdateQuizSettings(ctx context.Context, quizID, userID uuid.UUID, req *UpdateQuizSettingsRequest) (*QuizDetail, error)
	DeleteQuiz(ctx context.Context, quizID, userID uuid.UUID) error

	// GenerateQuizContent runs one generation job. It is invoked by the
	// generation worker, never by request handlers.
	GenerateQuizContent(ctx context.Context, quizID uuid.UUID, spec models.GenerationSpec) error
}

type CreateQuizRequest struct {
	TaskTypes   []models.TaskType `json:"task_types" validate:"omitempty,dive,task_type"`
	Description string            `json:"user_description" validate:"max=4000"`
	SourceText  string            `json:"-"`
}

type CreateQuizResponse struct {
	QuizID uuid.UUID         `json:"quiz_id"`
	Status models.QuizStatus `json:"status"`
}

type QuizSummary struct {
	QuizID    uuid.UUID            `json:"quiz_id"`
	Title     string               `json:"title"`
	Topic     *string              `json:"topic"`
	State     models.QuizState     `json:"state"`
	Status    models.QuizStatus    `json:"status"`
	Role      models.OwnershipRole `json:"role"`
	TaskCount int                  `json:"question_count"`
	TaskTypes []models.TaskType    `json:"question_types"`
	CreatedAt time.Time            `json:"created_at"`
}

type QuizDetail struct {
	QuizID    uuid.UUID         `json:"quiz_id"`
	Title     string            `json:"title"`
	Topic     *string           `json:"topic"`
	State     models.QuizState  `json:"state"`
	Status    models.QuizStatus `json:"status"`
	CreatedBy uuid.UUID         `json:"created_by"`
	CreatedAt time.Time         `json:"created_at"`
	Tasks     []models.TaskView `json:"tasks"`
}

type QuizAccess struct {
	QuizID uuid.UUID         `json:"quiz_id"`
	Status models.QuizStatus `json:"status"`
	State  models.QuizState  `json:"state"`
}

type UpdateQuizSettingsRequest struct {
	State *models.QuizState `json:"state" validate:"omitempty,quiz_state"`
	Title *string           `json:"title" validate:"omitempty,min=1,max=255"`
}

// ===== EDIT SESSION =====

type EditSessionService interface {
	StartEdit(ctx context.Context, quizID, userID uuid.UUID) (*EditSessionStartResponse, error)
	CommitEdit(ctx context.Context, quizID, userID, sessionID uuid.UUID) (*EditSessionCommitResponse, error)
	AbortEdit(ctx context.Context, quizID, userID, sessionID uuid.UUID) error
}

type EditSessionRequest struct {
	EditSessionID uuid.UUID `json:"edit_session_id" validate:"required"`
}

type EditSessionStartResponse struct {
	EditSessionID uuid.UUID  `json:"edit_session_id"`
	Quiz          QuizDetail `json:"quiz"`
}

type EditSessionCommitResponse struct {
	QuizID           uuid.UUID `json:"quiz_id"`
	CurrentVersionID uuid.UUID `json:"current_version_id"`
	VersionNumber    int       `json:"version_number"`
}

// ===== TASK =====

type TaskService interface {
	GetTasksBatch(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) ([]models.TaskView, error)
	UpdateTask(ctx context.Context, taskID, userID uuid.UUID, sessionID *uuid.UUID, update *models.TaskUpdate) (*models.TaskView, error)
	DeleteTask(ctx context.Context, taskID, userID uuid.UUID, sessionID *uuid.UUID) error
}

// ===== SHARE LINK =====

type ShareLinkService interface {
	Create(ctx context.Context, quizID, userID uuid.UUID, req *CreateShareLinkRequest) (*ShareLinkResponse, error)
	List(ctx context.Context, quizID, userID uuid.UUID) ([]ShareLinkResponse, error)
	Revoke(ctx context.Context, quizID, linkID, userID uuid.UUID) error
	Validate(ctx context.Context, token string) (*ShareLinkInfo, error)
	Redeem(ctx context.Context, token string, userID uuid.UUID) (*RedeemResponse, error)
}

type CreateShareLinkRequest struct {
	// Duration is the link lifetime in seconds; nil never expires.
	Duration *int64 `json:"duration" validate:"omitempty,min=1"`
	MaxUses  *int   `json:"max_uses" validate:"omitempty,min=1"`
}

type ShareLinkResponse struct {
	ShareLinkID uuid.UUID  `json:"share_link_id"`
	QuizID      uuid.UUID  `json:"quiz_id"`
	Token       string     `json:"token"`
	URL         string     `json:"url"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	MaxUses     *int       `json:"max_uses"`
	CurrentUses int        `json:"current_uses"`
	IsActive    bool       `json:"is_active"`
}

type ShareLinkInfo struct {
	IsValid   bool       `json:"is_valid"`
	QuizID    *uuid.UUID `json:"quiz_id"`
	QuizTitle string     `json:"quiz_title"`
	QuizTopic *string    `json:"quiz_topic"`
	Error     string     `json:"error_message,omitempty"`
}

type RedeemResponse struct {
	QuizID uuid.UUID            `json:"quiz_id"`
	Role   models.OwnershipRole `json:"role"`
}

// ===== ATTEMPT =====

type AttemptService interface {
	StartOrResume(ctx context.Context, userID uuid.UUID, req *StartAttemptRequest) (*StartAttemptResult, error)
	ListAttempts(ctx context.Context, userID uuid.UUID, req *ListAttemptsRequest) ([]AttemptResponse, error)
	GetAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*AttemptResponse, error)
	GetAttemptTasks(ctx context.Context, userID, attemptID uuid.UUID) ([]models.TaskView, error)
	SaveAnswer(ctx context.Context, userID, attemptID, taskID uuid.UUID, payload *models.AnswerPayload) (*models.AnswerSaved, error)
	SetFreeTextCorrectness(ctx context.Context, userID, attemptID, taskID uuid.UUID, isCorrect bool) (*models.AnswerView, error)
}

type StartAttemptRequest struct {
	QuizID uuid.UUID `json:"quiz_id" validate:"required"`
}

type StartAttemptResult struct {
	Attempt AttemptResponse
	Created bool
}

type ListAttemptsRequest struct {
	QuizID *uuid.UUID
	Status *models.AttemptStatus
	Limit  int
	Offset int
}

type FreeTextCorrectnessRequest struct {
	IsCorrect *bool `json:"is_correct" validate:"required"`
}

type AttemptResponse struct {
	AttemptID       uuid.UUID            `json:"attempt_id"`
	QuizID          uuid.UUID            `json:"quiz_id"`
	QuizVersionID   *uuid.UUID           `json:"quiz_version_id"`
	UserID          uuid.UUID            `json:"user_id"`
	Status          models.AttemptStatus `json:"status"`
	StartedAt       time.Time            `json:"started_at"`
	EvaluatedAt     *time.Time           `json:"evaluated_at"`
	TotalPercentage *float64             `json:"total_percentage"`
	Answers         []models.AnswerView  `json:"answers"`
}

// ===== EVALUATION =====

type EvaluationService interface {
	Evaluate(ctx context.Context, userID, attemptID uuid.UUID) (*EvaluationResult, error)
}

type TaskEvaluation struct {
	TaskID     uuid.UUID       `json:"task_id"`
	Type       models.TaskType `json:"type"`
	Percentage float64         `json:"percentage_correct"`
	Answered   bool            `json:"answered"`
}

type EvaluationResult struct {
	AttemptID       uuid.UUID        `json:"attempt_id"`
	QuizID          uuid.UUID        `json:"quiz_id"`
	TotalPercentage float64          `json:"total_percentage"`
	EvaluatedAt     time.Time        `json:"evaluated_at"`
	Tasks           []TaskEvaluation `json:"tasks"`
}

// ===== TRANSFER =====

type TransferService interface {
	ExportQuiz(ctx context.Context, quizID, userID uuid.UUID) (*ExportFile, error)
	ImportTasks(ctx context.Context, quizID, userID uuid.UUID, sessionID *uuid.UUID, workbook []byte) (*ImportResult, error)
}

type ExportFile struct {
	FileName string
	Content  []byte
}

type ImportResult struct {
	Imported int               `json:"imported"`
	Tasks    []models.TaskView `json:"tasks"`
}
