package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizState string

const (
	QuizStatePrivate   QuizState = "private"
	QuizStateProtected QuizState = "protected"
	QuizStatePublic    QuizState = "public"
)

// QuizStatus tracks content generation, not editing.
type QuizStatus string

const (
	QuizStatusPending    QuizStatus = "pending"
	QuizStatusGenerating QuizStatus = "generating"
	QuizStatusCompleted  QuizStatus = "completed"
	QuizStatusFailed     QuizStatus = "failed"
)

// QuizTitlePending is shown until generation fills in the real title.
const QuizTitlePending = "Generating quiz..."

type Quiz struct {
	ID        uuid.UUID  `json:"quiz_id" gorm:"type:uuid;primaryKey"`
	Title     string     `json:"title" gorm:"not null;size:255"`
	Topic     *string    `json:"topic" gorm:"size:255"`
	State     QuizState  `json:"state" gorm:"size:20;not null;default:private;index"`
	Status    QuizStatus `json:"status" gorm:"size:20;not null;default:pending;index"`
	CreatedBy uuid.UUID  `json:"created_by" gorm:"type:uuid;not null;index"`

	// Requested task types and description, kept for audit and retries.
	GenerationSpec datatypes.JSON `json:"-" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Versions     []QuizVersion   `json:"-" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	EditSessions []EditSession   `json:"-" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	Ownerships   []QuizOwnership `json:"-" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	ShareLinks   []ShareLink     `json:"-" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (Quiz) TableName() string { return "quizzes" }

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	AssignID(&q.ID)
	return nil
}

type VersionStatus string

const (
	VersionStatusDraft     VersionStatus = "draft"
	VersionStatusPublished VersionStatus = "published"
)

// QuizVersion is one snapshot of a quiz's task set. At most one version per
// quiz has IsCurrent set; the partial unique index enforces it.
type QuizVersion struct {
	ID            uuid.UUID     `json:"quiz_version_id" gorm:"type:uuid;primaryKey"`
	QuizID        uuid.UUID     `json:"quiz_id" gorm:"type:uuid;not null;index"`
	BaseVersionID *uuid.UUID    `json:"base_version_id" gorm:"type:uuid"`
	VersionNumber *int          `json:"version_number"`
	Status        VersionStatus `json:"status" gorm:"size:20;not null;default:draft"`
	IsCurrent     bool          `json:"is_current" gorm:"not null;default:false"`
	CreatedBy     uuid.UUID     `json:"created_by" gorm:"type:uuid;not null"`
	CommittedAt   *time.Time    `json:"committed_at"`
	CreatedAt     time.Time     `json:"created_at"`

	Tasks []Task `json:"-" gorm:"foreignKey:QuizVersionID;constraint:OnDelete:CASCADE"`
}

func (QuizVersion) TableName() string { return "quiz_versions" }

func (v *QuizVersion) BeforeCreate(tx *gorm.DB) error {
	AssignID(&v.ID)
	return nil
}

type EditSessionStatus string

const (
	EditSessionActive    EditSessionStatus = "active"
	EditSessionCommitted EditSessionStatus = "committed"
	EditSessionAborted   EditSessionStatus = "aborted"
)

// EditSession binds one draft version to the user editing it.
type EditSession struct {
	ID             uuid.UUID         `json:"edit_session_id" gorm:"type:uuid;primaryKey"`
	QuizID         uuid.UUID         `json:"quiz_id" gorm:"type:uuid;not null;index"`
	DraftVersionID uuid.UUID         `json:"draft_version_id" gorm:"type:uuid;not null"`
	StartedBy      uuid.UUID         `json:"started_by" gorm:"type:uuid;not null"`
	Status         EditSessionStatus `json:"status" gorm:"size:20;not null;default:active"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (EditSession) TableName() string { return "quiz_edit_sessions" }

func (s *EditSession) BeforeCreate(tx *gorm.DB) error {
	AssignID(&s.ID)
	return nil
}
