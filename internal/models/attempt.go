package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptEvaluated  AttemptStatus = "evaluated"
)

// Attempt references its quiz without a foreign key; quiz deletion removes
// attempts through the quiz-deleted event.
type Attempt struct {
	ID     uuid.UUID `json:"attempt_id" gorm:"type:uuid;primaryKey"`
	QuizID uuid.UUID `json:"quiz_id" gorm:"type:uuid;not null;index"`
	// Version that was current when the attempt started. Nil on legacy rows.
	QuizVersionID   *uuid.UUID    `json:"quiz_version_id" gorm:"type:uuid"`
	UserID          uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	Status          AttemptStatus `json:"status" gorm:"size:20;not null;default:in_progress;index"`
	StartedAt       time.Time     `json:"started_at" gorm:"not null"`
	EvaluatedAt     *time.Time    `json:"evaluated_at"`
	TotalPercentage *float64      `json:"total_percentage" gorm:"type:numeric(5,2)"`

	Answers []Answer `json:"-" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

func (Attempt) TableName() string { return "attempts" }

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	AssignID(&a.ID)
	return nil
}

func (a *Attempt) IsLocked() bool {
	return a.Status != AttemptInProgress
}
