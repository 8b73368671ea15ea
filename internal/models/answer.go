package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Answer mirrors Task: Type selects the populated extension. One answer per
// (attempt, task); saves upsert it.
type Answer struct {
	ID                uuid.UUID `json:"answer_id" gorm:"type:uuid;primaryKey"`
	AttemptID         uuid.UUID `json:"attempt_id" gorm:"type:uuid;not null;uniqueIndex:uq_answer_attempt_task,priority:1"`
	TaskID            uuid.UUID `json:"task_id" gorm:"type:uuid;not null;uniqueIndex:uq_answer_attempt_task,priority:2;index"`
	Type              TaskType  `json:"type" gorm:"size:20;not null"`
	PercentageCorrect *float64  `json:"percentage_correct" gorm:"type:numeric(5,2)"`

	MultipleChoice *MultipleChoiceAnswer `json:"-" gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE"`
	FreeText       *FreeTextAnswer       `json:"-" gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE"`
	Cloze          *ClozeAnswer          `json:"-" gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE"`
}

func (Answer) TableName() string { return "answers" }

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	AssignID(&a.ID)
	return nil
}

type MultipleChoiceAnswer struct {
	AnswerID   uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Selections []AnswerSelection `gorm:"foreignKey:AnswerID;references:AnswerID;constraint:OnDelete:CASCADE"`
}

func (MultipleChoiceAnswer) TableName() string { return "answer_multiple_choice" }

// AnswerSelection references a task option without a foreign key so that
// answers survive option replacement in later versions.
type AnswerSelection struct {
	AnswerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	OptionID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (AnswerSelection) TableName() string { return "answer_multiple_choice_selections" }

type FreeTextAnswer struct {
	AnswerID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	TextResponse string    `gorm:"type:text;not null"`
}

func (FreeTextAnswer) TableName() string { return "answer_free_text" }

type ClozeAnswer struct {
	AnswerID uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Items    []ClozeAnswerItem `gorm:"foreignKey:AnswerID;references:AnswerID;constraint:OnDelete:CASCADE"`
}

func (ClozeAnswer) TableName() string { return "answer_cloze" }

type ClozeAnswerItem struct {
	AnswerID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	BlankID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProvidedValue string    `gorm:"type:text;not null"`
	IsCorrect     *bool
}

func (ClozeAnswerItem) TableName() string { return "answer_cloze_items" }
