package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskType string

const (
	TaskTypeMultipleChoice TaskType = "multiple_choice"
	TaskTypeFreeText       TaskType = "free_text"
	TaskTypeCloze          TaskType = "cloze"
)

func AllTaskTypes() []TaskType {
	return []TaskType{TaskTypeMultipleChoice, TaskTypeFreeText, TaskTypeCloze}
}

func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeMultipleChoice, TaskTypeFreeText, TaskTypeCloze:
		return true
	}
	return false
}

// Task is the base row of a tagged union: Type selects which one of
// MultipleChoice, FreeText or Cloze is populated.
type Task struct {
	ID            uuid.UUID `json:"task_id" gorm:"type:uuid;primaryKey"`
	QuizID        uuid.UUID `json:"quiz_id" gorm:"type:uuid;not null;index"`
	QuizVersionID uuid.UUID `json:"quiz_version_id" gorm:"type:uuid;not null;uniqueIndex:uq_task_version_order,priority:1"`
	Type          TaskType  `json:"type" gorm:"size:20;not null"`
	Prompt        string    `json:"prompt" gorm:"type:text;not null"`
	TopicDetail   string    `json:"topic_detail" gorm:"type:text"`
	OrderIndex    int       `json:"order_index" gorm:"not null;uniqueIndex:uq_task_version_order,priority:2"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	MultipleChoice *MultipleChoiceTask `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	FreeText       *FreeTextTask       `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Cloze          *ClozeTask          `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

func (Task) TableName() string { return "tasks" }

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	AssignID(&t.ID)
	return nil
}

type MultipleChoiceTask struct {
	TaskID  uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Options []TaskOption `gorm:"foreignKey:TaskID;references:TaskID;constraint:OnDelete:CASCADE"`
}

func (MultipleChoiceTask) TableName() string { return "task_multiple_choice" }

type TaskOption struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Position    int       `gorm:"not null"`
	Text        string    `gorm:"type:text;not null"`
	IsCorrect   bool      `gorm:"not null"`
	Explanation *string   `gorm:"type:text"`
}

func (TaskOption) TableName() string { return "task_options" }

func (o *TaskOption) BeforeCreate(tx *gorm.DB) error {
	AssignID(&o.ID)
	return nil
}

type FreeTextTask struct {
	TaskID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReferenceAnswer string    `gorm:"type:text;not null"`
}

func (FreeTextTask) TableName() string { return "task_free_text" }

// ClozeTask holds a template with {{blank_N}} placeholders; blanks are
// matched to placeholders by position.
type ClozeTask struct {
	TaskID       uuid.UUID    `gorm:"type:uuid;primaryKey"`
	TemplateText string       `gorm:"type:text;not null"`
	Blanks       []ClozeBlank `gorm:"foreignKey:TaskID;references:TaskID;constraint:OnDelete:CASCADE"`
}

func (ClozeTask) TableName() string { return "task_cloze" }

type ClozeBlank struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TaskID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Position      int       `gorm:"not null"`
	ExpectedValue string    `gorm:"type:text;not null"`
}

func (ClozeBlank) TableName() string { return "task_cloze_blanks" }

func (b *ClozeBlank) BeforeCreate(tx *gorm.DB) error {
	AssignID(&b.ID)
	return nil
}
