package models

import "github.com/google/uuid"

// ===== TASK INPUT (generation, import) =====

type OptionInput struct {
	Text        string  `json:"text" validate:"required"`
	IsCorrect   bool    `json:"is_correct"`
	Explanation *string `json:"explanation,omitempty"`
}

type BlankInput struct {
	Position      int    `json:"position" validate:"min=0"`
	ExpectedValue string `json:"expected_value" validate:"required"`
}

// TaskInput is the creation payload for every task type. Only the fields of
// the declared Type are read.
type TaskInput struct {
	Type            TaskType      `json:"type" validate:"required,task_type"`
	Prompt          string        `json:"prompt" validate:"required"`
	TopicDetail     string        `json:"topic_detail"`
	Options         []OptionInput `json:"options,omitempty" validate:"omitempty,dive"`
	ReferenceAnswer string        `json:"reference_answer,omitempty"`
	TemplateText    string        `json:"template_text,omitempty"`
	Blanks          []BlankInput  `json:"blanks,omitempty" validate:"omitempty,dive"`
}

// ===== TASK UPDATE =====

// OptionUpdate may carry the id of the option it replaces; it is ignored
// because nested collections are always recreated.
type OptionUpdate struct {
	OptionID    *uuid.UUID `json:"option_id,omitempty"`
	Text        string     `json:"text" validate:"required"`
	IsCorrect   bool       `json:"is_correct"`
	Explanation *string    `json:"explanation,omitempty"`
}

type BlankUpdate struct {
	BlankID       *uuid.UUID `json:"blank_id,omitempty"`
	Position      int        `json:"position" validate:"min=0"`
	ExpectedValue string     `json:"expected_value" validate:"required"`
}

// TaskUpdate is a partial update. Nil fields are left alone; a non-nil
// Options or Blanks slice (even empty) replaces the whole collection.
type TaskUpdate struct {
	Type            TaskType       `json:"type" validate:"required,task_type"`
	Prompt          *string        `json:"prompt,omitempty" validate:"omitempty,min=1"`
	TopicDetail     *string        `json:"topic_detail,omitempty"`
	Options         []OptionUpdate `json:"options,omitempty" validate:"omitempty,dive"`
	ReferenceAnswer *string        `json:"reference_answer,omitempty"`
	TemplateText    *string        `json:"template_text,omitempty"`
	Blanks          []BlankUpdate  `json:"blanks,omitempty" validate:"omitempty,dive"`
}

// ===== TASK VIEW =====

type OptionView struct {
	OptionID    uuid.UUID `json:"option_id"`
	Text        string    `json:"text"`
	IsCorrect   bool      `json:"is_correct"`
	Explanation *string   `json:"explanation,omitempty"`
}

type BlankView struct {
	BlankID       uuid.UUID `json:"blank_id"`
	Position      int       `json:"position"`
	ExpectedValue string    `json:"expected_value"`
}

type TaskView struct {
	TaskID          uuid.UUID    `json:"task_id"`
	QuizID          uuid.UUID    `json:"quiz_id"`
	QuizVersionID   uuid.UUID    `json:"quiz_version_id"`
	Type            TaskType     `json:"type"`
	Prompt          string       `json:"prompt"`
	TopicDetail     string       `json:"topic_detail"`
	OrderIndex      int          `json:"order_index"`
	Options         []OptionView `json:"options,omitempty"`
	ReferenceAnswer *string      `json:"reference_answer,omitempty"`
	TemplateText    *string      `json:"template_text,omitempty"`
	Blanks          []BlankView  `json:"blanks,omitempty"`
}
