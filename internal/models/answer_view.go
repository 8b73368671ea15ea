package models

import (
	"time"

	"github.com/google/uuid"
)

type ClozeValue struct {
	BlankID uuid.UUID `json:"blank_id" validate:"required"`
	Value   string    `json:"value"`
}

// AnswerData carries the type-specific part of an answer; only the fields
// of the declared type are meaningful.
type AnswerData struct {
	SelectedOptionIDs []uuid.UUID  `json:"selected_option_ids,omitempty"`
	TextResponse      *string      `json:"text_response,omitempty"`
	ProvidedValues    []ClozeValue `json:"provided_values,omitempty" validate:"omitempty,dive"`
}

type AnswerPayload struct {
	Type TaskType   `json:"type" validate:"required,task_type"`
	Data AnswerData `json:"data"`
}

type AnswerView struct {
	TaskID            uuid.UUID  `json:"task_id"`
	Type              TaskType   `json:"type"`
	PercentageCorrect *float64   `json:"percentage_correct"`
	Data              AnswerData `json:"data"`
}

type AnswerSaved struct {
	AnswerID uuid.UUID `json:"answer_id"`
	TaskID   uuid.UUID `json:"task_id"`
	SavedAt  time.Time `json:"saved_at"`
}
