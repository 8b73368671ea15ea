package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// TaskValidator checks task content that struct tags cannot express.
type TaskValidator struct{}

func NewTaskValidator() *TaskValidator {
	return &TaskValidator{}
}

// ValidateInput checks a creation payload against the rules of its type.
func (v *TaskValidator) ValidateInput(input models.TaskInput) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(input.Prompt) == "" {
		errs = append(errs, *errors.NewValidationError("prompt", "is required", input.Prompt))
	}

	switch input.Type {
	case models.TaskTypeMultipleChoice:
		errs = append(errs, v.validateOptions(len(input.Options), countCorrect(input.Options))...)
	case models.TaskTypeFreeText:
		if strings.TrimSpace(input.ReferenceAnswer) == "" {
			errs = append(errs, *errors.NewValidationError("reference_answer", "is required for free text tasks", nil))
		}
	case models.TaskTypeCloze:
		errs = append(errs, v.validateCloze(input.TemplateText, blankPositions(input.Blanks))...)
	default:
		errs = append(errs, *errors.NewValidationErrorWithRule("type", "must be a valid task type (multiple_choice, free_text, cloze)", "task_type", input.Type))
	}
	return errs
}

// ValidateUpdate checks only the collections an update replaces.
func (v *TaskValidator) ValidateUpdate(update models.TaskUpdate) ValidationErrors {
	var errs ValidationErrors
	if update.Prompt != nil && strings.TrimSpace(*update.Prompt) == "" {
		errs = append(errs, *errors.NewValidationError("prompt", "must not be empty", *update.Prompt))
	}

	switch update.Type {
	case models.TaskTypeMultipleChoice:
		if update.Options != nil {
			correct := 0
			for _, o := range update.Options {
				if o.IsCorrect {
					correct++
				}
			}
			errs = append(errs, v.validateOptions(len(update.Options), correct)...)
		}
	case models.TaskTypeFreeText:
		if update.ReferenceAnswer != nil && strings.TrimSpace(*update.ReferenceAnswer) == "" {
			errs = append(errs, *errors.NewValidationError("reference_answer", "must not be empty", nil))
		}
	case models.TaskTypeCloze:
		if update.TemplateText != nil && strings.TrimSpace(*update.TemplateText) == "" {
			errs = append(errs, *errors.NewValidationError("template_text", "must not be empty", nil))
		}
		if update.Blanks != nil {
			positions := make([]int, 0, len(update.Blanks))
			for _, b := range update.Blanks {
				positions = append(positions, b.Position)
			}
			errs = append(errs, v.validatePositions(positions)...)
		}
	}
	return errs
}

func (v *TaskValidator) validateOptions(total, correct int) ValidationErrors {
	var errs ValidationErrors
	if total < 2 {
		errs = append(errs, *errors.NewValidationError("options", "multiple choice tasks need at least 2 options", total))
	}
	if correct < 1 {
		errs = append(errs, *errors.NewValidationError("options", "at least one option must be correct", correct))
	}
	return errs
}

func (v *TaskValidator) validateCloze(template string, positions []int) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(template) == "" {
		errs = append(errs, *errors.NewValidationError("template_text", "is required for cloze tasks", nil))
	}
	return append(errs, v.validatePositions(positions)...)
}

func (v *TaskValidator) validatePositions(positions []int) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		if seen[p] {
			errs = append(errs, *errors.NewValidationError("blanks", fmt.Sprintf("duplicate blank position %d", p), p))
		}
		seen[p] = true
	}
	return errs
}

func countCorrect(options []models.OptionInput) int {
	n := 0
	for _, o := range options {
		if o.IsCorrect {
			n++
		}
	}
	return n
}

func blankPositions(blanks []models.BlankInput) []int {
	positions := make([]int, 0, len(blanks))
	for _, b := range blanks {
		positions = append(positions, b.Position)
	}
	return positions
}
