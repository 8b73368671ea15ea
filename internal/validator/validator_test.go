package validator

import (
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTaskInput(t *testing.T) {
	v := New()

	tests := []struct {
		name        string
		input       models.TaskInput
		expectError bool
		field       string
	}{
		{
			name: "valid multiple choice",
			input: models.TaskInput{Type: models.TaskTypeMultipleChoice, Prompt: "Pick", Options: []models.OptionInput{
				{Text: "a", IsCorrect: true}, {Text: "b"},
			}},
		},
		{
			name:        "multiple choice without correct option",
			input:       models.TaskInput{Type: models.TaskTypeMultipleChoice, Prompt: "Pick", Options: []models.OptionInput{{Text: "a"}, {Text: "b"}}},
			expectError: true,
			field:       "options",
		},
		{
			name:        "free text without reference",
			input:       models.TaskInput{Type: models.TaskTypeFreeText, Prompt: "Explain"},
			expectError: true,
			field:       "reference_answer",
		},
		{
			name:  "cloze without blanks",
			input: models.TaskInput{Type: models.TaskTypeCloze, Prompt: "Fill", TemplateText: "nothing to fill"},
		},
		{
			name: "cloze with duplicate positions",
			input: models.TaskInput{Type: models.TaskTypeCloze, Prompt: "Fill", TemplateText: "{{blank_1}}", Blanks: []models.BlankInput{
				{Position: 1, ExpectedValue: "a"}, {Position: 1, ExpectedValue: "b"},
			}},
			expectError: true,
			field:       "blanks",
		},
		{
			name:        "unknown type",
			input:       models.TaskInput{Type: "essay", Prompt: "Write"},
			expectError: true,
			field:       "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.input)
			if !tt.expectError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateTaskUpdateOnlyChecksReplacedCollections(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&models.TaskUpdate{Type: models.TaskTypeMultipleChoice}))

	err := v.Validate(&models.TaskUpdate{Type: models.TaskTypeMultipleChoice, Options: []models.OptionUpdate{{Text: "only"}}})
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
}

func TestCustomTags(t *testing.T) {
	v := New()

	type payload struct {
		Role  models.OwnershipRole `json:"role" validate:"required,ownership_role"`
		State models.QuizState     `json:"state" validate:"required,quiz_state"`
	}

	assert.NoError(t, v.ValidateStruct(payload{Role: models.RoleEditor, State: models.QuizStatePublic}))

	err := v.ValidateStruct(payload{Role: "admin", State: "hidden"})
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "role", errs[0].Field)
	assert.Equal(t, "ownership_role", errs[0].Rule)
	assert.Equal(t, "quiz_state", errs[1].Rule)
}
