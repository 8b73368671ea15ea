package generation

import (
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSystemPrompt(t *testing.T) {
	t.Run("single type from description", func(t *testing.T) {
		spec := models.GenerationSpec{
			TaskTypes:   []models.TaskType{models.TaskTypeCloze},
			Description: "Planets",
		}
		prompt := SystemPrompt(spec, 4)

		assert.Contains(t, prompt, "cloze texts that test key terms")
		assert.Contains(t, prompt, "Write one cloze task per concept")
		assert.Contains(t, prompt, "Recall what you know")
		assert.Contains(t, prompt, "EXACTLY 4 tasks")
		assert.NotContains(t, prompt, "### MULTIPLE CHOICE ###")
	})

	t.Run("mixed types from document", func(t *testing.T) {
		spec := models.GenerationSpec{
			TaskTypes:  []models.TaskType{models.TaskTypeMultipleChoice, models.TaskTypeFreeText},
			SourceText: "Lecture notes",
		}
		prompt := SystemPrompt(spec, 10)

		assert.Contains(t, prompt, "varied learning tasks")
		assert.Contains(t, prompt, "Base ALL questions only on the document content")
		assert.Contains(t, prompt, "Distribute evenly across: multiple_choice, free_text")
		assert.Contains(t, prompt, "### MULTIPLE CHOICE ###")
		assert.Contains(t, prompt, "### FREE TEXT ###")
	})
}

func TestUserMessages(t *testing.T) {
	msgs := UserMessages(models.GenerationSpec{})
	assert.Equal(t, []string{"Topic/description: General knowledge\n"}, msgs)

	msgs = UserMessages(models.GenerationSpec{Description: "Rivers", SourceText: "Danube"})
	assert.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "DOCUMENT_START\nDanube\nDOCUMENT_END")
	assert.Equal(t, "Topic/description: Rivers\n", msgs[1])
}

func TestCorrectionPrompt(t *testing.T) {
	prompt := CorrectionPrompt("tasks[0].options: at least one option must be correct", []models.TaskType{models.TaskTypeMultipleChoice})

	assert.Contains(t, prompt, "ERRORS:\ntasks[0].options")
	assert.Contains(t, prompt, `"type": "multiple_choice"`)
	assert.NotContains(t, prompt, `"type": "cloze"`)
	assert.Contains(t, prompt, "Answer ONLY with the corrected JSON.")
}
