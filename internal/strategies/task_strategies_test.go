package strategies

import (
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func buildTask(t *testing.T, input models.TaskInput, orderIndex int) *models.Task {
	t.Helper()
	s, err := DefaultTaskRegistry().Get(input.Type)
	require.NoError(t, err)
	task, err := s.Build(uuid.New(), uuid.New(), input, orderIndex)
	require.NoError(t, err)
	return task
}

func mcInput(options ...models.OptionInput) models.TaskInput {
	return models.TaskInput{Type: models.TaskTypeMultipleChoice, Prompt: "Pick", Options: options}
}

func TestMultipleChoiceBuildAndView(t *testing.T) {
	task := buildTask(t, mcInput(
		models.OptionInput{Text: "A", IsCorrect: true},
		models.OptionInput{Text: "B", Explanation: strPtr("nope")},
	), 2)

	assert.Equal(t, 2, task.OrderIndex)
	require.NotNil(t, task.MultipleChoice)
	require.Len(t, task.MultipleChoice.Options, 2)
	assert.Equal(t, task.ID, task.MultipleChoice.Options[0].TaskID)

	view, err := MultipleChoiceTaskStrategy{}.ToView(task)
	require.NoError(t, err)
	assert.Equal(t, task.ID, view.TaskID)
	require.Len(t, view.Options, 2)
	assert.Equal(t, "A", view.Options[0].Text)
	assert.True(t, view.Options[0].IsCorrect)
	assert.Equal(t, "nope", *view.Options[1].Explanation)
}

func TestBuildRejectsMismatchedType(t *testing.T) {
	_, err := ClozeTaskStrategy{}.Build(uuid.New(), uuid.New(), mcInput(), 0)

	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, models.TaskTypeCloze, mismatch.Expected)
}

func TestMultipleChoiceReplaceAllUpdate(t *testing.T) {
	task := buildTask(t, mcInput(
		models.OptionInput{Text: "A"},
		models.OptionInput{Text: "B"},
		models.OptionInput{Text: "C", IsCorrect: true},
	), 0)
	original := map[uuid.UUID]bool{}
	for _, o := range task.MultipleChoice.Options {
		original[o.ID] = true
	}

	err := MultipleChoiceTaskStrategy{}.ApplyUpdate(task, models.TaskUpdate{
		Type: models.TaskTypeMultipleChoice,
		Options: []models.OptionUpdate{
			{Text: "X", IsCorrect: true},
			{OptionID: &task.MultipleChoice.Options[0].ID, Text: "Y"},
		},
	})
	require.NoError(t, err)

	require.Len(t, task.MultipleChoice.Options, 2)
	for _, o := range task.MultipleChoice.Options {
		assert.False(t, original[o.ID], "option id must be fresh")
	}
	assert.Equal(t, "X", task.MultipleChoice.Options[0].Text)
}

func TestUpdateWithoutCollectionKeepsIt(t *testing.T) {
	task := buildTask(t, mcInput(models.OptionInput{Text: "A", IsCorrect: true}), 0)
	before := task.MultipleChoice.Options[0].ID

	err := MultipleChoiceTaskStrategy{}.ApplyUpdate(task, models.TaskUpdate{
		Type:   models.TaskTypeMultipleChoice,
		Prompt: strPtr("Changed"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Changed", task.Prompt)
	require.Len(t, task.MultipleChoice.Options, 1)
	assert.Equal(t, before, task.MultipleChoice.Options[0].ID)
}

func TestClozeReplaceBlanks(t *testing.T) {
	task := buildTask(t, models.TaskInput{
		Type:         models.TaskTypeCloze,
		Prompt:       "Fill",
		TemplateText: "{{blank_1}} is in {{blank_2}}",
		Blanks:       []models.BlankInput{{Position: 1, ExpectedValue: "Paris"}, {Position: 2, ExpectedValue: "France"}},
	}, 0)

	err := ClozeTaskStrategy{}.ApplyUpdate(task, models.TaskUpdate{
		Type:   models.TaskTypeCloze,
		Blanks: []models.BlankUpdate{},
	})
	require.NoError(t, err)
	assert.Empty(t, task.Cloze.Blanks)
	assert.Equal(t, "{{blank_1}} is in {{blank_2}}", task.Cloze.TemplateText)
}

func TestCloneProducesFreshIdentities(t *testing.T) {
	registry := DefaultTaskRegistry()
	sources := []*models.Task{
		buildTask(t, mcInput(models.OptionInput{Text: "A", IsCorrect: true}, models.OptionInput{Text: "B"}), 0),
		buildTask(t, models.TaskInput{Type: models.TaskTypeFreeText, Prompt: "Why?", ReferenceAnswer: "Because"}, 1),
		buildTask(t, models.TaskInput{
			Type:         models.TaskTypeCloze,
			Prompt:       "Year",
			TemplateText: "{{blank_1}}",
			Blanks:       []models.BlankInput{{Position: 1, ExpectedValue: `\d{4}`}},
		}, 2),
	}
	target := uuid.New()

	for _, src := range sources {
		s, err := registry.Get(src.Type)
		require.NoError(t, err)
		clone, err := s.Clone(src, target)
		require.NoError(t, err)

		assert.NotEqual(t, src.ID, clone.ID)
		assert.Equal(t, target, clone.QuizVersionID)
		assert.Equal(t, src.QuizID, clone.QuizID)
		assert.Equal(t, src.OrderIndex, clone.OrderIndex)
		assert.Equal(t, src.Prompt, clone.Prompt)

		srcView, err := s.ToView(src)
		require.NoError(t, err)
		cloneView, err := s.ToView(clone)
		require.NoError(t, err)

		require.Len(t, cloneView.Options, len(srcView.Options))
		for i := range srcView.Options {
			assert.NotEqual(t, srcView.Options[i].OptionID, cloneView.Options[i].OptionID)
			assert.Equal(t, srcView.Options[i].Text, cloneView.Options[i].Text)
			assert.Equal(t, srcView.Options[i].IsCorrect, cloneView.Options[i].IsCorrect)
		}
		require.Len(t, cloneView.Blanks, len(srcView.Blanks))
		for i := range srcView.Blanks {
			assert.NotEqual(t, srcView.Blanks[i].BlankID, cloneView.Blanks[i].BlankID)
			assert.Equal(t, srcView.Blanks[i].ExpectedValue, cloneView.Blanks[i].ExpectedValue)
		}
		assert.Equal(t, srcView.ReferenceAnswer, cloneView.ReferenceAnswer)
		assert.Equal(t, srcView.TemplateText, cloneView.TemplateText)
	}
}
