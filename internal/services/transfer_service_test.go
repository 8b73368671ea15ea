package services

import (
	"bytes"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func (f *fixture) transferService() TransferService {
	return NewTransferService(f.repo, f.tasks, f.validator, f.logger)
}

func workbook(t *testing.T, sheets map[string][][]interface{}) []byte {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()
	for name, rows := range sheets {
		_, err := file.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, file.SetSheetRow(name, cell, &row))
		}
	}
	buf, err := file.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExportQuizWritesOneSheetPerEntity(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, _ := f.seedQuiz(t, owner, mcInput("Capital of France?"), freeTextInput("Why Paris?"), clozeInput("Fill in"))

	export, err := f.transferService().ExportQuiz(f.ctx, quiz.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "capitals.xlsx", export.FileName)

	file, err := excelize.OpenReader(bytes.NewReader(export.Content))
	require.NoError(t, err)
	defer file.Close()

	tasks, err := file.GetRows("Tasks")
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	assert.Equal(t, []string{"order", "type", "prompt", "topic_detail", "reference_answer", "template_text"}, tasks[0])
	assert.Equal(t, "multiple_choice", tasks[1][1])
	assert.Equal(t, "Because of the river trade", tasks[2][4])

	options, err := file.GetRows("Options")
	require.NoError(t, err)
	require.Len(t, options, 3)
	assert.Equal(t, []string{"1", "Paris", "TRUE"}, options[1][:3])

	blanks, err := file.GetRows("Blanks")
	require.NoError(t, err)
	require.Len(t, blanks, 3)
	assert.Equal(t, []string{"3", "1", "Rome|Roma"}, blanks[2])

	_, err = f.transferService().ExportQuiz(f.ctx, quiz.ID, uuid.New())
	assert.True(t, IsAccessDenied(err))
}

func TestImportTasksAppendsExportedTasksToDraft(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	source, _, _ := f.seedQuiz(t, owner, mcInput("Capital of France?"), freeTextInput("Why Paris?"), clozeInput("Fill in"))
	target, _, _ := f.seedQuiz(t, owner, mcInput("Existing"))
	svc := f.transferService()

	export, err := svc.ExportQuiz(f.ctx, source.ID, owner)
	require.NoError(t, err)
	draft := startDraft(t, f, target.ID, owner)

	result, err := svc.ImportTasks(f.ctx, target.ID, owner, &draft.EditSessionID, export.Content)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	require.Len(t, result.Tasks, 3)
	for i, view := range result.Tasks {
		assert.Equal(t, i+1, view.OrderIndex)
		assert.Equal(t, draft.Quiz.Tasks[0].QuizVersionID, view.QuizVersionID)
	}
	require.Len(t, result.Tasks[0].Options, 2)
	assert.True(t, result.Tasks[0].Options[0].IsCorrect)
	require.NotNil(t, result.Tasks[0].Options[1].Explanation)
	assert.Equal(t, "Second city", *result.Tasks[0].Options[1].Explanation)
	require.Len(t, result.Tasks[2].Blanks, 2)
	assert.Equal(t, "Rome|Roma", result.Tasks[2].Blanks[1].ExpectedValue)

	committed, err := f.editSessions().CommitEdit(f.ctx, target.ID, owner, draft.EditSessionID)
	require.NoError(t, err)
	current, err := f.repo.Task().ListByVersion(f.ctx, committed.CurrentVersionID)
	require.NoError(t, err)
	assert.Len(t, current, 4)
}

func TestImportTasksRejectsInvalidRows(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, _ := f.seedQuiz(t, owner, mcInput("Existing"))
	draft := startDraft(t, f, quiz.ID, owner)
	svc := f.transferService()

	content := workbook(t, map[string][][]interface{}{
		"Tasks": {
			{"order", "type", "prompt", "topic_detail", "reference_answer", "template_text"},
			{1, "multiple_choice", "Only one option", "", "", ""},
			{2, "free_text", "", "", "", ""},
		},
		"Options": {
			{"task_order", "text", "is_correct", "explanation"},
			{1, "A", "yes", ""},
			{9, "B", "no", ""},
		},
	})
	_, err := svc.ImportTasks(f.ctx, quiz.ID, owner, &draft.EditSessionID, content)
	require.Error(t, err)
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "Options[3].task_order", errs[0].Field)

	content = workbook(t, map[string][][]interface{}{
		"Tasks": {
			{"order", "type", "prompt", "topic_detail", "reference_answer", "template_text"},
			{1, "multiple_choice", "Only one option", "", "", ""},
			{2, "free_text", "", "", "", ""},
		},
		"Options": {
			{"task_order", "text", "is_correct", "explanation"},
			{1, "A", "yes", ""},
		},
	})
	_, err = svc.ImportTasks(f.ctx, quiz.ID, owner, &draft.EditSessionID, content)
	require.ErrorAs(t, err, &errs)
	assert.GreaterOrEqual(t, len(errs), 3)

	draftTasks, err := f.repo.Task().ListByVersion(f.ctx, draft.Quiz.Tasks[0].QuizVersionID)
	require.NoError(t, err)
	assert.Len(t, draftTasks, 1)

	_, err = svc.ImportTasks(f.ctx, quiz.ID, owner, &draft.EditSessionID, []byte("not a workbook"))
	assert.True(t, IsValidation(err))
	_, err = svc.ImportTasks(f.ctx, quiz.ID, owner, nil, content)
	assert.ErrorIs(t, err, ErrEditSessionRequired)
}

func TestImportTasksRequiresMatchingSession(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, _ := f.seedQuiz(t, owner, mcInput("Existing"))
	other, _, _ := f.seedQuiz(t, owner, mcInput("Other"))
	draft := startDraft(t, f, other.ID, owner)

	content := workbook(t, map[string][][]interface{}{
		"Tasks": {
			{"order", "type", "prompt", "topic_detail", "reference_answer", "template_text"},
			{1, "free_text", "Why?", "", "Because", ""},
		},
	})
	_, err := f.transferService().ImportTasks(f.ctx, quiz.ID, owner, &draft.EditSessionID, content)
	assert.ErrorIs(t, err, ErrEditSessionNotFound)

	result, err := f.transferService().ImportTasks(f.ctx, other.ID, owner, &draft.EditSessionID, content)
	require.NoError(t, err)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, models.TaskTypeFreeText, result.Tasks[0].Type)
}
