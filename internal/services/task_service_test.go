package services

import (
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDraft(t *testing.T, f *fixture, quizID, userID uuid.UUID) *EditSessionStartResponse {
	t.Helper()
	resp, err := f.editSessions().StartEdit(f.ctx, quizID, userID)
	require.NoError(t, err)
	return resp
}

func TestUpdateTaskReplacesNestedCollections(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, version, _ := f.seedQuiz(t, owner, mcInput("Capital of France?"))
	draft := startDraft(t, f, quiz.ID, owner)
	draftTask := draft.Quiz.Tasks[0]

	update := &models.TaskUpdate{
		Type:   models.TaskTypeMultipleChoice,
		Prompt: strPtr("Largest French city?"),
		Options: []models.OptionUpdate{
			{OptionID: &draftTask.Options[0].OptionID, Text: "Paris", IsCorrect: true},
			{Text: "Marseille"},
			{Text: "Toulouse"},
		},
	}
	view, err := f.taskService().UpdateTask(f.ctx, draftTask.TaskID, owner, &draft.EditSessionID, update)
	require.NoError(t, err)

	assert.Equal(t, "Largest French city?", view.Prompt)
	require.Len(t, view.Options, 3)
	assert.NotEqual(t, draftTask.Options[0].OptionID, view.Options[0].OptionID)
	assert.Equal(t, "Marseille", view.Options[1].Text)
	assert.Equal(t, draftTask.TopicDetail, view.TopicDetail)

	published, err := f.repo.Task().ListByVersion(f.ctx, version.ID)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "Capital of France?", published[0].Prompt)
	assert.Len(t, published[0].MultipleChoice.Options, 2)
}

func TestUpdateTaskRejectsTypeMismatch(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, _ := f.seedQuiz(t, owner, mcInput("Q1"))
	draft := startDraft(t, f, quiz.ID, owner)

	update := &models.TaskUpdate{Type: models.TaskTypeFreeText, ReferenceAnswer: strPtr("anything")}
	_, err := f.taskService().UpdateTask(f.ctx, draft.Quiz.Tasks[0].TaskID, owner, &draft.EditSessionID, update)

	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, models.TaskTypeMultipleChoice, mismatch.Expected)
	assert.Equal(t, models.TaskTypeFreeText, mismatch.Actual)
	assert.True(t, IsInvalidInput(err))
}

func TestUpdateTaskRejectsInvalidOptions(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, _ := f.seedQuiz(t, owner, mcInput("Q1"))
	draft := startDraft(t, f, quiz.ID, owner)

	update := &models.TaskUpdate{
		Type:    models.TaskTypeMultipleChoice,
		Options: []models.OptionUpdate{{Text: "Only", IsCorrect: false}},
	}
	_, err := f.taskService().UpdateTask(f.ctx, draft.Quiz.Tasks[0].TaskID, owner, &draft.EditSessionID, update)
	assert.True(t, IsValidation(err))
}

func TestUpdateTaskRequiresDraftOfActiveSession(t *testing.T) {
	f := newFixture(t)
	owner, editor := uuid.New(), uuid.New()
	quiz, _, tasks := f.seedQuiz(t, owner, mcInput("Q1"))
	f.grant(t, quiz.ID, editor, models.RoleEditor)
	draft := startDraft(t, f, quiz.ID, owner)
	svc := f.taskService()
	update := &models.TaskUpdate{Type: models.TaskTypeMultipleChoice, Prompt: strPtr("New")}

	_, err := svc.UpdateTask(f.ctx, draft.Quiz.Tasks[0].TaskID, owner, nil, update)
	assert.ErrorIs(t, err, ErrEditSessionRequired)

	unknown := uuid.New()
	_, err = svc.UpdateTask(f.ctx, draft.Quiz.Tasks[0].TaskID, owner, &unknown, update)
	assert.ErrorIs(t, err, ErrEditSessionNotFound)

	_, err = svc.UpdateTask(f.ctx, draft.Quiz.Tasks[0].TaskID, editor, &draft.EditSessionID, update)
	assert.ErrorIs(t, err, ErrEditSessionNotOwned)

	_, err = svc.UpdateTask(f.ctx, tasks[0].ID, owner, &draft.EditSessionID, update)
	assert.ErrorIs(t, err, ErrTaskNotInSession)
	assert.True(t, IsConflict(err))

	_, err = svc.UpdateTask(f.ctx, uuid.New(), owner, &draft.EditSessionID, update)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.editSessions().CommitEdit(f.ctx, quiz.ID, owner, draft.EditSessionID)
	require.NoError(t, err)
	_, err = svc.UpdateTask(f.ctx, draft.Quiz.Tasks[0].TaskID, owner, &draft.EditSessionID, update)
	assert.ErrorIs(t, err, ErrEditSessionNotActive)
}

func TestDeleteTaskRemovesDraftTaskOnly(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, version, _ := f.seedQuiz(t, owner, mcInput("Q1"), freeTextInput("Q2"))
	draft := startDraft(t, f, quiz.ID, owner)

	require.NoError(t, f.taskService().DeleteTask(f.ctx, draft.Quiz.Tasks[1].TaskID, owner, &draft.EditSessionID))

	draftTasks, err := f.repo.Task().ListByVersion(f.ctx, draft.Quiz.Tasks[0].QuizVersionID)
	require.NoError(t, err)
	assert.Len(t, draftTasks, 1)
	published, err := f.repo.Task().ListByVersion(f.ctx, version.ID)
	require.NoError(t, err)
	assert.Len(t, published, 2)

	err = f.taskService().DeleteTask(f.ctx, draft.Quiz.Tasks[1].TaskID, owner, &draft.EditSessionID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetTasksBatchChecksEveryQuiz(t *testing.T) {
	f := newFixture(t)
	owner, reader := uuid.New(), uuid.New()
	shared, _, sharedTasks := f.seedQuiz(t, owner, mcInput("Q1"), clozeInput("Q2"))
	f.grant(t, shared.ID, reader, models.RoleViewer)
	_, _, privateTasks := f.seedQuiz(t, owner, freeTextInput("Q3"))
	svc := f.taskService()

	views, err := svc.GetTasksBatch(f.ctx, []uuid.UUID{sharedTasks[0].ID, sharedTasks[1].ID, uuid.New()}, reader)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	_, err = svc.GetTasksBatch(f.ctx, []uuid.UUID{sharedTasks[0].ID, privateTasks[0].ID}, reader)
	assert.True(t, IsAccessDenied(err))
}
