package strategies

import (
	"fmt"
	"sort"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
)

// TaskStrategy bundles the per-type task behavior. Implementations are
// stateless.
type TaskStrategy interface {
	Type() models.TaskType
	// Build creates a new task with fresh identities for the task and its
	// nested rows.
	Build(quizID, versionID uuid.UUID, input models.TaskInput, orderIndex int) (*models.Task, error)
	ToView(task *models.Task) (models.TaskView, error)
	// ApplyUpdate mutates task in place. A non-nil nested slice replaces the
	// whole collection; nil keeps it.
	ApplyUpdate(task *models.Task, update models.TaskUpdate) error
	// Clone deep-copies task into targetVersionID with fresh identities,
	// keeping content and order index.
	Clone(task *models.Task, targetVersionID uuid.UUID) (*models.Task, error)
}

func checkType(expected, actual models.TaskType) error {
	if NormalizeType(string(actual)) != expected {
		return &TypeMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// TypeMismatchError reports a payload whose declared type differs from the
// target's type.
type TypeMismatchError struct {
	Expected models.TaskType
	Actual   models.TaskType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func newTaskBase(quizID, versionID uuid.UUID, t models.TaskType, input models.TaskInput, orderIndex int) *models.Task {
	return &models.Task{
		ID:            uuid.New(),
		QuizID:        quizID,
		QuizVersionID: versionID,
		Type:          t,
		Prompt:        input.Prompt,
		TopicDetail:   input.TopicDetail,
		OrderIndex:    orderIndex,
	}
}

func cloneBase(task *models.Task, targetVersionID uuid.UUID) *models.Task {
	return &models.Task{
		ID:            uuid.New(),
		QuizID:        task.QuizID,
		QuizVersionID: targetVersionID,
		Type:          task.Type,
		Prompt:        task.Prompt,
		TopicDetail:   task.TopicDetail,
		OrderIndex:    task.OrderIndex,
	}
}

func baseView(task *models.Task) models.TaskView {
	return models.TaskView{
		TaskID:        task.ID,
		QuizID:        task.QuizID,
		QuizVersionID: task.QuizVersionID,
		Type:          task.Type,
		Prompt:        task.Prompt,
		TopicDetail:   task.TopicDetail,
		OrderIndex:    task.OrderIndex,
	}
}

func applyBaseUpdate(task *models.Task, update models.TaskUpdate) {
	if update.Prompt != nil {
		task.Prompt = *update.Prompt
	}
	if update.TopicDetail != nil {
		task.TopicDetail = *update.TopicDetail
	}
}

// ===== MULTIPLE CHOICE =====

type MultipleChoiceTaskStrategy struct{}

func (MultipleChoiceTaskStrategy) Type() models.TaskType { return models.TaskTypeMultipleChoice }

func (s MultipleChoiceTaskStrategy) Build(quizID, versionID uuid.UUID, input models.TaskInput, orderIndex int) (*models.Task, error) {
	if err := checkType(s.Type(), input.Type); err != nil {
		return nil, err
	}
	task := newTaskBase(quizID, versionID, s.Type(), input, orderIndex)
	options := make([]models.TaskOption, 0, len(input.Options))
	for i, o := range input.Options {
		options = append(options, models.TaskOption{
			ID:          uuid.New(),
			TaskID:      task.ID,
			Position:    i,
			Text:        o.Text,
			IsCorrect:   o.IsCorrect,
			Explanation: copyString(o.Explanation),
		})
	}
	task.MultipleChoice = &models.MultipleChoiceTask{TaskID: task.ID, Options: options}
	return task, nil
}

func (s MultipleChoiceTaskStrategy) ToView(task *models.Task) (models.TaskView, error) {
	if err := checkType(s.Type(), task.Type); err != nil {
		return models.TaskView{}, err
	}
	view := baseView(task)
	view.Options = []models.OptionView{}
	if task.MultipleChoice == nil {
		return view, nil
	}
	options := append([]models.TaskOption(nil), task.MultipleChoice.Options...)
	sort.SliceStable(options, func(i, j int) bool { return options[i].Position < options[j].Position })
	for _, o := range options {
		view.Options = append(view.Options, models.OptionView{
			OptionID:    o.ID,
			Text:        o.Text,
			IsCorrect:   o.IsCorrect,
			Explanation: copyString(o.Explanation),
		})
	}
	return view, nil
}

func (s MultipleChoiceTaskStrategy) ApplyUpdate(task *models.Task, update models.TaskUpdate) error {
	if err := checkType(s.Type(), task.Type); err != nil {
		return err
	}
	if err := checkType(s.Type(), update.Type); err != nil {
		return err
	}
	applyBaseUpdate(task, update)
	if update.Options == nil {
		return nil
	}
	options := make([]models.TaskOption, 0, len(update.Options))
	for i, o := range update.Options {
		options = append(options, models.TaskOption{
			ID:          uuid.New(),
			TaskID:      task.ID,
			Position:    i,
			Text:        o.Text,
			IsCorrect:   o.IsCorrect,
			Explanation: copyString(o.Explanation),
		})
	}
	task.MultipleChoice = &models.MultipleChoiceTask{TaskID: task.ID, Options: options}
	return nil
}

func (s MultipleChoiceTaskStrategy) Clone(task *models.Task, targetVersionID uuid.UUID) (*models.Task, error) {
	if err := checkType(s.Type(), task.Type); err != nil {
		return nil, err
	}
	clone := cloneBase(task, targetVersionID)
	clone.MultipleChoice = &models.MultipleChoiceTask{TaskID: clone.ID, Options: []models.TaskOption{}}
	if task.MultipleChoice != nil {
		for _, o := range task.MultipleChoice.Options {
			clone.MultipleChoice.Options = append(clone.MultipleChoice.Options, models.TaskOption{
				ID:          uuid.New(),
				TaskID:      clone.ID,
				Position:    o.Position,
				Text:        o.Text,
				IsCorrect:   o.IsCorrect,
				Explanation: copyString(o.Explanation),
			})
		}
	}
	return clone, nil
}

// ===== FREE TEXT =====

type FreeTextTaskStrategy struct{}

func (FreeTextTaskStrategy) Type() models.TaskType { return models.TaskTypeFreeText }

func (s FreeTextTaskStrategy) Build(quizID, versionID uuid.UUID, input models.TaskInput, orderIndex int) (*models.Task, error) {
	if err := checkType(s.Type(), input.Type); err != nil {
		return nil, err
	}
	task := newTaskBase(quizID, versionID, s.Type(), input, orderIndex)
	task.FreeText = &models.FreeTextTask{TaskID: task.ID, ReferenceAnswer: input.ReferenceAnswer}
	return task, nil
}

func (s FreeTextTaskStrategy) ToView(task *models.Task) (models.TaskView, error) {
	if err := checkType(s.Type(), task.Type); err != nil {
		return models.TaskView{}, err
	}
	view := baseView(task)
	reference := ""
	if task.FreeText != nil {
		reference = task.FreeText.ReferenceAnswer
	}
	view.ReferenceAnswer = &reference
	return view, nil
}

func (s FreeTextTaskStrategy) ApplyUpdate(task *models.Task, update models.TaskUpdate) error {
	if err := checkType(s.Type(), task.Type); err != nil {
		return err
	}
	if err := checkType(s.Type(), update.Type); err != nil {
		return err
	}
	applyBaseUpdate(task, update)
	if update.ReferenceAnswer != nil {
		if task.FreeText == nil {
			task.FreeText = &models.FreeTextTask{TaskID: task.ID}
		}
		task.FreeText.ReferenceAnswer = *update.ReferenceAnswer
	}
	return nil
}

func (s FreeTextTaskStrategy) Clone(task *models.Task, targetVersionID uuid.UUID) (*models.Task, error) {
	if err := checkType(s.Type(), task.Type); err != nil {
		return nil, err
	}
	clone := cloneBase(task, targetVersionID)
	clone.FreeText = &models.FreeTextTask{TaskID: clone.ID}
	if task.FreeText != nil {
		clone.FreeText.ReferenceAnswer = task.FreeText.ReferenceAnswer
	}
	return clone, nil
}

// ===== CLOZE =====

type ClozeTaskStrategy struct{}

func (ClozeTaskStrategy) Type() models.TaskType { return models.TaskTypeCloze }

func (s ClozeTaskStrategy) Build(quizID, versionID uuid.UUID, input models.TaskInput, orderIndex int) (*models.Task, error) {
	if err := checkType(s.Type(), input.Type); err != nil {
		return nil, err
	}
	task := newTaskBase(quizID, versionID, s.Type(), input, orderIndex)
	blanks := make([]models.ClozeBlank, 0, len(input.Blanks))
	for _, b := range input.Blanks {
		blanks = append(blanks, models.ClozeBlank{
			ID:            uuid.New(),
			TaskID:        task.ID,
			Position:      b.Position,
			ExpectedValue: b.ExpectedValue,
		})
	}
	task.Cloze = &models.ClozeTask{TaskID: task.ID, TemplateText: input.TemplateText, Blanks: blanks}
	return task, nil
}

func (s ClozeTaskStrategy) ToView(task *models.Task) (models.TaskView, error) {
	if err := checkType(s.Type(), task.Type); err != nil {
		return models.TaskView{}, err
	}
	view := baseView(task)
	template := ""
	view.Blanks = []models.BlankView{}
	if task.Cloze != nil {
		template = task.Cloze.TemplateText
		blanks := append([]models.ClozeBlank(nil), task.Cloze.Blanks...)
		sort.SliceStable(blanks, func(i, j int) bool { return blanks[i].Position < blanks[j].Position })
		for _, b := range blanks {
			view.Blanks = append(view.Blanks, models.BlankView{
				BlankID:       b.ID,
				Position:      b.Position,
				ExpectedValue: b.ExpectedValue,
			})
		}
	}
	view.TemplateText = &template
	return view, nil
}

func (s ClozeTaskStrategy) ApplyUpdate(task *models.Task, update models.TaskUpdate) error {
	if err := checkType(s.Type(), task.Type); err != nil {
		return err
	}
	if err := checkType(s.Type(), update.Type); err != nil {
		return err
	}
	applyBaseUpdate(task, update)
	if task.Cloze == nil {
		task.Cloze = &models.ClozeTask{TaskID: task.ID, Blanks: []models.ClozeBlank{}}
	}
	if update.TemplateText != nil {
		task.Cloze.TemplateText = *update.TemplateText
	}
	if update.Blanks != nil {
		blanks := make([]models.ClozeBlank, 0, len(update.Blanks))
		for _, b := range update.Blanks {
			blanks = append(blanks, models.ClozeBlank{
				ID:            uuid.New(),
				TaskID:        task.ID,
				Position:      b.Position,
				ExpectedValue: b.ExpectedValue,
			})
		}
		task.Cloze.Blanks = blanks
	}
	return nil
}

func (s ClozeTaskStrategy) Clone(task *models.Task, targetVersionID uuid.UUID) (*models.Task, error) {
	if err := checkType(s.Type(), task.Type); err != nil {
		return nil, err
	}
	clone := cloneBase(task, targetVersionID)
	clone.Cloze = &models.ClozeTask{TaskID: clone.ID, Blanks: []models.ClozeBlank{}}
	if task.Cloze != nil {
		clone.Cloze.TemplateText = task.Cloze.TemplateText
		for _, b := range task.Cloze.Blanks {
			clone.Cloze.Blanks = append(clone.Cloze.Blanks, models.ClozeBlank{
				ID:            uuid.New(),
				TaskID:        clone.ID,
				Position:      b.Position,
				ExpectedValue: b.ExpectedValue,
			})
		}
	}
	return clone, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
