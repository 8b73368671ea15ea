package strategies

import (
	"math/big"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/google/uuid"
)

// Evaluation is the outcome of scoring one answer. BlankResults is only set
// for cloze answers and holds the match result per answered blank.
type Evaluation struct {
	Percentage   *big.Rat
	BlankResults map[uuid.UUID]bool
}

func zeroEvaluation() Evaluation {
	return Evaluation{Percentage: new(big.Rat)}
}

// AnswerStrategy bundles the per-type answer behavior.
type AnswerStrategy interface {
	Type() models.TaskType
	// BuildOrGet returns existing when it matches the type, or a new empty
	// answer when existing is nil.
	BuildOrGet(existing *models.Answer, attemptID, taskID uuid.UUID) (*models.Answer, error)
	// Apply merges the payload data into the answer.
	Apply(answer *models.Answer, data models.AnswerData) error
	ToView(answer *models.Answer) (models.AnswerView, error)
	Evaluate(answer *models.Answer, task models.TaskView) (Evaluation, error)
}

func buildOrGet(t models.TaskType, existing *models.Answer, attemptID, taskID uuid.UUID) (*models.Answer, error) {
	if existing != nil {
		if err := checkType(t, existing.Type); err != nil {
			return nil, err
		}
		return existing, nil
	}
	return &models.Answer{
		ID:        uuid.New(),
		AttemptID: attemptID,
		TaskID:    taskID,
		Type:      t,
	}, nil
}

func answerView(answer *models.Answer) models.AnswerView {
	return models.AnswerView{
		TaskID:            answer.TaskID,
		Type:              answer.Type,
		PercentageCorrect: answer.PercentageCorrect,
	}
}

// ===== MULTIPLE CHOICE =====

type MultipleChoiceAnswerStrategy struct{}

func (MultipleChoiceAnswerStrategy) Type() models.TaskType { return models.TaskTypeMultipleChoice }

func (s MultipleChoiceAnswerStrategy) BuildOrGet(existing *models.Answer, attemptID, taskID uuid.UUID) (*models.Answer, error) {
	answer, err := buildOrGet(s.Type(), existing, attemptID, taskID)
	if err != nil {
		return nil, err
	}
	if answer.MultipleChoice == nil {
		answer.MultipleChoice = &models.MultipleChoiceAnswer{AnswerID: answer.ID, Selections: []models.AnswerSelection{}}
	}
	return answer, nil
}

// Apply replaces the selection set. Duplicate ids collapse.
func (s MultipleChoiceAnswerStrategy) Apply(answer *models.Answer, data models.AnswerData) error {
	if err := checkType(s.Type(), answer.Type); err != nil {
		return err
	}
	seen := make(map[uuid.UUID]struct{}, len(data.SelectedOptionIDs))
	selections := make([]models.AnswerSelection, 0, len(data.SelectedOptionIDs))
	for _, id := range data.SelectedOptionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		selections = append(selections, models.AnswerSelection{AnswerID: answer.ID, OptionID: id})
	}
	answer.MultipleChoice = &models.MultipleChoiceAnswer{AnswerID: answer.ID, Selections: selections}
	return nil
}

func (s MultipleChoiceAnswerStrategy) ToView(answer *models.Answer) (models.AnswerView, error) {
	if err := checkType(s.Type(), answer.Type); err != nil {
		return models.AnswerView{}, err
	}
	view := answerView(answer)
	view.Data.SelectedOptionIDs = []uuid.UUID{}
	if answer.MultipleChoice != nil {
		for _, sel := range answer.MultipleChoice.Selections {
			view.Data.SelectedOptionIDs = append(view.Data.SelectedOptionIDs, sel.OptionID)
		}
	}
	return view, nil
}

// Evaluate gives full credit only when the selection equals the correct set.
func (s MultipleChoiceAnswerStrategy) Evaluate(answer *models.Answer, task models.TaskView) (Evaluation, error) {
	if answer.Type != s.Type() || task.Type != s.Type() {
		return zeroEvaluation(), nil
	}
	correct := make(map[uuid.UUID]struct{})
	for _, o := range task.Options {
		if o.IsCorrect {
			correct[o.OptionID] = struct{}{}
		}
	}
	selected := make(map[uuid.UUID]struct{})
	if answer.MultipleChoice != nil {
		for _, sel := range answer.MultipleChoice.Selections {
			selected[sel.OptionID] = struct{}{}
		}
	}
	if len(correct) != len(selected) {
		return zeroEvaluation(), nil
	}
	for id := range selected {
		if _, ok := correct[id]; !ok {
			return zeroEvaluation(), nil
		}
	}
	return Evaluation{Percentage: utils.Percent(1, 1)}, nil
}

// ===== FREE TEXT =====

type FreeTextAnswerStrategy struct{}

func (FreeTextAnswerStrategy) Type() models.TaskType { return models.TaskTypeFreeText }

func (s FreeTextAnswerStrategy) BuildOrGet(existing *models.Answer, attemptID, taskID uuid.UUID) (*models.Answer, error) {
	answer, err := buildOrGet(s.Type(), existing, attemptID, taskID)
	if err != nil {
		return nil, err
	}
	if answer.FreeText == nil {
		answer.FreeText = &models.FreeTextAnswer{AnswerID: answer.ID}
	}
	return answer, nil
}

// Apply updates the text only; a self-assessed percentage survives edits.
func (s FreeTextAnswerStrategy) Apply(answer *models.Answer, data models.AnswerData) error {
	if err := checkType(s.Type(), answer.Type); err != nil {
		return err
	}
	if answer.FreeText == nil {
		answer.FreeText = &models.FreeTextAnswer{AnswerID: answer.ID}
	}
	if data.TextResponse != nil {
		answer.FreeText.TextResponse = *data.TextResponse
	}
	return nil
}

func (s FreeTextAnswerStrategy) ToView(answer *models.Answer) (models.AnswerView, error) {
	if err := checkType(s.Type(), answer.Type); err != nil {
		return models.AnswerView{}, err
	}
	view := answerView(answer)
	text := ""
	if answer.FreeText != nil {
		text = answer.FreeText.TextResponse
	}
	view.Data.TextResponse = &text
	return view, nil
}

// Evaluate returns the self-assessed percentage, or zero when none was set.
func (s FreeTextAnswerStrategy) Evaluate(answer *models.Answer, task models.TaskView) (Evaluation, error) {
	if answer.Type != s.Type() || answer.PercentageCorrect == nil {
		return zeroEvaluation(), nil
	}
	return Evaluation{Percentage: utils.PercentFromFloat(*answer.PercentageCorrect)}, nil
}

// ===== CLOZE =====

type ClozeAnswerStrategy struct {
	matcher ClozeMatcher
}

func NewClozeAnswerStrategy(matchTimeout time.Duration) ClozeAnswerStrategy {
	return ClozeAnswerStrategy{matcher: NewClozeMatcher(matchTimeout)}
}

func (ClozeAnswerStrategy) Type() models.TaskType { return models.TaskTypeCloze }

func (s ClozeAnswerStrategy) BuildOrGet(existing *models.Answer, attemptID, taskID uuid.UUID) (*models.Answer, error) {
	answer, err := buildOrGet(s.Type(), existing, attemptID, taskID)
	if err != nil {
		return nil, err
	}
	if answer.Cloze == nil {
		answer.Cloze = &models.ClozeAnswer{AnswerID: answer.ID, Items: []models.ClozeAnswerItem{}}
	}
	return answer, nil
}

// Apply upserts one item per blank. Blanks absent from the payload keep
// their previous value; a changed value clears its correctness.
func (s ClozeAnswerStrategy) Apply(answer *models.Answer, data models.AnswerData) error {
	if err := checkType(s.Type(), answer.Type); err != nil {
		return err
	}
	if answer.Cloze == nil {
		answer.Cloze = &models.ClozeAnswer{AnswerID: answer.ID, Items: []models.ClozeAnswerItem{}}
	}
	index := make(map[uuid.UUID]int, len(answer.Cloze.Items))
	for i, item := range answer.Cloze.Items {
		index[item.BlankID] = i
	}
	for _, v := range data.ProvidedValues {
		if i, ok := index[v.BlankID]; ok {
			item := &answer.Cloze.Items[i]
			if item.ProvidedValue != v.Value {
				item.ProvidedValue = v.Value
				item.IsCorrect = nil
			}
			continue
		}
		index[v.BlankID] = len(answer.Cloze.Items)
		answer.Cloze.Items = append(answer.Cloze.Items, models.ClozeAnswerItem{
			AnswerID:      answer.ID,
			BlankID:       v.BlankID,
			ProvidedValue: v.Value,
		})
	}
	return nil
}

func (s ClozeAnswerStrategy) ToView(answer *models.Answer) (models.AnswerView, error) {
	if err := checkType(s.Type(), answer.Type); err != nil {
		return models.AnswerView{}, err
	}
	view := answerView(answer)
	view.Data.ProvidedValues = []models.ClozeValue{}
	if answer.Cloze != nil {
		for _, item := range answer.Cloze.Items {
			view.Data.ProvidedValues = append(view.Data.ProvidedValues, models.ClozeValue{
				BlankID: item.BlankID,
				Value:   item.ProvidedValue,
			})
		}
	}
	return view, nil
}

// Evaluate scores correct blanks over all blanks of the task. Items for
// unknown blanks are ignored; a task without blanks scores full marks.
func (s ClozeAnswerStrategy) Evaluate(answer *models.Answer, task models.TaskView) (Evaluation, error) {
	if answer.Type != s.Type() || task.Type != s.Type() {
		return zeroEvaluation(), nil
	}
	if len(task.Blanks) == 0 {
		return Evaluation{Percentage: utils.Percent(1, 1)}, nil
	}
	expected := make(map[uuid.UUID]string, len(task.Blanks))
	for _, b := range task.Blanks {
		expected[b.BlankID] = b.ExpectedValue
	}
	results := make(map[uuid.UUID]bool)
	correct := 0
	if answer.Cloze != nil {
		for _, item := range answer.Cloze.Items {
			pattern, ok := expected[item.BlankID]
			if !ok {
				continue
			}
			matched := s.matcher.Match(pattern, item.ProvidedValue)
			results[item.BlankID] = matched
			if matched {
				correct++
			}
		}
	}
	return Evaluation{
		Percentage:   utils.Percent(int64(correct), int64(len(expected))),
		BlankResults: results,
	}, nil
}
