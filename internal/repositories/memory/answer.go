package memory

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

type answerRepo struct{ s *Store }

func (r answerRepo) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*models.Answer, error) {
	answers := []*models.Answer{}
	err := r.s.read(func(t tables) error {
		for _, a := range t.answers {
			if a.AttemptID == attemptID {
				answers = append(answers, copyAnswer(a))
			}
		}
		return nil
	})
	return answers, err
}

func (r answerRepo) Get(ctx context.Context, attemptID, taskID uuid.UUID) (*models.Answer, error) {
	var answer *models.Answer
	err := r.s.read(func(t tables) error {
		for _, a := range t.answers {
			if a.AttemptID == attemptID && a.TaskID == taskID {
				answer = copyAnswer(a)
				break
			}
		}
		return nil
	})
	return answer, err
}

func (r answerRepo) Save(ctx context.Context, answer *models.Answer) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.attempts[answer.AttemptID]; !ok {
			return errors.New("answers: attempt does not exist")
		}
		models.AssignID(&answer.ID)
		for id, other := range t.answers {
			if id != answer.ID && other.AttemptID == answer.AttemptID && other.TaskID == answer.TaskID {
				return uniqueViolation("uq_answer_attempt_task")
			}
		}
		if answer.MultipleChoice != nil {
			answer.MultipleChoice.AnswerID = answer.ID
			for i := range answer.MultipleChoice.Selections {
				answer.MultipleChoice.Selections[i].AnswerID = answer.ID
			}
		}
		if answer.FreeText != nil {
			answer.FreeText.AnswerID = answer.ID
		}
		if answer.Cloze != nil {
			answer.Cloze.AnswerID = answer.ID
			for i := range answer.Cloze.Items {
				answer.Cloze.Items[i].AnswerID = answer.ID
			}
		}
		t.answers[answer.ID] = copyAnswer(answer)
		return nil
	})
}

func (r answerRepo) SetPercentage(ctx context.Context, answerID uuid.UUID, percentage *float64) error {
	return r.s.write(func(t tables) error {
		a, ok := t.answers[answerID]
		if !ok {
			return repositories.ErrNotFound
		}
		if percentage == nil {
			a.PercentageCorrect = nil
			return nil
		}
		p := *percentage
		a.PercentageCorrect = &p
		return nil
	})
}

func (r answerRepo) SetClozeItemCorrect(ctx context.Context, answerID, blankID uuid.UUID, correct bool) error {
	return r.s.write(func(t tables) error {
		a, ok := t.answers[answerID]
		if !ok {
			return repositories.ErrNotFound
		}
		if a.Cloze == nil {
			return nil
		}
		for i := range a.Cloze.Items {
			if a.Cloze.Items[i].BlankID == blankID {
				v := correct
				a.Cloze.Items[i].IsCorrect = &v
			}
		}
		return nil
	})
}
