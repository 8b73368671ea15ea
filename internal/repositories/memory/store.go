// Package memory keeps the whole data set in process. It enforces the same
// uniqueness rules and cascades as the postgres schema and is used for local
// runs and service tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

type tables struct {
	quizzes    map[uuid.UUID]*models.Quiz
	versions   map[uuid.UUID]*models.QuizVersion
	sessions   map[uuid.UUID]*models.EditSession
	ownerships map[uuid.UUID]*models.QuizOwnership
	links      map[uuid.UUID]*models.ShareLink
	tasks      map[uuid.UUID]*models.Task
	attempts   map[uuid.UUID]*models.Attempt
	answers    map[uuid.UUID]*models.Answer
}

func newTables() tables {
	return tables{
		quizzes:    map[uuid.UUID]*models.Quiz{},
		versions:   map[uuid.UUID]*models.QuizVersion{},
		sessions:   map[uuid.UUID]*models.EditSession{},
		ownerships: map[uuid.UUID]*models.QuizOwnership{},
		links:      map[uuid.UUID]*models.ShareLink{},
		tasks:      map[uuid.UUID]*models.Task{},
		attempts:   map[uuid.UUID]*models.Attempt{},
		answers:    map[uuid.UUID]*models.Answer{},
	}
}

func (t tables) clone() tables {
	c := newTables()
	for k, v := range t.quizzes {
		c.quizzes[k] = copyQuiz(v)
	}
	for k, v := range t.versions {
		c.versions[k] = copyVersion(v)
	}
	for k, v := range t.sessions {
		s := *v
		c.sessions[k] = &s
	}
	for k, v := range t.ownerships {
		o := *v
		c.ownerships[k] = &o
	}
	for k, v := range t.links {
		c.links[k] = copyLink(v)
	}
	for k, v := range t.tasks {
		c.tasks[k] = copyTask(v)
	}
	for k, v := range t.attempts {
		c.attempts[k] = copyAttempt(v)
	}
	for k, v := range t.answers {
		c.answers[k] = copyAnswer(v)
	}
	return c
}

// Store owns the tables. Transactions are serialized by txMu and work on a
// private copy that replaces the committed tables only on success. Writes
// outside a transaction take txMu too, so a commit never drops them and
// readers only ever see committed rows.
type Store struct {
	mu     sync.RWMutex
	txMu   *sync.Mutex
	data   tables
	now    func() time.Time
	staged bool
}

func NewStore() *Store {
	return &Store{txMu: &sync.Mutex{}, data: newTables(), now: time.Now}
}

// NewRepository returns a repositories.Repository backed by a fresh store.
func NewRepository() repositories.Repository {
	return NewStore().Repository()
}

func (s *Store) Repository() repositories.Repository {
	return &Repository{store: s}
}

func (s *Store) read(fn func(t tables) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (s *Store) write(fn func(t tables) error) error {
	if !s.staged {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// stage returns a working copy of the committed tables. The caller must hold
// txMu.
func (s *Store) stage() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Store{txMu: s.txMu, data: s.data.clone(), now: s.now, staged: true}
}

func (s *Store) commit(working *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = working.data
}

// Repository implements repositories.Repository. A Repository handed to a
// transaction callback runs nested transactions inline.
type Repository struct {
	store *Store
	inTx  bool
}

func (r *Repository) Quiz() repositories.QuizRepository               { return quizRepo{r.store} }
func (r *Repository) QuizVersion() repositories.QuizVersionRepository { return versionRepo{r.store} }
func (r *Repository) EditSession() repositories.EditSessionRepository { return sessionRepo{r.store} }
func (r *Repository) Ownership() repositories.OwnershipRepository     { return ownershipRepo{r.store} }
func (r *Repository) ShareLink() repositories.ShareLinkRepository     { return shareLinkRepo{r.store} }
func (r *Repository) Task() repositories.TaskRepository               { return taskRepo{r.store} }
func (r *Repository) Attempt() repositories.AttemptRepository         { return attemptRepo{r.store} }
func (r *Repository) Answer() repositories.AnswerRepository           { return answerRepo{r.store} }

// WithTransaction runs fn against a working copy. Writes made through the
// outer repository from inside fn would wait on txMu forever; fn must only use
// the repository it is given.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	working := r.store.stage()
	err := fn(&Repository{store: working, inTx: true})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return err
	}
	r.store.commit(working)
	return nil
}

func (r *Repository) Ping(ctx context.Context) error { return ctx.Err() }

func (r *Repository) Close() error { return nil }

// ===== DEEP COPIES =====

func copyQuiz(q *models.Quiz) *models.Quiz {
	c := *q
	c.Versions, c.EditSessions, c.Ownerships, c.ShareLinks = nil, nil, nil, nil
	if q.GenerationSpec != nil {
		c.GenerationSpec = append([]byte(nil), q.GenerationSpec...)
	}
	return &c
}

func copyVersion(v *models.QuizVersion) *models.QuizVersion {
	c := *v
	c.Tasks = nil
	return &c
}

func copyLink(l *models.ShareLink) *models.ShareLink {
	c := *l
	return &c
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	if t.MultipleChoice != nil {
		mc := *t.MultipleChoice
		mc.Options = append([]models.TaskOption(nil), t.MultipleChoice.Options...)
		c.MultipleChoice = &mc
	}
	if t.FreeText != nil {
		ft := *t.FreeText
		c.FreeText = &ft
	}
	if t.Cloze != nil {
		cl := *t.Cloze
		cl.Blanks = append([]models.ClozeBlank(nil), t.Cloze.Blanks...)
		c.Cloze = &cl
	}
	return &c
}

func copyAttempt(a *models.Attempt) *models.Attempt {
	c := *a
	c.Answers = nil
	return &c
}

func copyAnswer(a *models.Answer) *models.Answer {
	c := *a
	if a.PercentageCorrect != nil {
		p := *a.PercentageCorrect
		c.PercentageCorrect = &p
	}
	if a.MultipleChoice != nil {
		mc := *a.MultipleChoice
		mc.Selections = append([]models.AnswerSelection(nil), a.MultipleChoice.Selections...)
		c.MultipleChoice = &mc
	}
	if a.FreeText != nil {
		ft := *a.FreeText
		c.FreeText = &ft
	}
	if a.Cloze != nil {
		cl := *a.Cloze
		cl.Items = make([]models.ClozeAnswerItem, len(a.Cloze.Items))
		for i, item := range a.Cloze.Items {
			cl.Items[i] = item
			if item.IsCorrect != nil {
				v := *item.IsCorrect
				cl.Items[i].IsCorrect = &v
			}
		}
		c.Cloze = &cl
	}
	return &c
}

func uniqueViolation(constraint string) error {
	return fmt.Errorf("duplicate key value violates unique constraint %q", constraint)
}
