package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type keyed interface {
	Type() models.TaskType
}

// StrategyNotFoundError means no strategy is registered for a type key. It
// signals a wiring defect rather than bad input.
type StrategyNotFoundError struct {
	Registry string
	Key      string
}

func (e *StrategyNotFoundError) Error() string {
	return fmt.Sprintf("%s: no strategy registered for %q", e.Registry, e.Key)
}

// Registry maps task types to strategies. It is immutable after construction
// and safe for concurrent reads.
type Registry[S keyed] struct {
	name       string
	strategies map[models.TaskType]S
}

func NewRegistry[S keyed](name string, strategies ...S) (*Registry[S], error) {
	r := &Registry[S]{name: name, strategies: make(map[models.TaskType]S, len(strategies))}
	for _, s := range strategies {
		key := NormalizeType(string(s.Type()))
		if _, exists := r.strategies[key]; exists {
			return nil, fmt.Errorf("%s: duplicate strategy for %q", name, key)
		}
		r.strategies[key] = s
	}
	return r, nil
}

// NormalizeType lowercases the key and folds '-' and ' ' into '_'.
func NormalizeType(raw string) models.TaskType {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	return models.TaskType(key)
}

func (r *Registry[S]) Get(key models.TaskType) (S, error) {
	s, ok := r.strategies[NormalizeType(string(key))]
	if !ok {
		var zero S
		return zero, &StrategyNotFoundError{Registry: r.name, Key: string(key)}
	}
	return s, nil
}

func (r *Registry[S]) Has(key models.TaskType) bool {
	_, ok := r.strategies[NormalizeType(string(key))]
	return ok
}

func (r *Registry[S]) Keys() []models.TaskType {
	keys := make([]models.TaskType, 0, len(r.strategies))
	for k := range r.strategies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

type TaskRegistry = Registry[TaskStrategy]

type AnswerRegistry = Registry[AnswerStrategy]

// DefaultTaskRegistry registers the three built-in task types.
func DefaultTaskRegistry() *TaskRegistry {
	r, err := NewRegistry[TaskStrategy]("task_strategies",
		MultipleChoiceTaskStrategy{},
		FreeTextTaskStrategy{},
		ClozeTaskStrategy{},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultAnswerRegistry registers the three built-in answer types.
func DefaultAnswerRegistry() *AnswerRegistry {
	r, err := NewRegistry[AnswerStrategy]("answer_strategies",
		MultipleChoiceAnswerStrategy{},
		FreeTextAnswerStrategy{},
		NewClozeAnswerStrategy(DefaultMatchTimeout),
	)
	if err != nil {
		panic(err)
	}
	return r
}
