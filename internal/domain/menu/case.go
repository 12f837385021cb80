// Package menu contains the core domain model for case-based menu planning:
// dishes, problem descriptors, evaluations and the menu case aggregate.
package menu

import (
	"time"

	"github.com/google/uuid"
)

// MenuCase is the aggregate root of the case base: a (problem, solution,
// evaluation) triple. Cases are immutable once persisted; the only way a new
// case enters the base is through the retention manager, which records the
// evaluation exactly once.
type MenuCase struct {
	id      uuid.UUID
	ordinal int

	problem ProblemSpec
	dishes  []Dish
	drinks  []string

	evaluation *Evaluation
	createdAt  time.Time

	events []DomainEvent
}

// NewMenuCase creates a case with validation: three dishes, one per course.
func NewMenuCase(problem ProblemSpec, dishes []Dish, drinks []string) (*MenuCase, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	if len(dishes) != 3 {
		return nil, ErrWrongDishCount
	}
	seen := map[string]bool{}
	for _, d := range dishes {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[string(d.Course)] {
			return nil, ErrDuplicateCourse
		}
		seen[string(d.Course)] = true
	}

	cloned := make([]Dish, len(dishes))
	for i, d := range dishes {
		cloned[i] = d.Clone()
	}

	return &MenuCase{
		id:        uuid.New(),
		problem:   problem,
		dishes:    cloned,
		drinks:    append([]string(nil), drinks...),
		createdAt: time.Now(),
	}, nil
}

// ID returns the aggregate identifier.
func (c *MenuCase) ID() uuid.UUID { return c.id }

// Ordinal returns the sequential position in the case base (0 until
// persisted).
func (c *MenuCase) Ordinal() int { return c.ordinal }

// Problem returns the problem descriptor.
func (c *MenuCase) Problem() ProblemSpec { return c.problem }

// Dishes returns copies of the solution dishes.
func (c *MenuCase) Dishes() []Dish {
	out := make([]Dish, len(c.dishes))
	for i, d := range c.dishes {
		out[i] = d.Clone()
	}
	return out
}

// Drinks returns the paired drinks.
func (c *MenuCase) Drinks() []string { return append([]string(nil), c.drinks...) }

// Evaluation returns the recorded evaluation, or nil before retention.
func (c *MenuCase) Evaluation() *Evaluation {
	if c.evaluation == nil {
		return nil
	}
	ev := *c.evaluation
	return &ev
}

// CreatedAt returns when the case was created.
func (c *MenuCase) CreatedAt() time.Time { return c.createdAt }

// Price returns the per-head price of the solution, the sum of dish prices.
func (c *MenuCase) Price() float64 {
	var total float64
	for _, d := range c.dishes {
		total += d.Price
	}
	return total
}

// CombinedLog concatenates the transformation logs of all dishes.
func (c *MenuCase) CombinedLog() TransformationLog {
	var log TransformationLog
	for _, d := range c.dishes {
		log = append(log, d.Log...)
	}
	return log
}

// Persist records the evaluation and ordinal exactly once. The evaluation
// must already carry the cost and utility computed at retention time.
func (c *MenuCase) Persist(ordinal int, eval Evaluation) error {
	if c.evaluation != nil {
		return ErrCaseAlreadyEvaluated
	}
	if err := eval.Validate(); err != nil {
		return err
	}
	c.ordinal = ordinal
	c.evaluation = &eval
	c.addEvent(CaseRetainedEvent{
		CaseID:     c.id,
		Ordinal:    ordinal,
		Utility:    eval.Utility,
		Cost:       eval.Cost,
		RetainedAt: time.Now(),
	})
	return nil
}

// Reject records a rejection event without mutating the case.
func (c *MenuCase) Reject(reason string) {
	c.addEvent(CaseRejectedEvent{
		CaseID:     c.id,
		Reason:     reason,
		RejectedAt: time.Now(),
	})
}

// addEvent adds a domain event to be dispatched
func (c *MenuCase) addEvent(event DomainEvent) {
	c.events = append(c.events, event)
}

// Events returns and clears pending domain events
func (c *MenuCase) Events() []DomainEvent {
	events := c.events
	c.events = nil
	return events
}

// Snapshot is the serializable form of a case used by the stores.
type Snapshot struct {
	ID         uuid.UUID   `json:"id"`
	Ordinal    int         `json:"ordinal"`
	Problem    ProblemSpec `json:"problem"`
	Dishes     []Dish      `json:"dishes"`
	Drinks     []string    `json:"drinks,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Snapshot returns the serializable form of the case.
func (c *MenuCase) Snapshot() Snapshot {
	return Snapshot{
		ID:         c.id,
		Ordinal:    c.ordinal,
		Problem:    c.problem,
		Dishes:     c.Dishes(),
		Drinks:     c.Drinks(),
		Evaluation: c.Evaluation(),
		CreatedAt:  c.createdAt,
	}
}

// FromSnapshot rebuilds a case from its stored form, bypassing the
// three-dish constructor checks only for id/ordinal/evaluation restoration.
func FromSnapshot(s Snapshot) (*MenuCase, error) {
	c, err := NewMenuCase(s.Problem, s.Dishes, s.Drinks)
	if err != nil {
		return nil, err
	}
	c.id = s.ID
	c.ordinal = s.Ordinal
	c.createdAt = s.CreatedAt
	if s.Evaluation != nil {
		ev := *s.Evaluation
		c.evaluation = &ev
	}
	return c, nil
}
