// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
)

var seasons = []menu.Season{
	menu.SeasonSpring,
	menu.SeasonSummer,
	menu.SeasonAutumn,
	menu.SeasonWinter,
}

var events = []string{"wedding", "corporate", "birthday", "anniversary", "gala"}

var styles = []string{"japanese", "mediterranean", "plant-forward", "classic french"}

// ProblemBuilder provides a fluent interface for building test problem specs
type ProblemBuilder struct {
	problem menu.ProblemSpec
}

// NewProblemBuilder creates a problem builder with plausible defaults
func NewProblemBuilder(seed int64) *ProblemBuilder {
	faker := gofakeit.New(seed)

	return &ProblemBuilder{
		problem: menu.ProblemSpec{
			Event:         events[faker.IntRange(0, len(events)-1)],
			Service:       "plated",
			Formality:     "formal",
			Season:        seasons[faker.IntRange(0, len(seasons)-1)],
			Guests:        faker.IntRange(20, 200),
			BudgetPerHead: float64(faker.IntRange(30, 120)),
			Style:         styles[faker.IntRange(0, len(styles)-1)],
		},
	}
}

// WithEvent sets the event type
func (pb *ProblemBuilder) WithEvent(event string) *ProblemBuilder {
	pb.problem.Event = event
	return pb
}

// WithSeason sets the season
func (pb *ProblemBuilder) WithSeason(season menu.Season) *ProblemBuilder {
	pb.problem.Season = season
	return pb
}

// WithGuests sets the guest count
func (pb *ProblemBuilder) WithGuests(guests int) *ProblemBuilder {
	pb.problem.Guests = guests
	return pb
}

// WithBudget sets the per-head budget
func (pb *ProblemBuilder) WithBudget(budget float64) *ProblemBuilder {
	pb.problem.BudgetPerHead = budget
	return pb
}

// WithRestrictions sets the dietary restrictions
func (pb *ProblemBuilder) WithRestrictions(restrictions ...string) *ProblemBuilder {
	pb.problem.Restrictions = restrictions
	return pb
}

// WithStyle sets the requested culinary style
func (pb *ProblemBuilder) WithStyle(style string) *ProblemBuilder {
	pb.problem.Style = style
	return pb
}

// Build returns the problem spec
func (pb *ProblemBuilder) Build() menu.ProblemSpec {
	return pb.problem
}

// MenuCaseBuilder provides a fluent interface for building test cases
type MenuCaseBuilder struct {
	problem menu.ProblemSpec
	dishes  []menu.Dish
	drinks  []string
	ordinal int
	eval    *menu.Evaluation
}

// NewMenuCaseBuilder creates a case builder with a valid three-course menu
func NewMenuCaseBuilder(seed int64) *MenuCaseBuilder {
	return &MenuCaseBuilder{
		problem: NewProblemBuilder(seed).Build(),
		dishes: []menu.Dish{
			{
				Name:        "Tomato and miso starter",
				Course:      ontology.CourseFirst,
				Ingredients: []string{"tomato", "miso"},
				Price:       10,
			},
			{
				Name:        "Salmon main",
				Course:      ontology.CourseSecond,
				Ingredients: []string{"salmon", "rice"},
				Price:       22,
			},
			{
				Name:        "Chocolate dessert",
				Course:      ontology.CourseDessert,
				Ingredients: []string{"chocolate"},
				Price:       9,
			},
		},
		drinks: []string{"sparkling water"},
	}
}

// WithProblem replaces the problem spec
func (cb *MenuCaseBuilder) WithProblem(problem menu.ProblemSpec) *MenuCaseBuilder {
	cb.problem = problem
	return cb
}

// WithDishes replaces the solution dishes
func (cb *MenuCaseBuilder) WithDishes(dishes ...menu.Dish) *MenuCaseBuilder {
	cb.dishes = dishes
	return cb
}

// WithDrinks replaces the paired drinks
func (cb *MenuCaseBuilder) WithDrinks(drinks ...string) *MenuCaseBuilder {
	cb.drinks = drinks
	return cb
}

// Evaluated marks the case as persisted with the given ordinal and a liked
// evaluation, the state a case is in when read back from the case base.
func (cb *MenuCaseBuilder) Evaluated(ordinal int) *MenuCaseBuilder {
	cb.ordinal = ordinal
	cb.eval = &menu.Evaluation{
		Score:   5,
		Outcome: menu.OutcomeSuccess,
		Utility: 1.0,
	}
	return cb
}

// WithEvaluation marks the case as persisted with a specific evaluation
func (cb *MenuCaseBuilder) WithEvaluation(ordinal int, eval menu.Evaluation) *MenuCaseBuilder {
	cb.ordinal = ordinal
	cb.eval = &eval
	return cb
}

// Build constructs the case, failing loudly on invalid builder state
func (cb *MenuCaseBuilder) Build() (*menu.MenuCase, error) {
	c, err := menu.NewMenuCase(cb.problem, cb.dishes, cb.drinks)
	if err != nil {
		return nil, fmt.Errorf("build test case: %w", err)
	}
	if cb.eval != nil {
		if err := c.Persist(cb.ordinal, *cb.eval); err != nil {
			return nil, fmt.Errorf("persist test case: %w", err)
		}
		c.Events()
	}
	return c, nil
}

// MustBuild constructs the case and panics on builder misuse
func (cb *MenuCaseBuilder) MustBuild() *menu.MenuCase {
	c, err := cb.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// CaseBaseFactory generates whole case bases for retrieval and retention tests
type CaseBaseFactory struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewCaseBaseFactory creates a factory with seeded faker
func NewCaseBaseFactory(seed int64) *CaseBaseFactory {
	return &CaseBaseFactory{
		faker: gofakeit.New(seed),
		seed:  seed,
	}
}

// CreateCases generates n evaluated cases with varied problems, ordinals 1..n
func (f *CaseBaseFactory) CreateCases(n int) ([]*menu.MenuCase, error) {
	cases := make([]*menu.MenuCase, 0, n)
	for i := 0; i < n; i++ {
		c, err := NewMenuCaseBuilder(f.seed + int64(i)).
			Evaluated(i + 1).
			Build()
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// RandomEvaluation generates a plausible feedback record
func (f *CaseBaseFactory) RandomEvaluation() menu.Evaluation {
	return menu.Evaluation{
		Score: f.faker.IntRange(1, 5),
		SubScores: map[string]int{
			"taste":        f.faker.IntRange(1, 5),
			"presentation": f.faker.IntRange(1, 5),
		},
		Outcome: menu.OutcomeSuccess,
	}
}

// Timestamp returns a deterministic past time for fixtures
func Timestamp(daysAgo int) time.Time {
	return time.Now().AddDate(0, 0, -daysAgo)
}
