package menu_test

import (
	"testing"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"github.com/convivio/convivio/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// MenuCaseTestSuite provides a test suite for the MenuCase aggregate
type MenuCaseTestSuite struct {
	suite.Suite
}

func (s *MenuCaseTestSuite) validDishes() []menu.Dish {
	return []menu.Dish{
		{Name: "Tomato starter", Course: ontology.CourseFirst, Ingredients: []string{"tomato"}, Price: 10},
		{Name: "Salmon main", Course: ontology.CourseSecond, Ingredients: []string{"salmon", "rice"}, Price: 22},
		{Name: "Chocolate dessert", Course: ontology.CourseDessert, Ingredients: []string{"chocolate"}, Price: 9},
	}
}

func (s *MenuCaseTestSuite) validProblem() menu.ProblemSpec {
	return testutils.NewProblemBuilder(7).
		WithEvent("wedding").
		WithGuests(80).
		WithBudget(60).
		Build()
}

func (s *MenuCaseTestSuite) TestCreation() {
	s.Run("ValidCase_ShouldCreateSuccessfully", func() {
		c, err := menu.NewMenuCase(s.validProblem(), s.validDishes(), []string{"sake"})
		require.NoError(s.T(), err)
		require.NotNil(s.T(), c)

		assert.NotEqual(s.T(), uuid.Nil, c.ID())
		assert.Equal(s.T(), 0, c.Ordinal())
		assert.Nil(s.T(), c.Evaluation())
		assert.Equal(s.T(), []string{"sake"}, c.Drinks())
		assert.NotZero(s.T(), c.CreatedAt())
		assert.InDelta(s.T(), 41.0, c.Price(), 1e-9)
	})

	s.Run("WrongDishCount_ShouldReturnError", func() {
		c, err := menu.NewMenuCase(s.validProblem(), s.validDishes()[:2], nil)
		assert.Nil(s.T(), c)
		assert.Equal(s.T(), menu.ErrWrongDishCount, err)
	})

	s.Run("DuplicateCourse_ShouldReturnError", func() {
		dishes := s.validDishes()
		dishes[2].Course = ontology.CourseFirst

		c, err := menu.NewMenuCase(s.validProblem(), dishes, nil)
		assert.Nil(s.T(), c)
		assert.Equal(s.T(), menu.ErrDuplicateCourse, err)
	})

	s.Run("InvalidProblem_ShouldReturnError", func() {
		problem := s.validProblem()
		problem.Guests = 0

		c, err := menu.NewMenuCase(problem, s.validDishes(), nil)
		assert.Nil(s.T(), c)
		assert.Equal(s.T(), menu.ErrInvalidGuestCount, err)
	})

	s.Run("StoredDishes_AreIsolatedFromInput", func() {
		dishes := s.validDishes()
		c, err := menu.NewMenuCase(s.validProblem(), dishes, nil)
		require.NoError(s.T(), err)

		dishes[0].Ingredients[0] = "mutated"
		assert.Equal(s.T(), "tomato", c.Dishes()[0].Ingredients[0])
	})
}

func (s *MenuCaseTestSuite) TestPersist() {
	eval := menu.Evaluation{Score: 4, Outcome: menu.OutcomeSuccess, Cost: 4, Utility: 1.2}

	s.Run("FirstPersist_RecordsEvaluationAndEvent", func() {
		c, err := menu.NewMenuCase(s.validProblem(), s.validDishes(), nil)
		require.NoError(s.T(), err)

		require.NoError(s.T(), c.Persist(5, eval))

		assert.Equal(s.T(), 5, c.Ordinal())
		require.NotNil(s.T(), c.Evaluation())
		assert.Equal(s.T(), 4, c.Evaluation().Cost)

		events := c.Events()
		require.Len(s.T(), events, 1)
		retained, ok := events[0].(menu.CaseRetainedEvent)
		require.True(s.T(), ok)
		assert.Equal(s.T(), c.ID(), retained.CaseID)
		assert.Equal(s.T(), 5, retained.Ordinal)

		assert.Empty(s.T(), c.Events())
	})

	s.Run("SecondPersist_ShouldReturnError", func() {
		c, err := menu.NewMenuCase(s.validProblem(), s.validDishes(), nil)
		require.NoError(s.T(), err)
		require.NoError(s.T(), c.Persist(1, eval))

		assert.Equal(s.T(), menu.ErrCaseAlreadyEvaluated, c.Persist(2, eval))
		assert.Equal(s.T(), 1, c.Ordinal())
	})

	s.Run("InvalidEvaluation_ShouldReturnError", func() {
		c, err := menu.NewMenuCase(s.validProblem(), s.validDishes(), nil)
		require.NoError(s.T(), err)

		bad := menu.Evaluation{Score: 9, Outcome: menu.OutcomeSuccess}
		assert.Equal(s.T(), menu.ErrScoreOutOfRange, c.Persist(1, bad))
		assert.Nil(s.T(), c.Evaluation())
	})
}

func (s *MenuCaseTestSuite) TestReject() {
	c, err := menu.NewMenuCase(s.validProblem(), s.validDishes(), nil)
	require.NoError(s.T(), err)

	c.Reject("critical safety failure")

	events := c.Events()
	require.Len(s.T(), events, 1)
	rejected, ok := events[0].(menu.CaseRejectedEvent)
	require.True(s.T(), ok)
	assert.Equal(s.T(), "critical safety failure", rejected.Reason)
	assert.Nil(s.T(), c.Evaluation())
}

func (s *MenuCaseTestSuite) TestSnapshotRoundTrip() {
	original := testutils.NewMenuCaseBuilder(11).Evaluated(3).MustBuild()

	restored, err := menu.FromSnapshot(original.Snapshot())
	require.NoError(s.T(), err)

	assert.Equal(s.T(), original.ID(), restored.ID())
	assert.Equal(s.T(), original.Ordinal(), restored.Ordinal())
	assert.Equal(s.T(), original.Problem(), restored.Problem())
	assert.Equal(s.T(), original.Dishes(), restored.Dishes())
	assert.Equal(s.T(), original.Drinks(), restored.Drinks())
	require.NotNil(s.T(), restored.Evaluation())
	assert.Equal(s.T(), *original.Evaluation(), *restored.Evaluation())
}

func (s *MenuCaseTestSuite) TestCombinedLog() {
	dishes := s.validDishes()
	dishes[0].Log = menu.TransformationLog{
		{Kind: menu.ChangeSimple, Op: "substitute", Ingredient: "tomato", Replacement: "pepper"},
	}
	dishes[1].Log = menu.TransformationLog{
		{Kind: menu.ChangeComplex, Op: "style-substitute", Ingredient: "salmon"},
		{Kind: menu.ChangeCosmetic, Op: "note"},
	}

	c, err := menu.NewMenuCase(s.validProblem(), dishes, nil)
	require.NoError(s.T(), err)

	log := c.CombinedLog()
	assert.Len(s.T(), log, 3)
	assert.Equal(s.T(), 4, log.Cost())
}

func TestMenuCaseTestSuite(t *testing.T) {
	suite.Run(t, new(MenuCaseTestSuite))
}

func TestClassifyNote(t *testing.T) {
	assert.Equal(t, menu.ChangeComplex, menu.ClassifyNote("applied style substitution"))
	assert.Equal(t, menu.ChangeComplex, menu.ClassifyNote("latent neighbour swap"))
	assert.Equal(t, menu.ChangeSimple, menu.ClassifyNote("replaced shrimp with salmon"))
	assert.Equal(t, menu.ChangeCosmetic, menu.ClassifyNote("renamed the dish"))
}

func TestSeasonRingDistance(t *testing.T) {
	assert.Equal(t, 0, menu.SeasonSpring.RingDistance(menu.SeasonSpring))
	assert.Equal(t, 1, menu.SeasonSpring.RingDistance(menu.SeasonSummer))
	assert.Equal(t, 2, menu.SeasonSpring.RingDistance(menu.SeasonAutumn))
	assert.Equal(t, 1, menu.SeasonSpring.RingDistance(menu.SeasonWinter))
	assert.Equal(t, 2, menu.Season("monsoon").RingDistance(menu.SeasonSummer))
}
