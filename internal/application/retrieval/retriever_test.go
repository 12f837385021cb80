package retrieval

import (
	"testing"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCase(t *testing.T, problem menu.ProblemSpec, dishPrices [3]float64) *menu.MenuCase {
	t.Helper()
	dishes := []menu.Dish{
		{Name: "Starter", Course: ontology.CourseFirst, Ingredients: []string{"tomato"}, Price: dishPrices[0]},
		{Name: "Main", Course: ontology.CourseSecond, Ingredients: []string{"chicken"}, Price: dishPrices[1]},
		{Name: "Dessert", Course: ontology.CourseDessert, Ingredients: []string{"chocolate"}, Price: dishPrices[2]},
	}
	c, err := menu.NewMenuCase(problem, dishes, nil)
	require.NoError(t, err)
	return c
}

func baseProblem() menu.ProblemSpec {
	return menu.ProblemSpec{
		Event:         "wedding",
		Service:       "seated",
		Formality:     "formal",
		Season:        menu.SeasonSummer,
		Guests:        50,
		BudgetPerHead: 40,
		Style:         "japanese",
	}
}

func TestScoreComponentsInRange(t *testing.T) {
	r := New(DefaultWeights(), DefaultParams(), zap.NewNop())

	query := baseProblem()
	query.Restrictions = []string{"vegetarian", "gluten-free"}

	stored := baseProblem()
	stored.Event = "conference"
	stored.Service = "buffet"
	stored.Season = menu.SeasonWinter
	stored.Guests = 500
	stored.Restrictions = []string{"vegan"}
	c := newTestCase(t, stored, [3]float64{30, 40, 20})

	m := r.Score(query, c)

	require.Len(t, m.Dimensions, 7)
	for dim, v := range m.Dimensions {
		assert.GreaterOrEqual(t, v, 0.0, dim)
		assert.LessOrEqual(t, v, 1.0, dim)
	}

	w := DefaultWeights()
	expected := w.Event*m.Dimensions[DimEvent] +
		w.Service*m.Dimensions[DimService] +
		w.Restrictions*m.Dimensions[DimRestrictions] +
		w.Season*m.Dimensions[DimSeason] +
		w.Formality*m.Dimensions[DimFormality] +
		w.Guests*m.Dimensions[DimGuests] +
		w.Price*m.Dimensions[DimPrice]
	assert.InDelta(t, expected, m.Score, 1e-12)
}

func TestFamilySimilarity(t *testing.T) {
	assert.Equal(t, 1.0, familySimilarity("Wedding", "wedding", eventFamilies))
	assert.Equal(t, 0.7, familySimilarity("wedding", "communion", eventFamilies))
	assert.Equal(t, 0.7, familySimilarity("cocktail", "buffet", serviceFamilies))
	assert.Equal(t, 0.2, familySimilarity("wedding", "conference", eventFamilies))
	assert.Equal(t, 0.2, familySimilarity("wedding", "unknown thing", eventFamilies))
}

func TestRestrictionSimilarity(t *testing.T) {
	a := []string{"vegan", "gluten-free"}
	b := []string{"vegan"}

	assert.Equal(t, 1.0, restrictionSimilarity(a, a))
	assert.Equal(t, 1.0, restrictionSimilarity(nil, b), "no restrictions means any case is viable")
	assert.Equal(t, restrictionSimilarity(a, b), restrictionSimilarity(b, a))
	assert.InDelta(t, 0.5, restrictionSimilarity(a, b), 1e-12)
}

func TestSeasonSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, seasonSimilarity(menu.SeasonSpring, menu.SeasonSpring))
	assert.Equal(t, 0.5, seasonSimilarity(menu.SeasonSpring, menu.SeasonWinter))
	assert.Equal(t, 0.5, seasonSimilarity(menu.SeasonSpring, menu.SeasonSummer))
	assert.Equal(t, 0.0, seasonSimilarity(menu.SeasonSpring, menu.SeasonAutumn))
}

func TestPriceSimilarity(t *testing.T) {
	r := New(DefaultWeights(), DefaultParams(), zap.NewNop())

	assert.Equal(t, 1.0, r.priceSimilarity(38, 40), "underspend is never punished")
	assert.Equal(t, 1.0, r.priceSimilarity(40, 40))

	// Double the target with beta=4 decays to exp(-4) ~ 0.018, floored.
	assert.Equal(t, 0.1, r.priceSimilarity(80, 40))
}

func TestGuestSimilarity(t *testing.T) {
	r := New(DefaultWeights(), DefaultParams(), zap.NewNop())

	assert.Equal(t, 1.0, r.guestSimilarity(50, 50))
	assert.Greater(t, r.guestSimilarity(50, 48), 0.9)
	assert.Greater(t, r.guestSimilarity(50, 48), r.guestSimilarity(50, 200))
}

func TestRetrieveSimilarRanksOnBudget(t *testing.T) {
	r := New(DefaultWeights(), DefaultParams(), zap.NewNop())

	query := baseProblem()

	affordable := baseProblem()
	affordable.Guests = 48
	cheap := newTestCase(t, affordable, [3]float64{10, 20, 8}) // 38 per head

	pricey := baseProblem()
	pricey.Guests = 48
	expensive := newTestCase(t, pricey, [3]float64{25, 35, 20}) // 80 per head

	matches := r.RetrieveSimilar(query, []*menu.MenuCase{expensive, cheap}, 2)
	require.Len(t, matches, 2)

	assert.Equal(t, cheap.ID(), matches[0].Case.ID())
	assert.Equal(t, 1.0, matches[0].Dimensions[DimPrice])
	assert.Greater(t, matches[0].Dimensions[DimGuests], 0.9)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}
