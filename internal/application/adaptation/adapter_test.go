package adaptation

import (
	"math/rand"
	"testing"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"github.com/convivio/convivio/internal/infrastructure/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testKnowledgeBase(t *testing.T) *ontology.KnowledgeBase {
	t.Helper()
	ingredients := []ontology.Ingredient{
		{Name: "salmon", Category: ontology.CategoryProtein, Family: "fish", Role: "centerpiece", Allergens: []string{"fish"}},
		{Name: "tuna", Category: ontology.CategoryProtein, Family: "fish", Role: "centerpiece", Allergens: []string{"fish"}},
		{Name: "chicken", Category: ontology.CategoryProtein, Family: "poultry", Role: "centerpiece"},
		{Name: "shrimp", Category: ontology.CategoryProtein, Family: "crustacean", Role: "centerpiece", Allergens: []string{"shellfish"}},
		{Name: "tofu", Category: ontology.CategoryProtein, Family: "legume", Role: "centerpiece", Diets: []string{"vegetarian", "vegan"}},
		{Name: "rice", Category: ontology.CategoryGrain, Family: "rice", Role: "base", Diets: []string{"vegetarian", "vegan"}},
		{Name: "tomato", Category: ontology.CategoryVegetable, Family: "nightshade", Role: "accent", Diets: []string{"vegetarian", "vegan"}},
		{Name: "miso", Category: ontology.CategoryCondiment, Family: "sauce", Role: "seasoning", Diets: []string{"vegetarian", "vegan"}},
		{Name: "chocolate", Category: ontology.CategorySweet, Family: "cocoa", Role: "centerpiece", Diets: []string{"vegetarian"}},
		{Name: "panna cotta", Category: ontology.CategorySweet, Family: "custard", Role: "centerpiece", Allergens: []string{"milk"}},
	}
	styles := []ontology.Style{
		{Name: "japanese", Representatives: []string{"miso", "rice", "tofu"}},
		{Name: "plant-forward", AllowList: []string{"tofu", "rice", "miso", "tomato"}, Representatives: []string{"dragonfruit"}},
	}
	kb, err := ontology.NewKnowledgeBase(ingredients, styles, nil)
	require.NoError(t, err)
	return kb
}

func testVectorIndex(t *testing.T, seed int64) *embedding.Index {
	t.Helper()
	vectors := map[string][]float32{
		"salmon":    {1, 0, 0},
		"tuna":      {0.9, 0.1, 0},
		"chicken":   {0.6, 0.4, 0},
		"shrimp":    {0.95, 0.05, 0},
		"tofu":      {0.1, 0.9, 0.1},
		"rice":      {0.1, 0.8, 0.2},
		"tomato":    {0.3, 0.5, 0.2},
		"miso":      {0, 1, 0},
		"chocolate": {0, 0, 1},
	}
	idx, err := embedding.New(vectors, nil, rand.New(rand.NewSource(seed)), zap.NewNop())
	require.NoError(t, err)
	return idx
}

func testAdapter(t *testing.T) *Adapter {
	t.Helper()
	return New(testKnowledgeBase(t), testVectorIndex(t, 7), rand.New(rand.NewSource(7)), zap.NewNop())
}

func mustStyle(t *testing.T, kb *ontology.KnowledgeBase, name string) *ontology.Style {
	t.Helper()
	st, ok := kb.Style(name)
	require.True(t, ok)
	return st
}

func TestAdaptCategoricalReplacesForbidden(t *testing.T) {
	a := testAdapter(t)
	dish := menu.Dish{Name: "Seafood bowl", Course: ontology.CourseSecond, Ingredients: []string{"shrimp", "rice"}}

	out := a.AdaptCategorical(dish, []string{"shrimp"}, ontology.DietProfile{}, nil)

	require.Len(t, out.Ingredients, 2, "ingredient count is preserved")
	assert.False(t, out.Contains("shrimp"))
	assert.True(t, dish.Contains("shrimp"), "input dish is not mutated")

	replacement, ok := a.kb.Ingredient(out.Ingredients[0])
	require.True(t, ok)
	assert.Equal(t, ontology.CategoryProtein, replacement.Category, "substitute stays in category")
	assert.NotEqual(t, "crustacean", replacement.Family, "forbidden family is excluded")
	assert.False(t, replacement.HasAllergen("shellfish"))

	require.Len(t, out.Log, 1)
	assert.Equal(t, menu.ChangeSimple, out.Log[0].Kind)
	assert.Equal(t, "substitute", out.Log[0].Op)
	assert.Equal(t, menu.MethodEmbedding, out.Log[0].Method, "shrimp's nearest pool neighbor wins")
}

func TestAdaptCategoricalRespectsProfile(t *testing.T) {
	a := testAdapter(t)
	dish := menu.Dish{Name: "Roast", Course: ontology.CourseSecond, Ingredients: []string{"chicken", "rice"}}
	profile := ontology.DietProfile{Diets: []string{"vegetarian"}}

	out := a.AdaptCategorical(dish, []string{"chicken"}, profile, nil)

	assert.Equal(t, []string{"tofu", "rice"}, out.Ingredients, "only vegetarian-tagged protein qualifies")
}

func TestAdaptCategoricalUnknownIngredientKept(t *testing.T) {
	a := testAdapter(t)
	dish := menu.Dish{Name: "Mystery", Course: ontology.CourseFirst, Ingredients: []string{"ambrosia", "rice"}}

	out := a.AdaptCategorical(dish, []string{"ambrosia"}, ontology.DietProfile{}, nil)

	assert.True(t, out.Contains("ambrosia"))
	require.Len(t, out.Log, 1)
	assert.Equal(t, menu.ChangeCosmetic, out.Log[0].Kind)
	assert.Equal(t, "lookup-miss", out.Log[0].Op)
}

func TestAdaptCategoricalNoCandidateKept(t *testing.T) {
	a := testAdapter(t)
	dish := menu.Dish{Name: "Bowl", Course: ontology.CourseSecond, Ingredients: []string{"tofu"}}
	profile := ontology.DietProfile{Diets: []string{"vegan"}}

	// Every other protein fails the vegan check, so tofu has no pool.
	out := a.AdaptCategorical(dish, []string{"tofu"}, profile, nil)

	assert.True(t, out.Contains("tofu"))
	require.Len(t, out.Log, 1)
	assert.Equal(t, "no-candidate", out.Log[0].Op)
	assert.Equal(t, menu.ChangeCosmetic, out.Log[0].Kind)
}

func TestAdaptToStyleMovesTowardConcept(t *testing.T) {
	a := testAdapter(t)
	kb := testKnowledgeBase(t)
	style := mustStyle(t, kb, "japanese")
	dish := menu.Dish{Name: "Grill", Course: ontology.CourseSecond, Ingredients: []string{"salmon", "rice"}}

	opts := DefaultOptions()
	opts.Temperature = 0

	concept, err := a.vectors.ConceptVector(style.Representatives)
	require.NoError(t, err)
	before := a.averageStyleSimilarity(dish, concept)

	out := a.AdaptToStyle(dish, style, ontology.DietProfile{}, opts)

	assert.False(t, out.Contains("salmon"), "off-style ingredient is replaced")
	assert.True(t, out.Contains("rice"), "aligned ingredient is kept")

	after := a.averageStyleSimilarity(out, concept)
	assert.Greater(t, after, before, "style alignment never regresses")

	require.NotEmpty(t, out.Log)
	assert.Equal(t, menu.ChangeComplex, out.Log[0].Kind)
	assert.Equal(t, "style-substitute", out.Log[0].Op)
	assert.Equal(t, menu.MethodEmbedding, out.Log[0].Method)
}

func TestAdaptToStyleSkipsAlignedDish(t *testing.T) {
	a := testAdapter(t)
	kb := testKnowledgeBase(t)
	style := mustStyle(t, kb, "japanese")
	dish := menu.Dish{Name: "Donburi", Course: ontology.CourseSecond, Ingredients: []string{"miso", "rice"}}

	opts := DefaultOptions()
	opts.Temperature = 0

	out := a.AdaptToStyle(dish, style, ontology.DietProfile{}, opts)

	assert.Equal(t, dish.Ingredients, out.Ingredients)
	assert.Empty(t, out.Log)
}

func TestAdaptToStyleFillsGapWhenNothingResolves(t *testing.T) {
	a := testAdapter(t)
	kb := testKnowledgeBase(t)
	style := mustStyle(t, kb, "japanese")

	// No embedding exists for panna cotta, so substitution cannot engage
	// and the dish-level average stays below target until gap fill runs.
	dish := menu.Dish{Name: "Dessert", Course: ontology.CourseDessert, Ingredients: []string{"panna cotta"}}

	opts := DefaultOptions()
	opts.Temperature = 0

	out := a.AdaptToStyle(dish, style, ontology.DietProfile{}, opts)

	assert.True(t, out.Contains("panna cotta"))
	assert.True(t, out.Contains("miso"), "first compatible representative is appended")
	require.Len(t, out.Log, 2)
	assert.Equal(t, "embedding-miss", out.Log[0].Op)
	assert.Equal(t, "style-fill", out.Log[1].Op)
	assert.Equal(t, menu.ChangeComplex, out.Log[1].Kind)
}

func TestAdaptToStyleFallsBackToAllowList(t *testing.T) {
	a := testAdapter(t)
	kb := testKnowledgeBase(t)
	style := mustStyle(t, kb, "plant-forward")
	dish := menu.Dish{Name: "Plate", Course: ontology.CourseSecond, Ingredients: []string{"chicken", "rice"}}

	out := a.AdaptToStyle(dish, style, ontology.DietProfile{}, DefaultOptions())

	assert.False(t, out.Contains("chicken"), "ingredient outside the allow-list is substituted")
	assert.True(t, out.Contains("tofu"), "only allow-listed protein qualifies")
	assert.True(t, out.Contains("rice"))
}
