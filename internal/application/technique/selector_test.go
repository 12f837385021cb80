package technique

import (
	"testing"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testKnowledgeBase(t *testing.T) *ontology.KnowledgeBase {
	t.Helper()
	ingredients := []ontology.Ingredient{
		{Name: "salmon", Category: ontology.CategoryProtein, Family: "fish", Role: "centerpiece"},
		{Name: "tuna", Category: ontology.CategoryProtein, Family: "fish", Role: "centerpiece"},
		{Name: "rice", Category: ontology.CategoryGrain, Family: "rice", Role: "base"},
		{Name: "miso", Category: ontology.CategoryCondiment, Family: "sauce", Role: "seasoning"},
		{Name: "chocolate", Category: ontology.CategorySweet, Family: "cocoa", Role: "centerpiece"},
	}
	techniques := []ontology.Technique{
		{
			Name:        "searing",
			Courses:     []ontology.Course{ontology.CourseSecond},
			Categories:  []ontology.MacroCategory{ontology.CategoryProtein},
			TextureTags: []string{"crust", "char"},
		},
		{
			Name:        "charring",
			Categories:  []ontology.MacroCategory{ontology.CategoryProtein},
			TextureTags: []string{"char", "crust"},
		},
		{
			Name:        "poaching",
			Courses:     []ontology.Course{ontology.CourseSecond},
			Categories:  []ontology.MacroCategory{ontology.CategoryProtein},
			TextureTags: []string{"silky"},
		},
		{
			Name:        "spherification",
			States:      []ontology.PhysicalState{ontology.StateLiquid, ontology.StateSemiLiquid},
			Molecular:   true,
			TextureTags: []string{"sphere"},
		},
		{
			Name:        "emulsifying",
			Courses:     []ontology.Course{ontology.CourseSecond},
			States:      []ontology.PhysicalState{ontology.StateLiquid},
			TextureTags: []string{"silky"},
		},
		{
			Name:        "torching",
			Courses:     []ontology.Course{ontology.CourseSecond},
			TextureTags: []string{"char"},
		},
		{
			Name:               "plated composition",
			Courses:            []ontology.Course{ontology.CourseDessert},
			ExcludedCategories: []ontology.MacroCategory{ontology.CategorySweet},
			CourseLevel:        true,
		},
	}
	styles := []ontology.Style{
		{Name: "japanese", Representatives: []string{"miso"}, Techniques: []string{"searing", "spherification", "charring"}},
		{Name: "charred", Representatives: []string{"salmon"}, Techniques: []string{"searing", "charring"}},
		{Name: "contrast", Representatives: []string{"miso"}, Techniques: []string{"poaching", "searing"}},
		{Name: "precise", Representatives: []string{"miso"}, Techniques: []string{"torching", "emulsifying"}},
		{Name: "plated", Representatives: []string{"chocolate"}, Techniques: []string{"plated composition"}},
		{Name: "seared only", Representatives: []string{"salmon"}, Techniques: []string{"searing"}},
	}
	kb, err := ontology.NewKnowledgeBase(ingredients, styles, techniques)
	require.NoError(t, err)
	return kb
}

func style(t *testing.T, kb *ontology.KnowledgeBase, name string) []*ontology.Style {
	t.Helper()
	st, ok := kb.Style(name)
	require.True(t, ok)
	return []*ontology.Style{st}
}

func mainCourse(ingredients ...string) menu.Dish {
	return menu.Dish{Name: "Main", Course: ontology.CourseSecond, Ingredients: ingredients}
}

func bindingsOf(d menu.Dish) map[string]string {
	out := make(map[string]string, len(d.Techniques))
	for _, b := range d.Techniques {
		out[b.Technique] = b.Ingredient
	}
	return out
}

func TestEmbellishMenuBindsRequestedCount(t *testing.T) {
	kb := testKnowledgeBase(t)
	s := New(kb, zap.NewNop())

	dishes := s.EmbellishMenu([]menu.Dish{mainCourse("salmon", "rice", "miso")}, style(t, kb, "japanese"), DefaultOptions())
	require.Len(t, dishes, 1)

	got := bindingsOf(dishes[0])
	require.Len(t, got, 2)
	assert.Equal(t, "salmon", got["searing"], "category-matched protein takes the sear")
	assert.Equal(t, "miso", got["spherification"], "molecular technique binds the liquid")

	require.Len(t, dishes[0].Log, 2)
	for _, c := range dishes[0].Log {
		assert.Equal(t, menu.ChangeComplex, c.Kind)
		assert.Equal(t, "technique", c.Op)
	}
}

func TestTextureOverlapDiscardsNearDuplicate(t *testing.T) {
	kb := testKnowledgeBase(t)
	s := New(kb, zap.NewNop())

	// searing and charring share the exact texture tag set, so only one may
	// bind even though two were requested.
	dishes := s.EmbellishMenu([]menu.Dish{mainCourse("salmon", "tuna")}, style(t, kb, "charred"), DefaultOptions())

	require.Len(t, dishes[0].Techniques, 1)
	assert.Equal(t, "searing", dishes[0].Techniques[0].Technique)
}

func TestCrossDishReusePenaltyVariesTheMenu(t *testing.T) {
	kb := testKnowledgeBase(t)
	s := New(kb, zap.NewNop())

	opts := Options{PerDish: 1, MinScore: 2.0}
	dishes := s.EmbellishMenu([]menu.Dish{
		mainCourse("salmon"),
		mainCourse("tuna"),
	}, style(t, kb, "contrast"), opts)

	require.Len(t, dishes[0].Techniques, 1)
	require.Len(t, dishes[1].Techniques, 1)
	assert.NotEqual(t, dishes[0].Techniques[0].Technique, dishes[1].Techniques[0].Technique,
		"a technique used on one course is penalized on the next")
}

func TestScarcestTechniqueBindsFirst(t *testing.T) {
	kb := testKnowledgeBase(t)
	s := New(kb, zap.NewNop())

	// torching accepts anything, emulsifying only the liquid. Binding the
	// flexible technique first would leave emulsifying nothing to take.
	dishes := s.EmbellishMenu([]menu.Dish{mainCourse("salmon", "miso")}, style(t, kb, "precise"), DefaultOptions())

	got := bindingsOf(dishes[0])
	require.Len(t, got, 2)
	assert.Equal(t, "miso", got["emulsifying"])
	assert.Equal(t, "salmon", got["torching"])
}

func TestCourseLevelTechniqueBindsWithoutIngredient(t *testing.T) {
	kb := testKnowledgeBase(t)
	s := New(kb, zap.NewNop())

	dessert := menu.Dish{Name: "Dessert", Course: ontology.CourseDessert, Ingredients: []string{"chocolate"}}
	dishes := s.EmbellishMenu([]menu.Dish{dessert}, style(t, kb, "plated"), Options{PerDish: 1, MinScore: 2.0})

	require.Len(t, dishes[0].Techniques, 1)
	assert.Equal(t, "plated composition", dishes[0].Techniques[0].Technique)
	assert.Empty(t, dishes[0].Techniques[0].Ingredient, "course-level binding consumes no ingredient")
}

func TestRelaxationKeepsLaterDishesEmbellished(t *testing.T) {
	kb := testKnowledgeBase(t)
	s := New(kb, zap.NewNop())

	// One declared technique across four courses of the same kind: only the
	// full relaxation ladder, including lifting the reuse penalty, keeps the
	// last dish embellished.
	opts := Options{PerDish: 1, MinScore: 2.0}
	dishes := s.EmbellishMenu([]menu.Dish{
		mainCourse("salmon"),
		mainCourse("tuna"),
		mainCourse("salmon", "rice"),
		mainCourse("tuna", "rice"),
	}, style(t, kb, "seared only"), opts)

	for i, d := range dishes {
		require.Len(t, d.Techniques, 1, "dish %d", i)
		assert.Equal(t, "searing", d.Techniques[0].Technique)
	}
}

func TestUnknownTechniqueAndEmptyStyleAreIgnored(t *testing.T) {
	kb := testKnowledgeBase(t)
	s := New(kb, zap.NewNop())

	st := &ontology.Style{Name: "ghost", Representatives: []string{"miso"}, Techniques: []string{"levitation"}}
	dishes := s.EmbellishMenu([]menu.Dish{mainCourse("salmon")}, []*ontology.Style{st, nil}, DefaultOptions())

	assert.Empty(t, dishes[0].Techniques)
	assert.Empty(t, dishes[0].Log)
}
