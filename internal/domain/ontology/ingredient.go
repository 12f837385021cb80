// Package ontology contains the read-only culinary reference model:
// ingredients, styles and techniques, and the knowledge base that indexes
// them by normalized name. The tables are hand-authored and loaded once;
// after construction the knowledge base is safe for concurrent readers.
package ontology

import "errors"

// MacroCategory groups ingredients at the coarsest level.
type MacroCategory string

const (
	CategoryProtein   MacroCategory = "protein"
	CategoryVegetable MacroCategory = "vegetable"
	CategoryFruit     MacroCategory = "fruit"
	CategoryGrain     MacroCategory = "grain"
	CategoryDairy     MacroCategory = "dairy"
	CategoryCondiment MacroCategory = "condiment"
	CategorySweet     MacroCategory = "sweet"
)

// PhysicalState describes an ingredient's physical form, used by technique
// applicability predicates.
type PhysicalState string

const (
	StateSolid      PhysicalState = "solid"
	StateLiquid     PhysicalState = "liquid"
	StateSemiLiquid PhysicalState = "semi-liquid"
	StatePowder     PhysicalState = "powder"
)

// Course identifies the slot a dish occupies in a menu.
type Course string

const (
	CourseFirst   Course = "first"
	CourseSecond  Course = "second"
	CourseDessert Course = "dessert"
)

// Courses lists every valid course in menu order.
var Courses = []Course{CourseFirst, CourseSecond, CourseDessert}

// Ingredient is a typed reference record. State is optional; when empty the
// knowledge base infers it from name and family heuristics.
type Ingredient struct {
	Name      string        `json:"name"`
	Category  MacroCategory `json:"category"`
	Family    string        `json:"family"`
	Role      string        `json:"role"`
	State     PhysicalState `json:"state,omitempty"`
	Allergens []string      `json:"allergens,omitempty"`
	Diets     []string      `json:"diets,omitempty"`
}

// Validate checks the record at load time.
func (i Ingredient) Validate() error {
	if i.Name == "" {
		return errors.New("ingredient name is required")
	}
	if i.Category == "" {
		return errors.New("ingredient macro-category is required")
	}
	switch i.State {
	case "", StateSolid, StateLiquid, StateSemiLiquid, StatePowder:
	default:
		return errors.New("unknown physical state " + string(i.State))
	}
	return nil
}

// HasDiet reports whether the ingredient is tagged as allowed for the diet.
func (i Ingredient) HasDiet(diet string) bool {
	for _, d := range i.Diets {
		if Normalize(d) == Normalize(diet) {
			return true
		}
	}
	return false
}

// HasAllergen reports whether the ingredient carries the allergen tag.
func (i Ingredient) HasAllergen(allergen string) bool {
	for _, a := range i.Allergens {
		if Normalize(a) == Normalize(allergen) {
			return true
		}
	}
	return false
}
