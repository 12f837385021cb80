package menu

import (
	"github.com/convivio/convivio/internal/domain/ontology"
)

// TechniqueBinding attaches a technique to a concrete ingredient of a dish,
// or to the course itself when Ingredient is empty.
type TechniqueBinding struct {
	Technique  string `json:"technique"`
	Ingredient string `json:"ingredient,omitempty"`
}

// Dish is one course's composition. Adaptation never mutates a dish in
// place: the adapter clones the stored dish and works on the copy, so the
// originating case stays intact.
type Dish struct {
	Name        string             `json:"name"`
	Course      ontology.Course    `json:"course"`
	Ingredients []string           `json:"ingredients"`
	Price       float64            `json:"price"`
	StyleTags   []string           `json:"style_tags,omitempty"`
	Techniques  []TechniqueBinding `json:"techniques,omitempty"`
	Log         TransformationLog  `json:"log,omitempty"`
}

// Validate checks dish structure.
func (d Dish) Validate() error {
	if d.Name == "" {
		return ErrDishNameRequired
	}
	switch d.Course {
	case ontology.CourseFirst, ontology.CourseSecond, ontology.CourseDessert:
	default:
		return ErrInvalidCourse
	}
	if len(d.Ingredients) == 0 {
		return ErrNoIngredients
	}
	return nil
}

// Clone returns a deep copy.
func (d Dish) Clone() Dish {
	out := d
	out.Ingredients = append([]string(nil), d.Ingredients...)
	out.StyleTags = append([]string(nil), d.StyleTags...)
	out.Techniques = append([]TechniqueBinding(nil), d.Techniques...)
	out.Log = append(TransformationLog(nil), d.Log...)
	return out
}

// Contains reports whether the dish already lists the ingredient,
// by normalized name.
func (d Dish) Contains(name string) bool {
	n := ontology.Normalize(name)
	for _, ing := range d.Ingredients {
		if ontology.Normalize(ing) == n {
			return true
		}
	}
	return false
}

// Record appends a transformation event to the dish log.
func (d *Dish) Record(c Change) {
	d.Log = append(d.Log, c)
}
