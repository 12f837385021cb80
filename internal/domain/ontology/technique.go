package ontology

import "errors"

// Technique is a culinary transformation rule with applicability predicates
// over ingredient state, macro-category, family and course, plus exclusion
// predicates and binding priorities. Empty predicate sets match everything.
type Technique struct {
	Name string `json:"name"`

	// Applicability predicates
	Courses    []Course        `json:"courses,omitempty"`
	States     []PhysicalState `json:"states,omitempty"`
	Categories []MacroCategory `json:"categories,omitempty"`
	Families   []string        `json:"families,omitempty"`

	// Exclusion predicates
	ExcludedCategories []MacroCategory `json:"excluded_categories,omitempty"`
	ExcludedFamilies   []string        `json:"excluded_families,omitempty"`

	// Binding priorities declared by the technique
	PriorityFamilies   []string        `json:"priority_families,omitempty"`
	PriorityCategories []MacroCategory `json:"priority_categories,omitempty"`

	// Declared impact tags
	TextureTags []string `json:"texture_tags,omitempty"`
	FlavorTags  []string `json:"flavor_tags,omitempty"`

	// Molecular techniques get a bonus on dishes with liquid content.
	Molecular bool `json:"molecular,omitempty"`

	// CourseLevel techniques may bind to the course itself without
	// consuming an ingredient (e.g. a generic dessert plating technique).
	CourseLevel bool `json:"course_level,omitempty"`
}

// Validate checks the record at load time.
func (t Technique) Validate() error {
	if t.Name == "" {
		return errors.New("technique name is required")
	}
	for _, c := range t.Courses {
		switch c {
		case CourseFirst, CourseSecond, CourseDessert:
		default:
			return errors.New("technique " + t.Name + " declares unknown course " + string(c))
		}
	}
	return nil
}

// AppliesToCourse reports whether the technique may appear on the course.
func (t Technique) AppliesToCourse(c Course) bool {
	if len(t.Courses) == 0 {
		return true
	}
	for _, tc := range t.Courses {
		if tc == c {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the technique can consume the ingredient,
// checking the state/category/family applicability sets and the exclusions.
func (t Technique) AppliesTo(ing *Ingredient, state PhysicalState) bool {
	for _, ex := range t.ExcludedCategories {
		if ex == ing.Category {
			return false
		}
	}
	for _, ex := range t.ExcludedFamilies {
		if Normalize(ex) == Normalize(ing.Family) {
			return false
		}
	}

	stateOK := len(t.States) == 0
	for _, s := range t.States {
		if s == state {
			stateOK = true
			break
		}
	}
	categoryOK := len(t.Categories) == 0
	for _, c := range t.Categories {
		if c == ing.Category {
			categoryOK = true
			break
		}
	}
	familyOK := len(t.Families) == 0
	for _, f := range t.Families {
		if Normalize(f) == Normalize(ing.Family) {
			familyOK = true
			break
		}
	}

	return stateOK && categoryOK && familyOK
}

// PrefersFamily reports whether the ingredient's family is a declared
// binding priority.
func (t Technique) PrefersFamily(family string) bool {
	for _, f := range t.PriorityFamilies {
		if Normalize(f) == Normalize(family) {
			return true
		}
	}
	return false
}

// PrefersCategory reports whether the category is a declared binding priority.
func (t Technique) PrefersCategory(c MacroCategory) bool {
	for _, pc := range t.PriorityCategories {
		if pc == c {
			return true
		}
	}
	return false
}
