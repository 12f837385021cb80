package ontology

import (
	"fmt"
	"strings"
)

// KnowledgeBase indexes the ontology tables by normalized name. It is built
// once at startup and never mutated afterwards, so lookups need no locking.
type KnowledgeBase struct {
	ingredients map[string]*Ingredient
	styles      map[string]*Style
	techniques  map[string]*Technique

	byCategory map[MacroCategory][]*Ingredient
	byFamily   map[string][]*Ingredient
}

// NewKnowledgeBase validates every record and builds the lookup indexes.
func NewKnowledgeBase(ingredients []Ingredient, styles []Style, techniques []Technique) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		ingredients: make(map[string]*Ingredient, len(ingredients)),
		styles:      make(map[string]*Style, len(styles)),
		techniques:  make(map[string]*Technique, len(techniques)),
		byCategory:  make(map[MacroCategory][]*Ingredient),
		byFamily:    make(map[string][]*Ingredient),
	}

	for i := range ingredients {
		ing := ingredients[i]
		if err := ing.Validate(); err != nil {
			return nil, fmt.Errorf("invalid ingredient record: %w", err)
		}
		key := Normalize(ing.Name)
		if _, dup := kb.ingredients[key]; dup {
			return nil, fmt.Errorf("duplicate ingredient %q", ing.Name)
		}
		kb.ingredients[key] = &ing
		kb.byCategory[ing.Category] = append(kb.byCategory[ing.Category], &ing)
		if ing.Family != "" {
			fam := Normalize(ing.Family)
			kb.byFamily[fam] = append(kb.byFamily[fam], &ing)
		}
	}

	for i := range styles {
		st := styles[i]
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("invalid style record: %w", err)
		}
		kb.styles[Normalize(st.Name)] = &st
	}

	for i := range techniques {
		t := techniques[i]
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("invalid technique record: %w", err)
		}
		kb.techniques[Normalize(t.Name)] = &t
	}

	return kb, nil
}

// Ingredient looks up an ingredient by normalized name.
func (kb *KnowledgeBase) Ingredient(name string) (*Ingredient, bool) {
	ing, ok := kb.ingredients[Normalize(name)]
	return ing, ok
}

// Style looks up a style by normalized name.
func (kb *KnowledgeBase) Style(name string) (*Style, bool) {
	st, ok := kb.styles[Normalize(name)]
	return st, ok
}

// Technique looks up a technique by normalized name.
func (kb *KnowledgeBase) Technique(name string) (*Technique, bool) {
	t, ok := kb.techniques[Normalize(name)]
	return t, ok
}

// IngredientsByCategory returns every ingredient in the macro-category.
func (kb *KnowledgeBase) IngredientsByCategory(c MacroCategory) []*Ingredient {
	return kb.byCategory[c]
}

// FamilyMembers returns every ingredient sharing the family.
func (kb *KnowledgeBase) FamilyMembers(family string) []*Ingredient {
	return kb.byFamily[Normalize(family)]
}

// IngredientCount returns the number of loaded ingredient records.
func (kb *KnowledgeBase) IngredientCount() int { return len(kb.ingredients) }

// TechniqueCount returns the number of loaded technique records.
func (kb *KnowledgeBase) TechniqueCount() int { return len(kb.techniques) }

// StyleCount returns the number of loaded style records.
func (kb *KnowledgeBase) StyleCount() int { return len(kb.styles) }

// Normalize canonicalizes a name for lookup: lowercased, trimmed, inner
// whitespace collapsed to single spaces.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}
