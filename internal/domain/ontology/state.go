package ontology

// Physical state inference. Technique applicability needs a state for every
// ingredient, but the hand-authored tables only declare it where it is not
// obvious. The layers are tried in order: explicit field, name override,
// family rule, category rule, then solid.

// stateByName overrides inference for names whose state cannot be derived
// from family or category.
var stateByName = map[string]PhysicalState{
	"water":     StateLiquid,
	"milk":      StateLiquid,
	"olive oil": StateLiquid,
	"oil":       StateLiquid,
	"honey":     StateSemiLiquid,
	"egg":       StateSemiLiquid,
}

// liquidFamilies covers families that are liquid regardless of member.
var liquidFamilies = map[string]bool{
	"sauce":     true,
	"stock":     true,
	"broth":     true,
	"reduction": true,
	"vinegar":   true,
	"fat":       true,
	"oil":       true,
	"juice":     true,
}

// powderFamilies covers dry seasonings and sugars.
var powderFamilies = map[string]bool{
	"salt":  true,
	"sugar": true,
	"spice": true,
	"flour": true,
}

// semiLiquidDairyFamilies splits dairy: creams and yogurts flow, cheeses do not.
var semiLiquidDairyFamilies = map[string]bool{
	"cream":  true,
	"yogurt": true,
}

// InferState resolves the physical state of an ingredient name. Unknown
// names default to solid.
func (kb *KnowledgeBase) InferState(name string) PhysicalState {
	ing, ok := kb.Ingredient(name)
	if ok && ing.State != "" {
		return ing.State
	}

	if s, ok := stateByName[Normalize(name)]; ok {
		return s
	}

	if ok {
		fam := Normalize(ing.Family)
		switch {
		case powderFamilies[fam]:
			return StatePowder
		case liquidFamilies[fam]:
			return StateLiquid
		case ing.Category == CategoryDairy:
			if semiLiquidDairyFamilies[fam] {
				return StateSemiLiquid
			}
			return StateSolid
		case ing.Category == CategoryCondiment:
			// Unclassified condiments tend to be pourable.
			return StateLiquid
		}
	}

	return StateSolid
}
