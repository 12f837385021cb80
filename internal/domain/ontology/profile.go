package ontology

// DietProfile captures the active dietary constraints of a planning session:
// diets every ingredient must be tagged for, allergens none may carry, and
// explicitly excluded ingredient names or families.
type DietProfile struct {
	Diets            []string
	Allergens        []string
	ExcludedNames    []string
	ExcludedFamilies []string
}

// Allows reports whether the ingredient satisfies the profile.
func (p DietProfile) Allows(ing *Ingredient) bool {
	for _, diet := range p.Diets {
		if !ing.HasDiet(diet) {
			return false
		}
	}
	for _, allergen := range p.Allergens {
		if ing.HasAllergen(allergen) {
			return false
		}
	}
	n := Normalize(ing.Name)
	for _, ex := range p.ExcludedNames {
		if Normalize(ex) == n {
			return false
		}
	}
	fam := Normalize(ing.Family)
	for _, ex := range p.ExcludedFamilies {
		if fam != "" && Normalize(ex) == fam {
			return false
		}
	}
	return true
}

// Augmented returns a copy of the profile extended with the forbidden
// ingredient's own allergen tags and family, so that removing shrimp also
// keeps other crustaceans out of the candidate pool.
func (p DietProfile) Augmented(forbidden *Ingredient) DietProfile {
	out := DietProfile{
		Diets:            append([]string(nil), p.Diets...),
		Allergens:        append([]string(nil), p.Allergens...),
		ExcludedNames:    append([]string(nil), p.ExcludedNames...),
		ExcludedFamilies: append([]string(nil), p.ExcludedFamilies...),
	}
	out.Allergens = append(out.Allergens, forbidden.Allergens...)
	out.ExcludedNames = append(out.ExcludedNames, forbidden.Name)
	if forbidden.Family != "" {
		out.ExcludedFamilies = append(out.ExcludedFamilies, forbidden.Family)
	}
	return out
}
