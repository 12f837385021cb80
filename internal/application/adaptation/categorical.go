package adaptation

import (
	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"github.com/convivio/convivio/pkg/errors"
	"go.uber.org/zap"
)

// AdaptCategorical replaces every forbidden ingredient with a same-category
// substitute. The candidate pool is filtered against a profile augmented
// with the forbidden ingredient's own allergens and family, then ranked by
// embedding proximity, ontological affinity, and finally uniform random
// choice. Ingredient count is always preserved: an irreplaceable ingredient
// stays, with a logged warning.
func (a *Adapter) AdaptCategorical(dish menu.Dish, forbidden []string, profile ontology.DietProfile, style *ontology.Style) menu.Dish {
	out := dish.Clone()

	forbiddenSet := make(map[string]bool, len(forbidden))
	for _, f := range forbidden {
		forbiddenSet[ontology.Normalize(f)] = true
	}

	for i, name := range out.Ingredients {
		if !forbiddenSet[ontology.Normalize(name)] {
			continue
		}

		original, ok := a.kb.Ingredient(name)
		if !ok {
			// Nothing known about the name, skip rather than fail.
			a.logger.Warn("forbidden ingredient not in knowledge base, left unchanged",
				zap.String("dish", out.Name),
				zap.Error(errors.NewLookupMissError("ingredient", name)),
			)
			out.Record(menu.Change{
				Kind:       menu.ChangeCosmetic,
				Op:         "lookup-miss",
				Ingredient: name,
				Note:       "ingredient unknown to the ontology, left unchanged",
			})
			continue
		}

		augmented := profile.Augmented(original)
		pool := a.candidatePool(original, out, forbiddenSet, augmented, style)
		if len(pool) == 0 {
			a.logger.Warn("no valid substitute, ingredient left unchanged",
				zap.String("dish", out.Name),
				zap.Error(errors.NewNoCandidateError(name)),
			)
			out.Record(menu.Change{
				Kind:       menu.ChangeCosmetic,
				Op:         "no-candidate",
				Ingredient: name,
				Note:       "no compatible candidate in category " + string(original.Category),
			})
			continue
		}

		replacement, method := a.rankCandidates(original, pool)
		out.Ingredients[i] = replacement.Name
		out.Record(menu.Change{
			Kind:        menu.ChangeSimple,
			Op:          "substitute",
			Ingredient:  original.Name,
			Replacement: replacement.Name,
			Method:      method,
		})
		a.logger.Debug("categorical substitution",
			zap.String("dish", out.Name),
			zap.String("from", original.Name),
			zap.String("to", replacement.Name),
			zap.String("method", method),
		)
	}

	return out
}

// candidatePool gathers same-category ingredients compatible with the
// augmented profile, the dish and the optional style allow-list.
func (a *Adapter) candidatePool(original *ontology.Ingredient, dish menu.Dish, forbidden map[string]bool, profile ontology.DietProfile, style *ontology.Style) []*ontology.Ingredient {
	var pool []*ontology.Ingredient
	for _, cand := range a.kb.IngredientsByCategory(original.Category) {
		if ontology.Normalize(cand.Name) == ontology.Normalize(original.Name) {
			continue
		}
		if forbidden[ontology.Normalize(cand.Name)] {
			continue
		}
		if !a.validCandidate(cand, dish, profile, style) {
			continue
		}
		pool = append(pool, cand)
	}
	return pool
}

// rankCandidates picks the best substitute from the pool. Embedding
// neighbors of the original win when any intersect the pool; otherwise
// ontological affinity (shared typical role) decides; a uniform random
// member is the last resort.
func (a *Adapter) rankCandidates(original *ontology.Ingredient, pool []*ontology.Ingredient) (*ontology.Ingredient, string) {
	byName := make(map[string]*ontology.Ingredient, len(pool))
	for _, c := range pool {
		byName[ontology.Normalize(c.Name)] = c
	}

	if vec, ok := a.vectors.Vector(original.Name); ok {
		neighbors := a.vectors.NearestNeighbors(vec, len(pool)+8, []string{original.Name})
		for _, n := range neighbors {
			if resolved, ok := a.vectors.Resolve(n.Name); ok {
				if cand, inPool := byName[ontology.Normalize(resolved)]; inPool {
					return cand, menu.MethodEmbedding
				}
			}
		}
	}

	// Same typical role is the strongest ontological signal left: the
	// family is excluded by profile augmentation.
	role := ontology.Normalize(original.Role)
	if role != "" {
		for _, cand := range pool {
			if ontology.Normalize(cand.Role) == role {
				return cand, menu.MethodOntology
			}
		}
	}

	return pool[a.rng.Intn(len(pool))], menu.MethodRandom
}
