package adaptation

import (
	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"github.com/convivio/convivio/internal/ports/outbound"
	"go.uber.org/zap"
)

// AdaptToStyle pushes the dish toward a style's concept vector. Ingredients
// already close to the concept stay; the rest are offered temperature-scaled
// creative candidates and substituted only when a candidate's similarity
// gain clears the intensity-proportional minimum and passes the dietary
// checks. When the dish-level average similarity still falls short, up to
// MaxFillIns style representatives are appended; nothing is ever removed.
//
// When the style has no usable concept vector, or the categorical strategy
// is selected, the adapter works ontology-only over the style's allow-list.
func (a *Adapter) AdaptToStyle(dish menu.Dish, style *ontology.Style, profile ontology.DietProfile, opts Options) menu.Dish {
	if opts.Strategy == StrategyCategorical {
		return a.adaptToAllowList(dish, style, profile)
	}

	concept, err := a.vectors.ConceptVector(style.Representatives)
	if err != nil || len(concept) == 0 {
		a.logger.Warn("style has no concept vector, falling back to ontology-only adaptation",
			zap.String("style", style.Name),
			zap.Error(err),
		)
		return a.adaptToAllowList(dish, style, profile)
	}

	out := dish.Clone()
	minGain := minGainBase + minGainSlope*opts.Intensity
	window := opts.CandidateWindow
	if window <= 0 {
		window = DefaultOptions().CandidateWindow
	}

	for i, name := range out.Ingredients {
		sim, ok := a.vectors.Similarity(name, concept)
		if !ok {
			// EmbeddingUnavailable for this name: keep it and move on.
			out.Record(menu.Change{
				Kind:       menu.ChangeCosmetic,
				Op:         "embedding-miss",
				Ingredient: name,
				Note:       "no vector, ingredient kept",
			})
			continue
		}
		if sim >= styleSkipThreshold {
			continue
		}

		candidates, err := a.vectors.CreativeCandidates(name, window, opts.Temperature, concept)
		if err != nil {
			out.Record(menu.Change{
				Kind:       menu.ChangeCosmetic,
				Op:         "embedding-miss",
				Ingredient: name,
				Note:       "no creative candidates, ingredient kept",
			})
			continue
		}

		best := a.pickLatentCandidate(name, sim, candidates, concept, out, profile, minGain)
		if best == "" {
			continue
		}

		out.Ingredients[i] = best
		out.Record(menu.Change{
			Kind:        menu.ChangeComplex,
			Op:          "style-substitute",
			Ingredient:  name,
			Replacement: best,
			Method:      menu.MethodEmbedding,
		})
		a.logger.Debug("latent substitution",
			zap.String("dish", out.Name),
			zap.String("from", name),
			zap.String("to", best),
			zap.String("style", style.Name),
		)
	}

	a.fillStyleGap(&out, style, concept, profile, opts)
	return out
}

// pickLatentCandidate selects the candidate with the largest similarity gain
// over the original, penalizing macro-category crossings, and returns ""
// when no candidate clears the minimum gain or the dietary checks.
func (a *Adapter) pickLatentCandidate(original string, originalSim float64, candidates []outbound.Neighbor, concept []float32, dish menu.Dish, profile ontology.DietProfile, minGain float64) string {
	origIng, origKnown := a.kb.Ingredient(original)

	bestGain := minGain
	best := ""
	for _, cand := range candidates {
		candSim, ok := a.vectors.Similarity(cand.Name, concept)
		if !ok {
			continue
		}

		ing, known := a.kb.Ingredient(cand.Name)
		if !known {
			// Only ontology-backed ingredients can enter a dish.
			continue
		}
		if !a.validCandidate(ing, dish, profile, nil) {
			continue
		}

		gain := candSim - originalSim
		if origKnown && ing.Category != origIng.Category {
			gain -= categoryCrossPenalty
		}
		if gain > bestGain {
			bestGain = gain
			best = ing.Name
		}
	}
	return best
}

// fillStyleGap appends style representatives while the dish's average
// ingredient-to-concept similarity stays below the intensity-dependent
// target. Bounded by MaxFillIns; guarantees forward progress, not
// convergence.
func (a *Adapter) fillStyleGap(dish *menu.Dish, style *ontology.Style, concept []float32, profile ontology.DietProfile, opts Options) {
	target := styleTargetBase + styleTargetSlope*opts.Intensity
	maxFill := opts.MaxFillIns
	if maxFill <= 0 {
		return
	}

	added := 0
	for _, rep := range style.Representatives {
		if added >= maxFill {
			break
		}
		if a.averageStyleSimilarity(*dish, concept) >= target {
			break
		}

		ing, known := a.kb.Ingredient(rep)
		if !known {
			continue
		}
		if !a.validCandidate(ing, *dish, profile, nil) {
			continue
		}
		if _, hasVec := a.vectors.Vector(ing.Name); !hasVec {
			continue
		}

		dish.Ingredients = append(dish.Ingredients, ing.Name)
		dish.Record(menu.Change{
			Kind:        menu.ChangeComplex,
			Op:          "style-fill",
			Replacement: ing.Name,
			Method:      menu.MethodEmbedding,
		})
		added++
		a.logger.Debug("style gap fill",
			zap.String("dish", dish.Name),
			zap.String("added", ing.Name),
			zap.String("style", style.Name),
		)
	}
}

// averageStyleSimilarity is the mean concept similarity over the dish's
// resolvable ingredients.
func (a *Adapter) averageStyleSimilarity(dish menu.Dish, concept []float32) float64 {
	var total float64
	count := 0
	for _, name := range dish.Ingredients {
		if sim, ok := a.vectors.Similarity(name, concept); ok {
			total += sim
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// adaptToAllowList is the ontology-only fallback: every ingredient outside
// the style's allow-list is treated as forbidden and substituted
// categorically within the allow-list.
func (a *Adapter) adaptToAllowList(dish menu.Dish, style *ontology.Style, profile ontology.DietProfile) menu.Dish {
	if len(style.AllowList) == 0 {
		// Nothing to steer toward; record the degradation and return a copy.
		out := dish.Clone()
		out.Record(menu.Change{
			Kind: menu.ChangeCosmetic,
			Op:   "style-skip",
			Note: "style " + style.Name + " has neither concept vector nor allow-list",
		})
		return out
	}

	var forbidden []string
	for _, name := range dish.Ingredients {
		if !style.Allows(name) {
			forbidden = append(forbidden, name)
		}
	}
	return a.AdaptCategorical(dish, forbidden, profile, style)
}
