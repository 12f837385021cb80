// Package technique assigns culinary techniques to adapted dishes. Candidate
// techniques come from the target styles; each is scored against a dish,
// filtered for texture diversity, and bound to a concrete ingredient with a
// scarcity-aware ordering so a flexible technique never steals the only
// ingredient a picky one could use.
package technique

import (
	"sort"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"go.uber.org/zap"
)

// Scoring constants.
const (
	courseMatchPoints   = 2.0
	stateMatchPoints    = 1.0
	categoryMatchPoints = 1.0
	familyMatchPoints   = 1.0
	molecularBonus      = 1.0
	reusePenalty        = 1.5

	priorityFamilyBonus   = 2.0
	priorityCategoryBonus = 1.0
	scarcityWeight        = 0.5

	// textureOverlapLimit discards a candidate whose texture tags overlap
	// an already-selected technique's tags with Jaccard at or above it.
	textureOverlapLimit = 0.7
)

// Options tunes a selection pass.
type Options struct {
	// PerDish is the number of techniques requested per dish.
	PerDish int

	// MinScore is the initial score threshold; relaxation stages lower it.
	MinScore float64
}

// DefaultOptions returns the canonical selection tuning.
func DefaultOptions() Options {
	return Options{
		PerDish:  2,
		MinScore: 2.0,
	}
}

// stage is one step of the relaxation ladder: a lower threshold, and in the
// last resort no cross-dish reuse penalty.
type stage struct {
	threshold   float64
	applyReuse  bool
	description string
}

// Selector scores and binds techniques.
type Selector struct {
	kb     *ontology.KnowledgeBase
	logger *zap.Logger
}

// New creates a selector.
func New(kb *ontology.KnowledgeBase, logger *zap.Logger) *Selector {
	return &Selector{
		kb:     kb,
		logger: logger.Named("technique-selector"),
	}
}

// EmbellishMenu binds techniques to every dish of the menu. Dishes are
// processed in order and share a menu-wide usage count, so a technique bound
// on the first course is penalized when considered for the second. The input
// dishes are not mutated.
func (s *Selector) EmbellishMenu(dishes []menu.Dish, styles []*ontology.Style, opts Options) []menu.Dish {
	if opts.PerDish <= 0 {
		opts = DefaultOptions()
	}

	candidates := s.styleTechniques(styles)
	used := make(map[string]int)

	out := make([]menu.Dish, len(dishes))
	for i, dish := range dishes {
		out[i] = s.embellishDish(dish, candidates, used, opts)
	}
	return out
}

// styleTechniques resolves the techniques declared by the styles, deduplicated
// in declaration order.
func (s *Selector) styleTechniques(styles []*ontology.Style) []*ontology.Technique {
	var out []*ontology.Technique
	seen := make(map[string]bool)
	for _, st := range styles {
		if st == nil {
			continue
		}
		for _, name := range st.Techniques {
			key := ontology.Normalize(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			tech, ok := s.kb.Technique(name)
			if !ok {
				s.logger.Warn("style declares unknown technique",
					zap.String("style", st.Name),
					zap.String("technique", name),
				)
				continue
			}
			out = append(out, tech)
		}
	}
	return out
}

// embellishDish runs the relaxation ladder for one dish: score and select at
// the current stage, bind scarcest-first, and descend a stage while the dish
// still has fewer bound techniques than requested.
func (s *Selector) embellishDish(dish menu.Dish, candidates []*ontology.Technique, used map[string]int, opts Options) menu.Dish {
	out := dish.Clone()

	stages := []stage{
		{threshold: opts.MinScore, applyReuse: true, description: "strict"},
		{threshold: opts.MinScore / 2, applyReuse: true, description: "relaxed threshold"},
		{threshold: 0, applyReuse: true, description: "no threshold"},
		{threshold: 0, applyReuse: false, description: "no reuse penalty"},
	}

	bound := make(map[string]bool)
	consumed := make(map[string]bool)
	var chosen []*ontology.Technique
	var bindings []menu.TechniqueBinding

	for _, st := range stages {
		if len(bindings) >= opts.PerDish {
			break
		}

		selected := s.selectCandidates(out, candidates, bound, chosen, used, st, opts.PerDish-len(bindings))
		if len(selected) == 0 {
			continue
		}
		if st.description != "strict" {
			s.logger.Debug("technique selection relaxed",
				zap.String("dish", out.Name),
				zap.String("stage", st.description),
			)
		}

		chosen = append(chosen, selected...)

		for _, binding := range s.bindScarcestFirst(out, selected, consumed) {
			bindings = append(bindings, binding)
			bound[ontology.Normalize(binding.Technique)] = true
			if binding.Ingredient != "" {
				consumed[ontology.Normalize(binding.Ingredient)] = true
			}
			used[ontology.Normalize(binding.Technique)]++

			out.Record(menu.Change{
				Kind:       menu.ChangeComplex,
				Op:         "technique",
				Ingredient: binding.Ingredient,
				Note:       "technique " + binding.Technique + " bound",
			})
			if len(bindings) >= opts.PerDish {
				break
			}
		}
	}

	out.Techniques = append(out.Techniques, bindings...)
	return out
}

// scored pairs a technique with its dish score.
type scored struct {
	tech  *ontology.Technique
	score float64
}

// selectCandidates scores the unbound candidates against the dish, drops the
// ones below the stage threshold, sorts by score and enforces texture
// diversity against the techniques already picked for this dish, including
// picks from earlier relaxation stages.
func (s *Selector) selectCandidates(dish menu.Dish, candidates []*ontology.Technique, alreadyBound map[string]bool, chosen []*ontology.Technique, used map[string]int, st stage, want int) []*ontology.Technique {
	var ranked []scored
	for _, tech := range candidates {
		if alreadyBound[ontology.Normalize(tech.Name)] {
			continue
		}
		if !tech.AppliesToCourse(dish.Course) {
			continue
		}
		score := s.scoreTechnique(dish, tech)
		if st.applyReuse {
			score -= reusePenalty * float64(used[ontology.Normalize(tech.Name)])
		}
		if score < st.threshold {
			continue
		}
		ranked = append(ranked, scored{tech: tech, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].tech.Name < ranked[j].tech.Name
	})

	var selected []*ontology.Technique
	for _, r := range ranked {
		if len(selected) >= want {
			break
		}
		if s.textureClash(r.tech, chosen) || s.textureClash(r.tech, selected) {
			s.logger.Debug("technique dropped for texture overlap",
				zap.String("dish", dish.Name),
				zap.String("technique", r.tech.Name),
			)
			continue
		}
		selected = append(selected, r.tech)
	}
	return selected
}

// scoreTechnique computes the stage-independent part of a technique's score
// for the dish.
func (s *Selector) scoreTechnique(dish menu.Dish, tech *ontology.Technique) float64 {
	var score float64
	if len(tech.Courses) > 0 {
		// AppliesToCourse already held, so a declared course list is a match.
		score += courseMatchPoints
	}

	stateHit, categoryHit, familyHit, hasLiquid := false, false, false, false
	for _, name := range dish.Ingredients {
		ing, ok := s.kb.Ingredient(name)
		if !ok {
			continue
		}
		state := s.kb.InferState(name)
		if state == ontology.StateLiquid || state == ontology.StateSemiLiquid {
			hasLiquid = true
		}
		if containsState(tech.States, state) {
			stateHit = true
		}
		if containsCategory(tech.Categories, ing.Category) {
			categoryHit = true
		}
		if containsFamily(tech.Families, ing.Family) {
			familyHit = true
		}
	}

	if stateHit {
		score += stateMatchPoints
	}
	if categoryHit {
		score += categoryMatchPoints
	}
	if familyHit {
		score += familyMatchPoints
	}
	if tech.Molecular && hasLiquid {
		score += molecularBonus
	}
	return score
}

// textureClash reports whether the candidate's texture tags overlap any
// selected technique's tags with Jaccard at or above the limit.
func (s *Selector) textureClash(cand *ontology.Technique, selected []*ontology.Technique) bool {
	for _, sel := range selected {
		if textureJaccard(cand.TextureTags, sel.TextureTags) >= textureOverlapLimit {
			return true
		}
	}
	return false
}

// textureJaccard is |A∩B| / |A∪B| over normalized tags. An untagged
// technique never clashes.
func textureJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[ontology.Normalize(t)] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[ontology.Normalize(t)] = true
	}
	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// bindScarcestFirst attaches each selected technique to a concrete
// ingredient. Techniques with the fewest eligible ingredients bind first so
// flexible techniques cannot take the only ingredient a constrained one
// accepts. A course-level technique with no free ingredient binds to the
// course itself; anything else that cannot bind is dropped.
func (s *Selector) bindScarcestFirst(dish menu.Dish, selected []*ontology.Technique, consumed map[string]bool) []menu.TechniqueBinding {
	eligible := make(map[string][]string, len(selected))
	for _, tech := range selected {
		eligible[ontology.Normalize(tech.Name)] = s.eligibleIngredients(dish, tech)
	}

	order := append([]*ontology.Technique(nil), selected...)
	sort.SliceStable(order, func(i, j int) bool {
		ei := len(eligible[ontology.Normalize(order[i].Name)])
		ej := len(eligible[ontology.Normalize(order[j].Name)])
		if ei != ej {
			return ei < ej
		}
		return order[i].Name < order[j].Name
	})

	pending := make(map[string]bool, len(order))
	for _, tech := range order {
		pending[ontology.Normalize(tech.Name)] = true
	}

	var bindings []menu.TechniqueBinding
	for _, tech := range order {
		delete(pending, ontology.Normalize(tech.Name))

		ingredient := s.pickIngredient(tech, eligible, pending, consumed)
		if ingredient == "" {
			if tech.CourseLevel {
				bindings = append(bindings, menu.TechniqueBinding{Technique: tech.Name})
				continue
			}
			s.logger.Debug("technique could not bind",
				zap.String("dish", dish.Name),
				zap.String("technique", tech.Name),
			)
			continue
		}

		consumed[ontology.Normalize(ingredient)] = true
		bindings = append(bindings, menu.TechniqueBinding{Technique: tech.Name, Ingredient: ingredient})
	}
	return bindings
}

// eligibleIngredients lists the dish ingredients the technique applies to,
// in dish order.
func (s *Selector) eligibleIngredients(dish menu.Dish, tech *ontology.Technique) []string {
	var out []string
	for _, name := range dish.Ingredients {
		ing, ok := s.kb.Ingredient(name)
		if !ok {
			continue
		}
		if tech.AppliesTo(ing, s.kb.InferState(name)) {
			out = append(out, name)
		}
	}
	return out
}

// pickIngredient chooses the unconsumed eligible ingredient with the best
// composite score: declared priority bonuses minus a scarcity penalty per
// still-pending technique that also accepts the ingredient. Ties keep dish
// order.
func (s *Selector) pickIngredient(tech *ontology.Technique, eligible map[string][]string, pending map[string]bool, consumed map[string]bool) string {
	best := ""
	bestScore := 0.0
	for _, name := range eligible[ontology.Normalize(tech.Name)] {
		if consumed[ontology.Normalize(name)] {
			continue
		}
		ing, ok := s.kb.Ingredient(name)
		if !ok {
			continue
		}

		score := 0.0
		if tech.PrefersFamily(ing.Family) {
			score += priorityFamilyBonus
		}
		if tech.PrefersCategory(ing.Category) {
			score += priorityCategoryBonus
		}
		for other, names := range eligible {
			if other == ontology.Normalize(tech.Name) || !pending[other] {
				continue
			}
			for _, n := range names {
				if ontology.Normalize(n) == ontology.Normalize(name) {
					score -= scarcityWeight
					break
				}
			}
		}

		if best == "" || score > bestScore {
			best = name
			bestScore = score
		}
	}
	return best
}

func containsState(set []ontology.PhysicalState, s ontology.PhysicalState) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsCategory(set []ontology.MacroCategory, c ontology.MacroCategory) bool {
	for _, v := range set {
		if v == c {
			return true
		}
	}
	return false
}

func containsFamily(set []string, family string) bool {
	n := ontology.Normalize(family)
	for _, v := range set {
		if ontology.Normalize(v) == n {
			return true
		}
	}
	return false
}
