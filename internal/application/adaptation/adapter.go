// Package adaptation rewrites dish ingredient lists toward a requested diet
// and culinary style. Two strategies exist: categorical substitution driven
// by the ontology, and latent substitution driven by embedding-space
// similarity to a style concept vector. Both produce a new dish plus a typed
// transformation log; the input dish is never mutated.
package adaptation

import (
	"math/rand"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"github.com/convivio/convivio/internal/ports/outbound"
	"go.uber.org/zap"
)

// Style adaptation strategies.
const (
	// StrategyLatent substitutes through the embedding space toward the
	// style's concept vector.
	StrategyLatent = "latent"
	// StrategyCategorical substitutes through the ontology against the
	// style's allow-list only.
	StrategyCategorical = "categorical"
)

// Options tunes an adaptation pass.
type Options struct {
	// Strategy selects the style adaptation path. Empty means latent.
	Strategy string

	// Temperature controls stochastic exploration in the vector index.
	Temperature float64

	// Intensity in [0,1] scales the required similarity gain and the
	// dish-level style target of latent adaptation.
	Intensity float64

	// MaxFillIns bounds the style-gap-fill step, the only step allowed to
	// change the ingredient count.
	MaxFillIns int

	// CandidateWindow is the number of creative candidates requested per
	// ingredient.
	CandidateWindow int
}

// DefaultOptions returns the canonical adaptation tuning.
func DefaultOptions() Options {
	return Options{
		Strategy:        StrategyLatent,
		Temperature:     0.3,
		Intensity:       0.5,
		MaxFillIns:      2,
		CandidateWindow: 12,
	}
}

// Latent adaptation constants.
const (
	// styleSkipThreshold leaves ingredients already close to the concept
	// vector untouched.
	styleSkipThreshold = 0.75

	// categoryCrossPenalty is subtracted from a candidate's gain when it
	// crosses macro-category.
	categoryCrossPenalty = 0.05

	// minGainBase and minGainSlope define the intensity-proportional
	// minimum similarity gain a substitution must deliver.
	minGainBase  = 0.02
	minGainSlope = 0.08

	// styleTargetBase and styleTargetSlope define the intensity-dependent
	// average similarity the dish should reach before gap-fill stops.
	styleTargetBase  = 0.45
	styleTargetSlope = 0.25
)

// Adapter rewrites dishes. The random source is injected so temperature
// sampling and random fallbacks are reproducible in tests.
type Adapter struct {
	kb      *ontology.KnowledgeBase
	vectors outbound.VectorIndex
	rng     *rand.Rand
	logger  *zap.Logger
}

// New creates an adapter.
func New(kb *ontology.KnowledgeBase, vectors outbound.VectorIndex, rng *rand.Rand, logger *zap.Logger) *Adapter {
	return &Adapter{
		kb:      kb,
		vectors: vectors,
		rng:     rng,
		logger:  logger.Named("adapter"),
	}
}

// validCandidate reports whether an ingredient can enter the dish under the
// active profile and optional allow-list.
func (a *Adapter) validCandidate(ing *ontology.Ingredient, dish menu.Dish, profile ontology.DietProfile, allow *ontology.Style) bool {
	if dish.Contains(ing.Name) {
		return false
	}
	if !profile.Allows(ing) {
		return false
	}
	if allow != nil && !allow.Allows(ing.Name) {
		return false
	}
	return true
}
