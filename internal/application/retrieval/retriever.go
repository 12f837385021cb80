// Package retrieval scores stored cases against a catering request across
// seven weighted dimensions and returns a ranked, explainable result.
// Scoring is pure: no side effects, no stored state beyond the weights.
package retrieval

import (
	"math"
	"sort"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/internal/domain/ontology"
	"go.uber.org/zap"
)

// Dimension names used in the per-dimension breakdown.
const (
	DimEvent        = "event"
	DimService      = "service"
	DimRestrictions = "restrictions"
	DimSeason       = "season"
	DimFormality    = "formality"
	DimGuests       = "guests"
	DimPrice        = "price"
)

// Weights holds the relative weight of each dimension. They must sum to 1.
type Weights struct {
	Event        float64
	Service      float64
	Restrictions float64
	Season       float64
	Formality    float64
	Guests       float64
	Price        float64
}

// DefaultWeights returns the canonical weighting scheme.
func DefaultWeights() Weights {
	return Weights{
		Event:        0.30,
		Service:      0.25,
		Restrictions: 0.20,
		Season:       0.10,
		Formality:    0.10,
		Guests:       0.03,
		Price:        0.02,
	}
}

// Sum returns the total weight, used to validate configured overrides.
func (w Weights) Sum() float64 {
	return w.Event + w.Service + w.Restrictions + w.Season + w.Formality + w.Guests + w.Price
}

// Params holds the decay constants of the continuous similarities.
type Params struct {
	// GuestAlpha scales the logistic decay 1/(1+alpha*delta).
	GuestAlpha float64
	// PriceBeta scales the overspend penalty exp(-beta*over/target).
	PriceBeta float64
	// PriceFloor is the minimum price similarity for any overspend.
	PriceFloor float64
}

// DefaultParams returns the canonical decay constants.
func DefaultParams() Params {
	return Params{GuestAlpha: 0.05, PriceBeta: 4, PriceFloor: 0.1}
}

// Match is one scored case with its per-dimension detail.
type Match struct {
	Case       *menu.MenuCase
	Score      float64
	Dimensions map[string]float64
}

// Retriever ranks stored cases against a query.
type Retriever struct {
	weights Weights
	params  Params
	logger  *zap.Logger
}

// New creates a retriever. Zero-valued weights fall back to the defaults.
func New(weights Weights, params Params, logger *zap.Logger) *Retriever {
	if weights.Sum() == 0 {
		weights = DefaultWeights()
	}
	if params.PriceBeta == 0 {
		params = DefaultParams()
	}
	return &Retriever{
		weights: weights,
		params:  params,
		logger:  logger.Named("retriever"),
	}
}

// Score computes the weighted aggregate of the seven component similarities.
// Every component lies in [0,1].
func (r *Retriever) Score(query menu.ProblemSpec, c *menu.MenuCase) Match {
	p := c.Problem()

	dims := map[string]float64{
		DimEvent:        familySimilarity(query.Event, p.Event, eventFamilies),
		DimService:      familySimilarity(query.Service, p.Service, serviceFamilies),
		DimRestrictions: restrictionSimilarity(query.Restrictions, p.Restrictions),
		DimSeason:       seasonSimilarity(query.Season, p.Season),
		DimFormality:    formalitySimilarity(query.Formality, p.Formality),
		DimGuests:       r.guestSimilarity(query.Guests, p.Guests),
		DimPrice:        r.priceSimilarity(c.Price(), query.BudgetPerHead),
	}

	score := r.weights.Event*dims[DimEvent] +
		r.weights.Service*dims[DimService] +
		r.weights.Restrictions*dims[DimRestrictions] +
		r.weights.Season*dims[DimSeason] +
		r.weights.Formality*dims[DimFormality] +
		r.weights.Guests*dims[DimGuests] +
		r.weights.Price*dims[DimPrice]

	return Match{Case: c, Score: score, Dimensions: dims}
}

// RetrieveSimilar scores every case and returns the top k, descending by
// score, each with its full breakdown.
func (r *Retriever) RetrieveSimilar(query menu.ProblemSpec, cases []*menu.MenuCase, k int) []Match {
	matches := make([]Match, 0, len(cases))
	for _, c := range cases {
		matches = append(matches, r.Score(query, c))
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}

	if len(matches) > 0 {
		r.logger.Debug("retrieved similar cases",
			zap.Int("scored", len(cases)),
			zap.Int("returned", len(matches)),
			zap.Float64("best_score", matches[0].Score),
		)
	}
	return matches
}

// eventFamilies clusters event types that are mutually familiar.
var eventFamilies = map[string]string{
	"wedding":     "celebration",
	"communion":   "celebration",
	"baptism":     "celebration",
	"birthday":    "celebration",
	"anniversary": "celebration",
	"graduation":  "celebration",
	"conference":  "corporate",
	"seminar":     "corporate",
	"corporate":   "corporate",
	"team event":  "corporate",
	"christmas":   "seasonal",
	"new year":    "seasonal",
}

// serviceFamilies clusters service modes: informal standing formats on one
// side, plated formats on the other.
var serviceFamilies = map[string]string{
	"cocktail":    "standing",
	"finger food": "standing",
	"buffet":      "standing",
	"food truck":  "standing",
	"seated":      "plated",
	"banquet":     "plated",
	"gala":        "plated",
	"family":      "plated",
}

// familySimilarity returns 1.0 on exact match, 0.7 when both values belong
// to the same semantic family, 0.2 otherwise.
func familySimilarity(a, b string, families map[string]string) float64 {
	na, nb := ontology.Normalize(a), ontology.Normalize(b)
	if na == nb {
		return 1.0
	}
	fa, okA := families[na]
	fb, okB := families[nb]
	if okA && okB && fa == fb {
		return 0.7
	}
	return 0.2
}

// restrictionSimilarity is the Jaccard index over normalized restriction
// sets. A requester with no restrictions can use any case, so the trivial
// query scores 1.0.
func restrictionSimilarity(query, stored []string) float64 {
	if len(query) == 0 {
		return 1.0
	}
	qs := normalizeSet(query)
	ss := normalizeSet(stored)

	intersection := 0
	for r := range qs {
		if ss[r] {
			intersection++
		}
	}
	union := len(qs) + len(ss) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

func normalizeSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		if n := ontology.Normalize(it); n != "" {
			out[n] = true
		}
	}
	return out
}

// seasonSimilarity maps the cyclic ring distance: 0 -> 1.0, 1 -> 0.5,
// 2 (opposite) -> 0.0.
func seasonSimilarity(a, b menu.Season) float64 {
	switch a.RingDistance(b) {
	case 0:
		return 1.0
	case 1:
		return 0.5
	default:
		return 0.0
	}
}

// formalityLevels orders the recognized formality values.
var formalityLevels = map[string]int{
	"informal":   0,
	"semiformal": 1,
	"formal":     2,
}

// formalitySimilarity treats formality as an ordinal scale: exact 1.0,
// adjacent 0.5, opposite ends 0.0, unknown values 0.2.
func formalitySimilarity(a, b string) float64 {
	la, okA := formalityLevels[ontology.Normalize(a)]
	lb, okB := formalityLevels[ontology.Normalize(b)]
	if !okA || !okB {
		if ontology.Normalize(a) == ontology.Normalize(b) {
			return 1.0
		}
		return 0.2
	}
	d := la - lb
	if d < 0 {
		d = -d
	}
	return 1.0 - float64(d)/2
}

// guestSimilarity applies logistic decay on the absolute guest-count delta.
func (r *Retriever) guestSimilarity(query, stored int) float64 {
	delta := float64(query - stored)
	if delta < 0 {
		delta = -delta
	}
	return 1.0 / (1.0 + r.params.GuestAlpha*delta)
}

// priceSimilarity is asymmetric: staying at or under the target budget is a
// perfect score, overspend decays exponentially with a floor. Underspend is
// never punished; overspend is punished hard.
func (r *Retriever) priceSimilarity(casePrice, target float64) float64 {
	if target <= 0 || casePrice <= target {
		return 1.0
	}
	over := (casePrice - target) / target
	sim := math.Exp(-r.params.PriceBeta * over)
	if sim < r.params.PriceFloor {
		return r.params.PriceFloor
	}
	return sim
}
