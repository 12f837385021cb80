package menu

import "strings"

// ChangeKind classifies a transformation event for adaptation-cost
// accounting. The kind is attached when the event is created, so retention
// never has to reconstruct intent from free text.
type ChangeKind string

const (
	// ChangeComplex covers style, latent, technique, structural and
	// cultural transformations. Cost weight 3.
	ChangeComplex ChangeKind = "complex"
	// ChangeSimple covers direct one-for-one substitutions. Cost weight 1.
	ChangeSimple ChangeKind = "simple"
	// ChangeCosmetic covers text-only or advisory entries. Cost weight 0.
	ChangeCosmetic ChangeKind = "cosmetic"
)

// CostWeight returns the adaptation-cost weight of the kind.
func (k ChangeKind) CostWeight() int {
	switch k {
	case ChangeComplex:
		return 3
	case ChangeSimple:
		return 1
	default:
		return 0
	}
}

// Substitution methods recorded on changes.
const (
	MethodEmbedding = "embedding"
	MethodOntology  = "ontology"
	MethodRandom    = "random"
)

// Change is one transformation event applied to a dish.
type Change struct {
	Kind        ChangeKind `json:"kind"`
	Op          string     `json:"op"`
	Ingredient  string     `json:"ingredient,omitempty"`
	Replacement string     `json:"replacement,omitempty"`
	Method      string     `json:"method,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// TransformationLog is the ordered list of changes applied to a dish during
// adaptation.
type TransformationLog []Change

// Cost sums the weights of all changes. Entries without a kind fall back to
// keyword classification of the note, which only happens for legacy cases
// imported from free-text logs.
func (l TransformationLog) Cost() int {
	total := 0
	for _, c := range l {
		kind := c.Kind
		if kind == "" {
			kind = ClassifyNote(c.Note)
		}
		total += kind.CostWeight()
	}
	return total
}

// complexKeywords mark transformations that reshaped the dish.
var complexKeywords = []string{"style", "latent", "technique", "structural", "cultural", "concept"}

// simpleKeywords mark direct substitutions.
var simpleKeywords = []string{"substitut", "replac", "swap"}

// ClassifyNote maps a legacy free-text log line to a change kind. New code
// must tag changes at creation instead.
func ClassifyNote(note string) ChangeKind {
	n := strings.ToLower(note)
	for _, kw := range complexKeywords {
		if strings.Contains(n, kw) {
			return ChangeComplex
		}
	}
	for _, kw := range simpleKeywords {
		if strings.Contains(n, kw) {
			return ChangeSimple
		}
	}
	return ChangeCosmetic
}
