// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"

	"github.com/convivio/convivio/internal/domain/menu"
)

// CaseRepository defines the interface for case-base persistence. Cases are
// only ever appended; there are no partial updates.
type CaseRepository interface {
	// All returns every persisted case in ordinal order.
	All(ctx context.Context) ([]*menu.MenuCase, error)

	// NextOrdinal returns the sequential id the next retained case receives.
	NextOrdinal(ctx context.Context) (int, error)

	// Append adds an evaluated case to durable storage before returning.
	Append(ctx context.Context, c *menu.MenuCase) error
}

// Neighbor is one nearest-neighbor result from the vector index.
type Neighbor struct {
	Name       string
	Similarity float64
}

// VectorIndex defines the embedding-store operations the adapter needs:
// name resolution, similarity queries and concept vectors. Implementations
// are read-only after load and safe for concurrent readers.
type VectorIndex interface {
	// Resolve maps a free-form name to the canonical indexed name.
	Resolve(name string) (string, bool)

	// Vector returns the embedding for a resolvable name.
	Vector(name string) ([]float32, bool)

	// Similarity returns the cosine similarity between a name's vector and
	// an arbitrary query vector.
	Similarity(name string, vec []float32) (float64, bool)

	// NearestNeighbors returns the top n names by cosine similarity to vec,
	// excluding near-identical matches and the listed names.
	NearestNeighbors(vec []float32, n int, exclude []string) []Neighbor

	// CreativeCandidates returns n substitution candidates for the name.
	// At temperature 0 it is the deterministic top-n; above 0 the query is
	// optionally steered toward styleVec, noised, and sampled from a
	// widened window.
	CreativeCandidates(name string, n int, temperature float64, styleVec []float32) ([]Neighbor, error)

	// ConceptVector returns the mean vector of the resolvable names.
	ConceptVector(names []string) ([]float32, error)
}

// AIService defines the downstream presentation collaborator: descriptive
// text and image prompts for adapted dishes. Implementations must degrade
// to a deterministic template when the external call fails.
type AIService interface {
	DescribeDish(ctx context.Context, dish menu.Dish, style string) (string, error)
	ImagePrompt(ctx context.Context, dish menu.Dish, style string) (string, error)
}
