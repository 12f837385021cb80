// Package embedding wraps a precomputed ingredient-name to vector map in a
// dense matrix with per-row norms for batched cosine similarity. The index
// is read-only after construction and safe for concurrent readers; the
// injected random source is only touched by CreativeCandidates, which the
// single-session pipeline calls from one goroutine.
package embedding

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/convivio/convivio/internal/domain/ontology"
	"github.com/convivio/convivio/internal/ports/outbound"
	apperrors "github.com/convivio/convivio/pkg/errors"
	"go.uber.org/zap"
)

const (
	// nearIdenticalThreshold excludes the query itself and trivial
	// duplicates from neighbor results.
	nearIdenticalThreshold = 0.999

	// maxNameLength drops spurious corpus entries with overlong names.
	maxNameLength = 40

	// Steering and sampling constants for CreativeCandidates.
	steerRate  = 0.3
	steerCap   = 0.6
	noiseScale = 0.02
	windowRate = 2.0
)

// chemicalMarkers filter non-food corpus entries at load time.
var chemicalMarkers = []string{"acid", "oxide", "chloride", "sulfate", "sulphate", "benzoate", "nitrate"}

// Index answers nearest-neighbor and concept-vector queries over the
// ingredient embedding space.
type Index struct {
	names   []string
	vectors [][]float32
	norms   []float64
	byName  map[string]int
	aliases map[string]string
	dim     int
	rng     *rand.Rand
	logger  *zap.Logger
}

// New builds an index from a name-to-vector map and an alias table,
// filtering entries that cannot be food names.
func New(vectors map[string][]float32, aliases map[string]string, rng *rand.Rand, logger *zap.Logger) (*Index, error) {
	idx := &Index{
		byName:  make(map[string]int),
		aliases: make(map[string]string, len(aliases)),
		rng:     rng,
		logger:  logger.Named("embedding-index"),
	}

	names := make([]string, 0, len(vectors))
	for name := range vectors {
		names = append(names, name)
	}
	sort.Strings(names)

	skipped := 0
	for _, name := range names {
		vec := vectors[name]
		if !plausibleFoodName(name) || len(vec) == 0 {
			skipped++
			continue
		}
		if idx.dim == 0 {
			idx.dim = len(vec)
		}
		if len(vec) != idx.dim {
			return nil, fmt.Errorf("vector for %q has dimension %d, want %d", name, len(vec), idx.dim)
		}
		key := ontology.Normalize(name)
		if _, dup := idx.byName[key]; dup {
			skipped++
			continue
		}
		idx.byName[key] = len(idx.names)
		idx.names = append(idx.names, name)
		idx.vectors = append(idx.vectors, vec)
		idx.norms = append(idx.norms, norm(vec))
	}

	for alias, target := range aliases {
		idx.aliases[ontology.Normalize(alias)] = ontology.Normalize(target)
	}

	idx.logger.Info("embedding index built",
		zap.Int("entries", len(idx.names)),
		zap.Int("skipped", skipped),
		zap.Int("dimension", idx.dim),
	)
	return idx, nil
}

// storeFile is the on-disk embedding store layout.
type storeFile struct {
	Vectors map[string][]float32 `json:"vectors"`
	Aliases map[string]string    `json:"aliases,omitempty"`
}

// Load reads the embedding store from a JSON file.
func Load(path string, rng *rand.Rand, logger *zap.Logger) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embedding store: %w", err)
	}
	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse embedding store: %w", err)
	}
	return New(file.Vectors, file.Aliases, rng, logger)
}

// plausibleFoodName rejects chemical entries and spuriously long or
// numeric-looking corpus names.
func plausibleFoodName(name string) bool {
	n := ontology.Normalize(name)
	if n == "" || len(n) > maxNameLength {
		return false
	}
	digits := 0
	for _, r := range n {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits >= 3 || (digits > 0 && digits*2 >= len(n)) {
		return false
	}
	for _, marker := range chemicalMarkers {
		if strings.Contains(n, marker) {
			return false
		}
	}
	return true
}

// Resolve maps a free-form name to the canonical indexed name: normalized
// exact match, alias table, singular/plural stripping, then partial match.
func (idx *Index) Resolve(name string) (string, bool) {
	key := ontology.Normalize(name)
	if key == "" {
		return "", false
	}

	if i, ok := idx.byName[key]; ok {
		return idx.names[i], true
	}

	if target, ok := idx.aliases[key]; ok {
		if i, ok := idx.byName[target]; ok {
			return idx.names[i], true
		}
	}

	for _, variant := range singularVariants(key) {
		if i, ok := idx.byName[variant]; ok {
			return idx.names[i], true
		}
	}

	// Partial match: substring containment or shared token, first index
	// order wins so resolution stays deterministic.
	tokens := strings.Fields(key)
	for i, indexed := range idx.names {
		in := ontology.Normalize(indexed)
		if strings.Contains(in, key) || strings.Contains(key, in) {
			return idx.names[i], true
		}
		for _, tok := range tokens {
			if len(tok) > 3 && containsToken(in, tok) {
				return idx.names[i], true
			}
		}
	}

	return "", false
}

// singularVariants strips common plural suffixes.
func singularVariants(name string) []string {
	var out []string
	if strings.HasSuffix(name, "es") {
		out = append(out, strings.TrimSuffix(name, "es"))
	}
	if strings.HasSuffix(name, "s") {
		out = append(out, strings.TrimSuffix(name, "s"))
	}
	return out
}

func containsToken(haystack, token string) bool {
	for _, t := range strings.Fields(haystack) {
		if t == token {
			return true
		}
	}
	return false
}

// Vector returns the embedding for a resolvable name.
func (idx *Index) Vector(name string) ([]float32, bool) {
	resolved, ok := idx.Resolve(name)
	if !ok {
		return nil, false
	}
	return idx.vectors[idx.byName[ontology.Normalize(resolved)]], true
}

// Similarity returns the cosine similarity between a name's vector and an
// arbitrary query vector.
func (idx *Index) Similarity(name string, vec []float32) (float64, bool) {
	v, ok := idx.Vector(name)
	if !ok || len(vec) != idx.dim {
		return 0, false
	}
	return cosine(v, norm(v), vec, norm(vec)), true
}

// NearestNeighbors returns the top n names by cosine similarity to vec,
// skipping near-identical matches, overlong names and the excluded set.
func (idx *Index) NearestNeighbors(vec []float32, n int, exclude []string) []outbound.Neighbor {
	if n <= 0 || len(vec) != idx.dim {
		return nil
	}

	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[ontology.Normalize(e)] = true
	}

	qNorm := norm(vec)
	results := make([]outbound.Neighbor, 0, len(idx.names))
	for i, name := range idx.names {
		if excluded[ontology.Normalize(name)] {
			continue
		}
		sim := cosine(idx.vectors[i], idx.norms[i], vec, qNorm)
		if sim >= nearIdenticalThreshold {
			continue
		}
		results = append(results, outbound.Neighbor{Name: name, Similarity: sim})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if n < len(results) {
		results = results[:n]
	}
	return results
}

// CreativeCandidates returns n substitution candidates for the name. At
// temperature 0 it is the deterministic top-n. Above 0 the query vector is
// steered toward styleVec with strength growing in temperature (capped),
// Gaussian noise scaled by temperature is injected, the candidate window
// widens proportionally, and n results are sampled without replacement
// using a triangular distribution whose mode drifts from the best rank
// toward the middle of the window as temperature rises.
func (idx *Index) CreativeCandidates(name string, n int, temperature float64, styleVec []float32) ([]outbound.Neighbor, error) {
	resolved, ok := idx.Resolve(name)
	if !ok {
		return nil, apperrors.NewEmbeddingUnavailableError(name)
	}
	base := idx.vectors[idx.byName[ontology.Normalize(resolved)]]

	query := make([]float32, idx.dim)
	copy(query, base)

	if temperature > 0 {
		if len(styleVec) == idx.dim {
			strength := math.Min(steerCap, steerRate*temperature)
			for i := range query {
				query[i] = float32((1-strength)*float64(query[i]) + strength*float64(styleVec[i]))
			}
		}
		for i := range query {
			query[i] += float32(idx.rng.NormFloat64() * noiseScale * temperature)
		}
	}

	window := n
	if temperature > 0 {
		window = n + int(float64(n)*windowRate*temperature)
	}

	ranked := idx.NearestNeighbors(query, window, []string{resolved})
	if temperature <= 0 || len(ranked) <= n {
		if n < len(ranked) {
			ranked = ranked[:n]
		}
		return ranked, nil
	}

	return idx.sampleTriangular(ranked, n, temperature), nil
}

// sampleTriangular draws n distinct entries from the ranked window. The
// distribution's mode sits at rank 0 for temperature 0 and drifts toward
// the window midpoint as temperature approaches 1, flattening the draw.
func (idx *Index) sampleTriangular(ranked []outbound.Neighbor, n int, temperature float64) []outbound.Neighbor {
	t := math.Min(1, temperature)
	b := float64(len(ranked) - 1)
	mode := t * b / 2

	picked := make([]outbound.Neighbor, 0, n)
	used := make(map[int]bool, n)
	for len(picked) < n {
		i := triangularIndex(idx.rng, b, mode)
		if used[i] {
			continue
		}
		used[i] = true
		picked = append(picked, ranked[i])
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Similarity > picked[j].Similarity
	})
	return picked
}

// triangularIndex samples an integer in [0,b] from a triangular
// distribution with minimum 0, maximum b and mode c.
func triangularIndex(rng *rand.Rand, b, c float64) int {
	if b <= 0 {
		return 0
	}
	u := rng.Float64()
	var x float64
	if u < c/b {
		x = math.Sqrt(u * b * c)
	} else {
		x = b - math.Sqrt((1-u)*b*(b-c))
	}
	i := int(math.Round(x))
	if i < 0 {
		i = 0
	}
	if i > int(b) {
		i = int(b)
	}
	return i
}

// ConceptVector returns the mean of the resolvable names' vectors: an
// abstract style or flavor direction.
func (idx *Index) ConceptVector(names []string) ([]float32, error) {
	sum := make([]float64, idx.dim)
	count := 0
	for _, name := range names {
		vec, ok := idx.Vector(name)
		if !ok {
			idx.logger.Debug("concept vector skipping unresolved name", zap.String("name", name))
			continue
		}
		for i, v := range vec {
			sum[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil, fmt.Errorf("none of %d names resolved to a vector", len(names))
	}

	out := make([]float32, idx.dim)
	for i := range sum {
		out[i] = float32(sum[i] / float64(count))
	}
	return out, nil
}

// Size returns the number of indexed entries.
func (idx *Index) Size() int { return len(idx.names) }

// Dimension returns the vector dimensionality.
func (idx *Index) Dimension() int { return idx.dim }

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
