package embedding

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/convivio/convivio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testVectors() map[string][]float32 {
	return map[string][]float32{
		"salmon":     {1, 0, 0},
		"raw salmon": {1, 0, 0},
		"tuna":       {0.9, 0.1, 0},
		"tofu":       {0, 1, 0},
		"miso":       {0.1, 0.9, 0},
		"chocolate":  {0, 0, 1},

		// Filtered at load time.
		"ascorbic acid": {1, 1, 1},
		"slow braised free range chicken with lemon and thyme": {1, 1, 0},
	}
}

func newTestIndex(t *testing.T, seed int64) *Index {
	t.Helper()
	idx, err := New(testVectors(), map[string]string{"maguro": "tuna"}, rand.New(rand.NewSource(seed)), zap.NewNop())
	require.NoError(t, err)
	return idx
}

func TestNewFiltersImplausibleEntries(t *testing.T) {
	idx := newTestIndex(t, 1)

	assert.Equal(t, 6, idx.Size())
	assert.Equal(t, 3, idx.Dimension())

	_, ok := idx.Resolve("ascorbic acid")
	assert.False(t, ok, "chemical entries must not be indexed")
}

func TestResolve(t *testing.T) {
	idx := newTestIndex(t, 1)

	name, ok := idx.Resolve("  Salmon ")
	require.True(t, ok)
	assert.Equal(t, "salmon", name)

	name, ok = idx.Resolve("maguro")
	require.True(t, ok)
	assert.Equal(t, "tuna", name, "alias table")

	name, ok = idx.Resolve("tunas")
	require.True(t, ok)
	assert.Equal(t, "tuna", name, "plural stripping")

	name, ok = idx.Resolve("smoked tofu")
	require.True(t, ok)
	assert.Equal(t, "tofu", name, "token match")

	_, ok = idx.Resolve("dragonfruit")
	assert.False(t, ok)
}

func TestNearestNeighborsExcludesNearIdentical(t *testing.T) {
	idx := newTestIndex(t, 1)

	vec, ok := idx.Vector("salmon")
	require.True(t, ok)

	neighbors := idx.NearestNeighbors(vec, 3, []string{"salmon"})
	require.NotEmpty(t, neighbors)

	assert.Equal(t, "tuna", neighbors[0].Name)
	for _, n := range neighbors {
		assert.NotEqual(t, "salmon", n.Name)
		assert.NotEqual(t, "raw salmon", n.Name, "duplicate vectors are near-identical")
		assert.LessOrEqual(t, n.Similarity, 1.0)
	}
	for i := 1; i < len(neighbors); i++ {
		assert.GreaterOrEqual(t, neighbors[i-1].Similarity, neighbors[i].Similarity)
	}
}

func TestSimilarity(t *testing.T) {
	idx := newTestIndex(t, 1)

	sim, ok := idx.Similarity("salmon", []float32{1, 0, 0})
	require.True(t, ok)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, ok = idx.Similarity("tofu", []float32{1, 0, 0})
	require.True(t, ok)
	assert.InDelta(t, 0.0, sim, 1e-9)

	_, ok = idx.Similarity("dragonfruit", []float32{1, 0, 0})
	assert.False(t, ok)
}

func TestCreativeCandidatesDeterministicAtZeroTemperature(t *testing.T) {
	idx := newTestIndex(t, 1)

	first, err := idx.CreativeCandidates("salmon", 3, 0, nil)
	require.NoError(t, err)
	second, err := idx.CreativeCandidates("salmon", 3, 0, nil)
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "tuna", first[0].Name)
}

func TestCreativeCandidatesSampleAtTemperature(t *testing.T) {
	a := newTestIndex(t, 42)
	b := newTestIndex(t, 42)

	got, err := a.CreativeCandidates("salmon", 2, 1.0, nil)
	require.NoError(t, err)
	same, err := b.CreativeCandidates("salmon", 2, 1.0, nil)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].Name, got[1].Name, "sampling is without replacement")
	assert.Equal(t, got, same, "same seed, same draw")
	for _, n := range got {
		assert.NotEqual(t, "salmon", n.Name)
	}
}

func TestCreativeCandidatesUnknownName(t *testing.T) {
	idx := newTestIndex(t, 1)

	_, err := idx.CreativeCandidates("dragonfruit", 3, 0, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeEmbeddingUnavailable, apperrors.GetCode(err))
}

func TestConceptVector(t *testing.T) {
	idx := newTestIndex(t, 1)

	concept, err := idx.ConceptVector([]string{"salmon", "tofu", "dragonfruit"})
	require.NoError(t, err)
	require.Len(t, concept, 3)
	assert.InDelta(t, 0.5, float64(concept[0]), 1e-6)
	assert.InDelta(t, 0.5, float64(concept[1]), 1e-6)
	assert.InDelta(t, 0.0, float64(concept[2]), 1e-6)

	_, err = idx.ConceptVector([]string{"dragonfruit", "starfruit"})
	assert.Error(t, err, "no resolvable name")
}

func TestTriangularIndexStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		got := triangularIndex(rng, 9, 4.5)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 9)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	data, err := json.Marshal(storeFile{
		Vectors: map[string][]float32{"salmon": {1, 0, 0}, "tuna": {0.9, 0.1, 0}},
		Aliases: map[string]string{"maguro": "tuna"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	idx, err := Load(path, rand.New(rand.NewSource(1)), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Size())

	name, ok := idx.Resolve("maguro")
	require.True(t, ok)
	assert.Equal(t, "tuna", name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"), rand.New(rand.NewSource(1)), zap.NewNop())
	assert.Error(t, err)
}
