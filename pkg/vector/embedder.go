package vector

import (
	"context"
	"hash/fnv"
	"math"
)

// DeterministicEmbedder produces stable pseudo-embeddings from text
// hashes. Used in tests and mock mode so retrieval is repeatable
// without an embedding model. Identical texts map to identical
// vectors; similar texts do not cluster.
type DeterministicEmbedder struct {
	dim int
}

// NewDeterministicEmbedder creates an embedder emitting dim-sized vectors.
func NewDeterministicEmbedder(dim int) *DeterministicEmbedder {
	if dim < 1 {
		dim = 64
	}
	return &DeterministicEmbedder{dim: dim}
}

// Embed implements Embedder.
func (e *DeterministicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *DeterministicEmbedder) vector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, e.dim)
	var norm float64
	for i := range vec {
		// xorshift keeps the sequence deterministic per seed.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float32(int64(seed%2000)-1000) / 1000
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
