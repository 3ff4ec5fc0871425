package embedding

import (
	"context"
	"hash/fnv"
)

// DefaultHashDimensions is the vector size used by NewHash when none is given.
const DefaultHashDimensions = 512

// Compile-time interface check.
var _ Embedder = (*Hash)(nil)

// Hash is a feature-hashing embedder: each token is hashed into one of a
// fixed number of buckets and term counts are accumulated there, then the
// vector is L2-normalized. It is deterministic for identical input and needs
// no model download or network access, which makes it the offline and test
// provider.
type Hash struct {
	dims int
}

// NewHash creates a feature-hashing embedder with the given dimensionality.
func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &Hash{dims: dims}
}

// Embed converts texts to normalized term-frequency vectors.
func (h *Hash) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, h.dims)
		for _, word := range tokenize(text) {
			vec[h.bucket(word)]++
		}
		Normalize(vec)
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the vector dimensionality.
func (h *Hash) Dimensions() int { return h.dims }

// Name returns the embedder name.
func (h *Hash) Name() string { return "hash" }

func (h *Hash) bucket(word string) int {
	f := fnv.New32a()
	f.Write([]byte(word))
	return int(f.Sum32() % uint32(h.dims))
}
