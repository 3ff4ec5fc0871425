package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	e := NewHash(256)
	ctx := context.Background()

	a, err := e.Embed(ctx, []string{"Apple reported record iPhone revenue"})
	require.NoError(t, err)
	b, err := e.Embed(ctx, []string{"Apple reported record iPhone revenue"})
	require.NoError(t, err)
	assert.Equal(t, a[0], b[0])
}

func TestHashDimensions(t *testing.T) {
	e := NewHash(0)
	assert.Equal(t, DefaultHashDimensions, e.Dimensions())

	vectors, err := e.Embed(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	for _, v := range vectors {
		assert.Len(t, v, DefaultHashDimensions)
	}
}

func TestHashNormalized(t *testing.T) {
	e := NewHash(128)
	vectors, err := e.Embed(context.Background(), []string{"rates held steady by the federal reserve"})
	require.NoError(t, err)

	var norm float64
	for _, v := range vectors[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashSimilarTextsScoreHigher(t *testing.T) {
	e := NewHash(512)
	ctx := context.Background()

	vectors, err := e.Embed(ctx, []string{
		"iphone sales",
		"apple reported record iphone revenue in q1",
		"the federal reserve held interest rates steady",
	})
	require.NoError(t, err)

	related := Dot(vectors[0], vectors[1])
	unrelated := Dot(vectors[0], vectors[2])
	assert.Greater(t, related, unrelated)
}

func TestNormalizeZeroVector(t *testing.T) {
	vec := []float32{0, 0, 0}
	Normalize(vec)
	assert.Equal(t, []float32{0, 0, 0}, vec)
}

func TestTokenize(t *testing.T) {
	words := tokenize("Apple's Q1-2024 earnings, explained!")
	assert.Equal(t, []string{"apple", "s", "q1", "2024", "earnings", "explained"}, words)
}
