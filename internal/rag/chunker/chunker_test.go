package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClampsParameters(t *testing.T) {
	s := New(0, -5)
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, 0, s.Overlap())

	s = New(100, 100)
	assert.Equal(t, 25, s.Overlap())
}

func TestSplitEmpty(t *testing.T) {
	s := New(100, 20)
	assert.Nil(t, s.Split(""))
}

func TestSplitShortTextIsIdentity(t *testing.T) {
	s := New(100, 20)
	text := "Markets closed mixed on Friday."
	chunks := s.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])

	// Re-splitting a chunk that already fits returns it unchanged.
	again := s.Split(chunks[0])
	require.Len(t, again, 1)
	assert.Equal(t, chunks[0], again[0])
}

func TestSplitChunkSizeBound(t *testing.T) {
	s := New(50, 10)
	text := strings.Repeat("earnings beat expectations across the board. ", 30)
	for i, c := range s.Split(text) {
		assert.LessOrEqual(t, len([]rune(c)), 50, "chunk %d exceeds window", i)
	}
}

func TestSplitCoverage(t *testing.T) {
	texts := []string{
		strings.Repeat("The quarterly report cited strong demand.\n", 40),
		strings.Repeat("x", 997),
		"para one.\n\npara two is a bit longer than the first one.\n\npara three closes it out.",
	}
	s := New(40, 8)
	for _, text := range texts {
		chunks := s.Split(text)
		require.NotEmpty(t, chunks)

		// Concatenating chunks with the shared overlap removed must
		// reproduce the original exactly.
		var b strings.Builder
		b.WriteString(chunks[0])
		for _, c := range chunks[1:] {
			runes := []rune(c)
			b.WriteString(string(runes[s.Overlap():]))
		}
		assert.Equal(t, text, b.String())
	}
}

func TestSplitOverlapShared(t *testing.T) {
	s := New(30, 6)
	text := strings.Repeat("word ", 50)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-s.Overlap():])
		head := string(cur[:s.Overlap()])
		assert.Equal(t, tail, head, "chunks %d/%d do not share the overlap", i-1, i)
	}
}

func TestSplitPrefersSeparator(t *testing.T) {
	s := New(30, 5)
	text := "first sentence here\nsecond sentence follows along afterwards"
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	// The first window contains a newline past the overlap, so the break
	// lands just after it instead of mid-word.
	assert.Equal(t, "first sentence here\n", chunks[0])
}

func TestSplitWithMetadata(t *testing.T) {
	s := New(20, 4)
	meta := map[string]string{"source": "TechNews.com"}
	chunks := s.SplitWithMetadata(strings.Repeat("alpha beta ", 10), meta)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, meta, c.Metadata)
	}
	// Metadata is copied, not shared.
	chunks[0].Metadata["source"] = "changed"
	assert.Equal(t, "TechNews.com", chunks[1].Metadata["source"])
}
