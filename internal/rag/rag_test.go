package rag

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"briefd/internal/rag/embedding"
)

func newTestRetriever(t *testing.T) *Retriever {
	t.Helper()
	r, err := NewRetriever(Config{
		PersistDir:   filepath.Join(t.TempDir(), "store"),
		ChunkSize:    200,
		ChunkOverlap: 40,
	}, embedding.NewHash(512), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNewRetrieverRequiresPersistDir(t *testing.T) {
	_, err := NewRetriever(Config{}, embedding.NewHash(0), zap.NewNop())
	require.Error(t, err)
}

func TestAddDocumentsSkipsMissingContent(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()

	report, err := r.AddDocuments(ctx, []Document{
		{Content: "Apple reported record iPhone revenue in Q1.", Metadata: map[string]string{"source": "A"}},
		{Content: "   "},
		{Content: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Chunks)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, 1, report.Skipped[0].Index)
	assert.Equal(t, 2, report.Skipped[1].Index)
}

func TestAddDocumentsAllInvalidIsNoOp(t *testing.T) {
	r := newTestRetriever(t)

	report, err := r.AddDocuments(context.Background(), []Document{
		{Content: ""},
		{Content: "\n\t "},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Len(t, report.Skipped, 2)
	assert.Equal(t, 0, r.Count())
}

func TestAddDocumentsEmptyBatch(t *testing.T) {
	r := newTestRetriever(t)
	report, err := r.AddDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report)
}

func TestAddDocumentsChunksLongContent(t *testing.T) {
	r := newTestRetriever(t)

	report, err := r.AddDocuments(context.Background(), []Document{
		{Content: strings.Repeat("The market rallied on upbeat earnings news. ", 30)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Greater(t, report.Chunks, 1)
	assert.Equal(t, report.Chunks, r.Count())
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	r := newTestRetriever(t)

	_, err := r.RetrieveRelevantDocs(context.Background(), "", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = r.RetrieveRelevantDocs(context.Background(), "  \t\n", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRetrieveRejectsInvalidK(t *testing.T) {
	r := newTestRetriever(t)

	_, err := r.RetrieveRelevantDocs(context.Background(), "earnings", 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = r.RetrieveRelevantDocs(context.Background(), "earnings", -3)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestRetrieveEmptyStoreReturnsEmpty(t *testing.T) {
	r := newTestRetriever(t)

	chunks, err := r.RetrieveRelevantDocs(context.Background(), "anything at all", 5)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveRelevanceScenario(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()

	_, err := r.AddDocuments(ctx, []Document{
		{Content: "Apple reported record iPhone revenue in Q1.", Metadata: map[string]string{"source": "A"}},
		{Content: "The Federal Reserve held interest rates steady.", Metadata: map[string]string{"source": "B"}},
	})
	require.NoError(t, err)

	chunks, err := r.RetrieveRelevantDocs(ctx, "iPhone sales", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A", chunks[0].Metadata["source"])
	assert.Contains(t, chunks[0].Text, "iPhone")
}

func TestRetrieveKBound(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()

	_, err := r.AddDocuments(ctx, []Document{
		{Content: "Apple reported record iPhone revenue in Q1."},
		{Content: "The Federal Reserve held interest rates steady."},
		{Content: "Tesla deliveries fell short of expectations this quarter."},
	})
	require.NoError(t, err)

	chunks, err := r.RetrieveRelevantDocs(ctx, "iPhone sales", 100)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i-1].Score, chunks[i].Score)
	}
}

func TestClearSemantics(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()

	_, err := r.AddDocuments(ctx, []Document{
		{Content: "Apple reported record iPhone revenue in Q1."},
	})
	require.NoError(t, err)
	require.NoError(t, r.Clear(ctx))

	chunks, err := r.RetrieveRelevantDocs(ctx, "iPhone sales", 5)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// New documents are retrievable after a clear.
	_, err = r.AddDocuments(ctx, []Document{
		{Content: "Apple reported record iPhone revenue in Q1.", Metadata: map[string]string{"source": "A"}},
	})
	require.NoError(t, err)

	chunks, err = r.RetrieveRelevantDocs(ctx, "iPhone sales", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A", chunks[0].Metadata["source"])
}

func TestReingestSameDocumentIDReplaces(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()

	doc := Document{ID: "doc-1", Content: "Apple reported record iPhone revenue in Q1.", Metadata: map[string]string{"rev": "1"}}
	_, err := r.AddDocuments(ctx, []Document{doc})
	require.NoError(t, err)

	doc.Metadata = map[string]string{"rev": "2"}
	_, err = r.AddDocuments(ctx, []Document{doc})
	require.NoError(t, err)

	assert.Equal(t, 1, r.Count())
	chunks, err := r.RetrieveRelevantDocs(ctx, "iPhone sales", 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "2", chunks[0].Metadata["rev"])
}

func TestDocumentMetadataInherited(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()

	meta := map[string]string{"source": "AnalystReport.pdf", "date": "2024-05-27"}
	_, err := r.AddDocuments(ctx, []Document{
		{Content: strings.Repeat("Renewable energy stocks are poised for a rally. ", 20), Metadata: meta},
	})
	require.NoError(t, err)

	chunks, err := r.RetrieveRelevantDocs(ctx, "renewable energy stocks", 3)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, meta, c.Metadata)
	}
}
