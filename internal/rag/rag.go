// Package rag exposes the retrieval-augmented-generation facade: ingesting
// documents into the vector store and retrieving the chunks most relevant to
// a query. This is the only entry point the rest of the system uses.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"briefd/internal/rag/chunker"
	"briefd/internal/rag/embedding"
	"briefd/internal/rag/store"
)

// Usage errors, rejected before touching the store.
var (
	ErrEmptyQuery     = errors.New("rag: query is empty")
	ErrInvalidK       = errors.New("rag: k must be at least 1")
	ErrMissingContent = errors.New("rag: document has no content")
)

// Document is raw text plus metadata as supplied by an upstream producer
// (scraper, loader, API caller). Immutable once passed to AddDocuments.
type Document struct {
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RetrievedChunk is one ranked retrieval hit.
type RetrievedChunk struct {
	Text     string            `json:"chunk_text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float32           `json:"score"`
}

// Skip records why one document in a batch was not ingested.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report summarizes an AddDocuments batch, so callers can tell "nothing
// added because every input was invalid" apart from "store is empty".
type Report struct {
	Added   int    `json:"added"`
	Chunks  int    `json:"chunks"`
	Skipped []Skip `json:"skipped,omitempty"`
}

// Config holds the retriever's store and chunking settings.
type Config struct {
	PersistDir   string
	ChunkSize    int
	ChunkOverlap int
}

// Retriever owns the vector store handle for the process lifetime and is the
// facade for ingestion and retrieval. Safe for concurrent use.
type Retriever struct {
	store    *store.Store
	splitter *chunker.Splitter
	logger   *zap.Logger
}

// NewRetriever opens (or creates) the store under cfg.PersistDir. A failure
// here is fatal to the owning process: callers must refuse to serve
// retrieval requests rather than operate on a partially initialized store.
func NewRetriever(cfg Config, embedder embedding.Embedder, logger *zap.Logger) (*Retriever, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	st, err := store.Open(cfg.PersistDir, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("rag: open store: %w", err)
	}

	size := cfg.ChunkSize
	if size <= 0 {
		size = chunker.DefaultChunkSize
	}
	overlap := cfg.ChunkOverlap
	if overlap <= 0 {
		overlap = chunker.DefaultOverlap
	}

	logger.Info("retriever initialized",
		zap.Int("chunk_size", size),
		zap.Int("chunk_overlap", overlap))

	return &Retriever{
		store:    st,
		splitter: chunker.New(size, overlap),
		logger:   logger,
	}, nil
}

// AddDocuments chunks, embeds and persists a batch of documents. Entries
// without content are skipped and noted in the Report; they never fail the
// batch. An all-invalid batch is a no-op, not an error. The batch commits
// atomically: an embedding or write failure aborts the call with no partial
// records visible.
func (r *Retriever) AddDocuments(ctx context.Context, docs []Document) (Report, error) {
	var report Report
	if len(docs) == 0 {
		r.logger.Warn("no documents provided to add")
		return report, nil
	}

	var records []store.Record
	for i, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			r.logger.Warn("skipping document with missing content", zap.Int("index", i))
			report.Skipped = append(report.Skipped, Skip{Index: i, Reason: ErrMissingContent.Error()})
			continue
		}

		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		chunks := r.splitter.SplitWithMetadata(doc.Content, doc.Metadata)
		for _, c := range chunks {
			records = append(records, store.Record{
				ID:       fmt.Sprintf("%s#%d", id, c.Index),
				Text:     c.Content,
				Metadata: c.Metadata,
			})
		}
		report.Added++
		report.Chunks += len(chunks)
	}

	if len(records) == 0 {
		r.logger.Warn("no chunks generated from batch", zap.Int("documents", len(docs)))
		return report, nil
	}

	if err := r.store.Add(ctx, records); err != nil {
		r.logger.Error("adding documents to vector store failed", zap.Error(err))
		return Report{Skipped: report.Skipped}, fmt.Errorf("rag: add documents: %w", err)
	}

	r.logger.Info("documents added",
		zap.Int("documents", report.Added),
		zap.Int("chunks", report.Chunks),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// RetrieveRelevantDocs returns the k stored chunks most similar to query,
// most similar first. An empty or whitespace-only query and k < 1 are usage
// errors. A store-side retrieval failure is logged and degrades to an empty
// result so downstream consumers stay simple; zero matches is an empty
// slice, never an error.
func (r *Retriever) RetrieveRelevantDocs(ctx context.Context, query string, k int) ([]RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k < 1 {
		return nil, ErrInvalidK
	}

	results, err := r.store.Query(ctx, query, k)
	if err != nil {
		r.logger.Error("retrieval failed", zap.String("query", query), zap.Error(err))
		return []RetrievedChunk{}, nil
	}

	out := make([]RetrievedChunk, len(results))
	for i, res := range results {
		out[i] = RetrievedChunk{
			Text:     res.Text,
			Metadata: res.Metadata,
			Score:    res.Score,
		}
	}
	r.logger.Info("retrieved documents", zap.String("query", query), zap.Int("count", len(out)))
	return out, nil
}

// Count returns the number of stored chunks.
func (r *Retriever) Count() int { return r.store.Count() }

// Clear irreversibly deletes every persisted record. Subsequent queries
// return empty until new documents are added.
func (r *Retriever) Clear(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("rag: clear store: %w", err)
	}
	return nil
}

// Close releases the store handle.
func (r *Retriever) Close() error { return r.store.Close() }
