// Package store persists (vector, text, metadata) records under a single
// directory and answers top-k cosine-similarity queries over them.
//
// The persist directory is the store's entire durable state. Records live in
// a SQLite database inside it; the in-memory record set mirrors disk and is
// what queries scan. Concurrent use of one Store handle within a process is
// safe; concurrent writers from separate processes against the same
// directory are unsupported.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"briefd/internal/rag/embedding"
)

// DBFileName is the SQLite file holding the records inside the persist
// directory.
const DBFileName = "records.db"

// Common errors.
var (
	ErrDimensionMismatch = errors.New("store: vector dimension mismatch")
	ErrClosed            = errors.New("store: closed")
)

// removeAll is swapped out in tests to exercise Clear's failure path.
var removeAll = os.RemoveAll

// Record is the input unit: one chunk of text with its metadata.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Result is one query hit, ordered by descending similarity.
type Result struct {
	Text     string
	Metadata map[string]string
	Score    float32
}

// stored is a Record plus its embedding, as held in memory and on disk.
type stored struct {
	Record
	vector []float32
}

// Store owns the persisted records for one persist directory. A single
// long-lived handle is shared for the process lifetime.
type Store struct {
	dir      string
	embedder embedding.Embedder
	logger   *zap.Logger

	mu      sync.RWMutex
	db      *sql.DB
	records []stored
	closed  bool
}

// Open loads an existing store from dir or initializes an empty one rooted
// there. Any failure here is an initialization error: the caller must not
// serve retrieval requests with a nil store.
func Open(dir string, embedder embedding.Embedder, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store: persist directory is required")
	}
	if embedder == nil {
		return nil, errors.New("store: embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{dir: dir, embedder: embedder, logger: logger}
	if err := s.init(); err != nil {
		return nil, err
	}

	logger.Info("vector store ready",
		zap.String("dir", dir),
		zap.String("embedder", embedder.Name()),
		zap.Int("records", len(s.records)))
	return s, nil
}

// init creates the directory and database and loads existing records into
// memory. Callers must hold the write lock for re-initialization after Clear.
func (s *Store) init() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("store: create persist directory %s: %w", s.dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(s.dir, DBFileName))
	if err != nil {
		return fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return fmt.Errorf("store: pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL,
			metadata TEXT
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("store: schema creation failed: %w", err)
	}

	records, err := loadAll(db)
	if err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.records = records
	s.closed = false
	return nil
}

// loadAll reads every record from the database in insertion order.
func loadAll(db *sql.DB) ([]stored, error) {
	rows, err := db.Query("SELECT id, content, embedding, metadata FROM records ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("store: load records: %w", err)
	}
	defer rows.Close()

	var records []stored
	for rows.Next() {
		var rec stored
		var embBytes []byte
		var metaJSON sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Text, &embBytes, &metaJSON); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		rec.vector = decodeFloat32Slice(embBytes)
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("store: decode metadata for %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load records: %w", err)
	}
	return records, nil
}

// Add embeds each record's text and upserts the results into the persisted
// set: a record whose ID already exists replaces the old one. The whole
// batch is committed in one transaction: a failed embed or write leaves no
// partial records visible to queries.
func (s *Store) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("store: embed batch: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("store: embedder returned %d vectors for %d records", len(vectors), len(records))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if len(s.records) > 0 {
		if want, got := len(s.records[0].vector), len(vectors[0]); want != got {
			return fmt.Errorf("%w: store has %d dimensions, embedder produced %d", ErrDimensionMismatch, want, got)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO records (id, content, embedding, metadata) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	batch := make([]stored, len(records))
	for i, r := range records {
		var metaJSON []byte
		if r.Metadata != nil {
			metaJSON, err = json.Marshal(r.Metadata)
			if err != nil {
				return fmt.Errorf("store: encode metadata for %s: %w", r.ID, err)
			}
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Text, encodeFloat32Slice(vectors[i]), metaJSON); err != nil {
			return fmt.Errorf("store: insert record %s: %w", r.ID, err)
		}
		batch[i] = stored{Record: r, vector: vectors[i]}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}

	// Mirror the INSERT OR REPLACE: an ID already in memory is replaced in
	// place, new IDs append.
	index := make(map[string]int, len(s.records))
	for i, rec := range s.records {
		index[rec.ID] = i
	}
	for _, rec := range batch {
		if i, ok := index[rec.ID]; ok {
			s.records[i] = rec
			continue
		}
		index[rec.ID] = len(s.records)
		s.records = append(s.records, rec)
	}
	return nil
}

// Query embeds text and returns the k most similar records by cosine
// similarity, most similar first. A k larger than the record count returns
// all records; an empty store returns nil.
func (s *Store) Query(ctx context.Context, text string, k int) ([]Result, error) {
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("store: embed query: %w", err)
	}
	query := vectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if len(s.records) == 0 {
		return nil, nil
	}
	if len(s.records[0].vector) != len(query) {
		return nil, fmt.Errorf("%w: store has %d dimensions, query has %d",
			ErrDimensionMismatch, len(s.records[0].vector), len(query))
	}

	results := make([]Result, len(s.records))
	for i, rec := range s.records {
		results[i] = Result{
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Score:    embedding.Dot(query, rec.vector),
		}
	}
	// Stable sort keeps store iteration order on ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear irreversibly deletes the persist directory and reinitializes an
// empty store rooted at the same path.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close before clear: %w", err)
	}
	if err := removeAll(s.dir); err != nil {
		// The database handle is gone; the stale in-memory mirror must not
		// keep serving.
		s.closed = true
		s.records = nil
		return fmt.Errorf("store: remove persist directory %s: %w", s.dir, err)
	}

	s.logger.Info("vector store cleared", zap.String("dir", s.dir))
	return s.init()
}

// Close releases the database handle. The store cannot be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.records = nil
	return s.db.Close()
}

// encodeFloat32Slice converts []float32 to []byte.
func encodeFloat32Slice(f []float32) []byte {
	buf := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeFloat32Slice converts []byte to []float32.
func decodeFloat32Slice(b []byte) []float32 {
	f := make([]float32, len(b)/4)
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return f
}
