// Package watcher ingests documents dropped into a watched directory.
package watcher

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"briefd/internal/loader"
	"briefd/internal/rag"
)

// Watcher ingests supported files from a drop directory: everything already
// present at startup, then new and rewritten files as they appear.
type Watcher struct {
	dir       string
	retriever *rag.Retriever
	logger    *zap.Logger
}

// New creates a Watcher for dir.
func New(dir string, retriever *rag.Retriever, logger *zap.Logger) *Watcher {
	return &Watcher{dir: dir, retriever: retriever, logger: logger}
}

// Scan ingests every supported file currently in the directory.
func (w *Watcher) Scan(ctx context.Context) error {
	docs, err := loader.LoadDir(w.dir)
	if err != nil {
		return fmt.Errorf("watcher: scan: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}

	report, err := w.retriever.AddDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("watcher: ingest scan results: %w", err)
	}
	w.logger.Info("ingested existing files",
		zap.String("dir", w.dir),
		zap.Int("documents", report.Added),
		zap.Int("chunks", report.Chunks))
	return nil
}

// Run scans the directory once, then blocks ingesting filesystem events
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Scan(ctx); err != nil {
		w.logger.Warn("initial scan failed", zap.Error(err))
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watcher: watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching drop directory", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !loader.Supported(event.Name) {
				continue
			}
			w.ingestFile(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	doc, err := loader.Load(path)
	if err != nil {
		w.logger.Warn("loading dropped file failed", zap.String("path", path), zap.Error(err))
		return
	}

	report, err := w.retriever.AddDocuments(ctx, []rag.Document{doc})
	if err != nil {
		w.logger.Error("ingesting dropped file failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("ingested dropped file",
		zap.String("path", path),
		zap.Int("chunks", report.Chunks))
}
