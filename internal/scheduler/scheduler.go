// Package scheduler re-scrapes configured news sources on a cron schedule so
// the store has fresh content in time for the morning brief.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"briefd/internal/rag"
	"briefd/internal/scrape"
)

// refreshTimeout bounds one full refresh pass.
const refreshTimeout = 5 * time.Minute

// Scheduler runs periodic source refreshes.
type Scheduler struct {
	cron      *cron.Cron
	scraper   *scrape.Scraper
	retriever *rag.Retriever
	sources   []string
	logger    *zap.Logger
}

// New creates a Scheduler over the given source URLs.
func New(scraper *scrape.Scraper, retriever *rag.Retriever, sources []string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		scraper:   scraper,
		retriever: retriever,
		sources:   sources,
		logger:    logger,
	}
}

// Start schedules the refresh and starts the cron loop. A scheduler with no
// sources is a no-op.
func (s *Scheduler) Start(schedule string) error {
	if len(s.sources) == 0 {
		s.logger.Info("no sources configured, refresh scheduler idle")
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		s.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info("refresh scheduler started",
		zap.String("schedule", schedule),
		zap.Int("sources", len(s.sources)))
	return nil
}

// Stop stops the cron loop, waiting for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Refresh scrapes every source and ingests the results. A source that fails
// to scrape is logged and skipped; it does not abort the pass.
func (s *Scheduler) Refresh(ctx context.Context) {
	var docs []rag.Document
	for _, src := range s.sources {
		doc, err := s.scraper.Article(ctx, src)
		if err != nil {
			s.logger.Warn("scraping source failed", zap.String("url", src), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		s.logger.Warn("refresh produced no documents")
		return
	}

	report, err := s.retriever.AddDocuments(ctx, docs)
	if err != nil {
		s.logger.Error("ingesting refreshed sources failed", zap.Error(err))
		return
	}
	s.logger.Info("sources refreshed",
		zap.Int("documents", report.Added),
		zap.Int("chunks", report.Chunks))
}
