package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"briefd/internal/loader"
	"briefd/internal/rag"
	"briefd/internal/scrape"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file|url> [...]",
	Short: "Ingest documents into the vector store",
	Long: `Ingest one or more documents. Arguments are local file paths
(.txt, .md, .pdf) or http(s) article URLs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args)
	},
}

func runIngest(ctx context.Context, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	retriever, err := openRetriever(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer retriever.Close() //nolint:errcheck

	scraper := scrape.New()
	var docs []rag.Document
	for _, arg := range args {
		var (
			doc rag.Document
			err error
		)
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			doc, err = scraper.Article(ctx, arg)
		} else {
			doc, err = loader.Load(arg)
		}
		if err != nil {
			logger.Warn("skipping source", zap.String("source", arg), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no ingestable documents among %d argument(s)", len(args))
	}

	report, err := retriever.AddDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested %d document(s) as %d chunk(s)\n", report.Added, report.Chunks)
	for _, skip := range report.Skipped {
		fmt.Printf("Skipped document %d: %s\n", skip.Index, skip.Reason)
	}
	return nil
}
