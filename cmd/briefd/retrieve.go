package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var retrieveK int

// retrieveCmd represents the retrieve command
var retrieveCmd = &cobra.Command{
	Use:   "retrieve <query>",
	Short: "Retrieve the most relevant chunks for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRetrieve(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveK, "top", "k", 5, "number of chunks to retrieve")
}

func runRetrieve(ctx context.Context, query string) error {
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

	chunks, err := retriever.RetrieveRelevantDocs(ctx, query, retrieveK)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		fmt.Println("No matching chunks.")
		return nil
	}

	for i, chunk := range chunks {
		fmt.Printf("--- %d (score %.4f) ---\n", i+1, chunk.Score)
		if src, ok := chunk.Metadata["source"]; ok {
			fmt.Printf("source: %v\n", src)
		}
		fmt.Println(chunk.Text)
	}
	return nil
}
