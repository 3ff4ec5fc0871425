package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearYes bool

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored chunk and reset the vector store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClear(cmd.Context())
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip confirmation")
}

func runClear(ctx context.Context) error {
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

	count := retriever.Count()
	if !clearYes {
		fmt.Printf("This will delete %d stored chunk(s). Continue? [y/N] ", count)
		var answer string
		fmt.Scanln(&answer) //nolint:errcheck
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := retriever.Clear(ctx); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	fmt.Printf("Cleared %d chunk(s).\n", count)
	return nil
}
