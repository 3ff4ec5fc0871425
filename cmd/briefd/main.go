package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"briefd/internal/config"
	"briefd/internal/datadir"
	"briefd/internal/rag"
	"briefd/internal/rag/embedding"
	"briefd/internal/version"
)

var (
	cfgFile string
	verbose bool
)

const defaultConfigFile = "config.yaml"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "briefd",
	Short: "briefd - document retrieval service for morning market briefs",
	Long: `briefd ingests market news documents, chunks and embeds them into a
persistent vector store, and serves semantic retrieval over HTTP.

Run without a subcommand to start the server.`,
	Version: version.Full(),
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("briefd %s\n", version.Full())
		if version.BuildDate != "unknown" {
			fmt.Printf("Build date: %s\n", version.BuildDate)
		}
		fmt.Printf("Go version: %s\n", version.GoVersion)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(versionCmd)

	// If no command is specified, default to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}
}

// loadConfig loads the config file, falling back to defaults when the
// default config file is absent. An explicitly named missing file is
// still an error.
func loadConfig() (*config.Config, error) {
	if cfgFile == defaultConfigFile {
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(cfgFile)
}

// newLogger builds the zap logger according to the logging config. The
// --verbose flag overrides the configured level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	var zc zap.Config
	if cfg.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// newEmbedder constructs the configured embedding provider.
func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "hash":
		return embedding.NewHash(cfg.Embedding.Dimensions), nil
	case "openai":
		var opts []embedding.OpenAIOption
		if cfg.Embedding.BaseURL != "" {
			opts = append(opts, embedding.WithBaseURL(cfg.Embedding.BaseURL))
		}
		return embedding.NewOpenAI(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions, opts...), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// openRetriever resolves the persistence directory and opens the retriever.
func openRetriever(cfg *config.Config, logger *zap.Logger) (*rag.Retriever, error) {
	persistDir := cfg.Store.PersistDir
	if persistDir == "" {
		dd, err := datadir.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		if err := dd.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("failed to create data directories: %w", err)
		}
		persistDir = dd.StoreDir()
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	return rag.NewRetriever(rag.Config{
		PersistDir:   persistDir,
		ChunkSize:    cfg.Store.ChunkSize,
		ChunkOverlap: cfg.Store.ChunkOverlap,
	}, embedder, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
