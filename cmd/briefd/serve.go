package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"briefd/internal/datadir"
	"briefd/internal/scheduler"
	"briefd/internal/scrape"
	"briefd/internal/server"
	"briefd/internal/watcher"
)

var port int

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the briefd HTTP server",
	Long: `Start the retrieval API server. When configured, it also watches a
drop directory for new documents and re-scrapes article sources on a
schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (overrides config)")
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	retriever, err := openRetriever(cfg, logger)
	if err != nil {
		// The server still comes up so the failure is observable via
		// /health, but every store-dependent endpoint returns 503.
		logger.Error("retriever initialization failed", zap.Error(err))
		retriever = nil
	} else {
		defer retriever.Close() //nolint:errcheck
		logger.Info("retriever ready", zap.Int("chunks", retriever.Count()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal", zap.Stringer("signal", sig))
		cancel()
	}()

	watchDir := cfg.Ingest.WatchDir
	if watchDir == "" {
		if dd, err := datadir.New(cfg.DataDir); err == nil {
			if err := dd.EnsureDirs(); err == nil {
				watchDir = dd.IncomingDir()
			}
		}
	}
	if retriever != nil && watchDir != "" {
		w := watcher.New(watchDir, retriever, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	var sched *scheduler.Scheduler
	if retriever != nil && len(cfg.Ingest.Sources) > 0 {
		sched = scheduler.New(scrape.New(), retriever, cfg.Ingest.Sources, logger)
		if err := sched.Start(cfg.Ingest.RefreshSchedule); err != nil {
			return fmt.Errorf("failed to start refresh scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv := server.New(retriever, &cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
	return nil
}
