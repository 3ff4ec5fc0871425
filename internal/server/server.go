// Package server provides the HTTP API for briefd's ingestion and retrieval
// operations.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"briefd/internal/config"
	"briefd/internal/rag"
)

// Server is the HTTP server for the retrieval API. When the retriever failed
// to initialize the server still starts but refuses store-dependent
// operations with 503, so the failure is visible instead of silently
// operating on a partial store.
type Server struct {
	retriever *rag.Retriever
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// New creates a server. retriever may be nil when initialization failed.
func New(retriever *rag.Retriever, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		retriever: retriever,
		config:    cfg,
		logger:    logger,
	}
}

// Routes builds the chi router. Exposed separately so tests can drive the
// handlers without a listening socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/api/v1/documents", s.handleIngest)
	r.Post("/api/v1/retrieve", s.handleRetrieve)
	r.Delete("/api/v1/documents", s.handleClear)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
