package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"briefd/internal/rag"
)

const defaultK = 5

// ingestRequest is the body for POST /api/v1/documents.
type ingestRequest struct {
	Documents []rag.Document `json:"documents"`
}

// retrieveRequest is the body for POST /api/v1/retrieve.
type retrieveRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// retrieveResponse wraps the ranked chunks.
type retrieveResponse struct {
	Results []rag.RetrievedChunk `json:"results"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.retriever == nil {
		s.respondError(w, http.StatusServiceUnavailable, "retrieval service not initialized")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Documents) == 0 {
		s.respondError(w, http.StatusBadRequest, "documents is required")
		return
	}

	report, err := s.retriever.AddDocuments(r.Context(), req.Documents)
	if err != nil {
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, report)
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	if s.retriever == nil {
		s.respondError(w, http.StatusServiceUnavailable, "retrieval service not initialized")
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.K == 0 {
		req.K = defaultK
	}
	if req.K < 1 || req.K > s.config.MaxK {
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("k must be between 1 and %d", s.config.MaxK))
		return
	}

	results, err := s.retriever.RetrieveRelevantDocs(r.Context(), req.Query, req.K)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuery) || errors.Is(err, rag.ErrInvalidK) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("retrieve failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "retrieval failed")
		return
	}
	if results == nil {
		results = []rag.RetrievedChunk{}
	}
	s.respondJSON(w, http.StatusOK, retrieveResponse{Results: results})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if s.retriever == nil {
		s.respondError(w, http.StatusServiceUnavailable, "retrieval service not initialized")
		return
	}

	if err := s.retriever.Clear(r.Context()); err != nil {
		s.logger.Error("clear failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "clear failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.retriever == nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"chunks": s.retriever.Count(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
