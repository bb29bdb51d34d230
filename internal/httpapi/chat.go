package httpapi

import (
	"errors"
	"net/http"

	"github.com/ent0n29/finchat/internal/history"
	"github.com/ent0n29/finchat/internal/llm"
	"github.com/ent0n29/finchat/internal/pipeline"
	"github.com/ent0n29/finchat/internal/retrieval"
)

type queryRequest struct {
	Query   string `json:"query"`
	Backend string `json:"backend"`
}

type queryResponse struct {
	Answer  string         `json:"answer"`
	History []history.Turn `json:"history"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	backend := llm.BackendGroq
	if req.Backend != "" {
		parsed, err := llm.ParseBackend(req.Backend)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_backend", err.Error())
			return
		}
		backend = parsed
	}

	turns, err := s.pipeline.RunQuery(r.Context(), sess.UserID, req.Query, backend)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, queryResponse{
		Answer:  turns[0].Response,
		History: turns,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	turns, err := s.pipeline.LoadHistory(r.Context(), sess.UserID)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": turns})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.pipeline.ClearHistory(r.Context(), sess.UserID); err != nil {
		writePipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// writePipelineError maps the pipeline error taxonomy onto stable codes and
// HTTP statuses.
func writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery):
		respondError(w, http.StatusBadRequest, "empty_query", "query must not be empty")
	case errors.Is(err, retrieval.ErrUnavailable):
		respondError(w, http.StatusBadGateway, "retrieval_unavailable", err.Error())
	default:
		var genErr *llm.GenerationError
		if errors.As(err, &genErr) {
			respondError(w, http.StatusBadGateway, "generation_failed", genErr.Error())
			return
		}
		var perr *pipeline.PersistenceError
		if errors.As(err, &perr) {
			respondError(w, http.StatusInternalServerError, "persistence_failed", perr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
