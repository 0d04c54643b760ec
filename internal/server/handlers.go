package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/waygraph/internal/extract"
	"github.com/hyperjump/waygraph/internal/indexer"
	"github.com/hyperjump/waygraph/internal/ingest"
	"github.com/hyperjump/waygraph/internal/models"
	"github.com/hyperjump/waygraph/internal/vector"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"notes":  s.indexer.Store().Size(),
	})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req models.EmbedRequest
	if !s.decode(w, r, &req) {
		return
	}
	emb, err := s.indexer.Embed(r.Context(), req.Text)
	if err != nil {
		s.respondFailure(w, "embed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.EmbedResponse{Embedding: emb})
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req models.AddNoteRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.indexer.AddNote(r.Context(), req.Content)
	if err != nil {
		s.respondFailure(w, "add note", err)
		return
	}
	s.logger.Debug("note added", zap.String("id", res.ID), zap.String("related_to", res.RelatedTo))
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleExtractNotes(w http.ResponseWriter, r *http.Request) {
	var req models.ExtractNotesRequest
	if !s.decode(w, r, &req) {
		return
	}
	msgs := make([]extract.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = extract.Message{Role: m.Role, Content: m.Content}
	}
	texts := extract.FromTranscript(msgs, s.transcript)
	if len(texts) == 0 {
		s.respondJSON(w, http.StatusCreated, models.ExtractNotesResponse{Notes: []*ingest.Result{}})
		return
	}
	results, err := s.indexer.AddNotes(r.Context(), texts)
	if err != nil {
		s.respondFailure(w, "extract notes", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, models.ExtractNotesResponse{Notes: results})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req models.SimilarRequest
	if !s.decode(w, r, &req) {
		return
	}
	nb, err := s.indexer.Similar(r.Context(), req.Text)
	if err != nil {
		s.respondFailure(w, "similar", err)
		return
	}
	resp := models.SimilarResponse{Similar: nb}
	if nb == nil {
		resp.Message = "no notes stored yet"
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes := s.indexer.Store().All()
	s.respondJSON(w, http.StatusOK, models.NoteListResponse{Notes: notes, Total: len(notes)})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.indexer.Store().Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "note not found")
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.SearchQuery{Query: q.Get("q")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		query.Limit = n
	}
	if v := q.Get("fuzzy"); v != "" {
		fuzzy, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "fuzzy must be a boolean")
			return
		}
		query.Fuzzy = fuzzy
	}
	if err := models.Validate(&query); err != nil {
		s.respondFailure(w, "search", err)
		return
	}
	query.Normalize()
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	resp, err := s.indexer.Search(r.Context(), &query)
	if err != nil {
		s.respondFailure(w, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.graph.Snapshot())
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := models.Validate(v); err != nil {
		s.respondFailure(w, "validate", err)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, indexer.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, vector.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, indexer.ErrEmbedding):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondFailure(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		s.respondJSON(w, status, map[string]any{"error": verr.Error(), "fields": verr.Fields})
		return
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
