package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/extractor"
	"github.com/docufield/extractor/internal/repository"
)

// Server exposes the extraction engine over a small JSON API.
type Server struct {
	engine *extractor.Engine
	repo   repository.ResultRepository
	log    *slog.Logger
	http   *http.Server
}

func New(addr string, engine *extractor.Engine, repo repository.ResultRepository, logger *slog.Logger) *Server {
	s := &Server{engine: engine, repo: repo, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	mux.HandleFunc("GET /v1/templates", s.handleTemplates)
	mux.HandleFunc("GET /v1/results", s.handleResults)
	mux.HandleFunc("POST /v1/extract", s.handleExtract)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("server.listen", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("server.request",
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"providers":        len(s.engine.Providers()),
		"discovery_errors": s.engine.DiscoveryErrors(),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"models": s.engine.Models()}
	if rec := s.engine.RecommendedModel(); rec != nil {
		resp["recommended"] = rec.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": s.engine.Templates().GetAll(),
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.URL.Query().Get("review") == "true" {
		results, err := s.repo.ListNeedingReview(ctx)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
		return
	}
	results, err := s.repo.ListAll(ctx, 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// extractRequest is the JSON body for POST /v1/extract. Exactly one of
// FilePath or Content must be set; Content is base64 via encoding/json.
type extractRequest struct {
	FilePath    string `json:"file_path,omitempty"`
	Content     []byte `json:"content,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Template    string `json:"template"`
	Strategy    string `json:"strategy,omitempty"`
	Provider    string `json:"provider,omitempty"`
	RawText     bool   `json:"raw_text,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if req.Template == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "template is required"})
		return
	}

	doc, err := documentFromRequest(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := extractor.ExtractionOptions{
		PreferredProvider: req.Provider,
		ReturnRawText:     req.RawText,
	}
	if req.Strategy != "" {
		opts.Strategy = parseStrategy(req.Strategy)
	}

	result, err := s.engine.ExtractByName(r.Context(), doc, req.Template, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.repo != nil {
		if err := s.repo.SaveResult(r.Context(), result); err != nil {
			s.log.Error("server.save_result.failed", "result_id", result.ID.String(), "error", err)
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrTemplateNotFound),
		errors.Is(err, common.ErrDocumentNotFound),
		errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidTemplate),
		errors.Is(err, common.ErrInvalidDocument):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, common.ErrAllProvidersExhausted),
		errors.Is(err, common.ErrNoStrategy),
		errors.Is(err, common.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, common.ErrProviderTimeout):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		s.log.Error("server.error", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
