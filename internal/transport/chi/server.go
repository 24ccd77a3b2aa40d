// Package chi exposes the search service over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/seportal/searchd/internal/domain"
	"github.com/seportal/searchd/internal/domain/batch"
	"github.com/seportal/searchd/internal/logger"
	"github.com/seportal/searchd/internal/metrics"
	healthuc "github.com/seportal/searchd/internal/usecase/health"
	indexeruc "github.com/seportal/searchd/internal/usecase/indexer"
	searchuc "github.com/seportal/searchd/internal/usecase/search"
)

// Server holds the HTTP handlers. Handlers log through the
// request-scoped logger the wide-event middleware placed in the context.
type Server struct {
	search  *searchuc.Service
	indexer *indexeruc.Service
	agg     snapshotSource
	health  *healthuc.Service
}

type snapshotSource interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	indexer *indexeruc.Service,
	agg snapshotSource,
	health *healthuc.Service,
) *Server {
	return &Server{search: search, indexer: indexer, agg: agg, health: health}
}

// Mount registers all routes on the router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/search", s.Search)
	r.Get("/health", s.Health)
	r.Post("/init-embeddings", s.InitEmbeddings)
	r.Get("/snapshot", s.Snapshot)
	r.Handle("/metrics", promhttp.Handler())
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results []domain.ScoredResult `json:"results"`
	Query   string                `json:"query"`
	Model   string                `json:"model"`
}

// Search handles POST /search. A failed search is always a non-2xx with
// an {error, details} body, never a 200 with empty results: the client
// distinguishes "no matches" from "search failed" and falls back on the
// latter.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	results, err := s.search.Search(r.Context(), req.Query)
	if err != nil {
		s.handleSearchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results: results,
		Query:   req.Query,
		Model:   s.search.Model(),
	})
}

func (s *Server) handleSearchError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Warn("search failed", zap.Error(err))

	switch {
	case errors.Is(err, domain.ErrEmbeddingProvider):
		writeError(w, http.StatusBadGateway, "embedding_failed", err.Error())
	case errors.Is(err, domain.ErrIndex):
		writeError(w, http.StatusInternalServerError, "index_query_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "search_failed", err.Error())
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	AI     string            `json:"ai"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	ai := "enabled"
	if !report.AIEnabled {
		ai = "disabled"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: string(report.Status),
		AI:     ai,
		Checks: report.Checks,
	})
}

type initEmbeddingsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// InitEmbeddings handles POST /init-embeddings, the operator-triggered
// full re-index. Unlike /search, failures here are surfaced verbatim:
// the operator expects an explicit success/failure outcome.
func (s *Server) InitEmbeddings(w http.ResponseWriter, r *http.Request) {
	report, err := s.indexer.Reindex(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("indexing run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "indexing_failed", err.Error())
		return
	}

	metrics.IndexedItemsTotal.WithLabelValues("ok").Add(float64(report.Indexed()))
	metrics.IndexedItemsTotal.WithLabelValues("error").Add(float64(report.Failed()))

	writeJSON(w, http.StatusOK, initEmbeddingsResponse{
		Success: true,
		Message: indexingMessage(report),
	})
}

// indexingMessage builds the operator-facing summary for one run.
func indexingMessage(report indexeruc.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "indexed %d of %d items (%d purged)",
		report.Indexed(), len(report.Results), report.Purged)

	if report.Failed() > 0 {
		var failed []string
		for _, res := range report.Results {
			if res.Status() == batch.StatusError {
				failed = append(failed, res.ID())
			}
		}
		fmt.Fprintf(&b, "; failed: %s", strings.Join(failed, ", "))
	}

	if !report.Snapshot.Complete {
		var sources []string
		for _, f := range report.Snapshot.Failures {
			sources = append(sources, f.Source)
		}
		fmt.Fprintf(&b, "; unreachable sources: %s", strings.Join(sources, ", "))
	}

	return b.String()
}

type snapshotResponse struct {
	Items    []domain.SearchableItem `json:"items"`
	Complete bool                    `json:"complete"`
}

// Snapshot handles GET /snapshot. Clients call it once at session start
// to populate the local cache their fallback ranker scores against.
func (s *Server) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.agg.Snapshot(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("snapshot failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "source_fetch_failed", err.Error())
		return
	}

	items := snap.Items
	if items == nil {
		items = []domain.SearchableItem{}
	}

	writeJSON(w, http.StatusOK, snapshotResponse{Items: items, Complete: snap.Complete})
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, errorResponse{Error: code, Details: details})
}
