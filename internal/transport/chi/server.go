// Package chi exposes the search API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/worklens/internal/domain"
	"github.com/kailas-cloud/worklens/internal/metrics"
	healthuc "github.com/kailas-cloud/worklens/internal/usecase/health"
	searchuc "github.com/kailas-cloud/worklens/internal/usecase/search"
)

// Error codes returned in the JSON error envelope.
const (
	codeBadRequest    = "bad_request"
	codeInvalidQuery  = "invalid_query"
	codeNotFound      = "not_found"
	codeRateLimited   = "rate_limited"
	codeEmbeddingDown = "embedding_provider_error"
	codeInternal      = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchResponse is the payload of GET /v1/search.
type SearchResponse struct {
	Query   string                `json:"query"`
	Count   int                   `json:"count"`
	Results []domain.SearchResult `json:"results"`
}

// HealthResponse is the payload of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type statusMapping struct {
	sentinel error
	status   int
	code     string
}

// Server serves the search API.
type Server struct {
	search   *searchuc.Service
	health   *healthuc.Service
	logger   *zap.Logger
	mappings []statusMapping
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{
		search: search,
		health: health,
		logger: logger,
		mappings: []statusMapping{
			{domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery},
			{domain.ErrDocumentNotFound, http.StatusNotFound, codeNotFound},
			{domain.ErrNotFound, http.StatusNotFound, codeNotFound},
			{domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
			{domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingDown},
		},
	}
}

// Router builds the chi router with the standard middleware chain.
// apiKeys empty disables authentication.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/v1/search", s.Search)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// Search handles GET /v1/search. Query parameters: q (search text,
// filter tokens allowed) and limit.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := s.search.Search(r.Context(), q, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   q,
		Count:   len(results),
		Results: results,
	})
}

// HealthCheck handles GET /healthz. A degraded service still answers
// queries, so only an unreachable store reports 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, m := range s.mappings {
		if errors.Is(err, m.sentinel) {
			s.logger.Warn("Request failed", zap.Error(err))
			writeError(w, m.status, m.code, m.sentinel.Error())
			return
		}
	}
	s.logger.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
