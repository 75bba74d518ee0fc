package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/query"
	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
)

const maxInsertBodyBytes = 64 << 20

// QueryService ranks documents for a query.
type QueryService interface {
	Query(ctx context.Context, q string) (domsearch.EngineResponse, error)
}

// DocumentService mutates the document index.
type DocumentService interface {
	Insert(ctx context.Context, docs []domsearch.Doc) (int, error)
	DeleteAll(ctx context.Context) (int, error)
}

// EngineServer serves the search engine API.
type EngineServer struct {
	search        QueryService
	docs          DocumentService
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewEngineServer creates the engine API handlers.
func NewEngineServer(
	search QueryService,
	docs DocumentService,
	health *healthuc.Service,
	logger *zap.Logger,
) *EngineServer {
	return &EngineServer{
		search: search,
		docs:   docs,
		health: health,
		logger: logger,
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest),
			sentinelHandler(domain.ErrEmptyBatch, http.StatusBadRequest),
			sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest),
			sentinelHandler(domain.ErrBatchTooLarge, http.StatusRequestEntityTooLarge),
			sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		},
	}
}

// Handler returns the engine router. apiKeys enables Bearer auth when non-empty.
func (s *EngineServer) Handler(apiKeys []string) http.Handler {
	r := NewRouter("engine", s.logger, apiKeys)
	s.Routes(r)
	return r
}

// Routes mounts the engine endpoints on r.
func (s *EngineServer) Routes(r chi.Router) {
	r.NotFound(notFound(s.logger, s.errorHandlers))
	r.Get("/", s.Root)
	r.Get("/api/docs", s.SearchDocs)
	r.Post("/api/docs", s.InsertDocs)
	r.Delete("/api/docs", s.DeleteDocs)
	r.Get("/health", healthHandler(s.health))
	r.Handle("/metrics", metricsHandler())
}

// Root handles GET /.
func (s *EngineServer) Root(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Server running")
}

// SearchDocs handles GET /api/docs?query=.
func (s *EngineServer) SearchDocs(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, query.Param, r.URL.Query(), &q); err != nil {
		s.handleError(w, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err))
		return
	}

	resp, err := s.search.Query(r.Context(), q)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// InsertDocs handles POST /api/docs.
func (s *EngineServer) InsertDocs(w http.ResponseWriter, r *http.Request) {
	var req domsearch.InsertRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInsertBodyBytes)).Decode(&req); err != nil {
		s.handleError(w, fmt.Errorf("%w: decode body: %w", domain.ErrInvalidDocument, err))
		return
	}

	n, err := s.docs.Insert(r.Context(), req.Documents)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeText(w, http.StatusOK, "insert %d items", n)
}

// DeleteDocs handles DELETE /api/docs.
func (s *EngineServer) DeleteDocs(w http.ResponseWriter, r *http.Request) {
	n, err := s.docs.DeleteAll(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeText(w, http.StatusOK, "deleted %d documents", n)
}

func (s *EngineServer) handleError(w http.ResponseWriter, err error) {
	handleError(s.logger, s.errorHandlers, w, err)
}
