package chi

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/query"
	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
	logpkg "github.com/kailas-cloud/docsearch/internal/logger"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	"github.com/kailas-cloud/docsearch/internal/usecase/resultcache"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// ResultCache is the query-keyed response cache the UI renders from.
type ResultCache interface {
	Get(key string) resultcache.Entry
	Ensure(ctx context.Context, key string) resultcache.Entry
	Refetch(ctx context.Context, key string) resultcache.Entry
	Wait(ctx context.Context, key string) (resultcache.Entry, error)
}

// WebServer serves the search page.
type WebServer struct {
	cache      ResultCache
	health     *healthuc.Service
	renderWait time.Duration
	logger     *zap.Logger
}

// NewWebServer creates the UI handlers. renderWait bounds how long a page
// render waits for a loading entry before showing the loading state.
func NewWebServer(cache ResultCache, health *healthuc.Service, renderWait time.Duration, logger *zap.Logger) *WebServer {
	return &WebServer{cache: cache, health: health, renderWait: renderWait, logger: logger}
}

// Handler returns the UI router.
func (s *WebServer) Handler() http.Handler {
	r := NewRouter("web", s.logger, nil)
	s.Routes(r)
	return r
}

// Routes mounts the UI endpoints on r.
func (s *WebServer) Routes(r chi.Router) {
	r.NotFound(notFound(s.logger, []errorHandler{sentinelHandler(domain.ErrNotFound, http.StatusNotFound)}))
	r.Get("/", s.Index)
	r.Post("/search", s.Submit)
	r.Get("/api/search", s.Entry)
	r.Get("/health", healthHandler(s.health))
	r.Handle("/metrics", metricsHandler())
}

// Index handles GET /. An active query is fetched once and served from cache afterwards.
func (s *WebServer) Index(w http.ResponseWriter, r *http.Request) {
	state := query.FromLocation(r.URL)
	view := pageView{Draft: state.Draft()}

	if state.Active() {
		key, _ := state.Committed()
		ctx := logpkg.With(r.Context(), zap.String("query_key", key))
		entry := s.cache.Ensure(ctx, key)
		if entry.Status == resultcache.Loading && s.renderWait > 0 {
			waitCtx, cancel := context.WithTimeout(ctx, s.renderWait)
			entry, _ = s.cache.Wait(waitCtx, key)
			cancel()
		}
		logpkg.FromContext(ctx).Debug("Render page", zap.String("status", entry.Status.String()))
		view = newPageView(state, entry)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if view.Loading {
		w.Header().Set("Cache-Control", "no-store")
	}
	if err := pageTemplate.Execute(w, view); err != nil {
		logpkg.FromContext(r.Context()).Error("Render page failed", zap.Error(err))
	}
}

// Submit handles POST /search: commits the form text and always refetches it.
func (s *WebServer) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeFailure(w, http.StatusBadRequest, err)
		return
	}

	var state query.State
	state.SetDraft(r.PostForm.Get(query.Param))
	state.Submit()

	if state.Active() {
		key, _ := state.Committed()
		logpkg.FromContext(r.Context()).Debug("Query submitted", zap.String("query_key", key))
		s.cache.Refetch(r.Context(), key)
	}
	http.Redirect(w, r, state.Location(&url.URL{Path: "/"}).String(), http.StatusSeeOther)
}

type entryResponse struct {
	Query    string                    `json:"query"`
	Status   string                    `json:"status"`
	Response *domsearch.ClientResponse `json:"response,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// Entry handles GET /api/search?query=: the cached state of a query, without fetching.
func (s *WebServer) Entry(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, query.Param, r.URL.Query(), &q); err != nil {
		writeFailure(w, http.StatusBadRequest, err)
		return
	}

	e := s.cache.Get(q)
	resp := entryResponse{Query: q, Status: e.Status.String()}
	switch e.Status {
	case resultcache.Succeeded:
		resp.Response = &e.Response
	case resultcache.Failed:
		resp.Error = domain.Message(e.Err)
	}
	writeJSON(w, http.StatusOK, resp)
}
