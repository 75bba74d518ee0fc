package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
)

func newEngineHandler(t *testing.T, q *mockQuery, d *mockDocs, apiKeys []string) http.Handler {
	t.Helper()
	h := healthuc.New().With("index", healthuc.PingFunc(func(context.Context) error { return nil }))
	return NewEngineServer(q, d, h, zap.NewNop()).Handler(apiKeys)
}

func TestEngine_Root(t *testing.T) {
	h := newEngineHandler(t, &mockQuery{}, &mockDocs{}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusOK || rr.Body.String() != "Server running" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestEngine_SearchDocs(t *testing.T) {
	q := &mockQuery{resp: domsearch.EngineResponse{ElapsedMS: 1.5, Count: intPtr(3), Hits: sampleHits()}}
	h := newEngineHandler(t, q, &mockDocs{}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/docs?query=hello+world", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	if q.gotQ != "hello world" {
		t.Errorf("query = %q", q.gotQ)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got domsearch.EngineResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Q != "hello world" || got.ElapsedMS != 1.5 || got.Count == nil || *got.Count != 3 {
		t.Errorf("unexpected response %+v", got)
	}
	if len(got.Hits) != 3 || got.Hits[0].Doc.Title != "Alpha" || got.Hits[2].Doc.Title != "Gamma" {
		t.Errorf("hits out of order: %+v", got.Hits)
	}
}

func TestEngine_SearchDocs_MissingQuery(t *testing.T) {
	q := &mockQuery{}
	h := newEngineHandler(t, q, &mockDocs{}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/docs", http.NoBody))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if !strings.HasPrefix(rr.Body.String(), "Something went wrong: ") {
		t.Errorf("body = %q", rr.Body.String())
	}
	if q.gotQ != "" {
		t.Error("service must not be called without a query")
	}
}

func TestEngine_SearchDocs_ServiceFailure(t *testing.T) {
	q := &mockQuery{err: fmt.Errorf("search index: %w", errors.New("index closed"))}
	h := newEngineHandler(t, q, &mockDocs{}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/docs?query=x", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if got := rr.Body.String(); got != "Something went wrong: search index: index closed" {
		t.Errorf("body = %q", got)
	}
}

func TestEngine_InsertDocs(t *testing.T) {
	d := &mockDocs{}
	h := newEngineHandler(t, &mockQuery{}, d, nil)

	body := `{"documents":[{"url":"https://a","title":"A","body":["x"]},{"url":"https://b","title":"B","body":["y"]}]}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/docs", strings.NewReader(body)))

	if rr.Code != http.StatusOK || rr.Body.String() != "insert 2 items" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
	if len(d.inserted) != 2 || d.inserted[1].URL != "https://b" {
		t.Errorf("inserted = %+v", d.inserted)
	}
}

func TestEngine_InsertDocs_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed json", `{"documents":`, nil, http.StatusBadRequest},
		{"empty batch", `{"documents":[]}`, domain.ErrEmptyBatch, http.StatusBadRequest},
		{"too large", `{"documents":[{"url":"u"}]}`, domain.ErrBatchTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid document", `{"documents":[{"url":""}]}`, domain.ErrInvalidDocument, http.StatusBadRequest},
		{"index failure", `{"documents":[{"url":"u"}]}`, errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newEngineHandler(t, &mockQuery{}, &mockDocs{insertErr: tt.err}, nil)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/docs", strings.NewReader(tt.body)))

			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d (body %q)", rr.Code, tt.status, rr.Body.String())
			}
			if !strings.HasPrefix(rr.Body.String(), "Something went wrong: ") {
				t.Errorf("body = %q", rr.Body.String())
			}
		})
	}
}

func TestEngine_DeleteDocs(t *testing.T) {
	h := newEngineHandler(t, &mockQuery{}, &mockDocs{deleted: 42}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/docs", http.NoBody))

	if rr.Code != http.StatusOK || rr.Body.String() != "deleted 42 documents" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestEngine_UnknownRoute(t *testing.T) {
	h := newEngineHandler(t, &mockQuery{}, &mockDocs{}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestEngine_Health(t *testing.T) {
	tests := []struct {
		name   string
		ping   error
		status int
		want   string
	}{
		{"healthy", nil, http.StatusOK, "ok"},
		{"index down", errors.New("closed"), http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := healthuc.New().With("index", healthuc.PingFunc(func(context.Context) error { return tt.ping }))
			handler := NewEngineServer(&mockQuery{}, &mockDocs{}, h, zap.NewNop()).Handler(nil)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			var got healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != tt.want || got.Checks["index"] != tt.want {
				t.Errorf("health = %+v", got)
			}
		})
	}
}

func TestEngine_AuthProtectsAPIButNotHealth(t *testing.T) {
	h := newEngineHandler(t, &mockQuery{}, &mockDocs{deleted: 1}, []string{"secret"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/docs", http.NoBody))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/docs", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", rr.Code)
	}
}
