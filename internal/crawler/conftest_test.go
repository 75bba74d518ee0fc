package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
)

// --- Sink mock ---

type memSink struct {
	mu     sync.Mutex
	docs   []domsearch.Doc
	closed bool
	putErr error
}

func (m *memSink) Put(_ context.Context, doc domsearch.Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.docs = append(m.docs, doc)
	return nil
}

func (m *memSink) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memSink) urls() map[string]domsearch.Doc {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domsearch.Doc, len(m.docs))
	for _, d := range m.docs {
		out[d.URL] = d
	}
	return out
}

// --- Inserter mock ---

type mockInserter struct {
	batches [][]domsearch.Doc
	failOn  int // 1-based batch number that fails, 0 = never
}

func (m *mockInserter) InsertDocs(_ context.Context, docs []domsearch.Doc) (string, error) {
	m.batches = append(m.batches, docs)
	if m.failOn == len(m.batches) {
		return "", errors.New("engine down")
	}
	return fmt.Sprintf("insert %d items", len(docs)), nil
}

// --- fixture site ---

func page(title, body string, links ...string) string {
	html := "<html><head><title>" + title + "</title></head><body><main><p>" + body + "</p>"
	for _, l := range links {
		html += `<a href="` + l + `">link</a>`
	}
	return html + "</main></body></html>"
}

// newSite serves a small documentation site:
// / -> /guide, /api, /guide#intro, /private/secret, https://elsewhere.example/
// /guide -> /api, /guide/deep
// /guide/deep -> /guide/deeper
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/": page("Home", "Welcome to the docs.",
			"/guide", "/api", "/guide#intro", "/private/secret", "https://elsewhere.example/", "mailto:x@example.com"),
		"/guide":          page("Guide", "How to install the tool.", "/api", "/guide/deep"),
		"/api":            page("API", "Reference of every call."),
		"/guide/deep":     page("Deep", "Level two.", "/guide/deeper"),
		"/guide/deeper":   page("Deeper", "Level three."),
		"/private/secret": page("Secret", "Never crawled."),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
