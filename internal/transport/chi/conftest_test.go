package chi

import (
	"context"
	"sync"

	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
	"github.com/kailas-cloud/docsearch/internal/usecase/resultcache"
)

// --- QueryService mock ---

type mockQuery struct {
	resp    domsearch.EngineResponse
	err     error
	gotQ    string
	panicOn string
}

func (m *mockQuery) Query(_ context.Context, q string) (domsearch.EngineResponse, error) {
	if m.panicOn != "" && q == m.panicOn {
		panic("boom")
	}
	m.gotQ = q
	if m.err != nil {
		return domsearch.EngineResponse{}, m.err
	}
	resp := m.resp
	resp.Q = q
	return resp, nil
}

// --- DocumentService mock ---

type mockDocs struct {
	inserted  []domsearch.Doc
	insertErr error
	deleted   int
	deleteErr error
}

func (m *mockDocs) Insert(_ context.Context, docs []domsearch.Doc) (int, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.inserted = append(m.inserted, docs...)
	return len(docs), nil
}

func (m *mockDocs) DeleteAll(_ context.Context) (int, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return m.deleted, nil
}

// --- ResultCache mock ---

type mockCache struct {
	mu       sync.Mutex
	entries  map[string]resultcache.Entry
	waitWith map[string]resultcache.Entry
	ensured  []string
	refetch  []string
	waited   []string
}

func newMockCache() *mockCache {
	return &mockCache{
		entries:  make(map[string]resultcache.Entry),
		waitWith: make(map[string]resultcache.Entry),
	}
}

func (m *mockCache) put(e resultcache.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Key] = e
}

func (m *mockCache) Get(key string) resultcache.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		return e
	}
	return resultcache.Entry{Key: key, Status: resultcache.Idle}
}

func (m *mockCache) Ensure(_ context.Context, key string) resultcache.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured = append(m.ensured, key)
	e, ok := m.entries[key]
	if !ok {
		e = resultcache.Entry{Key: key, Status: resultcache.Loading}
		m.entries[key] = e
	}
	return e
}

func (m *mockCache) Refetch(_ context.Context, key string) resultcache.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refetch = append(m.refetch, key)
	e := resultcache.Entry{Key: key, Status: resultcache.Loading}
	m.entries[key] = e
	return e
}

func (m *mockCache) Wait(_ context.Context, key string) (resultcache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waited = append(m.waited, key)
	if e, ok := m.waitWith[key]; ok {
		m.entries[key] = e
		return e, nil
	}
	return m.entries[key], context.DeadlineExceeded
}

// --- fixtures ---

func intPtr(v int) *int { return &v }

func sampleHits() []domsearch.Hit {
	return []domsearch.Hit{
		{
			Score:        2.5,
			Doc:          domsearch.Doc{URL: "https://docs.example.com/a", Title: "Alpha", Body: []string{}},
			RelevantBody: []string{"", "  ", "alpha beta", "gamma"},
		},
		{
			Score:        1.25,
			Doc:          domsearch.Doc{URL: "https://docs.example.com/b", Title: "Beta", Body: []string{}},
			RelevantBody: []string{"second page"},
		},
		{
			Score:        0.5,
			Doc:          domsearch.Doc{URL: "https://docs.example.com/c", Title: "Gamma", Body: []string{}},
			RelevantBody: []string{},
		},
	}
}
