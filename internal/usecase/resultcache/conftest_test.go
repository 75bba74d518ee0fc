package resultcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain/search"
)

// waitTimeout bounds every Wait in tests.
const waitTimeout = 2 * time.Second

type mockFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(ctx context.Context, q string) (search.ClientResponse, error)
}

func (m *mockFetcher) Search(ctx context.Context, q string) (search.ClientResponse, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[q]++
	fn := m.fn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, q)
	}
	return responseFor(q), nil
}

func (m *mockFetcher) callCount(q string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[q]
}

type mockStore struct {
	mu      sync.Mutex
	data    map[string]search.ClientResponse
	loads   int
	saves   int
	forgets int
}

func (m *mockStore) Load(_ context.Context, q string) (search.ClientResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	r, ok := m.data[q]
	return r, ok
}

func (m *mockStore) Save(_ context.Context, q string, resp search.ClientResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]search.ClientResponse)
	}
	m.data[q] = resp
	m.saves++
}

func (m *mockStore) Forget(_ context.Context, q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, q)
	m.forgets++
}

func (m *mockStore) forgetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forgets
}

func (m *mockStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func responseFor(q string) search.ClientResponse {
	return search.ClientResponse{
		EngineResponse: search.EngineResponse{
			Q:    q,
			Hits: []search.Hit{{Doc: search.Doc{URL: "https://example.com/" + q, Title: q}}},
		},
		ClientMS: 1.5,
	}
}

func newTestCache(t *testing.T, f *mockFetcher, opts Options) *Cache {
	t.Helper()
	if opts.MaxEntries == 0 {
		opts.MaxEntries = 16
	}
	c, err := New(f, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func waitSettled(t *testing.T, c *Cache, key string) Entry {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	e, err := c.Wait(ctx, key)
	if err != nil {
		t.Fatalf("Wait(%q): %v (status %s)", key, err, e.Status)
	}
	return e
}
