package resultcache

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain/search"
)

// fetcher runs a committed query against the engine.
type fetcher interface {
	Search(ctx context.Context, q string) (search.ClientResponse, error)
}

// responseStore is the optional shared second level for succeeded responses.
type responseStore interface {
	Load(ctx context.Context, q string) (search.ClientResponse, bool)
	Save(ctx context.Context, q string, resp search.ClientResponse)
	Forget(ctx context.Context, q string)
}
