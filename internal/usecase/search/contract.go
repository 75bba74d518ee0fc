package search

import (
	"context"

	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
)

// Repository defines the index contract for engine queries.
type Repository interface {
	Search(ctx context.Context, q string, topK int, titleBoost float64) ([]domsearch.Hit, uint64, error)
	BestWindow(ctx context.Context, q string, body []string, minBytes int) ([]string, error)
}
