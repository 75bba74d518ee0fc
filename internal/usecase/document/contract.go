package document

import (
	"context"

	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
)

// Repository defines the index contract for page documents.
type Repository interface {
	Insert(ctx context.Context, docs []domdoc.Document) (int, error)
	DeleteAll(ctx context.Context) (int, error)
	Count(ctx context.Context) (uint64, error)
}
