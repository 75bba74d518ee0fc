package ingest

import (
	"context"

	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
)

// Engine is the part of the engine API the ingest pipeline writes to.
type Engine interface {
	InsertDocs(ctx context.Context, docs []domsearch.Doc) (string, error)
	DeleteDocs(ctx context.Context) (string, error)
}
