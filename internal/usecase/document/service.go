package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Service handles page ingestion and removal on the engine side.
type Service struct {
	repo         Repository
	maxBatchSize int
}

// New creates a document service.
func New(repo Repository, maxBatchSize int) *Service {
	return &Service{repo: repo, maxBatchSize: maxBatchSize}
}

// Insert validates and indexes a batch of pages. The batch is rejected as a whole
// when any page is invalid.
func (s *Service) Insert(ctx context.Context, docs []domsearch.Doc) (int, error) {
	if len(docs) == 0 {
		return 0, domain.ErrEmptyBatch
	}
	if s.maxBatchSize > 0 && len(docs) > s.maxBatchSize {
		return 0, fmt.Errorf("%w: %d documents, max %d", domain.ErrBatchTooLarge, len(docs), s.maxBatchSize)
	}

	valid := make([]domdoc.Document, 0, len(docs))
	for i, d := range docs {
		doc, err := domdoc.New(d.URL, d.Title, d.Body)
		if err != nil {
			return 0, fmt.Errorf("%w: documents[%d]: %w", domain.ErrInvalidDocument, i, err)
		}
		valid = append(valid, doc)
	}

	n, err := s.repo.Insert(ctx, valid)
	if err != nil {
		return 0, fmt.Errorf("insert documents: %w", err)
	}
	s.refreshGauge(ctx)
	return n, nil
}

// DeleteAll removes every page from the index.
func (s *Service) DeleteAll(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return n, fmt.Errorf("delete documents: %w", err)
	}
	s.refreshGauge(ctx)
	return n, nil
}

// Count returns the number of indexed pages.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *Service) refreshGauge(ctx context.Context) {
	if n, err := s.repo.Count(ctx); err == nil {
		metrics.IndexDocuments.Set(float64(n))
	}
}
