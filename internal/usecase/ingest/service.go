package ingest

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Result counts what reached the engine.
type Result struct {
	Files  int
	Sent   int
	Failed int
}

// Service loads JSONL feeds into the engine.
type Service struct {
	engine    Engine
	batchSize int
	logger    *zap.Logger
}

// New creates an ingest service posting batches of batchSize documents.
func New(engine Engine, batchSize int, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, batchSize: batchSize, logger: logger}
}

// Reset removes every document from the engine.
func (s *Service) Reset(ctx context.Context) error {
	msg, err := s.engine.DeleteDocs(ctx)
	if err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	s.logger.Info("Index reset", zap.String("engine", msg))
	return nil
}

// Files ingests every feed file in order. A failing file or batch does not
// stop the others; all failures are returned together.
func (s *Service) Files(ctx context.Context, paths []string) (Result, error) {
	var (
		res    Result
		result error
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return res, multierror.Append(result, err)
		}
		docs, err := ReadFeedFile(p)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		res.Files++

		r, err := s.Docs(ctx, docs)
		res.Sent += r.Sent
		res.Failed += r.Failed
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", p, err))
		}
		s.logger.Info("Feed ingested",
			zap.String("file", p), zap.Int("documents", len(docs)),
			zap.Int("sent", r.Sent), zap.Int("failed", r.Failed))
	}
	return res, result
}

// Docs posts docs in batches.
func (s *Service) Docs(ctx context.Context, docs []domsearch.Doc) (Result, error) {
	var (
		res    Result
		result error
	)
	for start := 0; start < len(docs); start += s.batchSize {
		end := min(start+s.batchSize, len(docs))
		batch := docs[start:end]

		if _, err := s.engine.InsertDocs(ctx, batch); err != nil {
			res.Failed += len(batch)
			metrics.IngestDocumentsTotal.WithLabelValues("error").Add(float64(len(batch)))
			result = multierror.Append(result, fmt.Errorf("documents %d-%d: %w", start, end-1, err))
			continue
		}
		res.Sent += len(batch)
		metrics.IngestDocumentsTotal.WithLabelValues("success").Add(float64(len(batch)))
	}
	return res, result
}
