package search

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Config tunes ranking and snippet extraction.
type Config struct {
	TopK        int
	TitleBoost  float64
	WindowBytes int
	Workers     int
}

// Service answers engine queries.
type Service struct {
	repo Repository
	cfg  Config
}

// New creates a query service.
func New(repo Repository, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Service{repo: repo, cfg: cfg}
}

// Query ranks pages for q and attaches the most relevant body excerpt to each hit.
// Hit bodies are dropped from the response; only the excerpt travels.
func (s *Service) Query(ctx context.Context, q string) (domsearch.EngineResponse, error) {
	start := time.Now()

	hits, total, err := s.repo.Search(ctx, q, s.cfg.TopK, s.cfg.TitleBoost)
	if err != nil {
		return domsearch.EngineResponse{}, fmt.Errorf("search index: %w", err)
	}
	searched := time.Now()
	metrics.EngineQueryDuration.WithLabelValues("search").Observe(searched.Sub(start).Seconds())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range hits {
		g.Go(func() error {
			lines, err := s.repo.BestWindow(gctx, q, hits[i].Doc.Body, s.cfg.WindowBytes)
			if err != nil {
				return fmt.Errorf("relevant body of %s: %w", hits[i].Doc.URL, err)
			}
			if lines == nil {
				lines = []string{}
			}
			hits[i].RelevantBody = lines
			hits[i].Doc.Body = []string{}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domsearch.EngineResponse{}, err //nolint:wrapcheck // already wrapped per hit
	}
	metrics.EngineQueryDuration.WithLabelValues("snippets").Observe(time.Since(searched).Seconds())

	if hits == nil {
		hits = []domsearch.Hit{}
	}
	count := int(total)
	return domsearch.EngineResponse{
		Q:         q,
		ElapsedMS: float64(time.Since(start).Microseconds()) / 1000,
		Count:     &count,
		Hits:      hits,
	}, nil
}
