package crawler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
)

// Sink receives every stored page. Put is called from one goroutine at a time.
type Sink interface {
	Put(ctx context.Context, doc domsearch.Doc) error
	Close(ctx context.Context) error
}

// FeedRecord is one line of a JSONL feed. Body holds the page text with one
// line per paragraph.
type FeedRecord struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// FeedPath returns the feed file of a crawled domain inside dir.
func FeedPath(dir, domain string) string {
	return filepath.Join(dir, slug.Make(domain)+".jsonl")
}

// FeedSink writes pages as JSON lines. An existing feed is overwritten.
type FeedSink struct {
	path string
	f    *os.File
	w    *bufio.Writer
	enc  *json.Encoder
}

// NewFeedSink creates the feed file for domain inside dir.
func NewFeedSink(dir, domain string) (*FeedSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create feed dir: %w", err)
	}
	path := FeedPath(dir, domain)
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}
	w := bufio.NewWriter(f)
	return &FeedSink{path: path, f: f, w: w, enc: json.NewEncoder(w)}, nil
}

// Path returns the feed file location.
func (s *FeedSink) Path() string { return s.path }

// Put appends one record.
func (s *FeedSink) Put(_ context.Context, doc domsearch.Doc) error {
	rec := FeedRecord{URL: doc.URL, Title: doc.Title, Body: strings.Join(doc.Body, "\n")}
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("write feed record: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *FeedSink) Close(_ context.Context) error {
	var result error
	if err := s.w.Flush(); err != nil {
		result = multierror.Append(result, fmt.Errorf("flush feed: %w", err))
	}
	if err := s.f.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close feed: %w", err))
	}
	return result
}

// Inserter posts a batch of pages to the engine.
type Inserter interface {
	InsertDocs(ctx context.Context, docs []domsearch.Doc) (string, error)
}

// EngineSink sends pages to the engine in batches.
// A failed batch is dropped and reported by the call that sent it; later batches are still sent.
type EngineSink struct {
	engine    Inserter
	batchSize int
	logger    *zap.Logger

	mu      sync.Mutex
	pending []domsearch.Doc
	sent    int
	failed  int
}

// NewEngineSink creates a batching engine sink.
func NewEngineSink(engine Inserter, batchSize int, logger *zap.Logger) *EngineSink {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &EngineSink{engine: engine, batchSize: batchSize, logger: logger}
}

// Put queues doc and sends the batch once it is full.
func (s *EngineSink) Put(ctx context.Context, doc domsearch.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, doc)
	if len(s.pending) < s.batchSize {
		return nil
	}
	return s.flush(ctx)
}

// Close sends what is left.
func (s *EngineSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}
	return s.flush(ctx)
}

// Sent returns the number of pages the engine accepted and the number dropped.
func (s *EngineSink) Sent() (sent, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent, s.failed
}

// flush sends the pending batch. Caller holds s.mu.
func (s *EngineSink) flush(ctx context.Context) error {
	batch := s.pending
	s.pending = nil

	msg, err := s.engine.InsertDocs(ctx, batch)
	if err != nil {
		s.failed += len(batch)
		s.logger.Warn("Engine rejected batch", zap.Int("size", len(batch)), zap.Error(err))
		return fmt.Errorf("insert batch of %d: %w", len(batch), err)
	}
	s.sent += len(batch)
	s.logger.Debug("Batch sent", zap.Int("size", len(batch)), zap.String("engine", msg))
	return nil
}
