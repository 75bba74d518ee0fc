// Package index stores web pages in a bleve full-text index.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/search"
)

const (
	fieldURL   = "url"
	fieldTitle = "title"
	fieldBody  = "body"
	fieldLines = "lines"

	deletePageSize = 1000
)

// pageDoc is the indexed form of a page. Body is searchable text, Lines keeps
// the body lines in order as a JSON array.
type pageDoc struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Lines string `json:"lines"`
}

// Repo is a bleve-backed page index.
type Repo struct {
	idx    bleve.Index
	logger *zap.Logger
}

// Open opens the index at path, creating it when missing. An empty path keeps the index in memory.
func Open(path string, logger *zap.Logger) (*Repo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path == "" {
		idx, err := bleve.NewMemOnly(pageMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Repo{idx: idx, logger: logger}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		logger.Info("Creating index", zap.String("path", path))
		idx, err = bleve.New(path, pageMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &Repo{idx: idx, logger: logger}, nil
}

func pageMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	url := bleve.NewKeywordFieldMapping()
	url.Store = true
	url.IncludeInAll = false
	doc.AddFieldMappingsAt(fieldURL, url)

	title := bleve.NewTextFieldMapping()
	title.Store = true
	doc.AddFieldMappingsAt(fieldTitle, title)

	body := bleve.NewTextFieldMapping()
	body.Store = false
	doc.AddFieldMappingsAt(fieldBody, body)

	lines := bleve.NewTextFieldMapping()
	lines.Store = true
	lines.Index = false
	lines.IncludeInAll = false
	doc.AddFieldMappingsAt(fieldLines, lines)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Insert indexes docs in one batch. A page already present under the same URL is replaced.
func (r *Repo) Insert(ctx context.Context, docs []document.Document) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}

	batch := r.idx.NewBatch()
	for i := range docs {
		d := &docs[i]
		lines, err := json.Marshal(d.Body())
		if err != nil {
			return 0, fmt.Errorf("encode body of %s: %w", d.URL(), err)
		}
		pd := pageDoc{
			URL:   d.URL(),
			Title: d.Title(),
			Body:  strings.Join(d.Body(), "\n"),
			Lines: string(lines),
		}
		if err := batch.Index(d.ID(), pd); err != nil {
			return 0, fmt.Errorf("index %s: %w", d.URL(), err)
		}
	}
	if err := r.idx.Batch(batch); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return len(docs), nil
}

// DeleteAll removes every page and returns how many were removed.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), deletePageSize, 0, false)
		res, err := r.idx.SearchInContext(ctx, req)
		if err != nil {
			return deleted, fmt.Errorf("list documents: %w", err)
		}
		if len(res.Hits) == 0 {
			return deleted, nil
		}

		batch := r.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := r.idx.Batch(batch); err != nil {
			return deleted, fmt.Errorf("delete batch: %w", err)
		}
		deleted += len(res.Hits)
	}
}

// Search matches q against title (boosted) or body and returns the topK best
// pages, body included, with the total number of matching pages.
func (r *Repo) Search(ctx context.Context, q string, topK int, titleBoost float64) ([]search.Hit, uint64, error) {
	title := bleve.NewMatchQuery(q)
	title.SetField(fieldTitle)
	title.SetBoost(titleBoost)

	body := bleve.NewMatchQuery(q)
	body.SetField(fieldBody)

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(title, body), topK, 0, false)
	req.Fields = []string{fieldURL, fieldTitle, fieldLines}
	req.SortBy([]string{"-_score", "_id"})

	res, err := r.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}

	hits := make([]search.Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := search.Hit{
			Score: h.Score,
			Doc: search.Doc{
				URL:   stringField(h.Fields, fieldURL),
				Title: stringField(h.Fields, fieldTitle),
				Body:  []string{},
			},
			RelevantBody: []string{},
		}
		if raw := stringField(h.Fields, fieldLines); raw != "" {
			if err := json.Unmarshal([]byte(raw), &hit.Doc.Body); err != nil {
				r.logger.Warn("Corrupt stored body", zap.String("id", h.ID), zap.Error(err))
			}
		}
		hits = append(hits, hit)
	}
	return hits, res.Total, nil
}

// Count returns the number of indexed pages.
func (r *Repo) Count(_ context.Context) (uint64, error) {
	n, err := r.idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("doc count: %w", err)
	}
	return n, nil
}

// BestWindow returns the lines of body that best match q. See BestWindow.
func (r *Repo) BestWindow(ctx context.Context, q string, body []string, minBytes int) ([]string, error) {
	return BestWindow(ctx, q, body, minBytes)
}

// Close releases the index.
func (r *Repo) Close() error {
	if err := r.idx.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	return nil
}

func stringField(fields map[string]interface{}, name string) string {
	if s, ok := fields[name].(string); ok {
		return s
	}
	return ""
}
