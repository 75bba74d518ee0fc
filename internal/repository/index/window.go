package index

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

// Windows splits body into overlapping windows. Window i starts at line i and
// takes following lines until it holds at least minBytes bytes or the body ends.
func Windows(body []string, minBytes int) [][]string {
	windows := make([][]string, 0, len(body))
	for start := range body {
		size := 0
		end := start
		for end < len(body) && size < minBytes {
			size += len(body[end])
			end++
		}
		windows = append(windows, body[start:end])
	}
	return windows
}

// BestWindow indexes the windows of one page in a throwaway in-memory index and
// returns the lines of the best match for q. Nil means no window matched.
// Ties go to the earliest window.
func BestWindow(ctx context.Context, q string, body []string, minBytes int) ([]string, error) {
	windows := Windows(body, minBytes)
	if len(windows) == 0 {
		return nil, nil
	}

	text := bleve.NewTextFieldMapping()
	text.Store = false
	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldBody, text)
	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc

	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("create page index: %w", err)
	}
	defer func() { _ = idx.Close() }()

	batch := idx.NewBatch()
	for i, w := range windows {
		if err := batch.Index(windowID(i), map[string]interface{}{fieldBody: strings.Join(w, "\n")}); err != nil {
			return nil, fmt.Errorf("index window %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("commit page index: %w", err)
	}

	mq := bleve.NewMatchQuery(q)
	mq.SetField(fieldBody)
	req := bleve.NewSearchRequestOptions(mq, 1, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search page index: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}

	i, err := strconv.Atoi(res.Hits[0].ID)
	if err != nil || i < 0 || i >= len(windows) {
		return nil, fmt.Errorf("unexpected window id %q", res.Hits[0].ID)
	}
	return windows[i], nil
}

// windowID is zero-padded so that the "_id" sort follows window order.
func windowID(i int) string {
	return fmt.Sprintf("%08d", i)
}
