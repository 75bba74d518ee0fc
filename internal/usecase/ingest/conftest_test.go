package ingest

import (
	"context"
	"errors"
	"fmt"

	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
)

// --- Engine mock ---

type mockEngine struct {
	batches   [][]domsearch.Doc
	failOn    map[int]bool // 1-based batch numbers that fail
	deleted   int
	deleteErr error
}

func (m *mockEngine) InsertDocs(_ context.Context, docs []domsearch.Doc) (string, error) {
	m.batches = append(m.batches, docs)
	if m.failOn[len(m.batches)] {
		return "", errors.New("Something went wrong: index closed")
	}
	return fmt.Sprintf("insert %d items", len(docs)), nil
}

func (m *mockEngine) DeleteDocs(_ context.Context) (string, error) {
	if m.deleteErr != nil {
		return "", m.deleteErr
	}
	m.deleted++
	return "deleted 7 documents", nil
}
