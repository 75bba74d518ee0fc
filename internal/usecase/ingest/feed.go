package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/document"
	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
)

const maxLineBytes = 16 << 20

// body accepts either a string, split into non-blank lines, or a list of lines.
type body []string

func (b *body) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*b = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err //nolint:wrapcheck // reported with the line number
		}
		*b = document.SplitBody(s)
		return nil
	default:
		var lines []string
		if err := json.Unmarshal(data, &lines); err != nil {
			return err //nolint:wrapcheck // reported with the line number
		}
		*b = lines
		return nil
	}
}

type record struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Body  body   `json:"body"`
}

// ReadFeed decodes a JSONL feed. Blank lines are skipped.
func ReadFeed(r io.Reader) ([]domsearch.Doc, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var docs []domsearch.Doc
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidDocument, line, err)
		}
		docs = append(docs, domsearch.Doc{URL: rec.URL, Title: rec.Title, Body: []string(rec.Body)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return docs, nil
}

// ReadFeedFile decodes the feed at path.
func ReadFeedFile(path string) ([]domsearch.Doc, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	docs, err := ReadFeed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// ResolveFeeds expands directories into the *.jsonl files they contain.
// Plain files are kept as given.
func ResolveFeeds(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.jsonl"))
		if err != nil {
			return nil, fmt.Errorf("list feeds in %s: %w", p, err)
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}
