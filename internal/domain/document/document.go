package document

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// MaxBodySize is the maximum total body size in bytes.
const MaxBodySize = 4 << 20

// Document is an indexed web page (immutable value object).
type Document struct {
	url   string
	title string
	body  []string
}

// New validates and creates a Document.
// URL: absolute http(s). Body: blank lines are dropped, total size max 4MB.
func New(rawURL, title string, body []string) (Document, error) {
	if rawURL == "" {
		return Document{}, fmt.Errorf("document url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Document{}, fmt.Errorf("document url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Document{}, fmt.Errorf("document url must be http or https, got %q", rawURL)
	}
	if u.Host == "" {
		return Document{}, fmt.Errorf("document url has no host: %q", rawURL)
	}

	lines := make([]string, 0, len(body))
	size := 0
	for _, l := range body {
		if strings.TrimSpace(l) == "" {
			continue
		}
		size += len(l)
		lines = append(lines, l)
	}
	if size > MaxBodySize {
		return Document{}, fmt.Errorf("document body too large (max %d bytes)", MaxBodySize)
	}

	return Document{
		url:   rawURL,
		title: strings.TrimSpace(title),
		body:  lines,
	}, nil
}

// Reconstruct creates a Document without validation (index hydration).
func Reconstruct(rawURL, title string, body []string) Document {
	return Document{url: rawURL, title: title, body: body}
}

// ID is derived from the URL, so indexing the same page twice replaces it.
func (d *Document) ID() string { return IDFor(d.url) }

// URL returns the page address.
func (d *Document) URL() string { return d.url }

// Title returns the page title.
func (d *Document) Title() string { return d.title }

// Body returns the page text, one entry per line.
func (d *Document) Body() []string { return d.body }

// IDFor returns the document identifier for a page URL.
func IDFor(rawURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(rawURL)).String()
}

// SplitBody splits extracted page text into lines, dropping blank ones.
func SplitBody(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
