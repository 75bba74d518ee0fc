package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"

	"github.com/kailas-cloud/docsearch/internal/domain/document"
	domsearch "github.com/kailas-cloud/docsearch/internal/domain/search"
)

// skippedElements never contribute visible text.
var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"head":     {},
}

// Extract turns an HTML page into a document.
// The body is the main text found by trafilatura, or all visible text when
// trafilatura finds nothing. The title is the <title> element, else the
// title from the page metadata.
func Extract(body []byte, pageURL *url.URL) (domsearch.Doc, error) {
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domsearch.Doc{}, fmt.Errorf("parse html: %w", err)
	}

	var mainText, metaTitle string
	if res, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{OriginalURL: pageURL}); err == nil && res != nil {
		mainText = res.ContentText
		metaTitle = res.Metadata.Title
	}

	title := strings.TrimSpace(dom.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(metaTitle)
	}

	lines := document.SplitBody(mainText)
	if len(lines) == 0 {
		lines = VisibleText(dom.Selection)
	}

	return domsearch.Doc{URL: pageURL.String(), Title: title, Body: lines}, nil
}

// VisibleText returns the text nodes under s in document order, one per line,
// with blank lines removed.
func VisibleText(s *goquery.Selection) []string {
	var sb strings.Builder
	collectText(s, &sb)
	return document.SplitBody(sb.String())
}

func collectText(s *goquery.Selection, sb *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		if name == "#text" {
			sb.WriteString(c.Text())
			sb.WriteByte('\n')
			return
		}
		if _, skip := skippedElements[name]; skip {
			return
		}
		collectText(c, sb)
	})
}
