// Package crawler walks one documentation site and turns its pages into
// search documents.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/storage"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Config tunes a crawl.
type Config struct {
	MaxItems    int // pages to store before stopping
	MaxDepth    int // 0 = unlimited
	Parallelism int
	Delay       time.Duration
	UserAgent   string
	DenyGlobs   []string        // absolute URLs matching any glob are not followed
	Storage     storage.Storage // optional persistent visit state
}

// Stats summarises a finished crawl.
type Stats struct {
	Stored     int
	Duplicates int
	Empty      int
	Failed     int
}

// Crawler follows links inside the start URL's domain.
type Crawler struct {
	cfg    Config
	deny   []glob.Glob
	logger *zap.Logger
}

// New validates cfg and compiles the deny globs.
func New(cfg Config, logger *zap.Logger) (*Crawler, error) {
	if cfg.MaxItems <= 0 {
		return nil, errors.New("crawler: max items must be positive")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}

	deny := make([]glob.Glob, 0, len(cfg.DenyGlobs))
	for _, p := range cfg.DenyGlobs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("crawler: deny glob %q: %w", p, err)
		}
		deny = append(deny, g)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{cfg: cfg, deny: deny, logger: logger}, nil
}

// NormalizeStart trims raw and prefixes https:// when it carries no scheme.
func NormalizeStart(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("start url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("start url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, fmt.Errorf("start url must be an http(s) URL with a host, got %q", raw)
	}
	return u, nil
}

// run holds the state of one crawl.
type run struct {
	c     *Crawler
	ctx   context.Context
	sinks []Sink

	mu    sync.Mutex
	seen  map[string]struct{}
	stats Stats
	errs  error
}

// Run crawls from start and hands every extracted page to the sinks.
// Sinks are closed before Run returns. Sink failures are aggregated; the
// crawl itself keeps going.
func (c *Crawler) Run(ctx context.Context, start *url.URL, sinks ...Sink) (Stats, error) {
	r := &run{c: c, ctx: ctx, sinks: sinks, seen: make(map[string]struct{})}

	col, err := c.collector(start)
	if err != nil {
		return Stats{}, r.closeSinks(err)
	}

	col.OnRequest(func(req *colly.Request) {
		if ctx.Err() != nil || r.full() {
			req.Abort()
		}
	})
	col.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link, ok := c.follow(e.Request.AbsoluteURL(e.Attr("href")))
		if !ok || r.full() {
			return
		}
		_ = e.Request.Visit(link)
	})
	col.OnResponse(r.page)
	col.OnError(func(resp *colly.Response, err error) {
		metrics.CrawlerPagesTotal.WithLabelValues("error").Inc()
		r.mu.Lock()
		r.stats.Failed++
		r.mu.Unlock()
		c.logger.Warn("Fetch failed",
			zap.String("url", resp.Request.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Error(err))
	})

	c.logger.Info("Crawl started",
		zap.String("start", start.String()),
		zap.Int("max_items", c.cfg.MaxItems),
		zap.Int("max_depth", c.cfg.MaxDepth))

	if err := col.Visit(start.String()); err != nil {
		if alreadyVisited(err) {
			c.logger.Info("Start page already crawled, clear the crawl state to recrawl",
				zap.String("start", start.String()))
			return Stats{}, r.closeSinks(nil)
		}
		return Stats{}, r.closeSinks(fmt.Errorf("visit %s: %w", start, err))
	}
	col.Wait()

	err = r.closeSinks(ctx.Err())

	r.mu.Lock()
	defer r.mu.Unlock()
	c.logger.Info("Crawl finished",
		zap.Int("stored", r.stats.Stored),
		zap.Int("duplicates", r.stats.Duplicates),
		zap.Int("empty", r.stats.Empty),
		zap.Int("failed", r.stats.Failed))
	return r.stats, err
}

// alreadyVisited reports whether err is colly refusing a URL it has seen before.
func alreadyVisited(err error) bool {
	var ave *colly.AlreadyVisitedError
	return errors.As(err, &ave)
}

func (c *Crawler) collector(start *url.URL) (*colly.Collector, error) {
	col := colly.NewCollector(
		colly.UserAgent(c.cfg.UserAgent),
		colly.MaxDepth(c.cfg.MaxDepth),
		colly.AllowedDomains(start.Hostname()),
		colly.Async(true),
	)
	if err := col.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.cfg.Parallelism,
		Delay:       c.cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("crawler limit: %w", err)
	}
	if c.cfg.Storage != nil {
		if err := col.SetStorage(c.cfg.Storage); err != nil {
			return nil, fmt.Errorf("crawler storage: %w", err)
		}
	}
	return col, nil
}

// follow normalises a discovered link and applies the deny globs.
func (c *Crawler) follow(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	u.Fragment = ""
	link := u.String()
	for _, g := range c.deny {
		if g.Match(link) {
			return "", false
		}
	}
	return link, true
}

func (r *run) full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats.Stored >= r.c.cfg.MaxItems
}

// page runs the pipeline for one response: dedup, extract, store.
func (r *run) page(resp *colly.Response) {
	if !strings.Contains(strings.ToLower(resp.Headers.Get("Content-Type")), "html") {
		return
	}
	pageURL := *resp.Request.URL
	pageURL.Fragment = ""
	key := pageURL.String()

	r.mu.Lock()
	_, dup := r.seen[key]
	r.seen[key] = struct{}{}
	if dup {
		r.stats.Duplicates++
	}
	r.mu.Unlock()
	if dup {
		metrics.CrawlerPagesTotal.WithLabelValues("duplicate").Inc()
		return
	}

	doc, err := Extract(resp.Body, &pageURL)
	if err != nil {
		metrics.CrawlerPagesTotal.WithLabelValues("error").Inc()
		r.mu.Lock()
		r.stats.Failed++
		r.mu.Unlock()
		r.c.logger.Warn("Extraction failed", zap.String("url", key), zap.Error(err))
		return
	}
	if doc.Title == "" && len(doc.Body) == 0 {
		metrics.CrawlerPagesTotal.WithLabelValues("empty").Inc()
		r.mu.Lock()
		r.stats.Empty++
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stats.Stored >= r.c.cfg.MaxItems {
		return
	}
	r.stats.Stored++
	metrics.CrawlerPagesTotal.WithLabelValues("stored").Inc()
	r.c.logger.Info("Page stored", zap.String("url", key), zap.String("title", doc.Title))

	for _, s := range r.sinks {
		if err := s.Put(r.ctx, doc); err != nil {
			r.errs = multierror.Append(r.errs, err)
		}
	}
}

// closeSinks closes every sink and merges their errors with cause and the Put failures.
func (r *run) closeSinks(cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.errs
	if cause != nil {
		result = multierror.Append(result, cause)
	}
	for _, s := range r.sinks {
		if err := s.Close(context.WithoutCancel(r.ctx)); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
