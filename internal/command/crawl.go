package command

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/config"
	"github.com/kailas-cloud/docsearch/internal/crawler"
)

// NewCrawlCommand crawls documentation sites into JSONL feeds and, optionally, the engine.
func NewCrawlCommand() *cli.Command {
	return &cli.Command{
		Name:      "crawl",
		Usage:     "Crawl documentation sites",
		ArgsUsage: "<site> [site...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "list",
				Usage: "Read sites from a file, one per line",
			},
			&cli.BoolFlag{
				Name:  "feed",
				Value: true,
				Usage: "Write <feed_dir>/<domain>.jsonl",
			},
			&cli.BoolFlag{
				Name:  "ingest",
				Usage: "Send pages to the engine while crawling",
			},
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "Forget the persisted visit state before crawling",
			},
			&cli.IntFlag{
				Name:  "max-items",
				Usage: "Override crawler.max_items",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg := configFrom(ctx)
			logger := loggerFrom(ctx)
			if n := ctx.Int("max-items"); n > 0 {
				cfg.Crawler.MaxItems = n
			}

			sites := ctx.Args().Slice()
			if list := ctx.String("list"); list != "" {
				listed, err := readSiteList(list)
				if err != nil {
					return err
				}
				sites = append(sites, listed...)
			}
			if len(sites) == 0 {
				return fmt.Errorf("no site given")
			}
			if !ctx.Bool("feed") && !ctx.Bool("ingest") {
				return fmt.Errorf("nothing to do: enable --feed or --ingest")
			}

			var result error
			for _, site := range sites {
				if err := crawlSite(ctx, cfg, logger, site); err != nil {
					result = multierror.Append(result, fmt.Errorf("%s: %w", site, err))
				}
			}
			return result
		},
	}
}

func crawlSite(ctx *cli.Context, cfg config.Config, logger *zap.Logger, site string) error {
	start, err := crawler.NormalizeStart(site)
	if err != nil {
		return err //nolint:wrapcheck // caller adds the site
	}
	logger = logger.With(zap.String("site", start.Hostname()))

	ccfg := crawler.Config{
		MaxItems:    cfg.Crawler.MaxItems,
		MaxDepth:    cfg.Crawler.MaxDepth,
		Parallelism: cfg.Crawler.Parallelism,
		Delay:       time.Duration(cfg.Crawler.DelayMS) * time.Millisecond,
		UserAgent:   cfg.Crawler.UserAgent,
		DenyGlobs:   cfg.Crawler.DenyGlobs,
	}
	if cfg.Crawler.StatePath != "" {
		state := crawler.NewBoltStorage(filepath.Join(cfg.Crawler.StatePath, start.Hostname()+".db"))
		if err := state.Init(); err != nil {
			return err //nolint:wrapcheck // already describes the failure
		}
		defer state.Close()
		if ctx.Bool("fresh") {
			if err := state.Clear(); err != nil {
				return fmt.Errorf("clear crawl state: %w", err)
			}
		}
		ccfg.Storage = state
	}

	c, err := crawler.New(ccfg, logger)
	if err != nil {
		return err //nolint:wrapcheck // already prefixed
	}

	var sinks []crawler.Sink
	if ctx.Bool("feed") {
		feed, err := crawler.NewFeedSink(cfg.Crawler.FeedDir, start.Hostname())
		if err != nil {
			return err //nolint:wrapcheck // already describes the failure
		}
		logger.Info("Writing feed", zap.String("path", feed.Path()))
		sinks = append(sinks, feed)
	}
	var engineSink *crawler.EngineSink
	if ctx.Bool("ingest") {
		client, err := newEngineClient(cfg, logger)
		if err != nil {
			return err
		}
		engineSink = crawler.NewEngineSink(client, cfg.Crawler.IngestBatchSize, logger)
		sinks = append(sinks, engineSink)
	}

	stats, err := c.Run(ctx.Context, start, sinks...)
	fields := []zap.Field{zap.Int("stored", stats.Stored), zap.Int("failed", stats.Failed)}
	if engineSink != nil {
		sent, dropped := engineSink.Sent()
		fields = append(fields, zap.Int("sent", sent), zap.Int("dropped", dropped))
	}
	logger.Info("Site crawled", fields...)
	return err //nolint:wrapcheck // caller adds the site
}

// readSiteList reads one site per line, skipping blanks and # comments.
func readSiteList(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open site list: %w", err)
	}
	defer f.Close()

	var sites []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sites = append(sites, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read site list: %w", err)
	}
	return sites, nil
}
