package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	ingestuc "github.com/kailas-cloud/docsearch/internal/usecase/ingest"
)

// NewIngestCommand loads JSONL feeds into the engine.
func NewIngestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Load JSONL feeds into the engine",
		ArgsUsage: "[file or directory...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Delete every indexed document first",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Override crawler.ingest_batch_size",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg := configFrom(ctx)
			logger := loggerFrom(ctx)

			client, err := newEngineClient(cfg, logger)
			if err != nil {
				return err
			}

			paths := ctx.Args().Slice()
			if len(paths) == 0 {
				paths = []string{cfg.Crawler.FeedDir}
			}
			files, err := ingestuc.ResolveFeeds(paths)
			if err != nil {
				return err //nolint:wrapcheck // already describes the path
			}
			if len(files) == 0 {
				return fmt.Errorf("no feed found in %v", paths)
			}

			batch := cfg.Crawler.IngestBatchSize
			if n := ctx.Int("batch-size"); n > 0 {
				batch = n
			}
			svc := ingestuc.New(client, batch, logger)

			if ctx.Bool("reset") {
				if err := svc.Reset(ctx.Context); err != nil {
					return err //nolint:wrapcheck // already prefixed
				}
			}

			res, err := svc.Files(ctx.Context, files)
			logger.Info("Ingest finished",
				zap.Int("files", res.Files),
				zap.Int("sent", res.Sent),
				zap.Int("failed", res.Failed))
			return err //nolint:wrapcheck // aggregated per file
		},
	}
}
