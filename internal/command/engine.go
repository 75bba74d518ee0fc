package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/repository/index"
	chiTransport "github.com/kailas-cloud/docsearch/internal/transport/chi"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
)

// NewEngineCommand serves the search engine API over a bleve index.
func NewEngineCommand() *cli.Command {
	return &cli.Command{
		Name:  "engine",
		Usage: "Serve the search engine API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override engine_server.port",
			},
			&cli.StringFlag{
				Name:  "index",
				Usage: "Override engine_server.index_path (empty keeps the index in memory)",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg := configFrom(ctx)
			logger := loggerFrom(ctx)
			es := cfg.EngineServer
			if p := ctx.Int("port"); p > 0 {
				es.Port = p
			}
			if ctx.IsSet("index") {
				es.IndexPath = ctx.String("index")
			}

			repo, err := index.Open(es.IndexPath, logger)
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("Close index", zap.Error(err))
				}
			}()

			searchSvc := searchuc.New(repo, searchuc.Config{
				TopK:        es.TopK,
				TitleBoost:  es.TitleBoost,
				WindowBytes: es.SnippetWindowBytes,
				Workers:     es.SnippetWorkers,
			})
			docSvc := documentuc.New(repo, es.MaxBatchSize)
			health := healthuc.New().With("index", healthuc.PingFunc(func(ctx context.Context) error {
				_, err := docSvc.Count(ctx)
				return err
			}))

			n, err := docSvc.Count(ctx.Context)
			if err != nil {
				return fmt.Errorf("count documents: %w", err)
			}
			logger.Info("Starting docsearch engine",
				zap.String("index_path", es.IndexPath),
				zap.Uint64("documents", n),
				zap.Int("port", es.Port),
				zap.Int("top_k", es.TopK),
				zap.Bool("auth", len(es.APIKeys) > 0))

			server := chiTransport.NewEngineServer(searchSvc, docSvc, health, logger)
			return serve(ctx.Context, logger, server.Handler(es.APIKeys), serverOptions{
				name:     "engine",
				port:     es.Port,
				read:     seconds(es.ReadTimeoutSec),
				write:    seconds(es.WriteTimeoutSec),
				shutdown: seconds(es.ShutdownSec),
			})
		},
	}
}
