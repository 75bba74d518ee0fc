package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/config"
	dbRedis "github.com/kailas-cloud/docsearch/internal/db/redis"
	"github.com/kailas-cloud/docsearch/internal/metrics"
	"github.com/kailas-cloud/docsearch/internal/repository/respcache"
	chiTransport "github.com/kailas-cloud/docsearch/internal/transport/chi"
	"github.com/kailas-cloud/docsearch/internal/transport/engine"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	"github.com/kailas-cloud/docsearch/internal/usecase/resultcache"
)

// NewWebCommand serves the search page.
func NewWebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the search UI",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override http.port",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg := configFrom(ctx)
			logger := loggerFrom(ctx)
			if p := ctx.Int("port"); p > 0 {
				cfg.HTTP.Port = p
			}

			client, err := newEngineClient(cfg, logger)
			if err != nil {
				return err
			}

			health := healthuc.New().With("engine", client)

			opts := resultcache.Options{
				MaxEntries:   cfg.Cache.MaxEntries,
				FetchTimeout: seconds(cfg.Engine.RequestTimeoutSec),
				CacheTotal:   metrics.ResultCacheTotal,
				Evictions:    metrics.ResultCacheEvictionsTotal,
				Logger:       logger,
			}
			if len(cfg.Cache.Redis.Addrs) > 0 {
				store, err := dbRedis.NewStore(dbRedis.Config{
					Addrs:      cfg.Cache.Redis.Addrs,
					Username:   cfg.Cache.Redis.Username,
					Password:   cfg.Cache.Redis.Password,
					DB:         cfg.Cache.Redis.DB,
					ClientName: "docsearch-web",
				})
				if err != nil {
					return fmt.Errorf("cache store: %w", err)
				}
				defer store.Close()

				if err := store.WaitForReady(ctx.Context, seconds(cfg.Cache.Redis.ReadinessTimeout)); err != nil {
					return fmt.Errorf("cache store not ready: %w", err)
				}
				logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Redis.Addrs))

				opts.Store = respcache.New(store, cfg.Cache.Redis.KeyPrefix,
					seconds(cfg.Cache.TTLSec), metrics.ResultCacheTotal, logger)
				health.With("cache_store", store)
			}

			cache, err := resultcache.New(client, opts)
			if err != nil {
				return fmt.Errorf("result cache: %w", err)
			}

			logger.Info("Starting docsearch web UI",
				zap.String("engine", client.BaseURL()),
				zap.Int("http_port", cfg.HTTP.Port),
				zap.Int("cache_entries", cfg.Cache.MaxEntries),
				zap.Bool("cache_store", opts.Store != nil))

			server := chiTransport.NewWebServer(cache, health,
				time.Duration(cfg.Cache.RenderWaitMS)*time.Millisecond, logger)

			return serve(ctx.Context, logger, server.Handler(), serverOptions{
				name:     "web",
				port:     cfg.HTTP.Port,
				read:     seconds(cfg.HTTP.ReadTimeoutSec),
				write:    seconds(cfg.HTTP.WriteTimeoutSec),
				shutdown: seconds(cfg.HTTP.ShutdownSec),
			})
		},
	}
}

// newEngineClient validates the engine address and builds the client.
func newEngineClient(cfg config.Config, logger *zap.Logger) (*engine.Client, error) {
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // already carries ErrConfig and the field name
	}
	return engine.NewClient(&engine.Config{ //nolint:wrapcheck // already carries ErrConfig
		BaseURL: cfg.Engine.BaseURL,
		APIKey:  cfg.Engine.APIKey,
		Timeout: seconds(cfg.Engine.RequestTimeoutSec),
		Logger:  logger,
	})
}
