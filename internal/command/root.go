// Package command holds the docsearch sub-commands.
package command

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/config"
	logpkg "github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/metrics"
	"github.com/kailas-cloud/docsearch/internal/version"
)

const (
	configKey = "config"
	loggerKey = "logger"
)

// Main runs the CLI and exits non-zero on failure.
func Main(name, usage string, commands ...*cli.Command) {
	if err := NewApp(name, usage, commands...).Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// NewApp builds the CLI. Before loads the configuration and the logger that
// every sub-command reads through configFrom and loggerFrom.
func NewApp(name, usage string, commands ...*cli.Command) *cli.App {
	app := &cli.App{
		Name:     name,
		Usage:    usage,
		Commands: commands,
		Version:  version.String(),
		Before: func(ctx *cli.Context) error {
			env := ctx.String("env")

			cfg, err := config.Load(env)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			level := cfg.Logging.Level
			if l := ctx.String("log-level"); l != "" {
				level = l
			}
			if ctx.Bool("debug") {
				level = "debug"
			}

			logger, err := logpkg.NewLogger(env, level)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}

			metrics.RegisterSearchMetrics()

			ctx.App.Metadata[configKey] = cfg
			ctx.App.Metadata[loggerKey] = logger
			ctx.Context = logpkg.ContextWithLogger(ctx.Context, logger)
			return nil
		},
		After: func(ctx *cli.Context) error {
			if l, ok := ctx.App.Metadata[loggerKey].(*zap.Logger); ok {
				_ = l.Sync()
			}
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Value:   "local",
				EnvVars: []string{"ENV"},
				Usage:   "Configuration environment, reads config/<env>.yaml",
			},
			&cli.BoolFlag{
				Name:    "debug",
				EnvVars: []string{"DOCSEARCH_DEBUG"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"DOCSEARCH_LOG_LEVEL"},
				Usage:   "Override the configured log level (debug, info, warn, error)",
			},
		},
		Metadata: map[string]any{},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}
		logger, ok := ctx.App.Metadata[loggerKey].(*zap.Logger)
		if !ok {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		if ctx.Bool("debug") {
			logger.Error("Command failed", zap.String("error", fmt.Sprintf("%+v", err)))
			return
		}
		logger.Error("Command failed", zap.Error(err))
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	return app
}

func configFrom(ctx *cli.Context) config.Config {
	cfg, _ := ctx.App.Metadata[configKey].(config.Config)
	return cfg
}

func loggerFrom(ctx *cli.Context) *zap.Logger {
	if l, ok := ctx.App.Metadata[loggerKey].(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
