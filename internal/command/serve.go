package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type serverOptions struct {
	name     string
	port     int
	read     time.Duration
	write    time.Duration
	shutdown time.Duration
}

// serve runs handler until SIGINT/SIGTERM or ctx ends, then shuts down gracefully.
func serve(ctx context.Context, logger *zap.Logger, handler http.Handler, opts serverOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", opts.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       opts.read,
		ReadHeaderTimeout: opts.read,
		WriteTimeout:      opts.write,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("server", opts.name), zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s server: %w", opts.name, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Received shutdown signal", zap.String("server", opts.name))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown: %w", opts.name, err)
	}
	logger.Info("Server stopped gracefully", zap.String("server", opts.name))
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
