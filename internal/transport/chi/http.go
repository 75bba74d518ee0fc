package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
)

// failurePrefix starts every plain-text error body.
const failurePrefix = "Something went wrong: "

// errorHandler writes a response for err and reports whether it did.
type errorHandler func(w http.ResponseWriter, err error) bool

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeFailure(w, status, err)
		return true
	}
}

// handleError runs the handler chain and falls back to 500.
func handleError(logger *zap.Logger, handlers []errorHandler, w http.ResponseWriter, err error) {
	for _, h := range handlers {
		if h(w, err) {
			logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeFailure(w, http.StatusInternalServerError, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, format string, args ...any) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, format, args...)
}

func writeFailure(w http.ResponseWriter, status int, err error) {
	writeText(w, status, "%s%v", failurePrefix, err)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthHandler serves GET /health. Anything but healthy answers 503.
func healthHandler(svc *healthuc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := svc.Check(r.Context())

		checks := make(map[string]string, len(report.Checks))
		for k, v := range report.Checks {
			checks[k] = string(v)
		}

		status := http.StatusOK
		if report.Status != healthuc.Healthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
	}
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}

func notFound(logger *zap.Logger, handlers []errorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handleError(logger, handlers, w, fmt.Errorf("%w: %s %s", domain.ErrNotFound, r.Method, r.URL.Path))
	}
}
