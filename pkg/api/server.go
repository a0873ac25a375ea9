// Package api contains the REST surface: health, metrics and the v1
// content routes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/ghost-mcp/ghost-mcp/pkg/api/v1"
	"github.com/ghost-mcp/ghost-mcp/pkg/config"
	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
	"github.com/ghost-mcp/ghost-mcp/pkg/resilience"
	"github.com/ghost-mcp/ghost-mcp/pkg/telemetry"
	"github.com/ghost-mcp/ghost-mcp/pkg/versions"
)

// Not sure if these values need to be configurable.
const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// GhostService is the slice of the Ghost service the API consumes.
type GhostService interface {
	v1.PostsService
	BreakerState() resilience.Snapshot
}

func headersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter assembles the REST router: health and metrics at the root,
// content routes under /api/v1.
func NewRouter(cfg *config.Config, svc GhostService, metrics *telemetry.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Timeout(middlewareTimeout),
		headersMiddleware,
	)

	r.Get("/health", healthHandler(svc))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/posts", v1.PostsRouter(svc, cfg.Env()))
	})
	return r
}

type healthResponse struct {
	Status  string              `json:"status"`
	Version string              `json:"version"`
	Breaker resilience.Snapshot `json:"circuitBreaker"`
}

func healthHandler(svc GhostService) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := svc.BreakerState()

		status := "ok"
		httpStatus := http.StatusOK
		if snap.State == resilience.StateOpen {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		if err := json.NewEncoder(w).Encode(healthResponse{
			Status:  status,
			Version: versions.GetVersionInfo().Version,
			Breaker: snap,
		}); err != nil {
			logger.Errorf("failed to encode health response: %v", err)
		}
	}
}

// Serve runs the REST server until the context is cancelled, then shuts
// down gracefully.
func Serve(ctx context.Context, address string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting REST API server on http://%s", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
