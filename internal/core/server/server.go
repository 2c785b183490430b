package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/config"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/health"
	middleware "github.com/mohammed-shakir/zh-parking-finder/internal/core/middleware"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/router"
	"github.com/mohammed-shakir/zh-parking-finder/internal/finder"
)

// Deps are the collaborators the HTTP surface is wired to.
type Deps struct {
	Finder  finder.Interface
	Ready   health.ReadinessReporter
	Metrics MetricsHandler
}

// MetricsHandler is satisfied by *metrics.Provider; nil disables /metrics.
type MetricsHandler interface {
	Path() string
	Handler() http.Handler
}

// NewRouter builds the chi router with all routes mounted.
func NewRouter(logger *slog.Logger, deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	if deps.Ready != nil {
		r.Get("/readyz", health.Readiness(deps.Ready))
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, deps.Metrics.Path(), deps.Metrics.Handler())
	}
	r.Get("/nearby", router.HandleNearby(logger, deps.Finder))
	r.Get("/help", router.HandleHelp())
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, deps Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(logger, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// a query waits on the feed, allow its full timeout plus rendering
		WriteTimeout: cfg.FeedTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
