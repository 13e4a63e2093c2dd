package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docnav/internal/api"
	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/content"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/dgallion1/docnav/internal/render"
	"github.com/dgallion1/docnav/internal/topics"
	"github.com/dgallion1/docnav/internal/watch"
)

type ServeCmd struct{}

func (s *ServeCmd) Run(g *Global) error {
	log := g.Logger

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m, err := topics.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}

	rec, metricsHandler := newRecorder(cfg)
	fetcher, closeFetcher := newFetcher(cfg, rec, log)
	defer closeFetcher()

	renderer := render.NewCached(
		render.NewMarkdown(render.Options{HighlightStyle: cfg.HighlightStyle, Recorder: rec}),
		cfg.RenderCacheTTL, rec)

	srv, err := api.NewServer(m, api.Options{
		Fetcher:     fetcher,
		Renderer:    renderer,
		Recorder:    rec,
		Metrics:     metricsHandler,
		AdminAPIKey: cfg.AdminAPIKey,
		SessionTTL:  cfg.SessionTTL,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	watcher, err := watch.NewManifestWatcher(cfg.ManifestPath, cfg.WatchDebounce, srv.Apply, rec, log)
	if err != nil {
		return err
	}
	srv.SetReloader(watcher)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Info("starting docnav", "port", cfg.Port, "manifest", cfg.ManifestPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown.
	eg.Go(func() error {
		<-egCtx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		return srv.Sessions().Run(egCtx, cfg.SessionCleanupInterval)
	})

	if cfg.WatchManifest {
		eg.Go(func() error {
			return watcher.Run(egCtx)
		})
	}

	return eg.Wait()
}

func newRecorder(cfg config.Config) (metrics.Recorder, http.Handler) {
	if !cfg.MetricsEnabled {
		return metrics.NoopRecorder{}, nil
	}
	p := metrics.NewPrometheusRecorder(prometheus.NewRegistry(), cfg.MetricsNamespace)
	return p, p.Handler()
}

// newFetcher prefers a remote content server when one is configured.
func newFetcher(cfg config.Config, rec metrics.Recorder, log *slog.Logger) (content.Fetcher, func()) {
	if cfg.ContentURL != "" {
		f := content.NewHTTPFetcher(cfg.ContentURL, content.HTTPOptions{
			APIKey:   cfg.ContentAPIKey,
			Timeout:  cfg.FetchTimeout,
			Retries:  cfg.FetchRetries,
			MaxBytes: cfg.MaxContentBytes,
			Recorder: rec,
			Logger:   log,
		})
		return f, f.Close
	}
	opts := parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}
	return content.NewFileFetcher(cfg.ContentDir, cfg.MaxContentBytes, opts, rec, log), func() {}
}
