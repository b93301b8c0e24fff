package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/yamloutline/internal/api"
	"github.com/dgallion1/yamloutline/internal/cache"
	"github.com/dgallion1/yamloutline/internal/config"
	"github.com/dgallion1/yamloutline/internal/parser"
	"github.com/dgallion1/yamloutline/internal/pathstore"
	"github.com/dgallion1/yamloutline/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional outline cache.
	var outlines pipeline.OutlineCache
	var store *cache.Cache
	if cfg.CacheEnabled() {
		var err error
		store, err = cache.Open(cache.Config{
			Dir:      cfg.CacheDir,
			InMemory: cfg.CacheInMemory,
			TTL:      cfg.CacheTTL,
			Logger:   log.With("component", "cache"),
		})
		if err != nil {
			log.Error("open outline cache", "error", err)
			os.Exit(1)
		}
		outlines = store
	}

	// Optional pathstore publishing.
	var publisher pipeline.Publisher
	var docs api.DocumentStore
	var ps *pathstore.Client
	if cfg.PublishEnabled() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey, cfg.PublishRetries)
		publisher = ps
		docs = ps
	}

	// Initialize pipeline.
	stats := pipeline.NewAnalysisStats(cfg.StatsWindow)
	analyzer := pipeline.NewAnalyzer(cfg.DedentPolicy, parser.Options{
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
	}, outlines, stats, log)
	orch := pipeline.NewOrchestrator(cfg, analyzer, publisher, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, docs, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting yamloutline",
		"port", cfg.Port,
		"dedent_policy", cfg.DedentPolicy.String(),
		"cache", cfg.CacheEnabled(),
		"publish", cfg.PublishEnabled(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped

	if store != nil {
		if err := store.Close(); err != nil {
			log.Error("close outline cache", "error", err)
		}
	}
}
