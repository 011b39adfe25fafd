package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/gedgraph/internal/api"
	"github.com/dgallion1/gedgraph/internal/config"
	"github.com/dgallion1/gedgraph/internal/graph"
	"github.com/dgallion1/gedgraph/internal/pathstore"
	"github.com/dgallion1/gedgraph/internal/pipeline"
	"github.com/dgallion1/gedgraph/internal/watch"
)

func main() {
	cfg, err := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the graph store.
	base, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open graph store", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}
	store := graph.NewInstrumentedStore(base, cfg.Backend, cfg.StatsWindow)

	// Initialize pipeline.
	metrics := pipeline.NewMetrics()
	orch := pipeline.NewOrchestrator(cfg, store, metrics, log)
	orch.Start(ctx)

	if cfg.WatchDir != "" {
		w := watch.New(cfg.WatchDir, watch.DefaultDebounce, submitFile(orch, cfg, log), log)
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("drop directory watcher stopped", "error", err)
			}
		}()
	}

	// Initialize HTTP server.
	srv := api.NewServer(orch, metrics, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		cancel()
		if err := store.Close(shutdownCtx); err != nil {
			log.Error("close graph store", "error", err)
		}
	}()

	log.Info("starting gedgraph", "port", cfg.Port, "backend", cfg.Backend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (graph.Store, error) {
	switch cfg.Backend {
	case config.BackendNeo4j:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return graph.NewNeo4jStore(connectCtx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	case config.BackendPathstore:
		ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey, log)
		return graph.NewPathstoreStore(ps, cfg.PathstorePrefix), nil
	case config.BackendMemory:
		return graph.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// submitFile queues files from the drop directory with the configured
// parse and export defaults.
func submitFile(orch *pipeline.Orchestrator, cfg config.Config, log *slog.Logger) watch.Handler {
	return func(_ context.Context, path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("read dropped file", "path", path, "error", err)
			return
		}
		if int64(len(data)) > cfg.MaxUploadBytes {
			log.Error("dropped file too large", "path", path, "bytes", len(data))
			return
		}
		job := pipeline.NewJob(filepath.Base(path), data, pipeline.JobOptions{
			Strict:      cfg.Strict,
			Charset:     cfg.Charset,
			SkipPrivate: cfg.SkipPrivate,
		})
		if err := orch.Submit(job); err != nil {
			log.Error("submit dropped file", "path", path, "error", err)
			return
		}
		log.Info("dropped file queued", "path", path, "job_id", job.ID)
	}
}

func logLevel(name string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}
