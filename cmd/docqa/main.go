// Command docqa serves the browser front-end: chat over the indexed
// documents, PDF upload, and live ingestion of the watched directory.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	docqa "github.com/kailas-cloud/docqa"
	"github.com/kailas-cloud/docqa/internal/config"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/transport/web"
	"github.com/kailas-cloud/docqa/internal/version"
	"github.com/kailas-cloud/docqa/internal/watcher"
)

func main() {
	// .env first, so ${HUGGINGFACE_TOKEN} expansion in the config sees it.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		// Missing credential and friends: refuse to start, nothing serves.
		fmt.Fprintf(os.Stderr, "docqa: %v\n", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docqa: create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docqa server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_dir", cfg.Index.Dir),
		zap.String("documents_dir", cfg.Documents.Dir),
	)

	client, err := docqa.Open(context.Background(), docqa.WithConfig(cfg), docqa.WithLogger(logger))
	if err != nil {
		logger.Fatal("Failed to open pipeline", zap.Error(err))
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Startup scan: index whatever is already in the documents directory.
	if reports, err := client.IngestDir(ctx, cfg.Documents.Dir); err != nil {
		logger.Warn("Startup ingestion finished with errors", zap.Error(err))
	} else if len(reports) > 0 {
		logger.Info("Startup ingestion complete", zap.Int("documents", len(reports)))
	}
	logger.Info("Index ready", zap.Int("segments", client.Index().Len()))

	if cfg.Documents.Watch {
		startWatcher(ctx, client, cfg.Documents.Dir, logger)
	}

	server := web.NewServer(client.Ingest(), client.Session(), client.Health(), cfg.Documents.Dir, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// startWatcher ingests PDFs dropped into dir while the server runs.
// Failures are logged and skipped: a bad file must not take the server down.
func startWatcher(ctx context.Context, client *docqa.Client, dir string, logger *zap.Logger) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("Cannot create documents directory, watcher disabled", zap.Error(err))
		return
	}

	events, err := watcher.New(0, logger).Watch(ctx, dir)
	if err != nil {
		logger.Warn("Watcher disabled", zap.Error(err))
		return
	}

	logger.Info("Watching documents directory", zap.String("dir", dir))

	go func() {
		for ev := range events {
			if _, err := client.IngestFile(ctx, ev.Path); err != nil {
				logger.Warn("Watched file ingestion failed",
					zap.String("path", ev.Path), zap.Error(err))
			}
		}
	}()
}
