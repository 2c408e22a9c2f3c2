package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bylawbot/internal/cache"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/result"
	"github.com/kailas-cloud/bylawbot/internal/metrics"
	chiTransport "github.com/kailas-cloud/bylawbot/internal/transport/chi"
	"github.com/kailas-cloud/bylawbot/internal/usecase/citation"
	healthuc "github.com/kailas-cloud/bylawbot/internal/usecase/health"
	searchuc "github.com/kailas-cloud/bylawbot/internal/usecase/search"
	"github.com/kailas-cloud/bylawbot/internal/version"
)

func serveAction(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	logger := a.logger
	logger.Info("Starting bylawbot API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	metrics.RegisterSearchMetrics()

	repo := a.chunkRepo()
	if err := repo.EnsureIndex(ctx); err != nil {
		// Search reports the outage per request; ingestion can still create the index.
		logger.Warn("Bylaw index not ready", zap.String("index", repo.IndexName()), zap.Error(err))
	}

	results, err := cache.New[[]result.Item](
		cfg.Search.CacheCapacity,
		cfg.Search.CacheTTL(),
		cache.WithObserver(metrics.CacheObserver{}),
		cache.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create result cache: %w", err)
	}
	results.StartSweeper(ctx, cfg.Search.SweepInterval())

	searchSvc := searchuc.New(repo, a.embedder(cfg.Embedding.QueryInstruction), results, logger)
	annotator := citation.New(
		citation.WithRecorder(metrics.CitationRecorder{}),
		citation.WithLogger(logger),
	)
	healthSvc := healthuc.New(a.store, logger,
		healthuc.WithIndex(a.store, repo.IndexName()),
		healthuc.WithEmbedding(a.base),
	)

	server := chiTransport.NewServer(searchSvc, annotator, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(chiTransport.RouterConfig{APIKeys: cfg.Auth.APIKeys}),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
