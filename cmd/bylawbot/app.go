package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bylawbot/internal/config"
	dbRedis "github.com/kailas-cloud/bylawbot/internal/db/redis"
	"github.com/kailas-cloud/bylawbot/internal/domain"
	logpkg "github.com/kailas-cloud/bylawbot/internal/logger"
	"github.com/kailas-cloud/bylawbot/internal/metrics"
	chunkrepo "github.com/kailas-cloud/bylawbot/internal/repository/chunk"
	"github.com/kailas-cloud/bylawbot/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/bylawbot/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/bylawbot/internal/usecase/embedding"
)

// embedder is the full embedding chain: single and batch calls.
type embedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// app is the shared state of the serve and ingest commands.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  *dbRedis.Store
	base   *openaiEmb.Embedder
}

// loadApp reads the env file and config, builds the logger and connects to
// the database.
func loadApp(ctx context.Context, cmd *cli.Command) (*app, error) {
	if err := godotenv.Load(cmd.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	env := cmd.String("env")
	var (
		cfg config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	metrics.RegisterEmbeddingMetrics()

	a := &app{env: env, cfg: cfg, logger: logger, store: store}
	a.base = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	return a, nil
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func (a *app) chunkRepo() *chunkrepo.Repo {
	return chunkrepo.New(a.store, chunkrepo.Config{
		IndexName:   a.cfg.Index.Name,
		KeyPrefix:   a.cfg.Index.KeyPrefix,
		Dimensions:  a.cfg.Embedding.Dimensions,
		Flat:        a.cfg.Index.Algorithm == "flat",
		M:           a.cfg.Index.HNSWM,
		EFConstruct: a.cfg.Index.HNSWEFConstruct,
	})
}

// embedder assembles the decorator chain:
// OpenAI -> Cached -> Instrumented -> Instruction.
// The instruction is outermost so cache keys include it.
func (a *app) embedder(instruction string) embedder {
	ec := a.cfg.Embedding

	var inner domain.Embedder = a.base
	if ec.CacheTTLHours > 0 {
		inner = embcache.New(a.base, a.store, ec.Model, ec.CacheTTL(), metrics.EmbeddingCacheTotal, a.logger)
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(inner, ec.Provider, ec.Model, ec.Dimensions, a.logger)
	if instruction == "" {
		return instrumented
	}
	return domain.NewInstructionEmbedder(instrumented, instruction)
}
