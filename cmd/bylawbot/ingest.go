package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	dombatch "github.com/kailas-cloud/bylawbot/internal/domain/batch"
	"github.com/kailas-cloud/bylawbot/internal/metrics"
	embeddinguc "github.com/kailas-cloud/bylawbot/internal/usecase/embedding"
	ingestuc "github.com/kailas-cloud/bylawbot/internal/usecase/ingest"
)

func ingestAction(ctx context.Context, cmd *cli.Command) error {
	docs, err := ingestuc.LoadCorpusFile(cmd.String("corpus"))
	if err != nil {
		return err
	}

	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	metrics.RegisterIngestMetrics()

	counter, err := ingestuc.NewTiktokenCounter()
	if err != nil {
		return err
	}

	repo := a.chunkRepo()
	if cmd.Bool("recreate-index") {
		if err := repo.RecreateIndex(ctx); err != nil {
			return err
		}
		a.logger.Info("Index recreated", zap.String("index", repo.IndexName()))
	}

	ec := a.cfg.Embedding
	batcher := embeddinguc.NewBatcher(a.embedder(ec.DocumentInstruction), ec.BatchSize, ec.BatchDelay(), a.logger)
	svc := ingestuc.New(
		repo,
		batcher,
		ingestuc.NewSplitter(counter, a.cfg.Ingest.MaxChunkTokens),
		a.logger,
	)

	rep, err := svc.Ingest(ctx, docs)
	for _, r := range rep.Results {
		if r.Status() == dombatch.StatusError {
			a.logger.Warn("Chunk failed", zap.String("id", r.ID()), zap.Error(r.Err()))
		}
	}
	if err != nil {
		return err
	}

	a.logger.Info("Ingestion finished",
		zap.Int("bylaws", len(docs)),
		zap.Int("succeeded", rep.Summary.Succeeded),
		zap.Int("removed", rep.Summary.Removed),
		zap.Int("failed", rep.Summary.Failed),
		zap.Int("tokens", rep.Tokens),
	)
	fmt.Fprintf(cmd.Root().Writer, "ingested %d chunks, removed %d, %d failed, %d tokens\n",
		rep.Summary.Succeeded, rep.Summary.Removed, rep.Summary.Failed, rep.Tokens)

	if rep.Summary.Failed > 0 {
		return fmt.Errorf("%d chunks failed", rep.Summary.Failed)
	}
	return nil
}
