// Package ingest loads a bylaw corpus, splits sections into token-bounded
// chunks, embeds them and stores them in the vector index.
package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	dombatch "github.com/kailas-cloud/bylawbot/internal/domain/batch"
	domchunk "github.com/kailas-cloud/bylawbot/internal/domain/chunk"
	"github.com/kailas-cloud/bylawbot/internal/metrics"
)

// chunkNamespace derives stable chunk ids so re-ingesting a corpus
// overwrites instead of duplicating.
var chunkNamespace = uuid.MustParse("6f1c5e2a-4b7d-4c0e-9a51-2d3b8e7f9c10")

// Report is the outcome of one ingestion run.
type Report struct {
	Results []dombatch.Result
	Summary dombatch.Summary
	Tokens  int
}

// Service runs corpus ingestion.
type Service struct {
	index    Index
	embed    Embedder
	splitter *Splitter
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(index Index, embed Embedder, splitter *Splitter, logger *zap.Logger) *Service {
	return &Service{index: index, embed: embed, splitter: splitter, logger: logger}
}

// Ingest stores every document. Each bylaw is embedded and written as a unit:
// a failure marks that bylaw's chunks failed and moves on to the next one.
// Only an index setup failure or context cancellation aborts the run.
func (s *Service) Ingest(ctx context.Context, docs []Document) (Report, error) {
	var rep Report

	if err := s.index.EnsureIndex(ctx); err != nil {
		return rep, fmt.Errorf("ensure index: %w", err)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			rep.Summary = dombatch.Summarize(rep.Results)
			return rep, fmt.Errorf("ingest: %w", err)
		}

		chunks, invalid := s.buildChunks(doc)
		rep.Results = append(rep.Results, invalid...)
		if len(invalid) > 0 {
			metrics.IngestChunksTotal.WithLabelValues("error").Add(float64(len(invalid)))
		}
		if len(chunks) == 0 {
			continue
		}

		if doc.Repealed {
			rep.Results = append(rep.Results, s.remove(ctx, doc, chunks)...)
			continue
		}

		tokens, err := s.store(ctx, chunks)
		if err != nil {
			s.logger.Warn("Bylaw ingestion failed",
				zap.String("bylaw_number", doc.BylawNumber),
				zap.Int("chunks", len(chunks)),
				zap.Error(err),
			)
			for i := range chunks {
				rep.Results = append(rep.Results, dombatch.NewError(chunks[i].ID(), err))
			}
			metrics.IngestChunksTotal.WithLabelValues("error").Add(float64(len(chunks)))
			continue
		}

		rep.Tokens += tokens
		for i := range chunks {
			rep.Results = append(rep.Results, dombatch.NewOK(chunks[i].ID()))
		}
		metrics.IngestChunksTotal.WithLabelValues("ok").Add(float64(len(chunks)))
		s.logger.Info("Bylaw ingested",
			zap.String("bylaw_number", doc.BylawNumber),
			zap.Int("chunks", len(chunks)),
			zap.Int("tokens", tokens),
		)
	}

	rep.Summary = dombatch.Summarize(rep.Results)
	return rep, nil
}

// remove deletes a repealed bylaw's chunks. Deleting ids that were never
// stored is not an error.
func (s *Service) remove(ctx context.Context, doc Document, chunks []domchunk.Chunk) []dombatch.Result {
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID()
	}

	results := make([]dombatch.Result, len(ids))
	if err := s.index.Delete(ctx, ids...); err != nil {
		s.logger.Warn("Repealed bylaw removal failed",
			zap.String("bylaw_number", doc.BylawNumber),
			zap.Error(err),
		)
		for i, id := range ids {
			results[i] = dombatch.NewError(id, fmt.Errorf("delete: %w", err))
		}
		metrics.IngestChunksTotal.WithLabelValues("error").Add(float64(len(ids)))
		return results
	}

	for i, id := range ids {
		results[i] = dombatch.NewRemoved(id)
	}
	metrics.IngestChunksTotal.WithLabelValues("removed").Add(float64(len(ids)))
	s.logger.Info("Repealed bylaw removed",
		zap.String("bylaw_number", doc.BylawNumber),
		zap.Int("chunks", len(ids)),
	)
	return results
}

func (s *Service) store(ctx context.Context, chunks []domchunk.Chunk) (int, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = embedText(&chunks[i])
	}

	res, err := s.embed.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(res.Embeddings) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(chunks))
	}

	embedded := make([]domchunk.Chunk, len(chunks))
	for i := range chunks {
		embedded[i] = chunks[i].WithVector(res.Embeddings[i])
	}
	if err := s.index.Upsert(ctx, embedded); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return res.TotalTokens, nil
}

// buildChunks splits every section and validates the pieces. Invalid pieces
// come back as failed results.
func (s *Service) buildChunks(doc Document) ([]domchunk.Chunk, []dombatch.Result) {
	var (
		chunks  []domchunk.Chunk
		invalid []dombatch.Result
	)
	for si, sec := range doc.Sections {
		base := sec.ID
		if base == "" {
			base = uuid.NewSHA1(chunkNamespace,
				[]byte(doc.BylawNumber+"/"+sec.Section+"/"+strconv.Itoa(si))).String()
		}

		parts := s.splitter.Split(sec.Text)
		if len(parts) == 0 {
			invalid = append(invalid, dombatch.NewError(base,
				fmt.Errorf("%w: section %q has no text", domain.ErrValidationFailed, sec.Section)))
			continue
		}

		for pi, text := range parts {
			id := base
			if len(parts) > 1 {
				id = base + "-" + strconv.Itoa(pi+1)
			}
			c, err := domchunk.New(domchunk.Params{
				ID:          id,
				BylawNumber: doc.BylawNumber,
				Title:       doc.Title,
				Section:     sec.Section,
				Text:        text,
				URL:         doc.URL,
				Category:    doc.Category,
				DateEnacted: doc.DateEnacted,
				LastUpdated: doc.LastUpdated,
			})
			if err != nil {
				invalid = append(invalid, dombatch.NewError(id, fmt.Errorf("%w: %w", domain.ErrValidationFailed, err)))
				continue
			}
			chunks = append(chunks, c)
		}
	}
	return chunks, invalid
}

// embedText is the passage sent to the embedding model: the heading gives
// short sections enough context to match topic queries.
func embedText(c *domchunk.Chunk) string {
	head := c.Title()
	if c.Section() != "" {
		head += ", Section " + c.Section()
	}
	return head + "\n" + c.Text()
}
