package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	"github.com/kailas-cloud/bylawbot/internal/metrics"
)

// Batcher defaults.
const (
	DefaultBatchSize  = 64
	DefaultBatchDelay = 200 * time.Millisecond
)

// embedder is the consumer interface for batch embedding (ISP).
type embedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// Batcher splits large inputs into fixed-size provider calls with a pause
// between calls to stay under provider rate limits.
type Batcher struct {
	inner     embedder
	batchSize int
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *zap.Logger
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithSleep replaces the inter-batch wait (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) BatcherOption {
	return func(b *Batcher) { b.sleep = fn }
}

// NewBatcher creates a Batcher. Non-positive size or negative delay use defaults.
func NewBatcher(inner embedder, batchSize int, delay time.Duration, logger *zap.Logger, opts ...BatcherOption) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if delay < 0 {
		delay = DefaultBatchDelay
	}
	b := &Batcher{
		inner:     inner,
		batchSize: batchSize,
		delay:     delay,
		sleep:     sleepCtx,
		logger:    logger,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// EmbedBatch returns one vector per text, in input order. A failed batch
// call is retried item by item; a failed item fails the whole call.
func (b *Batcher) EmbedBatch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += b.batchSize {
		if offset > 0 && b.delay > 0 {
			if err := b.sleep(ctx, b.delay); err != nil {
				return domain.BatchEmbeddingResult{}, fmt.Errorf("batch delay: %w", err)
			}
		}

		end := min(offset+b.batchSize, len(texts))
		chunk := texts[offset:end]

		res, err := b.inner.BatchEmbed(ctx, chunk)
		if err == nil && len(res.Embeddings) != len(chunk) {
			err = fmt.Errorf("got %d vectors for %d texts", len(res.Embeddings), len(chunk))
		}
		if err != nil {
			b.logger.Warn("Batch embedding failed, falling back to single requests",
				zap.Int("offset", offset),
				zap.Int("size", len(chunk)),
				zap.Error(err),
			)
			metrics.EmbeddingBatchFallbackTotal.Inc()

			res, err = domain.EmbedEach(ctx, b.inner, chunk)
			if err != nil {
				return domain.BatchEmbeddingResult{}, fmt.Errorf("batch at offset %d: %w", offset, err)
			}
		}

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
