package ingest

import (
	"context"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	domchunk "github.com/kailas-cloud/bylawbot/internal/domain/chunk"
)

// Index stores embedded chunks.
type Index interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, chunks []domchunk.Chunk) error
	Delete(ctx context.Context, ids ...string) error
}

// Embedder vectorizes chunk texts in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
