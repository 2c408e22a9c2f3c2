package search

import (
	"context"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/filter"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/result"
)

// Index queries the bylaw vector index.
type Index interface {
	Query(ctx context.Context, vector []float32, topK int, minScore float64, f filter.Filters) ([]result.Match, error)
}

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ResultCache stores formatted result lists by query cache key.
type ResultCache interface {
	Get(key string) ([]result.Item, bool)
	Set(key string, items []result.Item)
}
