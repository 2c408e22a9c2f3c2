package ingest

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	domchunk "github.com/kailas-cloud/bylawbot/internal/domain/chunk"
)

// wordCounter counts whitespace-separated words, one token each.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

type mockIndex struct {
	ensureErr error
	upsertErr error
	deleteErr error
	ensured   int
	upserted  [][]domchunk.Chunk
	deleted   []string
}

func (m *mockIndex) EnsureIndex(_ context.Context) error {
	m.ensured++
	return m.ensureErr
}

func (m *mockIndex) Upsert(_ context.Context, chunks []domchunk.Chunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, chunks)
	return nil
}

func (m *mockIndex) Delete(_ context.Context, ids ...string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, ids...)
	return nil
}

type mockEmbedder struct {
	embedFn func(texts []string) (domain.BatchEmbeddingResult, error)
	calls   [][]string
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls = append(m.calls, texts)
	if m.embedFn != nil {
		return m.embedFn(texts)
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i := range texts {
		out.Embeddings[i] = []float32{float32(i), 1}
	}
	out.TotalTokens = len(texts)
	return out, nil
}

func newTestService(idx *mockIndex, emb *mockEmbedder, maxTokens int) *Service {
	return New(idx, emb, NewSplitter(wordCounter{}, maxTokens), zap.NewNop())
}
