package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	dombatch "github.com/kailas-cloud/bylawbot/internal/domain/batch"
)

func testDocs() []Document {
	return []Document{
		{
			BylawNumber: "4742",
			Title:       "Tree Protection Bylaw",
			Category:    "trees",
			Sections: []Section{
				{Section: "3", Text: "A permit is required to remove a protected tree."},
			},
		},
		{
			BylawNumber: "3890",
			Title:       "Anti-Noise Bylaw",
			Sections: []Section{
				{ID: "noise-2", Section: "2", Text: "No person shall make unreasonable noise."},
			},
		},
	}
}

func TestIngest_Success(t *testing.T) {
	idx := &mockIndex{}
	emb := &mockEmbedder{}
	svc := newTestService(idx, emb, 100)

	rep, err := svc.Ingest(context.Background(), testDocs())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if idx.ensured != 1 {
		t.Errorf("ensured = %d, want 1", idx.ensured)
	}
	if rep.Summary != (dombatch.Summary{Succeeded: 2}) {
		t.Errorf("Summary = %+v, want 2 ok", rep.Summary)
	}
	if rep.Tokens != 2 {
		t.Errorf("Tokens = %d, want 2", rep.Tokens)
	}
	if len(emb.calls) != 2 {
		t.Errorf("embed calls = %d, want one per bylaw", len(emb.calls))
	}
	if len(idx.upserted) != 2 {
		t.Fatalf("upserts = %d, want 2", len(idx.upserted))
	}
	if got := idx.upserted[0][0].Vector(); len(got) != 2 {
		t.Errorf("vector = %v, want set", got)
	}
	if got := idx.upserted[1][0].ID(); got != "noise-2" {
		t.Errorf("ID = %q, want noise-2", got)
	}
}

func TestIngest_StableIDs(t *testing.T) {
	idx := &mockIndex{}
	svc := newTestService(idx, &mockEmbedder{}, 100)

	first, _ := svc.Ingest(context.Background(), testDocs())
	second, _ := svc.Ingest(context.Background(), testDocs())

	for i := range first.Results {
		if first.Results[i].ID() != second.Results[i].ID() {
			t.Errorf("ID[%d] = %q then %q, want stable", i, first.Results[i].ID(), second.Results[i].ID())
		}
	}
}

func TestIngest_EmbedText(t *testing.T) {
	emb := &mockEmbedder{}
	svc := newTestService(&mockIndex{}, emb, 100)

	if _, err := svc.Ingest(context.Background(), testDocs()[:1]); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	want := "Tree Protection Bylaw, Section 3\nA permit is required to remove a protected tree."
	if got := emb.calls[0][0]; got != want {
		t.Errorf("embed text = %q, want %q", got, want)
	}
}

func TestIngest_SplitSection(t *testing.T) {
	idx := &mockIndex{}
	svc := newTestService(idx, &mockEmbedder{}, 4)
	docs := []Document{{
		BylawNumber: "4013",
		Sections: []Section{
			{ID: "dogs", Section: "5", Text: "Dogs must be leashed. Owners must clean up."},
		},
	}}

	rep, err := svc.Ingest(context.Background(), docs)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(rep.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(rep.Results))
	}
	if rep.Results[0].ID() != "dogs-1" || rep.Results[1].ID() != "dogs-2" {
		t.Errorf("IDs = %q, %q, want dogs-1, dogs-2", rep.Results[0].ID(), rep.Results[1].ID())
	}
	if got := idx.upserted[0][1].Section(); got != "5" {
		t.Errorf("Section = %q, want 5", got)
	}
}

func TestIngest_EmbedFailureIsolated(t *testing.T) {
	idx := &mockIndex{}
	emb := &mockEmbedder{}
	emb.embedFn = func(texts []string) (domain.BatchEmbeddingResult, error) {
		if strings.Contains(texts[0], "Tree") {
			return domain.BatchEmbeddingResult{}, domain.ErrEmbeddingProviderError
		}
		return domain.BatchEmbeddingResult{Embeddings: [][]float32{{1, 0}}, TotalTokens: 7}, nil
	}
	svc := newTestService(idx, emb, 100)

	rep, err := svc.Ingest(context.Background(), testDocs())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rep.Summary != (dombatch.Summary{Succeeded: 1, Failed: 1}) {
		t.Errorf("Summary = %+v, want 1 ok 1 failed", rep.Summary)
	}
	if !errors.Is(rep.Results[0].Err(), domain.ErrEmbeddingProviderError) {
		t.Errorf("Err = %v, want ErrEmbeddingProviderError", rep.Results[0].Err())
	}
	if rep.Results[1].Status() != dombatch.StatusOK {
		t.Errorf("Status = %v, want ok", rep.Results[1].Status())
	}
	if rep.Tokens != 7 {
		t.Errorf("Tokens = %d, want 7", rep.Tokens)
	}
}

func TestIngest_VectorCountMismatch(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(_ []string) (domain.BatchEmbeddingResult, error) {
		return domain.BatchEmbeddingResult{}, nil
	}}
	svc := newTestService(&mockIndex{}, emb, 100)

	rep, err := svc.Ingest(context.Background(), testDocs()[:1])
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !errors.Is(rep.Results[0].Err(), domain.ErrEmbeddingProviderError) {
		t.Errorf("Err = %v, want ErrEmbeddingProviderError", rep.Results[0].Err())
	}
}

func TestIngest_UpsertFailure(t *testing.T) {
	upsertErr := errors.New("connection reset")
	svc := newTestService(&mockIndex{upsertErr: upsertErr}, &mockEmbedder{}, 100)

	rep, err := svc.Ingest(context.Background(), testDocs())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rep.Summary.Failed != 2 {
		t.Errorf("Failed = %d, want 2", rep.Summary.Failed)
	}
	if !errors.Is(rep.Results[0].Err(), upsertErr) {
		t.Errorf("Err = %v, want wrapped upsert error", rep.Results[0].Err())
	}
}

func TestIngest_InvalidSections(t *testing.T) {
	idx := &mockIndex{}
	svc := newTestService(idx, &mockEmbedder{}, 100)
	docs := []Document{{
		BylawNumber: "3531",
		DateEnacted: "June 2020",
		Sections: []Section{
			{ID: "empty", Section: "1", Text: "   "},
			{ID: "bad-date", Section: "2", Text: "Setbacks apply."},
		},
	}}

	rep, err := svc.Ingest(context.Background(), docs)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rep.Summary != (dombatch.Summary{Failed: 2}) {
		t.Errorf("Summary = %+v, want 2 failed", rep.Summary)
	}
	for _, r := range rep.Results {
		if !errors.Is(r.Err(), domain.ErrValidationFailed) {
			t.Errorf("%s: Err = %v, want ErrValidationFailed", r.ID(), r.Err())
		}
	}
	if len(idx.upserted) != 0 {
		t.Errorf("upserts = %d, want 0", len(idx.upserted))
	}
}

func TestIngest_EnsureIndexFailure(t *testing.T) {
	idx := &mockIndex{ensureErr: domain.ErrIndexUnavailable}
	emb := &mockEmbedder{}
	svc := newTestService(idx, emb, 100)

	_, err := svc.Ingest(context.Background(), testDocs())
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("err = %v, want ErrIndexUnavailable", err)
	}
	if len(emb.calls) != 0 {
		t.Errorf("embed calls = %d, want 0", len(emb.calls))
	}
}

func TestIngest_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(&mockIndex{}, &mockEmbedder{}, 100)

	_, err := svc.Ingest(ctx, testDocs())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIngest_RepealedRemoved(t *testing.T) {
	idx := &mockIndex{}
	emb := &mockEmbedder{}
	svc := newTestService(idx, emb, 100)

	docs := []Document{{
		BylawNumber: "3402",
		Title:       "Old Parking Bylaw",
		Repealed:    true,
		Sections:    []Section{{ID: "parking-1", Section: "1", Text: "Repealed text."}},
	}}
	rep, err := svc.Ingest(context.Background(), docs)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(emb.calls) != 0 || len(idx.upserted) != 0 {
		t.Errorf("repealed bylaw was embedded or written")
	}
	if len(idx.deleted) != 1 || idx.deleted[0] != "parking-1" {
		t.Errorf("deleted = %v, want [parking-1]", idx.deleted)
	}
	if rep.Summary != (dombatch.Summary{Removed: 1}) {
		t.Errorf("Summary = %+v, want 1 removed", rep.Summary)
	}
}

func TestIngest_RepealedDeleteFailure(t *testing.T) {
	idx := &mockIndex{deleteErr: errors.New("connection reset")}
	svc := newTestService(idx, &mockEmbedder{}, 100)

	docs := []Document{{
		BylawNumber: "3402",
		Repealed:    true,
		Sections:    []Section{{ID: "parking-1", Section: "1", Text: "Repealed text."}},
	}}
	rep, err := svc.Ingest(context.Background(), docs)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rep.Summary.Failed != 1 || rep.Results[0].Status() != dombatch.StatusError {
		t.Errorf("Summary = %+v, want 1 failed", rep.Summary)
	}
}
