package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockIndexChecker struct {
	exists bool
	err    error
	name   string
}

func (m *mockIndexChecker) IndexExists(_ context.Context, name string) (bool, error) {
	m.name = name
	return m.exists, m.err
}

type mockEmbeddingChecker struct {
	err   error
	block bool
}

func (m *mockEmbeddingChecker) HealthCheck(ctx context.Context) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

func newTestService(db DBPinger, opts ...Option) *Service {
	return New(db, zap.NewNop(), opts...)
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	idx := &mockIndexChecker{exists: true}
	svc := newTestService(&mockDBPinger{},
		WithIndex(idx, "bylawbot:chunks:idx"),
		WithEmbedding(&mockEmbeddingChecker{}),
	)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("Status = %q, want %q", r.Status, Healthy)
	}
	for _, name := range []string{Database, Index, Embedding} {
		if r.Checks[name] != CheckOK {
			t.Errorf("Checks[%s] = %q, want %q", name, r.Checks[name], CheckOK)
		}
	}
	if idx.name != "bylawbot:chunks:idx" {
		t.Errorf("index name = %q", idx.name)
	}
}

func TestCheck_DBErrorIsUnhealthy(t *testing.T) {
	svc := newTestService(&mockDBPinger{err: errors.New("conn refused")},
		WithEmbedding(&mockEmbeddingChecker{}))
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("Status = %q, want %q", r.Status, Unhealthy)
	}
	if r.Checks[Database] != CheckError {
		t.Errorf("Checks[database] = %q, want %q", r.Checks[Database], CheckError)
	}
	if r.Checks[Embedding] != CheckOK {
		t.Errorf("Checks[embedding] = %q, want %q", r.Checks[Embedding], CheckOK)
	}
}

func TestCheck_Degraded(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		failed string
	}{
		{"embedding error", []Option{WithEmbedding(&mockEmbeddingChecker{err: errors.New("timeout")})}, Embedding},
		{"index missing", []Option{WithIndex(&mockIndexChecker{}, "idx")}, Index},
		{"index error", []Option{WithIndex(&mockIndexChecker{err: errors.New("boom")}, "idx")}, Index},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestService(&mockDBPinger{}, tt.opts...).Check(context.Background())
			if r.Status != Degraded {
				t.Errorf("Status = %q, want %q", r.Status, Degraded)
			}
			if r.Checks[tt.failed] != CheckError {
				t.Errorf("Checks[%s] = %q, want %q", tt.failed, r.Checks[tt.failed], CheckError)
			}
		})
	}
}

func TestCheck_OnlyDatabaseByDefault(t *testing.T) {
	r := newTestService(&mockDBPinger{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("Status = %q, want %q", r.Status, Healthy)
	}
	if len(r.Checks) != 1 {
		t.Errorf("Checks = %v, want database only", r.Checks)
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := newTestService(&mockDBPinger{},
		WithEmbedding(&mockEmbeddingChecker{block: true}),
		WithTimeout(10*time.Millisecond),
	)

	start := time.Now()
	r := svc.Check(context.Background())

	if time.Since(start) > time.Second {
		t.Errorf("Check took %v, want bounded by timeout", time.Since(start))
	}
	if r.Checks[Embedding] != CheckError {
		t.Errorf("Checks[embedding] = %q, want %q", r.Checks[Embedding], CheckError)
	}
}
