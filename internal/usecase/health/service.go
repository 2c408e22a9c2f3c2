// Package health aggregates readiness of the database, the bylaw index and
// the embedding provider.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the database is up but the index or the embedding
	// provider is not; cached results are still served.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names.
const (
	Database  = "database"
	Index     = "index"
	Embedding = "embedding"
)

// DefaultTimeout bounds each component check.
const DefaultTimeout = 3 * time.Second

var errIndexMissing = errors.New("index does not exist")

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	index     IndexChecker
	indexName string
	embedding EmbeddingChecker
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithIndex adds a check that indexName exists.
func WithIndex(ic IndexChecker, indexName string) Option {
	return func(s *Service) {
		s.index = ic
		s.indexName = indexName
	}
}

// WithEmbedding adds an embedding provider check.
func WithEmbedding(ec EmbeddingChecker) Option {
	return func(s *Service) { s.embedding = ec }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Service. Index and embedding checks are opt-in.
func New(db DBPinger, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{db: db, timeout: DefaultTimeout, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs all configured checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var mu sync.Mutex

	run := func(name string, fn func(context.Context) error) func() error {
		return func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := fn(cctx); err != nil {
				res = CheckError
				s.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		}
	}

	var g errgroup.Group
	g.Go(run(Database, s.db.Ping))
	if s.index != nil {
		g.Go(run(Index, s.checkIndex))
	}
	if s.embedding != nil {
		g.Go(run(Embedding, s.embedding.HealthCheck))
	}
	_ = g.Wait()

	return Report{Status: aggregate(checks), Checks: checks}
}

func (s *Service) checkIndex(ctx context.Context) error {
	ok, err := s.index.IndexExists(ctx, s.indexName)
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", s.indexName, errIndexMissing)
	}
	return nil
}

func aggregate(checks map[string]CheckResult) Status {
	if checks[Database] == CheckError {
		return Unhealthy
	}
	for _, v := range checks {
		if v == CheckError {
			return Degraded
		}
	}
	return Healthy
}
