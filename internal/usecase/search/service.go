package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/query"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/result"
	"github.com/kailas-cloud/bylawbot/internal/metrics"
)

// Optimized mode over-fetches candidates before re-ranking.
const (
	optimizedFetchFactor = 2
	optimizedMaxFetch    = 40
)

// sharedSearchTimeout bounds a collapsed miss once it no longer follows the
// request that started it.
const sharedSearchTimeout = 30 * time.Second

// Response is the outcome of a search. Shared responses were served by a
// concurrent identical search and spent no embedding tokens of their own.
type Response struct {
	Query     string
	Results   []result.Item
	FromCache bool
	Shared    bool
}

// flight is the value a collapsed miss hands to every waiting caller.
type flight struct {
	items  []result.Item
	cached bool
	tokens int
}

// Service is the single search entry point: cache, embed, query, format.
type Service struct {
	index  Index
	embed  Embedder
	cache  ResultCache
	group  singleflight.Group
	logger *zap.Logger
}

// New creates a search service.
func New(index Index, embed Embedder, cache ResultCache, logger *zap.Logger) *Service {
	return &Service{index: index, embed: embed, cache: cache, logger: logger}
}

// Search returns formatted results for q, from the cache when possible.
// Embedding and index failures are reported as domain.ErrSearchFailed.
//
// Identical concurrent misses run once, detached from any single request so
// one caller going away does not fail the others. Each caller still returns
// as soon as its own ctx is done.
func (s *Service) Search(ctx context.Context, q query.Query) (Response, error) {
	if q.Text() == "" {
		return Response{}, domain.NewValidationError("query", "is required")
	}

	start := time.Now()
	mode := modeLabel(q)
	key := q.CacheKey()

	if items, ok := s.cacheGet(key); ok {
		s.observe(mode, "hit", true, start, len(items))
		return Response{Query: q.Text(), Results: items, FromCache: true}, nil
	}

	leader := false
	ch := s.group.DoChan(key, func() (any, error) {
		leader = true
		// another caller may have filled the cache while we waited
		if items, ok := s.cacheGet(key); ok {
			return flight{items: items, cached: true}, nil
		}
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedSearchTimeout)
		defer cancel()
		items, tokens, err := s.execute(sctx, q)
		if err != nil {
			return nil, err
		}
		s.cacheSet(key, items)
		return flight{items: items, tokens: tokens}, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		metrics.SearchRequestsTotal.WithLabelValues(mode, "canceled").Inc()
		return Response{}, fmt.Errorf("%w: %w", domain.ErrSearchFailed, ctx.Err())
	case res = <-ch:
	}

	if res.Err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(mode, "error").Inc()
		s.logger.Warn("Search failed", zap.String("mode", mode), zap.Error(res.Err))
		return Response{}, res.Err
	}

	f, _ := res.Val.(flight)
	resp := Response{Query: q.Text(), Results: f.items}
	switch {
	case f.cached:
		resp.FromCache = true
		s.observe(mode, "hit", true, start, len(f.items))
	case !leader:
		resp.FromCache, resp.Shared = true, true
		s.observe(mode, "shared", true, start, len(f.items))
	default:
		domain.UsageFromContext(ctx).AddTokens(f.tokens)
		s.observe(mode, "miss", false, start, len(f.items))
	}
	return resp, nil
}

func (s *Service) execute(ctx context.Context, q query.Query) ([]result.Item, int, error) {
	emb, err := s.embed.Embed(ctx, q.Text())
	if err != nil {
		return nil, 0, fmt.Errorf("%w: vectorize query: %w", domain.ErrSearchFailed, err)
	}

	topK := q.Limit()
	if q.Optimized() {
		topK = min(q.Limit()*optimizedFetchFactor, optimizedMaxFetch)
	}

	matches, err := s.index.Query(ctx, emb.Embedding, topK, q.MinScore(), q.Filters())
	if err != nil {
		return nil, 0, fmt.Errorf("%w: query index: %w", domain.ErrSearchFailed, err)
	}

	if q.Optimized() {
		matches = rerank(q.Text(), matches)
	}
	if len(matches) > q.Limit() {
		matches = matches[:q.Limit()]
	}
	return result.FromMatches(matches), emb.TotalTokens, nil
}

// cacheGet treats a panicking cache as a miss.
func (s *Service) cacheGet(key string) (items []result.Item, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.cacheFault("get", r)
			items, ok = nil, false
		}
	}()
	return s.cache.Get(key)
}

// cacheSet skips the store when the cache panics.
func (s *Service) cacheSet(key string, items []result.Item) {
	defer func() {
		if r := recover(); r != nil {
			s.cacheFault("set", r)
		}
	}()
	s.cache.Set(key, items)
}

func (s *Service) cacheFault(op string, r any) {
	metrics.CacheFault()
	s.logger.Error("Result cache fault", zap.String("op", op), zap.Any("panic", r))
}

func (s *Service) observe(mode, outcome string, cached bool, start time.Time, n int) {
	metrics.SearchRequestsTotal.WithLabelValues(mode, outcome).Inc()
	metrics.SearchDuration.WithLabelValues(mode, fmt.Sprint(cached)).Observe(time.Since(start).Seconds())
	metrics.SearchResultsReturned.Observe(float64(n))
}

func modeLabel(q query.Query) string {
	if q.Optimized() {
		return "optimized"
	}
	return "standard"
}
