// Package chunk stores embedded bylaw chunks as hashes and queries them
// through the FT vector index.
package chunk

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bylawbot/internal/db"
	"github.com/kailas-cloud/bylawbot/internal/domain"
	domchunk "github.com/kailas-cloud/bylawbot/internal/domain/chunk"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/filter"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/result"
)

// Hash field names.
const (
	fieldBylawNumber = "bylaw_number"
	fieldTitle       = "title"
	fieldSection     = "section"
	fieldText        = "text"
	fieldURL         = "url"
	fieldCategory    = "category"
	fieldDateEnacted = "date_enacted"
	fieldLastUpdated = "last_updated"
	fieldEnacted     = "enacted"
	fieldEmbedding   = "embedding"
)

var returnFields = []string{
	fieldBylawNumber, fieldTitle, fieldSection, fieldText, fieldURL,
	fieldCategory, fieldDateEnacted, fieldLastUpdated,
}

// store is the consumer interface for chunk storage and search (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Config names the index and sizes its vector field. Flat selects
// brute-force vector search instead of HNSW.
type Config struct {
	IndexName   string
	KeyPrefix   string
	Dimensions  int
	Flat        bool
	M           int
	EFConstruct int
}

// Repo implements the vector index client over a db store.
type Repo struct {
	store store
	cfg   Config
}

// New creates a chunk repository. Empty names fall back to bylawbot defaults.
func New(s store, cfg Config) *Repo {
	if cfg.IndexName == "" {
		cfg.IndexName = domain.KeyPrefix + "chunks:idx"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = domain.KeyPrefix + "chunk:"
	}
	return &Repo{store: s, cfg: cfg}
}

// IndexName returns the FT index the repository queries.
func (r *Repo) IndexName() string { return r.cfg.IndexName }

// EnsureIndex creates the FT index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.cfg.IndexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.cfg.IndexName, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.cfg)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.cfg.IndexName, err)
	}
	return nil
}

// RecreateIndex drops the FT index and creates it again with the current
// schema. Stored chunks are kept and re-indexed by the server.
func (r *Repo) RecreateIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.cfg.IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.cfg.IndexName, err)
	}
	return r.EnsureIndex(ctx)
}

// Upsert writes embedded chunks. Every chunk must carry a vector of the
// configured dimension.
func (r *Repo) Upsert(ctx context.Context, chunks []domchunk.Chunk) error {
	items := make([]db.HashSetItem, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if len(c.Vector()) != r.cfg.Dimensions {
			return fmt.Errorf("chunk %s: vector dimension %d, want %d", c.ID(), len(c.Vector()), r.cfg.Dimensions)
		}
		items = append(items, db.HashSetItem{Key: r.key(c.ID()), Fields: chunkToHash(c)})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d chunks: %w", len(items), err)
	}
	return nil
}

// Delete removes chunks by id.
func (r *Repo) Delete(ctx context.Context, ids ...string) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// Query returns up to topK matches ordered by descending similarity, dropping
// those scoring below minScore. Filters are applied as index pre-filters.
func (r *Repo) Query(
	ctx context.Context, vector []float32, topK int, minScore float64, f filter.Filters,
) ([]result.Match, error) {
	q := &db.KNNQuery{
		IndexName:    r.cfg.IndexName,
		VectorField:  fieldEmbedding,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	}
	q.Tags, q.Ranges = buildFilters(f)

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}

	return parseMatches(sr, r.cfg.KeyPrefix, minScore), nil
}

func (r *Repo) key(id string) string { return r.cfg.KeyPrefix + id }

func buildIndex(cfg Config) (*db.IndexDefinition, error) {
	b := db.NewIndex(cfg.IndexName).
		Prefix(cfg.KeyPrefix).
		Tag(fieldBylawNumber, fieldCategory).
		Numeric(fieldEnacted)
	if cfg.Flat {
		b = b.VectorFlat(fieldEmbedding, cfg.Dimensions, db.DistanceCosine)
	} else {
		b = b.VectorHNSW(fieldEmbedding, cfg.Dimensions, db.DistanceCosine, cfg.M, cfg.EFConstruct)
	}
	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", cfg.IndexName, err)
	}
	return def, nil
}

func buildFilters(f filter.Filters) ([]db.TagFilter, []db.RangeFilter) {
	f = f.Normalized()

	var tags []db.TagFilter
	if f.Category != "" {
		tags = append(tags, db.TagFilter{Field: fieldCategory, Value: f.Category})
	}
	if f.BylawNumber != "" {
		tags = append(tags, db.TagFilter{Field: fieldBylawNumber, Value: f.BylawNumber})
	}

	if !f.HasDateRange() {
		return tags, nil
	}
	rf := db.RangeFilter{Field: fieldEnacted}
	if k := filter.DateKey(f.DateFrom); k > 0 {
		v := float64(k)
		rf.Min = &v
	}
	if k := filter.DateKey(f.DateTo); k > 0 {
		v := float64(k)
		rf.Max = &v
	}
	return tags, []db.RangeFilter{rf}
}

func chunkToHash(c *domchunk.Chunk) map[string]string {
	m := map[string]string{
		fieldBylawNumber: c.BylawNumber(),
		fieldTitle:       c.Title(),
		fieldSection:     c.Section(),
		fieldText:        c.Text(),
		fieldURL:         c.URL(),
		fieldCategory:    strings.ToLower(c.Category()),
		fieldDateEnacted: c.DateEnacted(),
		fieldLastUpdated: c.LastUpdated(),
		fieldEmbedding:   vectorToBytes(c.Vector()),
	}
	if k := filter.DateKey(c.DateEnacted()); k > 0 {
		m[fieldEnacted] = strconv.Itoa(k)
	}
	return m
}

func parseMatches(sr *db.SearchResult, prefix string, minScore float64) []result.Match {
	if sr == nil || len(sr.Entries) == 0 {
		return []result.Match{}
	}

	matches := make([]result.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		if e.Score < minScore {
			continue
		}
		matches = append(matches, result.Match{
			ID:    strings.TrimPrefix(e.Key, prefix),
			Score: e.Score,
			Metadata: result.Metadata{
				BylawNumber: e.Fields[fieldBylawNumber],
				Title:       e.Fields[fieldTitle],
				Section:     e.Fields[fieldSection],
				Text:        e.Fields[fieldText],
				URL:         e.Fields[fieldURL],
				Category:    e.Fields[fieldCategory],
				DateEnacted: e.Fields[fieldDateEnacted],
				LastUpdated: e.Fields[fieldLastUpdated],
			},
		})
	}
	return matches
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
