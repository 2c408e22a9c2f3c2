// Package query defines the validated, immutable bylaw search query.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/filter"
)

// Query limits and defaults.
const (
	MinTextLength   = 2
	MaxTextLength   = 500
	DefaultLimit    = 5
	MaxLimit        = 20
	DefaultMinScore = 0.5
)

// Params is the raw, unvalidated input of a search.
type Params struct {
	Text    string
	Filters filter.Filters
	// Limit of 0 selects DefaultLimit.
	Limit int
	// MinScore of nil selects DefaultMinScore.
	MinScore  *float64
	Optimized bool
}

// Query is a validated search query. Together with the optimized flag it
// fully determines the cache key.
type Query struct {
	text      string
	filters   filter.Filters
	limit     int
	minScore  float64
	optimized bool
}

// New validates p and applies defaults. Every failure wraps
// domain.ErrValidationFailed.
func New(p Params) (Query, error) {
	text := strings.TrimSpace(p.Text)
	n := utf8.RuneCountInString(text)
	if n < MinTextLength {
		return Query{}, domain.NewValidationError("query",
			fmt.Sprintf("must be at least %d characters", MinTextLength))
	}
	if n > MaxTextLength {
		return Query{}, domain.NewValidationError("query",
			fmt.Sprintf("must be at most %d characters", MaxTextLength))
	}

	limit := p.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Query{}, domain.NewValidationError("limit",
			fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}

	minScore := DefaultMinScore
	if p.MinScore != nil {
		minScore = *p.MinScore
	}
	if minScore < 0 || minScore > 1 {
		return Query{}, domain.NewValidationError("minScore", "must be between 0 and 1")
	}

	filters := p.Filters.Normalized()
	if err := filters.Validate(); err != nil {
		return Query{}, domain.NewValidationError("filters", err.Error())
	}

	return Query{
		text:      text,
		filters:   filters,
		limit:     limit,
		minScore:  minScore,
		optimized: p.Optimized,
	}, nil
}

// Text returns the trimmed query text.
func (q Query) Text() string { return q.text }

// Filters returns the structured pre-filters.
func (q Query) Filters() filter.Filters { return q.filters }

// Limit returns the maximum number of results.
func (q Query) Limit() int { return q.limit }

// MinScore returns the similarity floor.
func (q Query) MinScore() float64 { return q.minScore }

// Optimized reports whether hybrid re-ranking is requested.
func (q Query) Optimized() bool { return q.optimized }

// keyOptions is serialized into the cache key. encoding/json emits struct
// fields in declaration order, which keeps the serialization stable.
type keyOptions struct {
	Limit     int            `json:"limit"`
	MinScore  float64        `json:"minScore"`
	Filters   filter.Filters `json:"filters"`
	Optimized bool           `json:"optimized"`
}

// CacheKey returns a deterministic fingerprint of the lowercased text and the
// options. The caller's identity is deliberately not part of it so cached
// results are shared between users.
func (q Query) CacheKey() string {
	opts, err := json.Marshal(keyOptions{
		Limit:     q.limit,
		MinScore:  q.minScore,
		Filters:   q.filters,
		Optimized: q.optimized,
	})
	if err != nil {
		// keyOptions holds only plain values; Marshal cannot fail.
		panic(fmt.Sprintf("marshal cache key options: %v", err))
	}
	h := sha256.New()
	h.Write([]byte(strings.ToLower(q.text)))
	h.Write([]byte{0})
	h.Write(opts)
	return hex.EncodeToString(h.Sum(nil))
}
