package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/filter"
)

func f64(v float64) *float64 { return &v }

func TestNew_Defaults(t *testing.T) {
	q, err := New(Params{Text: "  leaf blower hours  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text() != "leaf blower hours" {
		t.Errorf("Text() = %q", q.Text())
	}
	if q.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", q.Limit(), DefaultLimit)
	}
	if q.MinScore() != DefaultMinScore {
		t.Errorf("MinScore() = %f, want %f", q.MinScore(), DefaultMinScore)
	}
	if q.Optimized() {
		t.Error("Optimized() = true")
	}
}

func TestNew_ExplicitZeroMinScore(t *testing.T) {
	q, err := New(Params{Text: "zoning", MinScore: f64(0), Limit: 20, Optimized: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.MinScore() != 0 {
		t.Errorf("MinScore() = %f, want 0", q.MinScore())
	}
	if q.Limit() != 20 || !q.Optimized() {
		t.Errorf("unexpected query: limit=%d optimized=%v", q.Limit(), q.Optimized())
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		p     Params
		field string
	}{
		{"too short", Params{Text: "a"}, "query"},
		{"blank", Params{Text: "   "}, "query"},
		{"too long", Params{Text: strings.Repeat("x", MaxTextLength+1)}, "query"},
		{"limit too high", Params{Text: "trees", Limit: 21}, "limit"},
		{"negative limit", Params{Text: "trees", Limit: -1}, "limit"},
		{"min score above one", Params{Text: "trees", MinScore: f64(1.5)}, "minScore"},
		{"negative min score", Params{Text: "trees", MinScore: f64(-0.1)}, "minScore"},
		{"bad filter", Params{Text: "trees", Filters: filter.Filters{DateFrom: "yesterday"}}, "filters"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.p)
			if !errors.Is(err, domain.ErrValidationFailed) {
				t.Fatalf("expected ErrValidationFailed, got %v", err)
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Errorf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestNew_MaxLengthCountsRunes(t *testing.T) {
	if _, err := New(Params{Text: strings.Repeat("é", MaxTextLength)}); err != nil {
		t.Errorf("expected %d runes to be accepted, got %v", MaxTextLength, err)
	}
}

func TestCacheKey_CaseInsensitiveText(t *testing.T) {
	a, _ := New(Params{Text: "Tree Removal Permit"})
	b, _ := New(Params{Text: "tree removal permit"})
	if a.CacheKey() != b.CacheKey() {
		t.Error("expected identical keys for case-only differences")
	}
}

func TestCacheKey_OptionsMatter(t *testing.T) {
	base, _ := New(Params{Text: "tree removal"})
	variants := []Params{
		{Text: "tree removal", Limit: 6},
		{Text: "tree removal", MinScore: f64(0.6)},
		{Text: "tree removal", Optimized: true},
		{Text: "tree removal", Filters: filter.Filters{Category: "trees"}},
		{Text: "tree removals"},
	}
	for _, p := range variants {
		q, err := New(p)
		if err != nil {
			t.Fatalf("New(%+v): %v", p, err)
		}
		if q.CacheKey() == base.CacheKey() {
			t.Errorf("expected distinct key for %+v", p)
		}
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	p := Params{Text: "dogs on beaches", Filters: filter.Filters{Category: "animals", DateFrom: "2010-01-01"}}
	a, _ := New(p)
	b, _ := New(p)
	if a.CacheKey() != b.CacheKey() {
		t.Error("expected deterministic cache key")
	}
	if len(a.CacheKey()) != 64 {
		t.Errorf("expected hex sha256 key, got %q", a.CacheKey())
	}
}
