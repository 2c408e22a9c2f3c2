package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_BylawSchema(t *testing.T) {
	idx, err := NewIndex("bylawbot:chunks:idx").
		Prefix("bylawbot:chunk:").
		Tag("bylaw_number", "category").
		Numeric("enacted").
		VectorHNSW("embedding", 1536, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(idx.Fields) != 4 {
		t.Fatalf("fields count = %d, want 4", len(idx.Fields))
	}
	if idx.Fields[0].Type != IndexFieldTag || idx.Fields[2].Type != IndexFieldNumeric {
		t.Errorf("unexpected field types: %+v", idx.Fields)
	}
	v := idx.Fields[3]
	if v.VectorAlgo != VectorHNSW || v.VectorDim != 1536 || v.VectorM != 16 || v.VectorEFConstruct != 200 {
		t.Errorf("unexpected vector field: %+v", v)
	}

	s := idx.String()
	for _, want := range []string{"ON HASH", "PREFIX 1 bylawbot:chunk:", "bylaw_number TAG", "embedding VECTOR HNSW"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestIndexBuilder_BuildCopiesDefinition(t *testing.T) {
	b := NewIndex("idx").VectorFlat("v", 4, DistanceCosine)
	first, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.Name = "mutated"
	second, _ := b.Build()
	if second.Name != "idx" {
		t.Errorf("builder state leaked through returned definition: %q", second.Name)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
	}{
		{"empty name", NewIndex("").VectorFlat("v", 4, DistanceCosine)},
		{"bad name", NewIndex("has space").VectorFlat("v", 4, DistanceCosine)},
		{"no fields", NewIndex("idx")},
		{"no vector", NewIndex("idx").Tag("a")},
		{"two vectors", NewIndex("idx").VectorFlat("v", 4, DistanceCosine).VectorFlat("w", 4, DistanceCosine)},
		{"zero dim", NewIndex("idx").VectorFlat("v", 0, DistanceCosine)},
		{"duplicate", NewIndex("idx").Tag("a", "a").VectorFlat("v", 4, DistanceCosine)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.b.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"bylawbot:chunks:idx", true},
		{"a_b-c", true},
		{"", false},
		{"a b", false},
		{"a*b", false},
	}
	for _, tc := range tests {
		if got := IsValidIdentifier(tc.s); got != tc.want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", tc.s, got, tc.want)
		}
	}
}
