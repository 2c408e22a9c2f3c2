// Package result holds raw vector index matches and the formatted search
// items built from them.
package result

import "strings"

// Placeholders for metadata missing from an index match.
const (
	Unknown      = "Unknown"
	UntitledName = "Untitled Bylaw"
)

// Metadata is the payload stored next to each bylaw chunk in the index.
type Metadata struct {
	BylawNumber string
	Title       string
	Section     string
	Text        string
	URL         string
	Category    string
	DateEnacted string
	LastUpdated string
}

// Match is a single scored hit returned by the vector index.
type Match struct {
	ID       string
	Score    float64
	Metadata Metadata
}

// ItemMetadata is the descriptive part of a search item.
type ItemMetadata struct {
	Category    string `json:"category"`
	DateEnacted string `json:"dateEnacted"`
	LastUpdated string `json:"lastUpdated"`
}

// Item is a formatted search result. Items are shared with the result cache
// and must not be modified after creation.
type Item struct {
	ID          string       `json:"id"`
	BylawNumber string       `json:"bylawNumber"`
	Title       string       `json:"title"`
	Section     string       `json:"section"`
	Content     string       `json:"content"`
	URL         string       `json:"url"`
	Score       float64      `json:"score"`
	Metadata    ItemMetadata `json:"metadata"`
}

// FromMatch formats a match, substituting placeholders for missing fields
// instead of failing.
func FromMatch(m Match) Item {
	md := m.Metadata
	return Item{
		ID:          m.ID,
		BylawNumber: orDefault(md.BylawNumber, Unknown),
		Title:       orDefault(md.Title, UntitledName),
		Section:     orDefault(md.Section, Unknown),
		Content:     md.Text,
		URL:         md.URL,
		Score:       m.Score,
		Metadata: ItemMetadata{
			Category:    orDefault(md.Category, Unknown),
			DateEnacted: orDefault(md.DateEnacted, Unknown),
			LastUpdated: orDefault(md.LastUpdated, Unknown),
		},
	}
}

// FromMatches formats all matches, preserving order. Zero matches yield an
// empty, non-nil slice.
func FromMatches(ms []Match) []Item {
	items := make([]Item, len(ms))
	for i := range ms {
		items[i] = FromMatch(ms[i])
	}
	return items
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
