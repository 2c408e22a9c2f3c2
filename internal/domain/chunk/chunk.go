// Package chunk holds the indexed unit of bylaw text: one section, or a
// token-bounded slice of one, with the metadata stored beside its vector.
package chunk

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/kailas-cloud/bylawbot/internal/domain/search/result"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxTextSize is the maximum chunk text size in bytes.
const MaxTextSize = 32768

const dateLayout = "2006-01-02"

// Params are the raw fields of a chunk before validation.
type Params struct {
	ID          string
	BylawNumber string
	Title       string
	Section     string
	Text        string
	URL         string
	Category    string
	DateEnacted string
	LastUpdated string
}

// Chunk is an immutable bylaw text chunk.
type Chunk struct {
	p      Params
	vector []float32
}

// New validates and creates a Chunk.
// ID: ^[a-zA-Z0-9_-]+$, 1-128 chars. BylawNumber: digits. Text: non-empty, max 32KB.
// Dates, when present, are YYYY-MM-DD.
func New(p Params) (Chunk, error) {
	if p.ID == "" {
		return Chunk{}, fmt.Errorf("chunk ID is required")
	}
	if len(p.ID) > 128 {
		return Chunk{}, fmt.Errorf("chunk ID too long (max 128)")
	}
	if !idRegex.MatchString(p.ID) {
		return Chunk{}, fmt.Errorf("chunk ID must be alphanumeric with underscores and hyphens")
	}
	if _, err := strconv.ParseUint(p.BylawNumber, 10, 32); err != nil {
		return Chunk{}, fmt.Errorf("bylaw number must be numeric, got %q", p.BylawNumber)
	}
	if p.Text == "" {
		return Chunk{}, fmt.Errorf("text is required")
	}
	if len(p.Text) > MaxTextSize {
		return Chunk{}, fmt.Errorf("text too large (max %d bytes)", MaxTextSize)
	}
	for name, v := range map[string]string{"date_enacted": p.DateEnacted, "last_updated": p.LastUpdated} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			return Chunk{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", name, v)
		}
	}
	return Chunk{p: p}, nil
}

// ID returns the chunk identifier.
func (c *Chunk) ID() string { return c.p.ID }

// BylawNumber returns the bylaw the chunk belongs to.
func (c *Chunk) BylawNumber() string { return c.p.BylawNumber }

// Title returns the bylaw title.
func (c *Chunk) Title() string { return c.p.Title }

// Section returns the section identifier.
func (c *Chunk) Section() string { return c.p.Section }

// Text returns the chunk text.
func (c *Chunk) Text() string { return c.p.Text }

// URL returns the source document link.
func (c *Chunk) URL() string { return c.p.URL }

// Category returns the bylaw category.
func (c *Chunk) Category() string { return c.p.Category }

// DateEnacted returns the enactment date (YYYY-MM-DD) or "".
func (c *Chunk) DateEnacted() string { return c.p.DateEnacted }

// LastUpdated returns the consolidation date (YYYY-MM-DD) or "".
func (c *Chunk) LastUpdated() string { return c.p.LastUpdated }

// Vector returns the embedding vector.
func (c *Chunk) Vector() []float32 { return c.vector }

// WithVector returns a copy with the given vector set.
func (c *Chunk) WithVector(v []float32) Chunk {
	return Chunk{p: c.p, vector: v}
}

// WithText returns a copy carrying a different id and text, used when a
// section is split into several chunks.
func (c *Chunk) WithText(id, text string) Chunk {
	p := c.p
	p.ID = id
	p.Text = text
	return Chunk{p: p}
}

// Metadata returns the payload stored in the index next to the vector.
func (c *Chunk) Metadata() result.Metadata {
	return result.Metadata{
		BylawNumber: c.p.BylawNumber,
		Title:       c.p.Title,
		Section:     c.p.Section,
		Text:        c.p.Text,
		URL:         c.p.URL,
		Category:    c.p.Category,
		DateEnacted: c.p.DateEnacted,
		LastUpdated: c.p.LastUpdated,
	}
}
