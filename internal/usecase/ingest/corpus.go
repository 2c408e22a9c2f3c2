package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/bylawbot/internal/domain/bylaw"
)

// Section is one section of a bylaw as extracted from its source document.
type Section struct {
	// ID is optional; a stable one is derived when empty.
	ID      string `yaml:"id"`
	Section string `yaml:"section"`
	Text    string `yaml:"text"`
}

// Document is one bylaw in the corpus file. Repealed bylaws have their
// chunks removed from the index instead of written; their sections must
// still be listed so the chunk ids can be derived.
type Document struct {
	BylawNumber string    `yaml:"bylaw_number"`
	Title       string    `yaml:"title"`
	Category    string    `yaml:"category"`
	URL         string    `yaml:"url"`
	DateEnacted string    `yaml:"date_enacted"`
	LastUpdated string    `yaml:"last_updated"`
	Repealed    bool      `yaml:"repealed"`
	Sections    []Section `yaml:"sections"`
}

type corpusFile struct {
	Bylaws []Document `yaml:"bylaws"`
}

// LoadCorpus decodes a YAML corpus. Unknown keys are rejected. A missing
// title is filled from the bylaw table.
func LoadCorpus(r io.Reader) ([]Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f corpusFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	for i := range f.Bylaws {
		d := &f.Bylaws[i]
		if d.BylawNumber == "" {
			return nil, fmt.Errorf("bylaw %d: bylaw_number is required", i)
		}
		if d.Title == "" {
			d.Title = bylaw.Title(d.BylawNumber)
		}
	}
	return f.Bylaws, nil
}

// LoadCorpusFile reads a YAML corpus from path.
func LoadCorpusFile(path string) ([]Document, error) {
	f, err := os.Open(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	docs, err := LoadCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}
