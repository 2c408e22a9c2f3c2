package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultMaxTokens bounds a chunk when the config leaves it unset.
const DefaultMaxTokens = 512

const encodingName = "cl100k_base"

// TokenCounter measures text in model tokens.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the cl100k_base encoding used by the
// OpenAI embedding models.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("get tiktoken encoding: %w", err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Splitter cuts section text into chunks of at most maxTokens tokens,
// preferring paragraph breaks, then sentence ends, then spaces.
type Splitter struct {
	counter   TokenCounter
	maxTokens int
}

// NewSplitter creates a Splitter. maxTokens <= 0 selects DefaultMaxTokens.
func NewSplitter(counter TokenCounter, maxTokens int) *Splitter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Splitter{counter: counter, maxTokens: maxTokens}
}

type level struct {
	split func(string) []string
	sep   string
}

var levels = []level{
	{paragraphs, "\n\n"},
	{sentences, " "},
	{strings.Fields, " "},
}

// Split returns the chunks of text in order. Blank text yields nothing.
// A single word longer than the limit becomes its own chunk.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if s.counter.Count(text) <= s.maxTokens {
		return []string{text}
	}
	return s.splitLevel(text, 0)
}

func (s *Splitter) splitLevel(text string, depth int) []string {
	if depth >= len(levels) {
		return []string{text}
	}
	lv := levels[depth]

	var out []string
	cur := ""
	flush := func() {
		if cur != "" {
			out = append(out, cur)
			cur = ""
		}
	}

	for _, part := range lv.split(text) {
		if s.counter.Count(part) > s.maxTokens {
			flush()
			out = append(out, s.splitLevel(part, depth+1)...)
			continue
		}
		if cur == "" {
			cur = part
			continue
		}
		if cand := cur + lv.sep + part; s.counter.Count(cand) <= s.maxTokens {
			cur = cand
			continue
		}
		flush()
		cur = part
	}
	flush()
	return out
}

var blankLine = regexp.MustCompile(`\n\s*\n`)

func paragraphs(text string) []string {
	var out []string
	for _, p := range blankLine.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentences cuts after '.', '!' or '?' followed by whitespace.
func sentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}
