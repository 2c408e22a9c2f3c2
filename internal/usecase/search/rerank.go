package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/bylawbot/internal/domain/search/result"
)

// keywordBoost is the maximum score added when every query term appears in
// a match's title or text.
const keywordBoost = 0.15

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "can": true, "what": true,
	"how": true, "when": true, "where": true, "which": true, "with": true, "from": true,
	"about": true, "does": true, "there": true, "any": true, "you": true, "your": true,
	"have": true, "this": true, "that": true, "bylaw": true, "bylaws": true,
}

// rerank orders matches by vector score plus a keyword-overlap boost. The
// reported score is the blended value, capped at 1. Ties keep index order.
func rerank(text string, matches []result.Match) []result.Match {
	terms := queryTerms(text)
	if len(terms) == 0 || len(matches) == 0 {
		return matches
	}

	out := make([]result.Match, len(matches))
	copy(out, matches)
	for i := range out {
		haystack := strings.ToLower(out[i].Metadata.Title + " " + out[i].Metadata.Text)
		hits := 0
		for _, t := range terms {
			if strings.Contains(haystack, t) {
				hits++
			}
		}
		out[i].Score = min(1, out[i].Score+keywordBoost*float64(hits)/float64(len(terms)))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// queryTerms returns distinct lowercased words of three or more letters,
// minus stopwords.
func queryTerms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}
