package citation

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

var qualifiers = []string{"Oak Bay's", "Oak Bay’s", "Oak Bay", "Municipal"}

var numberMarkers = []string{"Number", "No.", "No", "#"}

var sectionMarkers = []string{"Section", "Sec.", "§"}

// scanner is a left-to-right tokenizing matcher. It holds no state between
// calls, so one scanner serves concurrent callers.
type scanner struct {
	topics []string
}

// matches yields non-overlapping grammar matches in input order, taking the
// longest match at each word start.
func (sc *scanner) matches(text string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for i := 0; i < len(text); {
			if wordStart(text, i) {
				if m, ok := sc.matchAt(text, i); ok {
					if !yield(m) {
						return
					}
					i = m.End
					continue
				}
			}
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
		}
	}
}

func (sc *scanner) matchAt(s string, start int) (Match, bool) {
	m := Match{Start: start}
	pos := start

	if q, end, ok := qualifierAt(s, pos); ok {
		m.Qualifier = q
		pos = end
	}

	end, ok := sc.topicRef(s, pos, &m)
	if !ok {
		end, ok = numberedRef(s, pos, &m)
	}
	if !ok {
		return Match{}, false
	}

	if sec, secEnd, ok := sectionAt(s, end); ok {
		m.Section = sec
		end = secEnd
	}
	m.End = end
	return m, true
}

// topicRef matches: Topic [Bylaw] [(No. NNNN)]. A topic written in another
// case ("tree protection bylaw") counts only when followed by "Bylaw".
func (sc *scanner) topicRef(s string, pos int, m *Match) (int, bool) {
	for _, t := range sc.topics {
		exact := strings.HasPrefix(s[pos:], t)
		if !exact && (len(s)-pos < len(t) || !strings.EqualFold(s[pos:pos+len(t)], t)) {
			continue
		}
		if !wordEnd(s, pos+len(t)) {
			continue
		}
		end := pos + len(t)
		e, hasBylaw := bylawWordAt(s, skipSpace(s, end))
		hasBylaw = hasBylaw && skipSpace(s, end) > end
		if !exact && !hasBylaw {
			continue
		}
		m.Topic = t
		if hasBylaw {
			end = e
		}
		if num, e, ok := parenNumberAt(s, end); ok {
			m.Number = num
			end = e
		}
		return end, true
	}
	return 0, false
}

// numberedRef matches: Bylaw [No.|No|Number|#] NNNN.
func numberedRef(s string, pos int, m *Match) (int, bool) {
	end, ok := bylawWordAt(s, pos)
	if !ok {
		return 0, false
	}
	p := skipSpace(s, end)
	if mk, ok := prefixAny(s[p:], numberMarkers); ok {
		after := p + len(mk)
		if mk == "#" || mk == "No." || wordEnd(s, after) {
			p = skipSpace(s, after)
		}
	}
	if p == end {
		return 0, false
	}
	num, e, ok := digitsAt(s, p)
	if !ok {
		return 0, false
	}
	m.Number = num
	return e, true
}

// sectionAt matches: [,] Section|Sec.|§ IDENT.
func sectionAt(s string, pos int) (string, int, bool) {
	p := pos
	if p < len(s) && s[p] == ',' {
		p++
	}
	p = skipSpace(s, p)
	if p == pos {
		return "", 0, false
	}
	mk, ok := prefixAny(s[p:], sectionMarkers)
	if !ok {
		return "", 0, false
	}
	p += len(mk)
	if mk == "Section" && !wordEnd(s, p) {
		return "", 0, false
	}
	p = skipSpace(s, p)
	id := sectionIdent(s[p:])
	if id == "" {
		return "", 0, false
	}
	return id, p + len(id), true
}

// sectionIdent reads [A-Za-z0-9.()]* starting with an alphanumeric, then
// drops trailing dots and anything from an unbalanced ")" on.
func sectionIdent(s string) string {
	if s == "" || !isAlnum(s[0]) {
		return ""
	}
	n := 0
	depth := 0
	for n < len(s) {
		c := s[n]
		if c == '(' {
			depth++
		} else if c == ')' {
			if depth == 0 {
				break
			}
			depth--
		} else if !isAlnum(c) && c != '.' {
			break
		}
		n++
	}
	id := s[:n]
	for {
		trimmed := strings.TrimRight(id, ".")
		if open := strings.LastIndexByte(trimmed, '('); open >= 0 && !strings.Contains(trimmed[open:], ")") {
			trimmed = trimmed[:open]
		}
		if trimmed == id {
			return id
		}
		id = trimmed
	}
}

func qualifierAt(s string, pos int) (string, int, bool) {
	for _, q := range qualifiers {
		if !strings.HasPrefix(s[pos:], q) {
			continue
		}
		end := pos + len(q)
		next := skipSpace(s, end)
		if next == end {
			continue
		}
		return q, next, true
	}
	return "", 0, false
}

func bylawWordAt(s string, pos int) (int, bool) {
	if pos >= len(s) {
		return 0, false
	}
	if mk, ok := prefixAny(s[pos:], []string{"Bylaw", "bylaw"}); ok && wordEnd(s, pos+len(mk)) {
		return pos + len(mk), true
	}
	return 0, false
}

// parenNumberAt matches: " (No. NNNN)" or " (NNNN)".
func parenNumberAt(s string, pos int) (string, int, bool) {
	p := skipSpace(s, pos)
	if p >= len(s) || s[p] != '(' {
		return "", 0, false
	}
	p++
	if mk, ok := prefixAny(s[p:], numberMarkers); ok {
		p = skipSpace(s, p+len(mk))
	}
	num, e, ok := digitsAt(s, p)
	if !ok || e >= len(s) || s[e] != ')' {
		return "", 0, false
	}
	return num, e + 1, true
}

// digitsAt reads exactly four digits not followed by another word character.
func digitsAt(s string, pos int) (string, int, bool) {
	const width = 4
	if pos+width > len(s) {
		return "", 0, false
	}
	for i := pos; i < pos+width; i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", 0, false
		}
	}
	if !wordEnd(s, pos+width) {
		return "", 0, false
	}
	return s[pos : pos+width], pos + width, true
}

func prefixAny(s string, options []string) (string, bool) {
	for _, o := range options {
		if strings.HasPrefix(s, o) {
			return o, true
		}
	}
	return "", false
}

func skipSpace(s string, pos int) int {
	for pos < len(s) {
		r, size := utf8.DecodeRuneInString(s[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += size
	}
	return pos
}

func wordStart(s string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:pos])
	return !isWordRune(r)
}

func wordEnd(s string, pos int) bool {
	if pos >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[pos:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
