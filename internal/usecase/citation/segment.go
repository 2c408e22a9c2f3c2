package citation

import "fmt"

// Kind tells a plain text run from a citation marker.
type Kind string

// Segment kinds.
const (
	KindText     Kind = "text"
	KindCitation Kind = "citation"
)

// Citation is a verified bylaw reference found in text.
type Citation struct {
	BylawNumber string `json:"bylawNumber"`
	Title       string `json:"title"`
	Section     string `json:"section"`
	// Excerpt is the matched substring, verbatim.
	Excerpt  string `json:"excerpt"`
	Verified bool   `json:"verified"`
}

// Label is the inline marker form used by text renderings:
// "[Dog Control Bylaw (No. 4013), Section 5(7)(a)]".
func (c Citation) Label() string {
	return fmt.Sprintf("[%s (No. %s), Section %s]", c.Title, c.BylawNumber, c.Section)
}

// Segment is one piece of annotated text. Exactly one of Text or Citation
// is meaningful, selected by Kind.
type Segment struct {
	Kind     Kind      `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Citation *Citation `json:"citation,omitempty"`
}

// Match is a grammar match over the input, before resolution and gating.
// Start and End are byte offsets; text[Start:End] is the excerpt.
type Match struct {
	Start     int
	End       int
	Qualifier string
	// Topic is the bylaw topic phrase, "" for numbered references.
	Topic string
	// Number is the literal four-digit number, "" when none was written.
	Number string
	// Section is the section identifier, "" when none was written.
	Section string
}
