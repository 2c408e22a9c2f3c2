// Package citation finds bylaw references in free text and splits the text
// into plain runs and verified citation markers.
package citation

import (
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bylawbot/internal/domain/bylaw"
)

// DefaultSection is reported when a reference names no section.
const DefaultSection = "1"

// Recorder observes every resolved reference, verified or not.
type Recorder interface {
	Citation(number string, verified bool)
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithRecorder sets the reference recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Annotator) { a.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Annotator) { a.logger = l }
}

// Annotator turns text into citation segments. It is safe for concurrent use.
type Annotator struct {
	scan     scanner
	recorder Recorder
	logger   *zap.Logger
}

// New creates an Annotator over the bylaw table.
func New(opts ...Option) *Annotator {
	a := &Annotator{
		scan:   scanner{topics: bylaw.Topics()},
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Matches yields raw grammar matches, resolved or not.
func (a *Annotator) Matches(text string) iter.Seq[Match] {
	return a.scan.matches(text)
}

// Annotate yields segments covering text exactly once, in order. Adjacent
// text runs are merged; a reference that does not resolve to a verified
// bylaw stays in the surrounding text.
func (a *Annotator) Annotate(text string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		if text == "" {
			yield(Segment{Kind: KindText, Text: ""})
			return
		}
		last := 0
		for m := range a.scan.matches(text) {
			c, ok := a.resolve(text, m)
			if !ok {
				continue
			}
			if m.Start > last {
				if !yield(Segment{Kind: KindText, Text: text[last:m.Start]}) {
					return
				}
			}
			if !yield(Segment{Kind: KindCitation, Citation: c}) {
				return
			}
			last = m.End
		}
		if last < len(text) {
			yield(Segment{Kind: KindText, Text: text[last:]})
		}
	}
}

// Segments collects Annotate into a slice.
func (a *Annotator) Segments(text string) []Segment {
	var out []Segment
	for s := range a.Annotate(text) {
		out = append(out, s)
	}
	return out
}

// Render rebuilds text with every citation replaced by fn's output.
func (a *Annotator) Render(text string, fn func(Citation) string) string {
	var b strings.Builder
	b.Grow(len(text))
	for s := range a.Annotate(text) {
		if s.Kind == KindCitation {
			b.WriteString(fn(*s.Citation))
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// Count returns the number of verified citations in text.
func (a *Annotator) Count(text string) int {
	n := 0
	for s := range a.Annotate(text) {
		if s.Kind == KindCitation {
			n++
		}
	}
	return n
}

func (a *Annotator) resolve(text string, m Match) (*Citation, bool) {
	number := m.Number
	if number == "" {
		n, ok := bylaw.ResolveName(m.Topic)
		if !ok {
			return nil, false
		}
		number = n
	}

	verified := bylaw.IsVerified(number)
	if a.recorder != nil {
		a.recorder.Citation(number, verified)
	}
	if !verified {
		a.logger.Debug("Unverified bylaw reference",
			zap.String("number", number), zap.String("excerpt", text[m.Start:m.End]))
		return nil, false
	}

	section := m.Section
	if section == "" {
		section = DefaultSection
	}
	return &Citation{
		BylawNumber: number,
		Title:       title(m.Topic, number),
		Section:     section,
		Excerpt:     text[m.Start:m.End],
		Verified:    true,
	}, true
}

func title(topic, number string) string {
	if topic != "" {
		return topic + " Bylaw"
	}
	if t := bylaw.Title(number); t != "" {
		return t
	}
	return "Bylaw No. " + number
}
