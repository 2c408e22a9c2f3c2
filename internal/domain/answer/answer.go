// Package answer holds hand-verified answers for high-risk bylaw topics and
// the keyword classifier that selects one.
package answer

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Topic identifies a canned answer.
type Topic string

// Canned answer topics, in classification priority order.
const (
	ConstructionNoise Topic = "construction_noise"
	LeafBlowers       Topic = "leaf_blowers"
	GeneralNoise      Topic = "general_noise"
	TreeRemoval       Topic = "tree_removal"
	DogControl        Topic = "dog_control"
	Zoning            Topic = "zoning"
	NoMatch           Topic = "no_match"
)

// Citation is an exact bylaw reference backing a canned answer.
type Citation struct {
	BylawNumber string `json:"bylawNumber"`
	Title       string `json:"title"`
	Section     string `json:"section"`
}

// Answer is a hand-verified response.
type Answer struct {
	Topic     Topic      `json:"topic"`
	Summary   string     `json:"summary"`
	Details   []string   `json:"details"`
	Citations []Citation `json:"citations"`
}

type rule struct {
	topic    Topic
	keywords []string
}

// rules are checked in order; the first topic with a matching keyword wins.
var rules = []rule{
	{ConstructionNoise, []string{
		"construction", "renovation", "renovate", "contractor", "demolition",
		"jackhammer", "power tool", "building noise",
	}},
	{LeafBlowers, []string{"leaf blower", "leafblower", "blower"}},
	{GeneralNoise, []string{"noise", "loud", "music", "party", "quiet hours", "barking"}},
	{TreeRemoval, []string{"tree", "arborist", "hedge", "stump", "prune", "pruning"}},
	{DogControl, []string{"dog", "leash", "off-leash", "puppy", "kennel"}},
	{Zoning, []string{"zoning", "setback", "secondary suite", "lot coverage", "building height", "rezoning"}},
}

var answers = map[Topic]Answer{
	ConstructionNoise: {
		Topic:   ConstructionNoise,
		Summary: "Construction noise is limited to set hours under the Anti-Noise Bylaw.",
		Details: []string{
			"Construction, renovation and demolition work that can be heard from a neighbouring property " +
				"is permitted Monday to Friday 7:00 a.m. to 7:00 p.m. and Saturday 9:00 a.m. to 5:00 p.m.",
			"No such work is permitted on Sundays or statutory holidays.",
			"Most renovations also need a building permit under the Building and Plumbing Bylaw.",
		},
		Citations: []Citation{
			{BylawNumber: "3890", Title: "Anti-Noise Bylaw", Section: "5(7)(a)"},
			{BylawNumber: "4247", Title: "Building and Plumbing Bylaw", Section: "7.1"},
		},
	},
	LeafBlowers: {
		Topic:   LeafBlowers,
		Summary: "Leaf blowers may only be operated during restricted hours.",
		Details: []string{
			"Gas and electric leaf blowers may be used Monday to Friday 8:00 a.m. to 8:00 p.m. " +
				"and weekends and holidays 9:00 a.m. to 5:00 p.m.",
		},
		Citations: []Citation{
			{BylawNumber: "3890", Title: "Anti-Noise Bylaw", Section: "5(12)"},
		},
	},
	GeneralNoise: {
		Topic:   GeneralNoise,
		Summary: "Noise that disturbs the quiet, peace or enjoyment of the neighbourhood is prohibited at all times.",
		Details: []string{
			"The general prohibition applies regardless of the time of day.",
			"Amplified sound audible from a neighbouring property is prohibited between 10:00 p.m. and 7:00 a.m.",
		},
		Citations: []Citation{
			{BylawNumber: "3890", Title: "Anti-Noise Bylaw", Section: "3"},
			{BylawNumber: "3890", Title: "Anti-Noise Bylaw", Section: "4"},
		},
	},
	TreeRemoval: {
		Topic:   TreeRemoval,
		Summary: "Removing or damaging a protected tree requires a tree permit.",
		Details: []string{
			"Protected trees include Garry oak, arbutus and Pacific dogwood of any size, " +
				"and any tree with a trunk diameter of 30 cm or more at 1.4 m above grade.",
			"Replacement trees or cash in lieu may be required as a condition of the permit.",
		},
		Citations: []Citation{
			{BylawNumber: "4742", Title: "Tree Protection Bylaw", Section: "3.1"},
			{BylawNumber: "4742", Title: "Tree Protection Bylaw", Section: "6.2"},
		},
	},
	DogControl: {
		Topic:   DogControl,
		Summary: "Dogs must be leashed in public places except in designated off-leash areas.",
		Details: []string{
			"Dogs must be licensed annually with the municipality.",
			"Owners must immediately remove dog waste from public and private property.",
		},
		Citations: []Citation{
			{BylawNumber: "4013", Title: "Animal Control Bylaw", Section: "4.1"},
			{BylawNumber: "4013", Title: "Animal Control Bylaw", Section: "7"},
		},
	},
	Zoning: {
		Topic:   Zoning,
		Summary: "Permitted uses, setbacks, height and lot coverage depend on the zone of the property.",
		Details: []string{
			"Check the zone of the property on the municipal zoning map before planning an addition or suite.",
			"Variances from the Zoning Bylaw require an application to the Board of Variance.",
		},
		Citations: []Citation{
			{BylawNumber: "3531", Title: "Zoning Bylaw", Section: "6.1"},
		},
	},
	NoMatch: {
		Topic: NoMatch,
		Summary: "No verified answer is available for this topic. " +
			"Please search the bylaws or contact the Municipal Hall for confirmation.",
	},
}

// Classify maps a free-form topic to a canned answer topic. The input is
// lowercased and checked against each topic's keywords in priority order.
// A keyword must start a word, so "tree" matches "trees" but not "street".
func Classify(topic string) Topic {
	lower := strings.ToLower(topic)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if hasWordPrefix(lower, kw) {
				return r.topic
			}
		}
	}
	return NoMatch
}

func hasWordPrefix(s, kw string) bool {
	for off := 0; ; {
		i := strings.Index(s[off:], kw)
		if i < 0 {
			return false
		}
		at := off + i
		if at == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(s[:at])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		off = at + 1
	}
}

// For returns the canned answer for a free-form topic; see Classify.
func For(topic string) Answer {
	return Get(Classify(topic))
}

// Get returns a copy of the canned answer for t, or of the no-match answer.
func Get(t Topic) Answer {
	a, ok := answers[t]
	if !ok {
		a = answers[NoMatch]
	}
	a.Details = slices.Clone(a.Details)
	a.Citations = slices.Clone(a.Citations)
	return a
}

// Topics lists the classifiable topics in priority order.
func Topics() []Topic {
	out := make([]Topic, len(rules))
	for i, r := range rules {
		out[i] = r.topic
	}
	return out
}
