// Package bylaw holds the authoritative table of Oak Bay bylaws the service
// knows about. The verified set, the name index and the title lookup are all
// views over the same table.
package bylaw

import "strings"

// Bylaw is one entry of the metadata table.
type Bylaw struct {
	Number string
	Title  string
	// Topic is the Title Case phrase the citation scanner recognizes in text.
	Topic string
	// Aliases are lowercase phrases resolved to Number by ResolveName.
	Aliases  []string
	Verified bool
}

// table order is significant: ResolveName returns the first alias match.
var table = []Bylaw{
	{
		Number: "4742", Title: "Tree Protection Bylaw", Topic: "Tree Protection",
		Aliases: []string{"tree protection", "tree removal", "protected tree"}, Verified: true,
	},
	{
		Number: "3890", Title: "Anti-Noise Bylaw", Topic: "Anti-Noise",
		Aliases: []string{"anti-noise", "anti noise", "noise"}, Verified: true,
	},
	{
		Number: "3531", Title: "Zoning Bylaw", Topic: "Zoning",
		Aliases: []string{"zoning", "land use"}, Verified: true,
	},
	{
		Number: "4013", Title: "Animal Control Bylaw", Topic: "Animal Control",
		Aliases: []string{"animal control", "animal", "dog"}, Verified: true,
	},
	{
		Number: "4247", Title: "Building and Plumbing Bylaw", Topic: "Building and Plumbing",
		Aliases: []string{"building and plumbing", "building", "plumbing"}, Verified: true,
	},
	{
		Number: "4183", Title: "Streets and Traffic Bylaw", Topic: "Streets and Traffic",
		Aliases: []string{"streets and traffic", "traffic"}, Verified: true,
	},
	{
		Number: "4326", Title: "Boulevard Bylaw", Topic: "Boulevard",
		Aliases: []string{"boulevard"}, Verified: true,
	},
	{
		Number: "3210", Title: "Business Licence Bylaw", Topic: "Business Licence",
		Aliases: []string{"business licence", "business license"}, Verified: true,
	},
	{
		Number: "4100", Title: "Solid Waste Bylaw", Topic: "Solid Waste",
		Aliases: []string{"solid waste", "garbage", "yard waste"}, Verified: true,
	},
	{
		Number: "4255", Title: "Parks and Beaches Bylaw", Topic: "Parks and Beaches",
		Aliases: []string{"parks and beaches", "parks", "beach"}, Verified: true,
	},
	{
		Number: "4200", Title: "Official Community Plan Bylaw", Topic: "Official Community Plan",
		Aliases: []string{"official community plan", "ocp"}, Verified: true,
	},
	{
		Number: "3995", Title: "Unsightly Premises Bylaw", Topic: "Unsightly Premises",
		Aliases: []string{"unsightly premises", "unsightly"}, Verified: true,
	},
	{
		Number: "4400", Title: "Heritage Conservation Bylaw", Topic: "Heritage Conservation",
		Aliases: []string{"heritage"}, Verified: false,
	},
	{
		Number: "4680", Title: "Fireworks Bylaw", Topic: "Fireworks",
		Aliases: []string{"fireworks"}, Verified: false,
	},
	{
		Number: "4700", Title: "Subdivision and Development Servicing Bylaw", Topic: "Subdivision",
		Aliases: []string{"subdivision", "development servicing"}, Verified: false,
	},
}

var byNumber = func() map[string]Bylaw {
	m := make(map[string]Bylaw, len(table))
	for _, b := range table {
		m[b.Number] = b
	}
	return m
}()

// All returns a copy of the table in its canonical order.
func All() []Bylaw {
	out := make([]Bylaw, len(table))
	copy(out, table)
	return out
}

// Verified returns the bylaws that may be cited.
func Verified() []Bylaw {
	out := make([]Bylaw, 0, len(table))
	for _, b := range table {
		if b.Verified {
			out = append(out, b)
		}
	}
	return out
}

// IsVerified reports whether number is in the verified set.
func IsVerified(number string) bool {
	b, ok := byNumber[number]
	return ok && b.Verified
}

// Lookup returns the table entry for number.
func Lookup(number string) (Bylaw, bool) {
	b, ok := byNumber[number]
	return b, ok
}

// Title returns the canonical title for number, or "" when unknown.
func Title(number string) string {
	return byNumber[number].Title
}

// ResolveName maps a phrase naming a bylaw to its number. Matching is a
// case-insensitive substring test of each alias in table order.
func ResolveName(phrase string) (string, bool) {
	lower := strings.ToLower(phrase)
	for _, b := range table {
		for _, alias := range b.Aliases {
			if strings.Contains(lower, alias) {
				return b.Number, true
			}
		}
	}
	return "", false
}

// Topics returns the recognizable topic phrases, longest first so that a
// scanner trying them in order finds the longest match.
func Topics() []string {
	out := make([]string, 0, len(table))
	for _, b := range table {
		out = append(out, b.Topic)
	}
	// insertion sort keeps equal-length topics in table order
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
