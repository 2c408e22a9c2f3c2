package db

// TagFilter restricts a query to entries whose TAG field equals Value.
type TagFilter struct {
	Field string
	Value string
}

// RangeFilter restricts a NUMERIC field to an inclusive range. A nil bound
// is open.
type RangeFilter struct {
	Field string
	Min   *float64
	Max   *float64
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Vector       []float32
	K            int
	Tags         []TagFilter
	Ranges       []RangeFilter
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Score is a cosine similarity in [0,1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
