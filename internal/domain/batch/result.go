// Package batch describes per-chunk outcomes of an ingestion run.
package batch

// ItemStatus is the processing outcome of a single chunk.
type ItemStatus string

// Chunk status values.
const (
	StatusOK      ItemStatus = "ok"
	StatusRemoved ItemStatus = "removed"
	StatusError   ItemStatus = "error"
)

// Result is the outcome of ingesting one chunk.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewRemoved records a chunk deleted from the index.
func NewRemoved(id string) Result { return Result{id: id, status: StatusRemoved} }

// NewError creates a failed result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the chunk identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts outcomes of a run.
type Summary struct {
	Succeeded int
	Removed   int
	Failed    int
}

// Summarize tallies results by status.
func Summarize(rs []Result) Summary {
	var s Summary
	for _, r := range rs {
		switch r.status {
		case StatusOK:
			s.Succeeded++
		case StatusRemoved:
			s.Removed++
		default:
			s.Failed++
		}
	}
	return s
}
