package batch

// ItemStatus is the processing outcome of a single corpus record.
type ItemStatus string

// Record status values.
const (
	StatusOK      ItemStatus = "ok"
	StatusSkipped ItemStatus = "skipped"
	StatusError   ItemStatus = "error"
)

// Result is the outcome of loading one record.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewSkipped creates a result for a record rejected before embedding.
func NewSkipped(id string, err error) Result { return Result{id: id, status: StatusSkipped, err: err} }

// NewError creates a result for a record that failed during embedding or upsert.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the record identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts results per status.
type Summary map[ItemStatus]int

// Summarize tallies results by status.
func Summarize(results []Result) Summary {
	s := make(Summary, 3)
	for _, r := range results {
		s[r.status]++
	}
	return s
}

// Failed reports the number of skipped and errored records.
func (s Summary) Failed() int { return s[StatusSkipped] + s[StatusError] }
