package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of upserting one record in a batch. A failed item
// never aborts the remaining items; callers inspect per-item outcomes.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result carrying the effective record id.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the effective record id (generated when the input id was empty).
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// OKCount counts successful results.
func OKCount(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Status() == StatusOK {
			n++
		}
	}
	return n
}
