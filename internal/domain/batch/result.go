// Package batch holds tagged per-item outcomes for indexing runs, so a
// failed item can be reported without aborting the remaining items.
package batch

// ItemStatus is the processing outcome of a single item.
type ItemStatus string

// Item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one item.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewError creates a failed result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary aggregates results into counts.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.Status() == StatusOK {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
