package comparatif

import "fmt"

// ValidationError reports malformed input, such as a tariff count outside
// the supported 1 to 3 range or a bad sort direction. It is surfaced to the
// caller and never retried.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("comparatif: invalid filter payload: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StoreQueryError reports a data-store failure while running the count or
// data query. It always propagates: the requested data could not be
// produced, and pretending otherwise would serve wrong totals.
type StoreQueryError struct {
	Op  string // "count" or "data"
	Err error
}

func (e *StoreQueryError) Error() string {
	return fmt.Sprintf("comparatif: %s query failed: %v", e.Op, e.Err)
}

func (e *StoreQueryError) Unwrap() error { return e.Err }
