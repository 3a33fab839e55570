package notion

import "fmt"

// StoreError wraps a failed remote-store call with the operation and
// the identifier involved, so callers can log actionable context.
type StoreError struct {
	Op  string // "query", "get", "update", "create"
	ID  string // database or page id
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("notion %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op, id string, err error) error {
	return &StoreError{Op: op, ID: id, Err: err}
}
