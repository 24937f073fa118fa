package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a user or expenditure id that doesn't resolve.
	ErrNotFound = errors.New("ledger: not found")
	// ErrConflict indicates a duplicate registration or expenditure id.
	ErrConflict = errors.New("ledger: conflict")
	// ErrNoCurrentUser indicates an operation that needs a logged-in user.
	ErrNoCurrentUser = errors.New("ledger: no user is logged in")
	// ErrUnknownCategory indicates a category outside the fixed set.
	ErrUnknownCategory = errors.New("ledger: unknown category")
)

// StorageError reports a failure at the persistence boundary.
type StorageError struct {
	Op  string // "read", "write" or "decode"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
