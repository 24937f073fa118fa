// Package store provides the key-value persistence tally keeps its documents in.
package store

import "context"

// UpdateFunc receives the current value of a key (ok=false when absent) and
// returns the value to write. Returning an error aborts the update; nothing is
// written and the error is passed back to the caller unchanged.
type UpdateFunc func(old string, ok bool) (string, error)

// KV is a string key-value store.
type KV interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Update runs a read-modify-write of key atomically with respect to other
	// Update and Set calls on the same store.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}
