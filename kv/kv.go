package kv

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("kv store unavailable")

// Store is a string-keyed, string-valued persistent store with synchronous
// and deferred write modes.
type Store interface {
	// Set writes synchronously and reports failure.
	Set(ctx context.Context, key, value string) error
	// SetDeferred queues a best-effort write. It never blocks on I/O and
	// gives no delivery guarantee.
	SetDeferred(key, value string)
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close flushes deferred writes and releases resources.
	Close() error
}
