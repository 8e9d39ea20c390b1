package cache

import "context"

// FetchFn loads a value from the source of truth on a memo miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService is an in-process read-through memo placed in front of slow
// relational lookups. It is independent of the key-value store driven by
// Adapter: entries live only in this process.
type CacheService[T any] interface {
	// GetOrFetch returns the memoized value for key or calls fetchFn and
	// stores its result. A fetchFn returning ErrNotFound is remembered as a
	// missing record when the implementation supports it; later calls then
	// fail with ErrNotFound without calling fetchFn.
	GetOrFetch(ctx context.Context, key string, fetchFn FetchFn[T]) (T, error)
	Delete(ctx context.Context, key string) error
}
