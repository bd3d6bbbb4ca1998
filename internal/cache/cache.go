// Package cache memoizes ledger aggregates in a bounded in-process cache.
package cache

// Cache is the key-value store behind Aggregates. Implementations must be
// safe for concurrent use.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	// Purge drops every entry.
	Purge()
	Size() int
}

var _ Cache[any] = (*LRUCache[any])(nil)
