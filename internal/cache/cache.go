// Package cache holds a small generic LRU cache with expiry, used to keep
// market quotes between fetches.
package cache

// Cache is a keyed store of values that expire.
type Cache[T any] interface {
	// Get returns a live value.
	Get(key string) (T, bool)

	// Peek returns a value even after it expired, as long as it was not
	// evicted. The bool reports whether it is still live.
	Peek(key string) (T, bool, bool)

	Set(key string, data T)

	Delete(key string)

	Size() int
}
