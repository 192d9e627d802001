package cache

import (
	"time"
)

type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V, ttl time.Duration)
	// PutIfAbsent stores value only when key is missing or expired and
	// reports whether it did.
	PutIfAbsent(key K, value V, ttl time.Duration) bool
	// TryPut stores value only if that needs no live entry to be evicted
	// and reports whether it did.
	TryPut(key K, value V, ttl time.Duration) bool
	// Take removes key and returns its value in one step; of two concurrent
	// callers at most one observes the value.
	Take(key K) (V, bool)
	Delete(key K) bool
	Has(key K) bool
	Len() int
	Capacity() int
	Purge()
	StartCleanup(interval time.Duration)
	StopCleanup()
	SetOnEvicted(onEvicted func(key K, value V))
}
