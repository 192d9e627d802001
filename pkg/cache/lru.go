package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"checkout/pkg/logger"
	"checkout/pkg/metric"
)

const (
	_removePreallocSize = 10
)

var _ Cache[string, any] = (*LRUCache[string, any])(nil)

type LRUCache[K comparable, V any] struct {
	name    string
	cache   map[K]*list.Element
	lruList *list.List
	mutex   sync.Mutex
	log     logger.Logger
	metrics metric.Cache

	capacity    int
	cleanupStop chan struct{}
	onEvicted   func(key K, value V)
}

type entry[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// NewLRUCache creates a cache holding at most capacity entries. name labels
// the cache in metrics.
func NewLRUCache[K comparable, V any](
	name string,
	capacity int,
	log logger.Logger,
	metrics metric.Cache,
) (*LRUCache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache.NewLRUCache: capacity must be positive, got %d", capacity)
	}

	return &LRUCache[K, V]{
		name:     name,
		capacity: capacity,
		cache:    make(map[K]*list.Element),
		lruList:  list.New(),
		log:      log,
		metrics:  metrics,
	}, nil
}

func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	var zero V

	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		c.metrics.Miss(c.name)
		return zero, false
	}

	entry, ok := elem.Value.(*entry[K, V])
	if !ok {
		c.log.Errorw("cache contains value of unexpected type",
			"type", fmt.Sprintf("%T", elem.Value),
		)
		c.removeElement(elem)
		c.metrics.Miss(c.name)
		return zero, false
	}

	if entry.expired(time.Now()) {
		c.removeElement(elem)
		c.metrics.Miss(c.name)
		return zero, false
	}

	c.lruList.MoveToFront(elem)
	c.metrics.Hit(c.name)

	return entry.value, true
}

func (c *LRUCache[K, V]) Put(key K, value V, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var expires time.Time

	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	if elem, ok := c.cache[key]; ok {
		if entry, exist := elem.Value.(*entry[K, V]); exist {
			c.lruList.MoveToFront(elem)
			entry.value = value
			entry.expires = expires
			return
		}
		c.lruList.Remove(elem)
		delete(c.cache, key)
	}

	if c.lruList.Len() >= c.capacity {
		c.removeOldest()
	}

	e := &entry[K, V]{
		key:     key,
		value:   value,
		expires: expires,
	}
	elem := c.lruList.PushFront(e)
	c.cache[key] = elem
	c.metrics.Size(c.name, c.lruList.Len())
}

func (c *LRUCache[K, V]) PutIfAbsent(key K, value V, ttl time.Duration) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if elem, ok := c.cache[key]; ok {
		if e, valid := elem.Value.(*entry[K, V]); valid && !e.expired(time.Now()) {
			return false
		}
		c.removeElement(elem)
	}

	if c.lruList.Len() >= c.capacity {
		c.removeOldest()
	}

	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	c.cache[key] = c.lruList.PushFront(&entry[K, V]{
		key:     key,
		value:   value,
		expires: expires,
	})
	c.metrics.Size(c.name, c.lruList.Len())
	return true
}

// TryPut stores value without evicting live entries. A full cache first
// drops expired entries; if none are expired the value is rejected.
func (c *LRUCache[K, V]) TryPut(key K, value V, ttl time.Duration) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()

	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}

	if elem, ok := c.cache[key]; ok {
		if e, valid := elem.Value.(*entry[K, V]); valid && !e.expired(now) {
			c.lruList.MoveToFront(elem)
			e.value = value
			e.expires = expires
			return true
		}
		c.removeElement(elem)
	}

	if c.lruList.Len() >= c.capacity {
		c.removeExpired(now)
	}
	if c.lruList.Len() >= c.capacity {
		c.metrics.Rejected(c.name)
		return false
	}

	c.cache[key] = c.lruList.PushFront(&entry[K, V]{
		key:     key,
		value:   value,
		expires: expires,
	})
	c.metrics.Size(c.name, c.lruList.Len())
	return true
}

func (c *LRUCache[K, V]) Take(key K) (V, bool) {
	var zero V

	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		c.metrics.Miss(c.name)
		return zero, false
	}

	e, ok := elem.Value.(*entry[K, V])
	if !ok || e.expired(time.Now()) {
		c.removeElement(elem)
		c.metrics.Miss(c.name)
		return zero, false
	}

	c.lruList.Remove(elem)
	delete(c.cache, key)
	c.metrics.Hit(c.name)
	c.metrics.Size(c.name, c.lruList.Len())

	return e.value, true
}

// Delete removes key without invoking the eviction callback.
func (c *LRUCache[K, V]) Delete(key K) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return false
	}

	c.lruList.Remove(elem)
	delete(c.cache, key)
	c.metrics.Size(c.name, c.lruList.Len())
	return true
}

func (c *LRUCache[K, V]) Has(key K) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return false
	}

	entry, ok := elem.Value.(*entry[K, V])
	if !ok {
		return false
	}

	return !entry.expired(time.Now())
}

func (c *LRUCache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lruList.Len()
}

func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

func (c *LRUCache[K, V]) Purge() {
	var evicted []struct {
		key   K
		value V
	}

	c.mutex.Lock()
	for key, elem := range c.cache {
		if entry, ok := elem.Value.(*entry[K, V]); ok {
			evicted = append(evicted, struct {
				key   K
				value V
			}{key, entry.value})
		}
	}
	c.lruList.Init()
	clear(c.cache)
	c.metrics.Size(c.name, 0)
	c.mutex.Unlock()

	for _, item := range evicted {
		if c.onEvicted != nil {
			c.onEvicted(item.key, item.value)
		}
	}
}

func (c *LRUCache[K, V]) StartCleanup(interval time.Duration) {
	stop := make(chan struct{})

	c.mutex.Lock()
	if c.cleanupStop != nil {
		close(c.cleanupStop)
	}
	c.cleanupStop = stop
	c.mutex.Unlock()

	go c.runCleanup(interval, stop)
}

func (c *LRUCache[K, V]) StopCleanup() {
	c.mutex.Lock()
	if c.cleanupStop != nil {
		close(c.cleanupStop)
		c.cleanupStop = nil
	}
	c.mutex.Unlock()
}

// runCleanup owns its ticker and stop channel; a later StartCleanup never
// touches them.
func (c *LRUCache[K, V]) runCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-stop:
			return
		}
	}
}

func (c *LRUCache[K, V]) cleanupExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if removed := c.removeExpired(time.Now()); removed > 0 {
		c.log.Infow("cache cleanup completed",
			"cache", c.name,
			"removed", removed,
			"remaining", c.lruList.Len(),
		)
	}
}

// removeExpired must be called with the mutex held.
func (c *LRUCache[K, V]) removeExpired(now time.Time) int {
	toRemove := make([]*list.Element, 0, _removePreallocSize)

	for _, elem := range c.cache {
		entry, ok := elem.Value.(*entry[K, V])
		if !ok {
			continue
		}

		if entry.expired(now) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}

	if len(toRemove) > 0 {
		c.metrics.Size(c.name, c.lruList.Len())
	}
	return len(toRemove)
}

func (c *LRUCache[K, V]) removeOldest() {
	if elem := c.lruList.Back(); elem != nil {
		c.evict(elem, "lru")
	}
}

func (c *LRUCache[K, V]) removeElement(elem *list.Element) {
	c.evict(elem, "expired")
}

func (c *LRUCache[K, V]) evict(elem *list.Element, reason string) {
	c.lruList.Remove(elem)
	entry, ok := elem.Value.(*entry[K, V])
	if !ok {
		c.log.Errorw("cache contains value of unexpected type",
			"type", fmt.Sprintf("%T", elem.Value),
		)
		return
	}
	delete(c.cache, entry.key)
	if c.onEvicted != nil {
		c.onEvicted(entry.key, entry.value)
	}
	c.metrics.Eviction(c.name, reason)
}

func (c *LRUCache[K, V]) SetOnEvicted(onEvicted func(key K, value V)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onEvicted = onEvicted
}
