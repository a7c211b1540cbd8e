package cache

import "sync"

// Memo is a generic thread-safe memo table. Entries are created on first
// request and kept until deleted; there is no size bound.
//
// Memo must not be copied after creation (has mutex).
type Memo[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
	hits    uint64
	misses  uint64
}

// NewMemo creates an empty memo table.
func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{entries: make(map[K]V)}
}

// Get retrieves a value from the table.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Memo[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	return v, ok
}

// GetOrCreate returns the value stored for key, or calls create and stores
// its result. create runs under the lock so each key is created at most
// once. A failed create stores nothing.
func (c *Memo[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		c.hits++
		return v, nil
	}

	c.misses++
	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = v
	return v, nil
}

// DeleteFunc removes every entry for which del returns true and returns the
// removed values.
func (c *Memo[K, V]) DeleteFunc(del func(K, V) bool) []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []V
	for k, v := range c.entries {
		if del(k, v) {
			removed = append(removed, v)
			delete(c.entries, k)
		}
	}
	return removed
}

// Clear removes all entries and returns them.
func (c *Memo[K, V]) Clear() []V {
	return c.DeleteFunc(func(K, V) bool { return true })
}

// Len returns the number of entries in the table.
func (c *Memo[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns table statistics.
func (c *Memo[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Len:    len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Hits is the number of requests served from the cache.
	Hits uint64
	// Misses is the number of requests that created a new object.
	Misses uint64
	// Evictions is the number of entries removed by lifetime expiry.
	Evictions uint64
}

// HitRate returns the hit rate 0.0 to 1.0, or 0 when nothing was requested.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
