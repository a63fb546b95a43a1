package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// TTLCache is a size-bounded cache whose entries expire after a fixed TTL.
// Every entry costs 1, so maxSize is an entry count. Admission and eviction
// follow ristretto's TinyLFU policy.
type TTLCache[T any] struct {
	store *ristretto.Cache
	ttl   time.Duration
}

func NewTTLCache[T any](maxSize int, ttl time.Duration) (*TTLCache[T], error) {
	if maxSize <= 0 {
		maxSize = 1
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(maxSize) * 10,
		MaxCost:            int64(maxSize),
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &TTLCache[T]{store: store, ttl: ttl}, nil
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	data, ok := v.(T)
	return data, ok
}

// Set stores data and waits until the write is visible to Get. The policy
// may still reject the entry when the cache is full.
func (c *TTLCache[T]) Set(key string, data T) {
	if c == nil {
		return
	}
	c.store.SetWithTTL(key, data, 1, c.ttl)
	c.store.Wait()
}

func (c *TTLCache[T]) Delete(key string) {
	if c == nil {
		return
	}
	c.store.Del(key)
}

// Purge empties the cache.
func (c *TTLCache[T]) Purge() {
	if c == nil {
		return
	}
	c.store.Clear()
}

// Stats returns the hit and miss counters.
func (c *TTLCache[T]) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	return c.store.Metrics.Hits(), c.store.Metrics.Misses()
}

// Close stops the cache's background goroutines. The cache must not be used
// afterwards.
func (c *TTLCache[T]) Close() {
	if c == nil {
		return
	}
	c.store.Close()
}
