package genetics

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResultCache memoizes expensive fitted results per key. Concurrent
// callers of the same key are serialized so the computation runs once;
// different keys proceed in parallel. Failed computations are not
// cached, so a later caller retries.
type ResultCache[K comparable, V any] struct {
	cache *lru.Cache[K, V]

	mu    sync.Mutex
	locks map[K]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewResultCache returns a cache holding up to size results.
func NewResultCache[K comparable, V any](size int) (*ResultCache[K, V], error) {
	c, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache[K, V]{
		cache: c,
		locks: make(map[K]*keyLock),
	}, nil
}

// Get reports the cached value for key, if any.
func (c *ResultCache[K, V]) Get(key K) (V, bool) {
	return c.cache.Get(key)
}

// Len reports the number of cached results.
func (c *ResultCache[K, V]) Len() int {
	return c.cache.Len()
}

// GetOrCompute returns the cached value for key, computing and caching
// it on a miss. While one caller computes, other callers of the same
// key block and then read the cached result.
func (c *ResultCache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	kl := c.acquire(key)
	kl.mu.Lock()
	defer func() {
		kl.mu.Unlock()
		c.release(key, kl)
	}()

	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *ResultCache[K, V]) acquire(key K) *keyLock {
	c.mu.Lock()
	defer c.mu.Unlock()
	kl := c.locks[key]
	if kl == nil {
		kl = &keyLock{}
		c.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (c *ResultCache[K, V]) release(key K, kl *keyLock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(c.locks, key)
	}
}
