// Package cache provides a TTL-bounded memoization layer that collapses
// concurrent callers of the same key into a single upstream call.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry stores a cached value with its expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache memoizes producer results per key for a TTL. Concurrent Get calls
// for a key with no live entry share one in-flight producer call; failures
// propagate to every waiter and are never cached.
//
// The key set is the small fixed set of cache uses (snapshot keys), so there
// is no size-based eviction, only expiry.
type Cache[V any] struct {
	ttl   time.Duration
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry[V]

	now func() time.Time // test hook
}

// New creates a cache with the given TTL.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get returns the live cached value for key, or invokes produce to create
// one. If a producer call for key is already in flight, Get waits for that
// shared result instead of starting a second call.
//
// The producer is started with a context detached from the caller's: once a
// fetch is underway it runs to completion (or its own timeout) even if the
// caller that started it stops waiting, so that concurrent waiters still
// get a result. Get itself returns early with ctx.Err() when the caller's
// context is done.
func (c *Cache[V]) Get(ctx context.Context, key string, produce func(context.Context) (V, error)) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// A racing flight may have stored a live entry between our lookup
		// and this call being scheduled.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := produce(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Peek returns the live cached value without triggering a fetch.
func (c *Cache[V]) Peek(key string) (V, bool) {
	return c.lookup(key)
}

// Invalidate drops the entry for key. An in-flight producer call is not
// affected; its result will still be stored when it completes.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) store(key string, v V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: v, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
