// Package futurecache implements a time-windowed memoization table of
// futures keyed by string.
//
// It is not an LRU cache: entries are never evicted under memory
// pressure or on access, only by an explicit Sweep once their fixed
// expiry has passed. Memory is proportional to the number of distinct
// keys seen within one TTL window.
package futurecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelapi "go.opentelemetry.io/otel/metric"

	"github.com/flashbots/pdf-gateway/metrics"
)

type entry[V any] struct {
	future    *Future[V]
	expiresAt time.Time
}

type evicted[V any] struct {
	key    string
	future *Future[V]
}

// Cache maps string keys to shared futures that live for a fixed TTL.
type Cache[V any] struct {
	name string
	ttl  time.Duration

	now     func() time.Time
	onEvict func(key string, future *Future[V])

	entries map[string]*entry[V]
	mx      sync.Mutex
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock replaces time.Now as the source of entry creation times.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		c.now = now
	}
}

// WithOnEvict registers a hook called for every entry removed by Sweep.
// The hook runs outside of the cache lock.
func WithOnEvict[V any](fn func(key string, future *Future[V])) Option[V] {
	return func(c *Cache[V]) {
		c.onEvict = fn
	}
}

// New returns an empty cache whose entries expire ttl after creation.
func New[V any](name string, ttl time.Duration, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		name:    name,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache[V]) Name() string {
	return c.name
}

// GetOrCreate returns the future cached under key. On a miss it calls
// factory exactly once and caches its future for the TTL.
//
// The factory is invoked while the cache lock is held, so it must only
// start the work (see Go) and return without blocking. This is what
// coalesces concurrent callers onto the same future.
func (c *Cache[V]) GetOrCreate(key string, factory func() *Future[V]) *Future[V] {
	attrs := otelapi.WithAttributes(c.attribute())

	future, created, size := c.getOrCreate(key, factory)
	if !created {
		metrics.CacheHitsCount.Add(context.Background(), 1, attrs)
		return future
	}

	metrics.CacheMissesCount.Add(context.Background(), 1, attrs)
	metrics.CacheEntries.Record(context.Background(), int64(size), attrs)

	return future
}

func (c *Cache[V]) getOrCreate(key string, factory func() *Future[V]) (*Future[V], bool, int) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if e, found := c.entries[key]; found {
		return e.future, false, len(c.entries)
	}

	e := &entry[V]{
		future:    produce(factory),
		expiresAt: c.now().Add(c.ttl),
	}
	c.entries[key] = e

	return e.future, true, len(c.entries)
}

// produce calls factory, turning a panic into a failed future that is
// cached like any other failure.
func produce[V any](factory func() *Future[V]) (future *Future[V]) {
	defer func() {
		if msg := recover(); msg != nil {
			future = Failed[V](fmt.Errorf("%w: %v", ErrPanicked, msg))
		}
	}()
	return factory()
}

// Sweep removes every entry that expired before now, whether or not its
// future ever settled, and returns the number of removed entries.
func (c *Cache[V]) Sweep(now time.Time) int {
	c.mx.Lock()
	removed := make([]evicted[V], 0)
	for key, e := range c.entries {
		if e.expiresAt.Before(now) {
			delete(c.entries, key)
			removed = append(removed, evicted[V]{key: key, future: e.future})
		}
	}
	size := len(c.entries)
	c.mx.Unlock()

	attrs := otelapi.WithAttributes(c.attribute())
	metrics.CacheEntries.Record(context.Background(), int64(size), attrs)
	if len(removed) > 0 {
		metrics.CacheEvictionsCount.Add(context.Background(), int64(len(removed)), attrs)
	}

	if c.onEvict != nil {
		for _, e := range removed {
			c.onEvict(e.key, e.future)
		}
	}

	return len(removed)
}

// Len returns the number of entries held, expired-but-unswept included.
func (c *Cache[V]) Len() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) attribute() attribute.KeyValue {
	return attribute.KeyValue{Key: "cache", Value: attribute.StringValue(c.name)}
}
