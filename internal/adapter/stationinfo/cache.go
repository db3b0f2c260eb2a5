package stationinfo

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/couchcryptid/fuel-price-etl/internal/observability"
)

// CachedLookup wraps a NameLookup with an in-memory LRU cache, so scheduled
// runs only hit the network for stations they have not named yet.
type CachedLookup struct {
	inner   domain.NameLookup
	cache   *lruCache[int, string]
	metrics *observability.Metrics
}

// NewCachedLookup creates a cache decorator around a lookup.
func NewCachedLookup(inner domain.NameLookup, maxEntries int, metrics *observability.Metrics) *CachedLookup {
	return &CachedLookup{
		inner:   inner,
		cache:   newLRUCache[int, string](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedLookup) LookupName(ctx context.Context, id int) (string, error) {
	if name, ok := c.cache.get(id); ok {
		c.metrics.NameCache.WithLabelValues("memory", "hit").Inc()
		return name, nil
	}
	c.metrics.NameCache.WithLabelValues("memory", "miss").Inc()

	name, err := c.inner.LookupName(ctx, id)
	if err != nil {
		return "", err
	}
	// Failures are not cached so the next run retries them.
	c.cache.put(id, name)
	return name, nil
}

// NameStore persists resolved names across process restarts.
type NameStore interface {
	GetName(ctx context.Context, id int) (string, bool, error)
	PutName(ctx context.Context, id int, name string) error
}

// StoredLookup consults a NameStore before the inner lookup and records
// every name the inner lookup resolves. Store errors never fail a lookup.
type StoredLookup struct {
	inner   domain.NameLookup
	store   NameStore
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewStoredLookup creates a persistent-store decorator around a lookup.
func NewStoredLookup(inner domain.NameLookup, store NameStore, metrics *observability.Metrics, logger *slog.Logger) *StoredLookup {
	return &StoredLookup{
		inner:   inner,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *StoredLookup) LookupName(ctx context.Context, id int) (string, error) {
	name, ok, err := s.store.GetName(ctx, id)
	switch {
	case err != nil:
		s.logger.Warn("name store read failed", "station_id", id, "error", err)
	case ok:
		s.metrics.NameCache.WithLabelValues("store", "hit").Inc()
		return name, nil
	default:
		s.metrics.NameCache.WithLabelValues("store", "miss").Inc()
	}

	name, err = s.inner.LookupName(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.store.PutName(ctx, id, name); err != nil {
		s.logger.Warn("name store write failed", "station_id", id, "error", err)
	}
	return name, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[K comparable, V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[K]*entry[K, V]
	head       *entry[K, V] // most recently used
	tail       *entry[K, V] // least recently used
}

type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		entries:    make(map[K]*entry[K, V]),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[K, V]) moveToFront(e *entry[K, V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[K, V]) addToFront(e *entry[K, V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[K, V]) remove(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[K, V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
