package stationinfo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks for cache tests ---

type countingLookup struct {
	mu    sync.Mutex
	calls map[int]int
	names map[int]string
}

func newCountingLookup(names map[int]string) *countingLookup {
	return &countingLookup{calls: make(map[int]int), names: names}
}

func (m *countingLookup) LookupName(_ context.Context, id int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[id]++
	name, ok := m.names[id]
	if !ok {
		return "", domain.ErrNameNotFound
	}
	return name, nil
}

type memStore struct {
	names  map[int]string
	getErr error
	putErr error
	puts   int
}

func (s *memStore) GetName(_ context.Context, id int) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	name, ok := s.names[id]
	return name, ok, nil
}

func (s *memStore) PutName(_ context.Context, id int, name string) error {
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.names[id] = name
	return nil
}

// --- CachedLookup tests ---

func TestCachedLookup_Hit(t *testing.T) {
	inner := newCountingLookup(map[int]string{1: "Total"})
	cached := NewCachedLookup(inner, 10, testMetrics())

	for range 3 {
		name, err := cached.LookupName(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Total", name)
	}
	assert.Equal(t, 1, inner.calls[1], "should only call inner once")
}

func TestCachedLookup_FailuresNotCached(t *testing.T) {
	inner := newCountingLookup(map[int]string{})
	cached := NewCachedLookup(inner, 10, testMetrics())

	_, err := cached.LookupName(context.Background(), 9)
	require.ErrorIs(t, err, domain.ErrNameNotFound)
	_, err = cached.LookupName(context.Background(), 9)
	require.ErrorIs(t, err, domain.ErrNameNotFound)

	assert.Equal(t, 2, inner.calls[9])
}

func TestCachedLookup_Concurrent(t *testing.T) {
	inner := newCountingLookup(map[int]string{1: "A", 2: "B"})
	cached := NewCachedLookup(inner, 10, testMetrics())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, _ = cached.LookupName(context.Background(), id)
		}(i%2 + 1)
	}
	wg.Wait()

	assert.Equal(t, 2, cached.cache.len())
}

// --- StoredLookup tests ---

func TestStoredLookup_StoreHitSkipsInner(t *testing.T) {
	inner := newCountingLookup(map[int]string{1: "from network"})
	store := &memStore{names: map[int]string{1: "from store"}}
	lookup := NewStoredLookup(inner, store, testMetrics(), testLogger())

	name, err := lookup.LookupName(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "from store", name)
	assert.Zero(t, inner.calls[1])
}

func TestStoredLookup_MissWritesThrough(t *testing.T) {
	inner := newCountingLookup(map[int]string{2: "Esso"})
	store := &memStore{names: map[int]string{}}
	lookup := NewStoredLookup(inner, store, testMetrics(), testLogger())

	name, err := lookup.LookupName(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Esso", name)
	assert.Equal(t, "Esso", store.names[2])

	_, err = lookup.LookupName(context.Background(), 3)
	require.ErrorIs(t, err, domain.ErrNameNotFound)
	assert.Equal(t, 1, store.puts, "failed lookups are not stored")
}

func TestStoredLookup_StoreErrorsDoNotFailLookup(t *testing.T) {
	inner := newCountingLookup(map[int]string{4: "BP"})
	store := &memStore{names: map[int]string{}, getErr: errors.New("disk I/O"), putErr: errors.New("read-only")}
	lookup := NewStoredLookup(inner, store, testMetrics(), testLogger())

	name, err := lookup.LookupName(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "BP", name)
}

// --- LRU cache tests ---

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[int, string](2)

	c.put(1, "a")
	c.put(2, "b")
	c.put(3, "c") // evicts 1

	_, ok := c.get(1)
	assert.False(t, ok, "key 1 should be evicted")
	v, ok := c.get(2)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessRefreshes(t *testing.T) {
	c := newLRUCache[int, string](2)

	c.put(1, "a")
	c.put(2, "b")
	c.get(1)      // 1 is now most recent
	c.put(3, "c") // evicts 2

	_, ok := c.get(2)
	assert.False(t, ok, "key 2 should be evicted")
	_, ok = c.get(1)
	assert.True(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[int, string](2)

	c.put(1, "a")
	c.put(1, "z")

	v, ok := c.get(1)
	assert.True(t, ok)
	assert.Equal(t, "z", v)
	assert.Equal(t, 1, c.len())
}
