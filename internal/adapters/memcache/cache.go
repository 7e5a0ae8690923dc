// Package memcache is an in-process TTL cache for JSON-serializable values.
//
// Lookups never take a lock. Entries are immutable snapshots: Set replaces the
// whole entry and expiry is checked when an entry is read. With a positive
// capacity, the oldest inserted key is evicted once the bound is exceeded.
package memcache

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"

	"travel_booking/internal/adapters/observability"
	"travel_booking/internal/clock"
)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

type Cache struct {
	entries sync.Map // string -> *entry
	clock   clock.Clock
	max     int

	mu    sync.Mutex // guards order and index; writers only
	order *list.List
	index map[string]*list.Element
}

type Option func(*Cache)

// WithClock overrides the clock used for expiry.
func WithClock(c clock.Clock) Option {
	return func(m *Cache) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithMaxEntries bounds the number of keys kept. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(m *Cache) {
		if n > 0 {
			m.max = n
		}
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		clock: clock.NewSystem(),
		order: list.New(),
		index: make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.entries.Load(key)
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	e := v.(*entry)
	if !c.clock.Now().Before(e.expiresAt) {
		observability.ObserveCache("memory", "expired")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.payload, dst)
}

func (c *Cache) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := &entry{payload: b, expiresAt: c.clock.Now().Add(ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Store(key, e)
	if el, ok := c.index[key]; ok {
		c.order.MoveToBack(el)
	} else {
		c.index[key] = c.order.PushBack(key)
	}
	for c.max > 0 && c.order.Len() > c.max {
		oldest := c.order.Front()
		k := oldest.Value.(string)
		c.order.Remove(oldest)
		delete(c.index, k)
		c.entries.Delete(k)
		observability.ObserveCache("memory", "evict")
	}
	observability.ObserveCache("memory", "set")
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.order.Remove(el)
		delete(c.index, key)
	}
	c.entries.Delete(key)
	observability.ObserveCache("memory", "del")
	return nil
}

// Len reports the number of stored keys, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
