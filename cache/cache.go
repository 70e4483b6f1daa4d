package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/kestrelhq/sessionvault/kv"
)

// Policy controls how a single Put is cached.
type Policy struct {
	// TTL after which the entry is a miss. Zero falls back to DefaultTTL.
	TTL time.Duration
	// MemoryOnly skips the persistent tier.
	MemoryOnly bool
	// MaxPayloadBytes caps what gets persisted; larger payloads stay
	// memory-only. Zero falls back to DefaultMaxPayloadBytes.
	MaxPayloadBytes int
}

const (
	// DefaultTTL applies when a Policy carries no TTL.
	DefaultTTL = 10 * time.Minute
	// DefaultMaxPayloadBytes applies when a Policy carries no payload cap.
	DefaultMaxPayloadBytes = 64 * 1024
	// DefaultCapacity bounds the memory map and the persistent tier.
	DefaultCapacity = 256
)

type memoryEntry[T any] struct {
	value    T
	storedAt time.Time
	ttl      time.Duration
}

type persistedEnvelope struct {
	StoredAt int64           `json:"storedAt"`
	TTL      int64           `json:"ttl"`
	Payload  json.RawMessage `json:"payload"`
}

// Cache is a read-through memory+persistent cache for values of one record
// type. Independent record types get independent caches sharing one kv
// namespace prefix each.
type Cache[T any] struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry[T]
	kv       kv.Store
	prefix   string
	capacity int
	now      func() time.Time
}

// New creates a cache persisting under the given kv key prefix. capacity <= 0
// uses DefaultCapacity. store may be nil for a memory-only cache.
func New[T any](store kv.Store, prefix string, capacity int) *Cache[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[T]{
		entries:  make(map[string]memoryEntry[T]),
		kv:       store,
		prefix:   prefix,
		capacity: capacity,
		now:      time.Now,
	}
}

func (c *Cache[T]) key(id string) string {
	return c.prefix + ":" + id
}

func normalize(p Policy) Policy {
	if p.TTL <= 0 {
		p.TTL = DefaultTTL
	}
	if p.MaxPayloadBytes <= 0 {
		p.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	return p
}

// Put caches value under id.
func (c *Cache[T]) Put(ctx context.Context, id string, value T, p Policy) error {
	p = normalize(p)
	now := c.now()

	c.mu.Lock()
	c.entries[id] = memoryEntry[T]{value: value, storedAt: now, ttl: p.TTL}
	c.evictOverCapacityLocked()
	c.mu.Unlock()

	if c.kv == nil || p.MemoryOnly {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if len(payload) > p.MaxPayloadBytes {
		return nil
	}

	envelope, err := json.Marshal(persistedEnvelope{
		StoredAt: now.UnixMilli(),
		TTL:      p.TTL.Milliseconds(),
		Payload:  payload,
	})
	if err != nil {
		return err
	}

	if err := c.kv.Set(ctx, c.key(id), string(envelope)); err != nil {
		return err
	}

	c.trimPersistent(ctx)
	return nil
}

// Get returns the cached value for id, falling through memory to the
// persistent tier. Expired entries read as misses and are evicted.
func (c *Cache[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.entries[id]; ok {
		if now.Sub(entry.storedAt) < entry.ttl {
			c.mu.Unlock()
			return entry.value, true, nil
		}
		delete(c.entries, id)
	}
	c.mu.Unlock()

	if c.kv == nil {
		return zero, false, nil
	}

	raw, ok, err := c.kv.Get(ctx, c.key(id))
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}

	var envelope persistedEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		// Corrupt persisted entry: evict rather than loop on it.
		_ = c.kv.Delete(ctx, c.key(id))
		return zero, false, nil
	}

	storedAt := time.UnixMilli(envelope.StoredAt)
	ttl := time.Duration(envelope.TTL) * time.Millisecond
	if now.Sub(storedAt) >= ttl {
		_ = c.kv.Delete(ctx, c.key(id))
		return zero, false, nil
	}

	var value T
	if err := json.Unmarshal(envelope.Payload, &value); err != nil {
		_ = c.kv.Delete(ctx, c.key(id))
		return zero, false, nil
	}

	// Re-warm the memory tier with the remaining lifetime.
	c.mu.Lock()
	c.entries[id] = memoryEntry[T]{value: value, storedAt: storedAt, ttl: ttl}
	c.evictOverCapacityLocked()
	c.mu.Unlock()

	return value, true, nil
}

// Invalidate drops id from both tiers. Idempotent.
func (c *Cache[T]) Invalidate(ctx context.Context, id string) error {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()

	if c.kv == nil {
		return nil
	}
	return c.kv.Delete(ctx, c.key(id))
}

// Clear drops every entry in both tiers.
func (c *Cache[T]) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry[T])
	c.mu.Unlock()

	if c.kv == nil {
		return nil
	}
	keys, err := c.kv.Keys(ctx, c.prefix+":")
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := c.kv.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of live memory entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[T]) evictOverCapacityLocked() {
	for len(c.entries) > c.capacity {
		oldestID := ""
		var oldestAt time.Time
		for id, entry := range c.entries {
			if oldestID == "" || entry.storedAt.Before(oldestAt) {
				oldestID = id
				oldestAt = entry.storedAt
			}
		}
		delete(c.entries, oldestID)
	}
}

// trimPersistent removes expired persisted entries and, past capacity, the
// oldest live ones. Runs on the write path; the namespace is small by
// construction (capacity-bound), so the scan stays cheap.
func (c *Cache[T]) trimPersistent(ctx context.Context) {
	keys, err := c.kv.Keys(ctx, c.prefix+":")
	if err != nil {
		return
	}

	type aged struct {
		key      string
		storedAt int64
	}
	now := c.now()
	var live []aged

	for _, k := range keys {
		raw, ok, err := c.kv.Get(ctx, k)
		if err != nil || !ok {
			continue
		}
		var envelope persistedEnvelope
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			_ = c.kv.Delete(ctx, k)
			continue
		}
		if now.Sub(time.UnixMilli(envelope.StoredAt)) >= time.Duration(envelope.TTL)*time.Millisecond {
			_ = c.kv.Delete(ctx, k)
			continue
		}
		live = append(live, aged{key: k, storedAt: envelope.StoredAt})
	}

	if len(live) <= c.capacity {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].storedAt < live[j].storedAt })
	for _, entry := range live[:len(live)-c.capacity] {
		_ = c.kv.Delete(ctx, entry.key)
	}
}
