package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kestrelhq/sessionvault/kv"
)

type analysisRecord struct {
	MoleID string  `json:"moleId"`
	Risk   float64 `json:"risk"`
	Notes  string  `json:"notes,omitempty"`
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newCacheTest(t *testing.T, capacity int) (*Cache[analysisRecord], *kv.MemoryStore, *fakeClock) {
	t.Helper()
	mem := kv.NewMemoryStore()
	clock := &fakeClock{now: time.Now()}
	c := New[analysisRecord](mem, "ca", capacity)
	c.now = clock.Now
	return c, mem, clock
}

func TestCacheTTLBoundary(t *testing.T) {
	c, _, clock := newCacheTest(t, 0)
	ctx := context.Background()
	ttl := time.Minute

	record := analysisRecord{MoleID: "m-1", Risk: 0.42}
	if err := c.Put(ctx, "m-1", record, Policy{TTL: ttl}); err != nil {
		t.Fatalf("put: %v", err)
	}

	clock.Advance(ttl - time.Second)
	got, ok, err := c.Get(ctx, "m-1")
	if err != nil {
		t.Fatalf("get before deadline: %v", err)
	}
	if !ok || got.Risk != 0.42 {
		t.Fatalf("expected hit before deadline, got %+v (ok=%v)", got, ok)
	}

	clock.Advance(time.Second)
	_, ok, err = c.Get(ctx, "m-1")
	if err != nil {
		t.Fatalf("get at deadline: %v", err)
	}
	if ok {
		t.Fatal("expected miss at exactly t0+ttl")
	}
}

func TestCacheReadThroughFromPersistentTier(t *testing.T) {
	c, mem, clock := newCacheTest(t, 0)
	ctx := context.Background()

	if err := c.Put(ctx, "m-2", analysisRecord{MoleID: "m-2", Risk: 0.9}, Policy{TTL: time.Hour}); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Fresh cache over the same kv simulates a process restart: memory is
	// cold, the persistent tier is warm.
	restarted := New[analysisRecord](mem, "ca", 0)
	restarted.now = clock.Now

	got, ok, err := restarted.Get(ctx, "m-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got.Risk != 0.9 {
		t.Fatalf("expected persistent-tier hit, got %+v (ok=%v)", got, ok)
	}
	if restarted.Len() != 1 {
		t.Fatal("expected memory tier re-warmed after persistent hit")
	}
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	c, _, clock := newCacheTest(t, 2)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := c.Put(ctx, id, analysisRecord{MoleID: id}, Policy{TTL: time.Hour, MemoryOnly: true}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
		clock.Advance(time.Second)
	}

	if c.Len() != 2 {
		t.Fatalf("expected 2 memory entries after eviction, got %d", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatal("expected oldest entry evicted")
	}
	if _, ok, _ := c.Get(ctx, "c"); !ok {
		t.Fatal("expected newest entry retained")
	}
}

func TestCachePersistentTierTrimmedOnWrite(t *testing.T) {
	c, mem, clock := newCacheTest(t, 2)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := c.Put(ctx, id, analysisRecord{MoleID: id}, Policy{TTL: time.Hour}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
		clock.Advance(time.Second)
	}

	keys, err := mem.Keys(ctx, "ca:")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) > 2 {
		t.Fatalf("expected persistent tier trimmed to capacity, got %v", keys)
	}
}

func TestCacheOversizedPayloadStaysMemoryOnly(t *testing.T) {
	c, mem, _ := newCacheTest(t, 0)
	ctx := context.Background()

	big := analysisRecord{MoleID: "m-big", Notes: strings.Repeat("n", 512)}
	if err := c.Put(ctx, "m-big", big, Policy{TTL: time.Hour, MaxPayloadBytes: 64}); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, ok, _ := mem.Get(ctx, "ca:m-big"); ok {
		t.Fatal("oversized payload must not be persisted")
	}
	if _, ok, _ := c.Get(ctx, "m-big"); !ok {
		t.Fatal("oversized payload must still hit from memory")
	}
}

func TestCacheCorruptPersistedEntryEvicted(t *testing.T) {
	c, mem, _ := newCacheTest(t, 0)
	ctx := context.Background()

	if err := mem.Set(ctx, "ca:m-x", "not-json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, ok, err := c.Get(ctx, "m-x"); err != nil || ok {
		t.Fatalf("expected silent miss for corrupt entry, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := mem.Get(ctx, "ca:m-x"); ok {
		t.Fatal("corrupt entry must be evicted, not re-read forever")
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c, mem, _ := newCacheTest(t, 0)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := c.Put(ctx, id, analysisRecord{MoleID: id}, Policy{TTL: time.Hour}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	if err := c.Invalidate(ctx, "a"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatal("invalidated entry must miss")
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if c.Len() != 0 {
		t.Fatal("expected empty memory tier after clear")
	}
	keys, _ := mem.Keys(ctx, "ca:")
	if len(keys) != 0 {
		t.Fatalf("expected empty persistent tier after clear, got %v", keys)
	}
}

func TestCacheOverRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := kv.NewRedisStore(rdb, "sv")
	defer store.Close()

	c := New[analysisRecord](store, "ca", 0)
	ctx := context.Background()

	if err := c.Put(ctx, "m-9", analysisRecord{MoleID: "m-9", Risk: 0.1}, Policy{TTL: time.Hour}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(ctx, "m-9")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got.MoleID != "m-9" {
		t.Fatalf("expected redis-backed hit, got %+v (ok=%v)", got, ok)
	}
}
