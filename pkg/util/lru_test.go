package util

import (
	"testing"
	"time"
)

func TestLRUCache_PutGet(t *testing.T) {
	cache, err := NewWithConfig(CacheConfig[string, int]{Capacity: 2})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	cache.Put("a", 1)
	cache.Put("b", 2)

	if v, ok := cache.Get("a"); !ok || v != 1 {
		t.Errorf("expected a=1, got %d (ok=%v)", v, ok)
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache, _ := NewWithConfig(CacheConfig[string, int]{Capacity: 2})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Get("a") // a is now the most recently used
	cache.Put("c", 3)

	if _, ok := cache.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := cache.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
	if cache.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", cache.Len())
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	cache, _ := NewWithConfig(CacheConfig[string, int]{Capacity: 4, TTL: 10 * time.Millisecond})

	cache.Put("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("a"); ok {
		t.Error("expected the entry to expire")
	}
}

func TestLRUCache_RequiresPositiveCapacity(t *testing.T) {
	if _, err := NewWithConfig(CacheConfig[string, int]{Capacity: 0}); err == nil {
		t.Error("expected an error for zero capacity")
	}
}
