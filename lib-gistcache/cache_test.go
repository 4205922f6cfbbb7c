package gistcache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/macrat/gistcache/lib-gistcache"
)

func MakeCache(t testing.TB, ttl time.Duration, maxSize int) *gistcache.Cache[string] {
	t.Helper()

	cache, err := gistcache.NewCache[string](ttl, maxSize, 1*time.Minute, gistcache.NewMetrics("gistcache"))
	if err != nil {
		t.Fatalf("failed to make cache: %s", err)
	}

	return cache
}

func TestNewCache(t *testing.T) {
	tests := []struct {
		ttl      time.Duration
		maxSize  int
		interval time.Duration
		expect   string
	}{
		{0, 10, time.Minute, `cache ttl must be positive but got 0s`},
		{-time.Second, 10, time.Minute, `cache ttl must be positive but got -1s`},
		{time.Minute, 0, time.Minute, `cache max size must be 1 or more but got 0`},
		{time.Minute, -5, time.Minute, `cache max size must be 1 or more but got -5`},
		{time.Minute, 10, 0, `cache cleanup interval must be positive but got 0s`},
		{time.Minute, 10, time.Minute, ""},
	}

	for _, tt := range tests {
		_, err := gistcache.NewCache[string](tt.ttl, tt.maxSize, tt.interval, gistcache.NewMetrics("gistcache"))

		if tt.expect == "" {
			if err != nil {
				t.Errorf("unexpected error: %s", err)
			}
			continue
		}

		if err == nil {
			t.Errorf("expected error but got nil: %v", tt)
		} else if err.Error() != tt.expect {
			t.Errorf(`expected "%s" but got "%s"`, tt.expect, err)
		}
	}
}

func TestEntry_IsExpired(t *testing.T) {
	now := time.Now()
	entry := gistcache.Entry[string]{Value: "hello", Created: now, Expires: now.Add(50 * time.Millisecond)}

	if entry.IsExpired() {
		t.Errorf("entry should not be expired yet: %#v", entry)
	}

	time.Sleep(60 * time.Millisecond)

	if !entry.IsExpired() {
		t.Errorf("entry should be expired: %#v", entry)
	}
}

func TestCache(t *testing.T) {
	cache := MakeCache(t, 100*time.Millisecond, 10)

	if _, ok := cache.Get("a"); ok {
		t.Errorf("expected not found but got entry")
	}

	entry := cache.Set("a", "hello")
	if entry.Value != "hello" {
		t.Errorf(`expected "hello" but got "%s"`, entry.Value)
	}
	if d := entry.Expires.Sub(entry.Created); d != 100*time.Millisecond {
		t.Errorf("unexpected entry lifetime: expected %s but got %s", 100*time.Millisecond, d)
	}

	got, ok := cache.Get("a")
	if !ok {
		t.Fatalf("expected entry but not found")
	}
	if got.Value != "hello" {
		t.Errorf(`expected "hello" but got "%s"`, got.Value)
	}
	if !got.Expires.Equal(entry.Expires) {
		t.Errorf("expected expires %s but got %s", entry.Expires, got.Expires)
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := cache.Get("a"); ok {
		t.Errorf("expected expired entry to be not found")
	}
	if size := cache.Stats().Size; size != 0 {
		t.Errorf("expected expired entry to be deleted on get but size is %d", size)
	}
}

func TestCache_eviction(t *testing.T) {
	cache := MakeCache(t, 10*time.Minute, 3)

	for _, key := range []string{"a", "b", "c"} {
		cache.Set(key, key)
		time.Sleep(5 * time.Millisecond)
	}

	cache.Set("d", "d")

	if _, ok := cache.Get("a"); ok {
		t.Errorf("expected oldest entry to be evicted but still there")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("expected entry %s but not found", key)
		}
	}
	if size := cache.Stats().Size; size != 3 {
		t.Errorf("expected size 3 but got %d", size)
	}

	time.Sleep(5 * time.Millisecond)
	cache.Set("b", "b2")

	if size := cache.Stats().Size; size != 3 {
		t.Errorf("overwrite should not evict: expected size 3 but got %d", size)
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("expected entry %s but not found", key)
		}
	}

	time.Sleep(5 * time.Millisecond)
	cache.Set("e", "e")

	if _, ok := cache.Get("c"); ok {
		t.Errorf("expected oldest entry to be evicted but still there")
	}
	for _, key := range []string{"b", "d", "e"} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("expected entry %s but not found", key)
		}
	}
}

func TestCache_delete(t *testing.T) {
	cache := MakeCache(t, time.Minute, 10)

	cache.Set("a", "hello")

	if !cache.Delete("a") {
		t.Errorf("expected true on deleting present key but got false")
	}
	if cache.Delete("a") {
		t.Errorf("expected false on deleting absent key but got true")
	}
	if _, ok := cache.Get("a"); ok {
		t.Errorf("expected deleted entry to be not found")
	}
}

func TestCache_clear(t *testing.T) {
	cache := MakeCache(t, 300*time.Second, 10)

	cache.Set("a", "hello")
	cache.Set("b", "world")

	stats := cache.Stats()
	expect := gistcache.CacheStats{Size: 2, MaxSize: 10, TTLSeconds: 300}
	if stats != expect {
		t.Errorf("expected %#v but got %#v", expect, stats)
	}

	cache.Clear()

	stats = cache.Stats()
	expect = gistcache.CacheStats{Size: 0, MaxSize: 10, TTLSeconds: 300}
	if stats != expect {
		t.Errorf("expected %#v but got %#v", expect, stats)
	}
}

func TestCache_String(t *testing.T) {
	cache := MakeCache(t, time.Minute, 10)

	if s := cache.String(); s != "Cache[0/10 entries]" {
		t.Errorf(`expected "Cache[0/10 entries]" but got "%s"`, s)
	}

	cache.Set("a", "hello")

	if s := cache.String(); s != "Cache[1/10 entries]" {
		t.Errorf(`expected "Cache[1/10 entries]" but got "%s"`, s)
	}
}

func TestCache_concurrent(t *testing.T) {
	cache := MakeCache(t, time.Minute, 1000)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(i int) {
			for j := 0; j < 100; j++ {
				cache.Set(fmt.Sprintf("key-%d-%d", i, j), "value")
			}
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if size := cache.Stats().Size; size != 1000 {
		t.Errorf("expected size 1000 but got %d", size)
	}
	for i := 0; i < 10; i++ {
		if _, ok := cache.Get(fmt.Sprintf("key-%d-0", i)); !ok {
			t.Errorf("expected entry key-%d-0 but not found", i)
		}
	}
}

func TestCache_StartStop(t *testing.T) {
	cache, err := gistcache.NewCache[string](20*time.Millisecond, 10, 20*time.Millisecond, gistcache.NewMetrics("gistcache"))
	if err != nil {
		t.Fatalf("failed to make cache: %s", err)
	}

	cache.Stop() // Stop before Start is safe

	for i := 0; i < 10; i++ {
		cache.Start()
		cache.Start()

		cache.Stop()
		cache.Stop()
	}

	cache.Start()

	cache.Set("a", "hello")
	time.Sleep(200 * time.Millisecond)

	if size := cache.Stats().Size; size != 0 {
		t.Errorf("expected cleanup task to sweep expired entry but size is %d", size)
	}

	cache.Stop()

	cache.Set("b", "world")
	time.Sleep(200 * time.Millisecond)

	if size := cache.Stats().Size; size != 1 {
		t.Errorf("expected no cleanup after stop but size is %d", size)
	}
}
